package handlers

import (
	"context"
	"errors"

	"github.com/artfolio/backend/internal/cache"
	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/detection"
	"github.com/artfolio/backend/internal/email"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/search"
	"github.com/artfolio/backend/internal/storage"
	"go.uber.org/zap"
)

// ContentGate is the detection surface handlers depend on. Tests swap in
// a stub so no provider calls happen.
type ContentGate interface {
	Check(ctx context.Context, sub detection.Submission) (*detection.Verdict, error)
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	gate    ContentGate
	storage storage.ImageStore
	search  *search.Client
	redis   *cache.RedisClient
	email   *email.EmailService
}

// NewHandlers creates a new handlers instance
func NewHandlers(gate ContentGate, store storage.ImageStore) *Handlers {
	return &Handlers{
		gate:    gate,
		storage: store,
	}
}

// SetSearchClient sets the Elasticsearch search client
func (h *Handlers) SetSearchClient(searchClient *search.Client) {
	h.search = searchClient
}

// SetRedisClient sets the Redis cache client
func (h *Handlers) SetRedisClient(redis *cache.RedisClient) {
	h.redis = redis
}

// SetEmailService sets the SES email service
func (h *Handlers) SetEmailService(emailService *email.EmailService) {
	h.email = emailService
}

// recordDetectionEvents persists audit rows for noteworthy gate outcomes:
// rejections, degraded passes and provider failures. Clean passes are not
// recorded, they would dwarf everything else.
func (h *Handlers) recordDetectionEvents(userID string, verdict *detection.Verdict, checkErr error) {
	var events []models.DetectionEvent

	if checkErr != nil {
		var svcErr *detection.ServiceError
		if errors.As(checkErr, &svcErr) {
			events = append(events, models.DetectionEvent{
				UserID:   userID,
				Outcome:  "service_error",
				Provider: svcErr.Provider,
				Warning:  svcErr.Error(),
			})
		}
	} else if verdict != nil {
		for _, r := range verdict.Results {
			switch {
			case !r.Passed:
				events = append(events, models.DetectionEvent{
					UserID:   userID,
					Modality: string(r.Modality),
					Outcome:  "rejected",
					Provider: r.Provider,
					Score:    r.Score,
				})
			case r.Degraded():
				events = append(events, models.DetectionEvent{
					UserID:   userID,
					Modality: string(r.Modality),
					Outcome:  "degraded",
					Provider: r.Provider,
					Score:    r.Score,
					Warning:  r.Warning,
				})
			}
		}
	}

	for i := range events {
		if err := database.DB.Create(&events[i]).Error; err != nil {
			logger.Log.Warn("failed to record detection event",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
}

// reindexWork pushes the current state of a work into Elasticsearch.
// Best-effort: search lag is tolerable, a failed sync only logs.
func (h *Handlers) reindexWork(ctx context.Context, workID string) {
	if h.search == nil {
		return
	}

	var work models.Work
	if err := database.DB.Preload("Author").Preload("Threads").First(&work, "id = ?", workID).Error; err != nil {
		return
	}

	if err := h.search.IndexWork(ctx, work.ID, search.NewWorkSearchDoc(&work)); err != nil {
		logger.WarnWithFields("Failed to sync work to search index", err)
	}
}

// invalidateExplore drops cached explore pages after feed-visible changes
func (h *Handlers) invalidateExplore(ctx context.Context) {
	if h.redis == nil {
		return
	}
	if err := h.redis.InvalidateExploreFeed(ctx); err != nil {
		logger.WarnWithFields("Failed to invalidate explore cache", err)
	}
}
