package search

import (
	"context"
	"sync"
	"time"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"go.uber.org/zap"
)

// ReconciliationService periodically resynchronizes engagement counters
// between PostgreSQL and Elasticsearch to catch any missed syncs
type ReconciliationService struct {
	client    *Client
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(client *Client, interval time.Duration) *ReconciliationService {
	return &ReconciliationService{
		client:   client,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic reconciliation loop
func (rs *ReconciliationService) Start() {
	rs.mu.Lock()
	if rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = true
	rs.mu.Unlock()

	logger.Log.Info("Starting Elasticsearch reconciliation service",
		zap.Duration("interval", rs.interval),
	)

	rs.wg.Add(1)
	go rs.reconciliationLoop()
}

// Stop gracefully stops the reconciliation service
func (rs *ReconciliationService) Stop() {
	rs.mu.Lock()
	if !rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = false
	rs.mu.Unlock()

	close(rs.stopChan)
	rs.wg.Wait()
	logger.Log.Info("Elasticsearch reconciliation service stopped")
}

// reconciliationLoop runs the periodic reconciliation checks
func (rs *ReconciliationService) reconciliationLoop() {
	defer rs.wg.Done()

	// Run once immediately on startup
	rs.performReconciliation()

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.stopChan:
			return
		case <-ticker.C:
			rs.performReconciliation()
		}
	}
}

// performReconciliation resyncs a random sample of works so engagement
// counters in the index drift back toward the database values
func (rs *ReconciliationService) performReconciliation() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startTime := time.Now()
	logger.Log.Info("Starting Elasticsearch reconciliation check")

	resynced := rs.reconcileWorkEngagement(ctx)
	userResynced := rs.reconcileUsers(ctx)

	logger.Log.Info("Elasticsearch reconciliation completed",
		zap.Int("works_resync", resynced),
		zap.Int("users_resync", userResynced),
		zap.Duration("duration", time.Since(startTime)),
	)
}

// reconcileWorkEngagement reindexes a sample of works so like and comment
// counts stay in sync. Limited to 100 rows per pass to avoid overload.
func (rs *ReconciliationService) reconcileWorkEngagement(ctx context.Context) int {
	if rs.client == nil {
		return 0
	}

	var works []models.Work
	if err := database.DB.
		Preload("Author").
		Preload("Threads").
		Where("is_published = true AND deleted_at IS NULL").
		Order("RANDOM()").
		Limit(100).
		Find(&works).Error; err != nil {
		logger.Log.Warn("Failed to query works for reconciliation",
			zap.Error(err),
		)
		return 0
	}

	if len(works) == 0 {
		return 0
	}

	resyncedCount := 0
	for i := range works {
		doc := NewWorkSearchDoc(&works[i])
		if err := rs.client.IndexWork(ctx, works[i].ID, doc); err != nil {
			logger.Log.Warn("Failed to reconcile work",
				zap.String("work_id", works[i].ID),
				zap.Error(err),
			)
		} else {
			resyncedCount++
		}
	}

	return resyncedCount
}

// reconcileUsers reindexes a sample of artist profiles so renames and bio
// edits reach the index without per-write sync hooks.
func (rs *ReconciliationService) reconcileUsers(ctx context.Context) int {
	if rs.client == nil {
		return 0
	}

	var users []models.User
	if err := database.DB.
		Where("deleted_at IS NULL").
		Order("RANDOM()").
		Limit(100).
		Find(&users).Error; err != nil {
		logger.Log.Warn("Failed to query users for reconciliation",
			zap.Error(err),
		)
		return 0
	}

	resyncedCount := 0
	for i := range users {
		doc := NewUserSearchDoc(&users[i])
		if err := rs.client.IndexUser(ctx, users[i].ID, doc); err != nil {
			logger.Log.Warn("Failed to reconcile user",
				zap.String("user_id", users[i].ID),
				zap.Error(err),
			)
		} else {
			resyncedCount++
		}
	}

	return resyncedCount
}

// ReindexAllWorks walks every published work in batches and reindexes it.
// Used by the admin CLI after mapping changes or index loss.
func (rs *ReconciliationService) ReindexAllWorks(ctx context.Context) (int, error) {
	const batchSize = 200

	indexed := 0
	offset := 0
	for {
		var works []models.Work
		if err := database.DB.
			Preload("Author").
			Preload("Threads").
			Where("is_published = true AND deleted_at IS NULL").
			Order("created_at ASC").
			Offset(offset).
			Limit(batchSize).
			Find(&works).Error; err != nil {
			return indexed, err
		}
		if len(works) == 0 {
			return indexed, nil
		}

		for i := range works {
			doc := NewWorkSearchDoc(&works[i])
			if err := rs.client.IndexWork(ctx, works[i].ID, doc); err != nil {
				logger.Log.Warn("Failed to reindex work",
					zap.String("work_id", works[i].ID),
					zap.Error(err),
				)
				continue
			}
			indexed++
		}

		offset += batchSize
	}
}

// ReindexAllUsers walks every user in batches and reindexes their profile.
func (rs *ReconciliationService) ReindexAllUsers(ctx context.Context) (int, error) {
	const batchSize = 200

	indexed := 0
	offset := 0
	for {
		var users []models.User
		if err := database.DB.
			Where("deleted_at IS NULL").
			Order("created_at ASC").
			Offset(offset).
			Limit(batchSize).
			Find(&users).Error; err != nil {
			return indexed, err
		}
		if len(users) == 0 {
			return indexed, nil
		}

		for i := range users {
			doc := NewUserSearchDoc(&users[i])
			if err := rs.client.IndexUser(ctx, users[i].ID, doc); err != nil {
				logger.Log.Warn("Failed to reindex user",
					zap.String("user_id", users[i].ID),
					zap.Error(err),
				)
				continue
			}
			indexed++
		}

		offset += batchSize
	}
}
