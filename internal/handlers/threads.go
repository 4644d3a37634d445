package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/artfolio/backend/internal/database"
	apierrors "github.com/artfolio/backend/internal/errors"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a thread name into its URL slug
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ListThreads returns all threads, busiest first
// GET /api/v1/threads
func (h *Handlers) ListThreads(c *gin.Context) {
	var threads []models.Thread
	if err := database.DB.
		Order("work_count DESC, name ASC").
		Find(&threads).Error; err != nil {
		util.RespondInternalError(c, "Failed to list threads")
		return
	}

	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// GetThread returns one thread by slug with a page of its works
// GET /api/v1/threads/:slug
func (h *Handlers) GetThread(c *gin.Context) {
	slug := c.Param("slug")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var thread models.Thread
	err := database.DB.First(&thread, "slug = ?", slug).Error
	if util.HandleDBError(c, err, "thread") {
		return
	}

	var works []models.Work
	err = database.DB.
		Preload("Author").
		Joins("JOIN work_threads ON work_threads.work_id = works.id").
		Where("work_threads.thread_id = ? AND works.is_published = true", thread.ID).
		Order("works.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&works).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load thread works")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"thread": thread,
		"works":  works,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// CreateThread creates a new topic community
// POST /api/v1/threads
func (h *Handlers) CreateThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=60"`
		Description string `json:"description,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	slug := slugify(req.Name)
	if slug == "" {
		util.RespondValidationError(c, "name", "name must contain letters or digits")
		return
	}

	var existing models.Thread
	if err := database.DB.First(&existing, "slug = ?", slug).Error; err == nil {
		util.RespondWithAPIError(c, apierrors.AlreadyExists("thread"))
		return
	}

	thread := models.Thread{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		CreatedBy:   &userID,
	}
	if err := database.DB.Create(&thread).Error; err != nil {
		logger.ErrorWithFields("Failed to create thread", err)
		util.RespondInternalError(c, "Failed to create thread")
		return
	}

	logger.Log.Info("✅ Thread created", logger.WithThreadID(thread.ID), logger.WithUserID(userID))

	c.JSON(http.StatusCreated, gin.H{"thread": thread})
}
