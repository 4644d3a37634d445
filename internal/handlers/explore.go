package handlers

import (
	"net/http"
	"time"

	"github.com/artfolio/backend/internal/cache"
	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/search"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// explorePage is the cached shape of one explore feed page
type explorePage struct {
	Works      []models.Work `json:"works"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Explore returns the public feed of recent works, newest first, with
// cursor pagination. Optionally filtered to one thread.
// GET /api/v1/explore?thread=&cursor=&limit=
func (h *Handlers) Explore(c *gin.Context) {
	threadSlug := c.Query("thread")
	cursor := c.Query("cursor")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := cache.ExploreFeedKey(threadSlug, cursor, limit)
	var page explorePage
	if h.redis != nil && h.redis.GetExploreFeed(c.Request.Context(), cacheKey, &page) {
		c.JSON(http.StatusOK, page)
		return
	}

	query := database.DB.
		Preload("Author").
		Preload("Threads").
		Where("works.is_published = true").
		Order("works.created_at DESC").
		Limit(limit + 1)

	if threadSlug != "" {
		var thread models.Thread
		if err := database.DB.First(&thread, "slug = ?", threadSlug).Error; err != nil {
			util.RespondNotFound(c, "thread")
			return
		}
		query = query.
			Joins("JOIN work_threads ON work_threads.work_id = works.id").
			Where("work_threads.thread_id = ?", thread.ID)
	}

	if cursor != "" {
		cursorTime, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			util.RespondValidationError(c, "cursor", "cursor must be an RFC3339 timestamp")
			return
		}
		query = query.Where("works.created_at < ?", cursorTime)
	}

	var works []models.Work
	if err := query.Find(&works).Error; err != nil {
		util.RespondInternalError(c, "Failed to load explore feed")
		return
	}

	// One extra row tells us whether another page exists
	page = explorePage{Works: works}
	if len(works) > limit {
		page.Works = works[:limit]
		page.NextCursor = works[limit-1].CreatedAt.Format(time.RFC3339Nano)
	}

	if h.redis != nil {
		if err := h.redis.SetExploreFeed(c.Request.Context(), cacheKey, page); err != nil {
			logger.WarnWithFields("Failed to cache explore page", err)
		}
	}

	c.JSON(http.StatusOK, page)
}

// SearchWorks performs full-text search over published works
// GET /api/v1/search/works?q=&thread=&type=&limit=&offset=
func (h *Handlers) SearchWorks(c *gin.Context) {
	if h.search == nil {
		util.RespondServiceUnavailable(c, "search")
		return
	}

	query := c.Query("q")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	params := search.SearchWorksParams{
		Query:    query,
		WorkType: c.Query("type"),
		Limit:    limit,
		Offset:   offset,
	}
	if thread := c.Query("thread"); thread != "" {
		params.Threads = []string{thread}
	}

	result, err := h.search.SearchWorks(c.Request.Context(), params)
	if err != nil {
		logger.ErrorWithFields("Work search failed", err)
		util.RespondServiceUnavailable(c, "search")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"works": result.Works,
		"meta": gin.H{
			"total":  result.Total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// SearchArtists performs full-text search over artist profiles
// GET /api/v1/search/artists?q=&limit=&offset=
func (h *Handlers) SearchArtists(c *gin.Context) {
	if h.search == nil {
		util.RespondServiceUnavailable(c, "search")
		return
	}

	query := c.Query("q")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	result, err := h.search.SearchUsers(c.Request.Context(), query, limit, offset)
	if err != nil {
		logger.ErrorWithFields("Artist search failed", err)
		util.RespondServiceUnavailable(c, "search")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"artists": result.Users,
		"meta": gin.H{
			"total":  result.Total,
			"limit":  limit,
			"offset": offset,
		},
	})
}
