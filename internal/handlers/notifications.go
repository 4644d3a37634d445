package handlers

import (
	"net/http"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetNotifications returns the user's notification feed, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	if err := database.DB.
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error; err != nil {
		util.RespondInternalError(c, "Failed to load notifications")
		return
	}

	var total int64
	database.DB.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetNotificationCounts returns unseen and unread totals for badges
// GET /api/v1/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var unseen, unread int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_seen = false", userID).
		Count(&unseen).Error; err != nil {
		util.RespondInternalError(c, "Failed to count notifications")
		return
	}
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&unread).Error; err != nil {
		util.RespondInternalError(c, "Failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unseen": unseen,
		"unread": unread,
	})
}

// MarkNotificationsSeen clears the badge without marking entries read
// POST /api/v1/notifications/seen
func (h *Handlers) MarkNotificationsSeen(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_seen = false", userID).
		UpdateColumn("is_seen", true).Error; err != nil {
		util.RespondInternalError(c, "Failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notifications_seen"})
}

// MarkNotificationRead marks a single notification as read
// POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	notificationID := c.Param("id")

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		UpdateColumns(map[string]interface{}{"is_read": true, "is_seen": true})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to update notification")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification_read"})
}

// MarkAllNotificationsRead marks every notification read and seen
// POST /api/v1/notifications/read
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		UpdateColumns(map[string]interface{}{"is_read": true, "is_seen": true}).Error; err != nil {
		util.RespondInternalError(c, "Failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notifications_read"})
}
