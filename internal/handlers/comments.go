package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateComment creates a new comment on a work
// POST /api/v1/works/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	workID := c.Param("id")
	actor, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	userID := actor.ID

	var req struct {
		Content  string  `json:"content" binding:"required,min=1,max=2000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var work models.Work
	if err := database.DB.First(&work, "id = ?", workID).Error; err != nil {
		util.RespondNotFound(c, "work")
		return
	}

	// If replying, verify the parent exists and belongs to the same work
	if req.ParentID != nil && *req.ParentID != "" {
		var parentComment models.Comment
		if err := database.DB.First(&parentComment, "id = ? AND work_id = ?", *req.ParentID, workID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "Parent comment not found")
			return
		}
		// Only one level of nesting - replies to replies attach to the root
		if parentComment.ParentID != nil {
			req.ParentID = parentComment.ParentID
		}
	}

	comment := models.Comment{
		WorkID:   workID,
		UserID:   userID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}

	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&work).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for work "+workID, err)
	}

	// Keep the search index's engagement counters fresh
	go h.reindexWork(context.Background(), workID)

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to load comment with user for work "+workID, err)
	}

	// Mentions notify the named users; the work owner gets a comment or
	// reply notification unless they wrote it themselves
	mentioned := h.notifyMentions(comment, work)
	h.notifyWorkOwner(comment, work, *actor, mentioned)

	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
	})
}

// GetComments retrieves comments for a work with pagination
// GET /api/v1/works/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	workID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}
	parentID := c.Query("parent_id") // Optional: get replies to a specific comment

	var work models.Work
	if err := database.DB.First(&work, "id = ?", workID).Error; err != nil {
		util.RespondNotFound(c, "work")
		return
	}

	var comments []models.Comment
	query := database.DB.
		Preload("User").
		Where("work_id = ? AND is_deleted = false", workID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if parentID != "" {
		query = query.Where("parent_id = ?", parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	if err := query.Find(&comments).Error; err != nil {
		util.RespondInternalError(c, "Failed to get comments")
		return
	}

	var total int64
	countQuery := database.DB.Model(&models.Comment{}).Where("work_id = ? AND is_deleted = false", workID)
	if parentID != "" {
		countQuery = countQuery.Where("parent_id = ?", parentID)
	} else {
		countQuery = countQuery.Where("parent_id IS NULL")
	}
	if err := countQuery.Count(&total).Error; err != nil {
		logger.WarnWithFields("Failed to count comments for work "+workID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// UpdateComment updates a comment (only within 5 minutes of creation)
// PUT /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.UserID != userID {
		util.RespondForbidden(c, "You do not own this comment")
		return
	}

	if comment.IsDeleted {
		util.RespondValidationError(c, "comment", "Comment has been deleted")
		return
	}

	editWindow := 5 * time.Minute
	if time.Since(comment.CreatedAt) > editWindow {
		util.RespondForbidden(c, "Comments can only be edited within 5 minutes of creation")
		return
	}

	now := time.Now()
	comment.Content = req.Content
	comment.IsEdited = true
	comment.EditedAt = &now

	if err := database.DB.Save(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to update comment")
		return
	}

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload comment with user for ID "+comment.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": comment,
	})
}

// DeleteComment soft-deletes a comment, keeping the row for threading
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.UserID != userID {
		util.RespondForbidden(c, "You do not own this comment")
		return
	}

	comment.IsDeleted = true
	comment.Content = "[Comment deleted]"

	if err := database.DB.Save(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Work{}).Where("id = ?", comment.WorkID).
		UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count > 0 THEN comment_count - 1 ELSE 0 END")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count for work "+comment.WorkID, err)
	}

	go h.reindexWork(context.Background(), comment.WorkID)

	c.JSON(http.StatusOK, gin.H{
		"message": "comment_deleted",
	})
}

// notifyMentions creates notifications for @mentioned users. Returns the
// set of notified user IDs so the owner notification can skip them.
func (h *Handlers) notifyMentions(comment models.Comment, work models.Work) map[string]bool {
	notified := make(map[string]bool)

	for _, username := range util.ExtractMentions(comment.Content) {
		var user models.User
		if err := database.DB.Where("LOWER(username) = ?", username).First(&user).Error; err != nil {
			continue // User doesn't exist, skip
		}
		if user.ID == comment.UserID {
			continue
		}

		notification := models.Notification{
			UserID:    user.ID,
			Kind:      models.NotificationComment,
			ActorID:   comment.UserID,
			WorkID:    &work.ID,
			CommentID: &comment.ID,
			Message:   "mentioned you in a comment on \"" + work.Title + "\"",
		}
		if err := database.DB.Create(&notification).Error; err != nil {
			logger.WarnWithFields("Failed to create mention notification", err)
			continue
		}
		notified[user.ID] = true
	}

	return notified
}

// notifyWorkOwner notifies the work's author of a new comment or reply
func (h *Handlers) notifyWorkOwner(comment models.Comment, work models.Work, actor models.User, alreadyNotified map[string]bool) {
	if work.AuthorID == comment.UserID || alreadyNotified[work.AuthorID] {
		return
	}

	kind := models.NotificationComment
	message := "commented on \"" + work.Title + "\""
	if comment.ParentID != nil {
		kind = models.NotificationReply
		message = "replied to a comment on \"" + work.Title + "\""
	}

	notification := models.Notification{
		UserID:    work.AuthorID,
		Kind:      kind,
		ActorID:   comment.UserID,
		WorkID:    &work.ID,
		CommentID: &comment.ID,
		Message:   message,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		logger.WarnWithFields("Failed to create comment notification", err)
		return
	}

	// Email fan-out is best-effort and respects the recipient's settings
	if h.email != nil {
		go func() {
			var owner models.User
			if err := database.DB.First(&owner, "id = ?", work.AuthorID).Error; err != nil {
				return
			}
			if !owner.EmailNotifications {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.email.SendCommentNotification(ctx, owner.Email, actor.DisplayName, work.Title, work.ID); err != nil {
				logger.WarnWithFields("Failed to send comment email", err)
			}
		}()
	}
}
