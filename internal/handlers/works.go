package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/detection"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateWork publishes a new work. The submission runs through the AI
// detection gate first; nothing is stored unless every attempted modality
// passes. Accepts multipart form data:
//
//	title        required
//	work_type    image | essay | text_post (default image)
//	description  optional
//	content      essay body (required for essay and text_post)
//	threads      comma-separated thread slugs
//	image        file upload (required for image works, optional cover for essays)
//
// POST /api/v1/works
func (h *Handlers) CreateWork(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		util.RespondValidationError(c, "title", "title is required")
		return
	}

	workType := models.WorkType(c.DefaultPostForm("work_type", string(models.WorkTypeImage)))
	switch workType {
	case models.WorkTypeImage, models.WorkTypeEssay, models.WorkTypeTextPost:
	default:
		util.RespondValidationError(c, "work_type", "work_type must be image, essay or text_post")
		return
	}

	description := c.PostForm("description")
	content := c.PostForm("content")

	var imageBytes []byte
	var imageFilename, imageMIME string
	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		imageBytes, imageFilename, imageMIME, ok = readImageUpload(c)
		if !ok {
			return
		}
	}

	// Shape checks before the gate so a malformed submission never costs a
	// provider call
	if workType == models.WorkTypeImage && len(imageBytes) == 0 {
		util.RespondValidationError(c, "image", "image works require an image file")
		return
	}
	if (workType == models.WorkTypeEssay || workType == models.WorkTypeTextPost) && content == "" {
		util.RespondValidationError(c, "content", "essay works require body text")
		return
	}

	// Text posts are casual updates, not portfolio pieces; only essays are
	// gated on their body text
	gateText := ""
	if workType == models.WorkTypeEssay {
		gateText = content
	}

	verdict, err := h.gate.Check(c.Request.Context(), detection.Submission{
		ImageBytes:    imageBytes,
		ImageFilename: imageFilename,
		ImageMIME:     imageMIME,
		Text:          gateText,
	})
	h.recordDetectionEvents(userID, verdict, err)
	if err != nil {
		respondDetectionError(c, err)
		return
	}
	if !verdict.Accepted {
		util.RespondContentRejected(c, verdict.Message)
		return
	}

	// Passed the gate; upload the image, then persist
	var imagePath, imageURL string
	if len(imageBytes) > 0 {
		upload, err := h.storage.UploadImage(c.Request.Context(), imageBytes, userID,
			extensionFor(imageFilename, imageMIME), imageMIME)
		if err != nil {
			logger.ErrorWithFields("Failed to upload work image", err)
			util.RespondInternalError(c, "Failed to store image")
			return
		}
		imagePath = upload.Key
		imageURL = upload.URL
	}

	work := models.Work{
		AuthorID:    userID,
		Title:       title,
		WorkType:    workType,
		Description: description,
		Content:     content,
		ImagePath:   imagePath,
		ImageURL:    imageURL,
		IsPublished: true,
	}

	threads, err := h.resolveThreads(c.PostForm("threads"))
	if err != nil {
		h.cleanupUpload(c.Request.Context(), imagePath)
		util.RespondValidationError(c, "threads", err.Error())
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&work).Error; err != nil {
			return err
		}
		if len(threads) > 0 {
			if err := tx.Model(&work).Association("Threads").Append(threads); err != nil {
				return err
			}
			work.PrimaryThreadID = &threads[0].ID
			if err := tx.Model(&work).Update("primary_thread_id", threads[0].ID).Error; err != nil {
				return err
			}
			for _, t := range threads {
				if err := tx.Model(&models.Thread{}).Where("id = ?", t.ID).
					UpdateColumn("work_count", gorm.Expr("work_count + 1")).Error; err != nil {
					return err
				}
			}
		}
		if imagePath != "" {
			version := models.WorkVersion{
				WorkID:        work.ID,
				VersionNumber: 1,
				ImagePath:     imagePath,
				ImageURL:      imageURL,
			}
			if err := tx.Create(&version).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("work_count", gorm.Expr("work_count + 1")).Error
	})
	if err != nil {
		// The row never landed; don't leak the uploaded object
		h.cleanupUpload(c.Request.Context(), imagePath)
		logger.ErrorWithFields("Failed to create work", err)
		util.RespondInternalError(c, "Failed to create work")
		return
	}

	logger.Log.Info("✅ Work published", logger.WithWorkID(work.ID), logger.WithUserID(userID))

	go h.reindexWork(context.Background(), work.ID)
	h.invalidateExplore(c.Request.Context())

	if err := database.DB.Preload("Author").Preload("Threads").First(&work, "id = ?", work.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload work "+work.ID, err)
	}

	response := gin.H{"work": work}
	if warnings := degradedWarnings(verdict); len(warnings) > 0 {
		response["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, response)
}

// GetWork retrieves a single work with its author, threads and versions
// GET /api/v1/works/:id
func (h *Handlers) GetWork(c *gin.Context) {
	workID := c.Param("id")

	var work models.Work
	err := database.DB.
		Preload("Author").
		Preload("Threads").
		First(&work, "id = ?", workID).Error
	if util.HandleDBError(c, err, "work") {
		return
	}

	if !work.IsPublished {
		userID, _ := c.Get("user_id")
		if userID != work.AuthorID {
			util.RespondNotFound(c, "work")
			return
		}
	}

	var versions []models.WorkVersion
	if err := database.DB.
		Where("work_id = ?", workID).
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		logger.WarnWithFields("Failed to load versions for work "+workID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"work":     work,
		"versions": versions,
	})
}

// ListUserWorks lists a user's published works, newest first
// GET /api/v1/users/:id/works
func (h *Handlers) ListUserWorks(c *gin.Context) {
	targetID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var works []models.Work
	err := database.DB.
		Preload("Author").
		Preload("Threads").
		Where("author_id = ? AND is_published = true", targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&works).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to list works")
		return
	}

	var total int64
	if err := database.DB.Model(&models.Work{}).
		Where("author_id = ? AND is_published = true", targetID).
		Count(&total).Error; err != nil {
		logger.WarnWithFields("Failed to count works for user "+targetID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"works": works,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// DeleteWork removes a work, its stored images and its search document
// DELETE /api/v1/works/:id
func (h *Handlers) DeleteWork(c *gin.Context) {
	workID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var work models.Work
	if err := database.DB.First(&work, "id = ?", workID).Error; err != nil {
		util.RespondNotFound(c, "work")
		return
	}

	if work.AuthorID != userID {
		util.RespondForbidden(c, "You do not own this work")
		return
	}

	var versions []models.WorkVersion
	if err := database.DB.Where("work_id = ?", workID).Find(&versions).Error; err != nil {
		logger.WarnWithFields("Failed to load versions for work "+workID, err)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("work_id = ?", workID).Delete(&models.WorkVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&work).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("work_count", gorm.Expr("CASE WHEN work_count > 0 THEN work_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to delete work")
		return
	}

	// Storage and search cleanup are best-effort after the row is gone
	ctx := c.Request.Context()
	h.cleanupUpload(ctx, work.ImagePath)
	for _, v := range versions {
		if v.ImagePath != work.ImagePath {
			h.cleanupUpload(ctx, v.ImagePath)
		}
	}
	if h.search != nil {
		if err := h.search.DeleteWork(ctx, workID); err != nil {
			logger.WarnWithFields("Failed to remove work from search index", err)
		}
	}
	h.invalidateExplore(ctx)

	c.JSON(http.StatusOK, gin.H{"message": "work_deleted"})
}

// UploadVersion adds a new image version to an existing work. The new
// image passes through the detection gate the same way the original did.
// POST /api/v1/works/:id/versions
func (h *Handlers) UploadVersion(c *gin.Context) {
	workID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var work models.Work
	if err := database.DB.First(&work, "id = ?", workID).Error; err != nil {
		util.RespondNotFound(c, "work")
		return
	}
	if work.AuthorID != userID {
		util.RespondForbidden(c, "You do not own this work")
		return
	}

	imageBytes, imageFilename, imageMIME, ok := readImageUpload(c)
	if !ok {
		return
	}
	note := c.PostForm("note")

	verdict, err := h.gate.Check(c.Request.Context(), detection.Submission{
		ImageBytes:    imageBytes,
		ImageFilename: imageFilename,
		ImageMIME:     imageMIME,
	})
	h.recordDetectionEvents(userID, verdict, err)
	if err != nil {
		respondDetectionError(c, err)
		return
	}
	if !verdict.Accepted {
		util.RespondContentRejected(c, verdict.Message)
		return
	}

	upload, err := h.storage.UploadImage(c.Request.Context(), imageBytes, userID,
		extensionFor(imageFilename, imageMIME), imageMIME)
	if err != nil {
		logger.ErrorWithFields("Failed to upload version image", err)
		util.RespondInternalError(c, "Failed to store image")
		return
	}

	var maxVersion int
	database.DB.Model(&models.WorkVersion{}).
		Where("work_id = ?", workID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&maxVersion)

	version := models.WorkVersion{
		WorkID:        workID,
		VersionNumber: maxVersion + 1,
		ImagePath:     upload.Key,
		ImageURL:      upload.URL,
		Note:          note,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		// The newest version becomes the face of the work
		return tx.Model(&work).Updates(map[string]interface{}{
			"image_path": upload.Key,
			"image_url":  upload.URL,
		}).Error
	})
	if err != nil {
		h.cleanupUpload(c.Request.Context(), upload.Key)
		util.RespondInternalError(c, "Failed to record version")
		return
	}

	go h.notifyNewVersion(work, userID)
	go h.reindexWork(context.Background(), workID)

	c.JSON(http.StatusCreated, gin.H{"version": version})
}

// cleanupUpload deletes an uploaded object, logging on failure
func (h *Handlers) cleanupUpload(ctx context.Context, key string) {
	if key == "" || h.storage == nil {
		return
	}
	if err := h.storage.DeleteFile(ctx, key); err != nil {
		logger.WarnWithFields("Failed to clean up stored object "+key, err)
	}
}

// resolveThreads looks up threads by slug from a comma-separated list
func (h *Handlers) resolveThreads(raw string) ([]models.Thread, error) {
	slugs := util.ParseTagList(raw)
	if len(slugs) == 0 {
		return nil, nil
	}

	var threads []models.Thread
	if err := database.DB.Where("slug IN ?", slugs).Find(&threads).Error; err != nil {
		return nil, err
	}
	if len(threads) != len(slugs) {
		return nil, errUnknownThread
	}
	return threads, nil
}

// notifyNewVersion fans a new_version notification out to everyone who
// commented on the work
func (h *Handlers) notifyNewVersion(work models.Work, actorID string) {
	var commenterIDs []string
	if err := database.DB.Model(&models.Comment{}).
		Where("work_id = ? AND user_id != ? AND is_deleted = false", work.ID, actorID).
		Distinct("user_id").
		Pluck("user_id", &commenterIDs).Error; err != nil {
		logger.WarnWithFields("Failed to find commenters for version notification", err)
		return
	}

	var actor models.User
	if err := database.DB.First(&actor, "id = ?", actorID).Error; err != nil {
		logger.WarnWithFields("Failed to load actor for version notification", err)
	}

	for _, uid := range commenterIDs {
		notification := models.Notification{
			UserID:  uid,
			Kind:    models.NotificationNewVersion,
			ActorID: actorID,
			WorkID:  &work.ID,
			Message: "posted a new version of \"" + work.Title + "\"",
		}
		if err := database.DB.Create(&notification).Error; err != nil {
			logger.WarnWithFields("Failed to create version notification", err)
			continue
		}

		if h.email == nil {
			continue
		}
		var recipient models.User
		if err := database.DB.First(&recipient, "id = ?", uid).Error; err != nil {
			continue
		}
		if !recipient.EmailNotifications {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := h.email.SendNewVersionNotification(ctx, recipient.Email, actor.DisplayName, work.Title, work.ID); err != nil {
			logger.WarnWithFields("Failed to send version email", err)
		}
		cancel()
	}
}

// degradedWarnings collects operator-visible warnings from a passing
// verdict so the response can mention detection was skipped
func degradedWarnings(verdict *detection.Verdict) []string {
	var warnings []string
	for _, r := range verdict.Results {
		if r.Degraded() {
			warnings = append(warnings, r.Warning)
		}
	}
	return warnings
}

// extensionFor picks a file extension, preferring the MIME type mapping
// over whatever the client named the file
func extensionFor(filename, mimeType string) string {
	if ext := util.ExtensionForImageType(mimeType); ext != "" {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}

var errUnknownThread = errors.New("one or more threads do not exist")
