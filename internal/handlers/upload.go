package handlers

import (
	"net/http"

	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// CreateUploadURL returns a short-lived presigned PUT URL so large images
// can go straight to object storage instead of through the API server.
// The object key is namespaced to the requesting user. The work referencing
// the upload still passes the detection gate at publish time.
// POST /api/v1/uploads
func (h *Handlers) CreateUploadURL(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ContentType string `json:"content_type" binding:"required"`
		Filename    string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !util.IsValidImageType(req.ContentType) {
		util.RespondValidationError(c, "content_type", "unsupported image type (jpeg, png, gif, webp)")
		return
	}
	if req.Filename != "" {
		if err := util.ValidateFilename(req.Filename); err != nil {
			util.RespondValidationError(c, "filename", err.Error())
			return
		}
	}

	upload, err := h.storage.PresignUpload(c.Request.Context(),
		userID, util.ExtensionForImageType(req.ContentType), req.ContentType)
	if err != nil {
		util.RespondInternalError(c, "Failed to create upload URL")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"upload": upload})
}
