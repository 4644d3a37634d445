package handlers

import (
	"io"
	"net/http"

	"github.com/artfolio/backend/internal/detection"
	apierrors "github.com/artfolio/backend/internal/errors"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// maxImageBytes caps uploads at 15 MB, matching the storage bucket policy
const maxImageBytes = 15 << 20

// ValidateImage runs an uploaded image through the AI detection gate
// without publishing anything. Lets the client pre-check a file before
// the user fills in the rest of the upload form.
// POST /api/v1/validate/image
func (h *Handlers) ValidateImage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	imageBytes, filename, mimeType, ok := readImageUpload(c)
	if !ok {
		return
	}

	verdict, err := h.gate.Check(c.Request.Context(), detection.Submission{
		ImageBytes:    imageBytes,
		ImageFilename: filename,
		ImageMIME:     mimeType,
	})
	h.recordDetectionEvents(userID, verdict, err)
	if err != nil {
		respondDetectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

// ValidateText runs essay text through the AI detection gate without
// publishing anything.
// POST /api/v1/validate/text
func (h *Handlers) ValidateText(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	verdict, err := h.gate.Check(c.Request.Context(), detection.Submission{
		Text: req.Text,
	})
	h.recordDetectionEvents(userID, verdict, err)
	if err != nil {
		respondDetectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

// readImageUpload pulls the "image" multipart file out of the request,
// enforcing the MIME whitelist and size cap. Responds with an error and
// returns ok=false on failure.
func readImageUpload(c *gin.Context) (data []byte, filename, mimeType string, ok bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		util.RespondBadRequest(c, "image file is required")
		return nil, "", "", false
	}

	if fileHeader.Size > maxImageBytes {
		util.RespondValidationError(c, "image", "image exceeds the 15 MB limit")
		return nil, "", "", false
	}

	mimeType = fileHeader.Header.Get("Content-Type")
	if !util.IsValidImageType(mimeType) {
		util.RespondValidationError(c, "image", "unsupported image type (jpeg, png, gif, webp)")
		return nil, "", "", false
	}

	if err := util.ValidateFilename(fileHeader.Filename); err != nil {
		util.RespondValidationError(c, "image", err.Error())
		return nil, "", "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondInternalError(c, "Failed to read uploaded file")
		return nil, "", "", false
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		util.RespondInternalError(c, "Failed to read uploaded file")
		return nil, "", "", false
	}
	if len(data) > maxImageBytes {
		util.RespondValidationError(c, "image", "image exceeds the 15 MB limit")
		return nil, "", "", false
	}

	return data, fileHeader.Filename, mimeType, true
}

// respondDetectionError maps gate errors to HTTP responses. Provider
// failures surface as 503 so the client knows a retry may succeed.
func respondDetectionError(c *gin.Context, err error) {
	if detection.IsInputError(err) {
		util.RespondValidationError(c, "content", err.Error())
		return
	}
	if se, ok := detection.AsServiceError(err); ok {
		apiErr := apierrors.ServiceUnavailable("content verification").
			WithDetails("provider: " + se.Provider)
		util.RespondWithAPIError(c, apiErr)
		return
	}
	util.RespondInternalError(c, "Content verification failed")
}
