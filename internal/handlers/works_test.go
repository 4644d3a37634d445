package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/detection"
	"github.com/artfolio/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkPublishesAfterGatePass(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")
	thread := createTestThread(t, "Oil Painting", "oil-painting")

	gate := &stubGate{}
	store := &fakeStore{}
	h := NewHandlers(gate, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title":   "Morning Light",
		"threads": "oil-painting",
	}, "morning.png", "image/png", []byte("png-bytes"))

	h.CreateWork(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, gate.calls)
	assert.Equal(t, 1, store.uploads)

	var work models.Work
	require.NoError(t, database.DB.Preload("Threads").First(&work, "title = ?", "Morning Light").Error)
	assert.Equal(t, user.ID, work.AuthorID)
	assert.True(t, work.IsPublished)
	require.Len(t, work.Threads, 1)
	assert.Equal(t, "oil-painting", work.Threads[0].Slug)
	require.NotNil(t, work.PrimaryThreadID)
	assert.Equal(t, thread.ID, *work.PrimaryThreadID)

	// First upload is recorded as version 1
	var version models.WorkVersion
	require.NoError(t, database.DB.First(&version, "work_id = ?", work.ID).Error)
	assert.Equal(t, 1, version.VersionNumber)

	// Cached counters move with the publish
	var freshUser models.User
	require.NoError(t, database.DB.First(&freshUser, "id = ?", user.ID).Error)
	assert.Equal(t, 1, freshUser.WorkCount)
	var freshThread models.Thread
	require.NoError(t, database.DB.First(&freshThread, "id = ?", thread.ID).Error)
	assert.Equal(t, 1, freshThread.WorkCount)
}

func TestCreateWorkRejectedByGate(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")

	message := "This image appears to be AI-generated (confidence: 90%). Artfolio only accepts human-created artwork."
	gate := &stubGate{verdict: rejectedVerdict(message)}
	store := &fakeStore{}
	h := NewHandlers(gate, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title": "Synthetic",
	}, "synthetic.png", "image/png", []byte("png-bytes"))

	h.CreateWork(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CONTENT_REJECTED", resp.Code)
	assert.Equal(t, message, resp.Message)

	// Nothing persisted or uploaded when the gate rejects
	var count int64
	database.DB.Model(&models.Work{}).Count(&count)
	assert.Zero(t, count)
	assert.Zero(t, store.uploads)

	// The rejection leaves an audit row
	var event models.DetectionEvent
	require.NoError(t, database.DB.First(&event, "user_id = ?", user.ID).Error)
	assert.Equal(t, "rejected", event.Outcome)
	assert.Equal(t, 0.9, event.Score)
}

func TestCreateWorkGateServiceError(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")

	gate := &stubGate{err: &detection.ServiceError{Provider: "sightengine", Err: errors.New("connection refused")}}
	store := &fakeStore{}
	h := NewHandlers(gate, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title": "Unlucky",
	}, "a.png", "image/png", []byte("png-bytes"))

	h.CreateWork(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, store.uploads)

	var count int64
	database.DB.Model(&models.Work{}).Count(&count)
	assert.Zero(t, count)

	var event models.DetectionEvent
	require.NoError(t, database.DB.First(&event, "user_id = ?", user.ID).Error)
	assert.Equal(t, "service_error", event.Outcome)
	assert.Equal(t, "sightengine", event.Provider)
}

func TestCreateWorkImageRequiresFile(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")

	gate := &stubGate{}
	h := NewHandlers(gate, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title": "No Image",
	}, "", "", nil)

	h.CreateWork(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// Shape validation happens before any provider call
	assert.Zero(t, gate.calls)
}

func TestCreateWorkTextPostSkipsTextGating(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")

	gate := &stubGate{}
	h := NewHandlers(gate, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title":     "Studio update",
		"work_type": "text_post",
		"content":   "Cleaned the studio today and stretched three new canvases.",
	}, "cover.jpg", "image/jpeg", []byte("jpeg-bytes"))

	h.CreateWork(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, gate.calls)
	// The cover image is still gated but the casual text is not
	assert.NotEmpty(t, gate.lastSub.ImageBytes)
	assert.Empty(t, gate.lastSub.Text)
}

func TestCreateWorkEssayGatesBodyText(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "essayist")

	gate := &stubGate{}
	h := NewHandlers(gate, &fakeStore{})

	essay := "I have been thinking about negative space for a month now, and the more I look the less empty it seems to me."

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title":     "On Negative Space",
		"work_type": "essay",
		"content":   essay,
	}, "", "", nil)

	h.CreateWork(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, gate.calls)
	assert.Equal(t, essay, gate.lastSub.Text)
}

func TestCreateWorkUnknownThreadCleansUpUpload(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")

	gate := &stubGate{}
	store := &fakeStore{}
	h := NewHandlers(gate, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title":   "Orphan",
		"threads": "does-not-exist",
	}, "a.png", "image/png", []byte("png-bytes"))

	h.CreateWork(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// The object uploaded before the failure must not leak
	require.Equal(t, 1, store.uploads)
	require.Len(t, store.deleted, 1)
}

func TestCreateWorkDegradedPassCarriesWarnings(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "painter")

	verdict := &detection.Verdict{
		Accepted: true,
		Results: []detection.Result{{
			Modality:  detection.ModalityImage,
			Passed:    true,
			Threshold: detection.ImageThreshold,
			Provider:  "sightengine",
			Warning:   "image detection skipped: missing credentials",
		}},
	}
	gate := &stubGate{verdict: verdict}
	h := NewHandlers(gate, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works", map[string]string{
		"title": "Unverified",
	}, "a.png", "image/png", []byte("png-bytes"))

	h.CreateWork(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "missing credentials")

	var event models.DetectionEvent
	require.NoError(t, database.DB.First(&event, "user_id = ?", user.ID).Error)
	assert.Equal(t, "degraded", event.Outcome)
}

func TestGetWorkHidesUnpublishedFromOthers(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	stranger := createTestUser(t, "stranger")

	work := createTestWork(t, author.ID, "Draft")
	require.NoError(t, database.DB.Model(&work).Update("is_published", false).Error)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &stranger)
	jsonRequest(c, http.MethodGet, "/api/v1/works/"+work.ID, "")
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}
	h.GetWork(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	c, _ = authedContext(w, &author)
	jsonRequest(c, http.MethodGet, "/api/v1/works/"+work.ID, "")
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}
	h.GetWork(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadVersionAppendsAndUpdatesCover(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	work := createTestWork(t, author.ID, "Evolving Piece")
	require.NoError(t, database.DB.Create(&models.WorkVersion{
		WorkID:        work.ID,
		VersionNumber: 1,
		ImagePath:     work.ImagePath,
		ImageURL:      work.ImageURL,
	}).Error)

	gate := &stubGate{}
	store := &fakeStore{}
	h := NewHandlers(gate, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &author)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works/"+work.ID+"/versions", map[string]string{
		"note": "reworked the sky",
	}, "v2.png", "image/png", []byte("png-v2"))
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}

	h.UploadVersion(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, gate.calls)

	var version models.WorkVersion
	require.NoError(t, database.DB.
		Where("work_id = ?", work.ID).
		Order("version_number DESC").
		First(&version).Error)
	assert.Equal(t, 2, version.VersionNumber)
	assert.Equal(t, "reworked the sky", version.Note)

	var fresh models.Work
	require.NoError(t, database.DB.First(&fresh, "id = ?", work.ID).Error)
	assert.Equal(t, version.ImagePath, fresh.ImagePath)
}

func TestUploadVersionRejectedByGate(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	work := createTestWork(t, author.ID, "Evolving Piece")

	message := "This image appears to be AI-generated (confidence: 82%). Artfolio only accepts human-created artwork."
	gate := &stubGate{verdict: rejectedVerdict(message)}
	store := &fakeStore{}
	h := NewHandlers(gate, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &author)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works/"+work.ID+"/versions", nil,
		"v2.png", "image/png", []byte("png-v2"))
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}

	h.UploadVersion(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, store.uploads)

	var count int64
	database.DB.Model(&models.WorkVersion{}).Where("work_id = ?", work.ID).Count(&count)
	assert.Zero(t, count)
}

func TestUploadVersionForbiddenForNonOwner(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	other := createTestUser(t, "other")
	work := createTestWork(t, author.ID, "Not Yours")

	gate := &stubGate{}
	h := NewHandlers(gate, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &other)
	multipartRequest(t, c, http.MethodPost, "/api/v1/works/"+work.ID+"/versions", nil,
		"v2.png", "image/png", []byte("png-v2"))
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}

	h.UploadVersion(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, gate.calls)
}

func TestDeleteWorkRemovesStoredObjects(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	require.NoError(t, database.DB.Model(&models.User{}).
		Where("id = ?", author.ID).Update("work_count", 1).Error)
	work := createTestWork(t, author.ID, "Goodbye")
	require.NoError(t, database.DB.Create(&models.WorkVersion{
		WorkID:        work.ID,
		VersionNumber: 1,
		ImagePath:     work.ImagePath,
	}).Error)

	store := &fakeStore{}
	h := NewHandlers(&stubGate{}, store)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &author)
	jsonRequest(c, http.MethodDelete, "/api/v1/works/"+work.ID, "")
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}

	h.DeleteWork(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, store.deleted, work.ImagePath)

	var count int64
	database.DB.Model(&models.Work{}).Where("id = ?", work.ID).Count(&count)
	assert.Zero(t, count)

	var fresh models.User
	require.NoError(t, database.DB.First(&fresh, "id = ?", author.ID).Error)
	assert.Zero(t, fresh.WorkCount)
}

func TestDeleteWorkForbiddenForNonOwner(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	other := createTestUser(t, "other")
	work := createTestWork(t, author.ID, "Protected")

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &other)
	jsonRequest(c, http.MethodDelete, "/api/v1/works/"+work.ID, "")
	c.Params = []gin.Param{{Key: "id", Value: work.ID}}

	h.DeleteWork(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var count int64
	database.DB.Model(&models.Work{}).Where("id = ?", work.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListUserWorksOnlyPublished(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	createTestWork(t, author.ID, "Public")
	draft := createTestWork(t, author.ID, "Hidden")
	require.NoError(t, database.DB.Model(&draft).Update("is_published", false).Error)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/users/"+author.ID+"/works", "")
	c.Params = []gin.Param{{Key: "id", Value: author.ID}}

	h.ListUserWorks(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Works []models.Work `json:"works"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Works, 1)
	assert.Equal(t, "Public", resp.Works[0].Title)
}
