package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "oil-painting", slugify("Oil Painting"))
	assert.Equal(t, "ink-wash", slugify("  Ink & Wash  "))
	assert.Equal(t, "3d-sculpting", slugify("3D Sculpting"))
	assert.Equal(t, "", slugify("!!!"))
}

func TestCreateThread(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "founder")

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	jsonRequest(c, http.MethodPost, "/api/v1/threads",
		`{"name":"Urban Sketching","description":"Drawing on location"}`)
	h.CreateThread(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var thread models.Thread
	require.NoError(t, database.DB.First(&thread, "slug = ?", "urban-sketching").Error)
	assert.Equal(t, "Urban Sketching", thread.Name)
	require.NotNil(t, thread.CreatedBy)
	assert.Equal(t, user.ID, *thread.CreatedBy)
}

func TestCreateThreadDuplicateSlug(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "founder")
	createTestThread(t, "Urban Sketching", "urban-sketching")

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	jsonRequest(c, http.MethodPost, "/api/v1/threads", `{"name":"urban sketching"}`)
	h.CreateThread(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListThreadsOrderedByActivity(t *testing.T) {
	setupTestDB(t)
	quiet := createTestThread(t, "Quiet", "quiet")
	busy := createTestThread(t, "Busy", "busy")
	require.NoError(t, database.DB.Model(&busy).UpdateColumn("work_count", 10).Error)
	_ = quiet

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/threads", "")
	h.ListThreads(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Threads []models.Thread `json:"threads"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Threads, 2)
	assert.Equal(t, "busy", resp.Threads[0].Slug)
}

func TestGetThreadWithWorks(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	thread := createTestThread(t, "Oil Painting", "oil-painting")
	work := createTestWork(t, author.ID, "In Thread")
	require.NoError(t, database.DB.Create(&models.WorkThread{
		WorkID:   work.ID,
		ThreadID: thread.ID,
	}).Error)
	createTestWork(t, author.ID, "Not In Thread")

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/threads/oil-painting", "")
	c.Params = []gin.Param{{Key: "slug", Value: "oil-painting"}}
	h.GetThread(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Thread models.Thread `json:"thread"`
		Works  []models.Work `json:"works"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "oil-painting", resp.Thread.Slug)
	require.Len(t, resp.Works, 1)
	assert.Equal(t, "In Thread", resp.Works[0].Title)
}

func TestGetThreadNotFound(t *testing.T) {
	setupTestDB(t)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/threads/nope", "")
	c.Params = []gin.Param{{Key: "slug", Value: "nope"}}
	h.GetThread(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
