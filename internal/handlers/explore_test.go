package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFeedWorks(t *testing.T, authorID string, n int) []models.Work {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	works := make([]models.Work, 0, n)
	for i := 0; i < n; i++ {
		work := createTestWork(t, authorID, "Feed "+string(rune('A'+i)))
		require.NoError(t, database.DB.Model(&work).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
		works = append(works, work)
	}
	return works
}

func TestExploreReturnsNewestFirst(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	seedFeedWorks(t, author.ID, 3)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore", "")
	h.Explore(c)

	require.Equal(t, http.StatusOK, w.Code)
	var page explorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Works, 3)
	assert.Equal(t, "Feed C", page.Works[0].Title)
	assert.Equal(t, "Feed A", page.Works[2].Title)
	assert.Empty(t, page.NextCursor)
}

func TestExploreCursorPagination(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	seedFeedWorks(t, author.ID, 5)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore?limit=2", "")
	h.Explore(c)

	require.Equal(t, http.StatusOK, w.Code)
	var first explorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Works, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "Feed E", first.Works[0].Title)
	assert.Equal(t, "Feed D", first.Works[1].Title)

	w = httptest.NewRecorder()
	c, _ = authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore?limit=2&cursor="+url.QueryEscape(first.NextCursor), "")
	h.Explore(c)

	require.Equal(t, http.StatusOK, w.Code)
	var second explorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Len(t, second.Works, 2)
	assert.Equal(t, "Feed C", second.Works[0].Title)
	assert.Equal(t, "Feed B", second.Works[1].Title)

	// No overlap between pages
	for _, a := range first.Works {
		for _, b := range second.Works {
			assert.NotEqual(t, a.ID, b.ID)
		}
	}
}

func TestExploreBadCursor(t *testing.T) {
	setupTestDB(t)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore?cursor=not-a-time", "")
	h.Explore(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExploreExcludesUnpublished(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	createTestWork(t, author.ID, "Visible")
	draft := createTestWork(t, author.ID, "Draft")
	require.NoError(t, database.DB.Model(&draft).Update("is_published", false).Error)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore", "")
	h.Explore(c)

	require.Equal(t, http.StatusOK, w.Code)
	var page explorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Works, 1)
	assert.Equal(t, "Visible", page.Works[0].Title)
}

func TestExploreThreadFilter(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author")
	thread := createTestThread(t, "Watercolor", "watercolor")
	inThread := createTestWork(t, author.ID, "Wet On Wet")
	require.NoError(t, database.DB.Create(&models.WorkThread{
		WorkID:   inThread.ID,
		ThreadID: thread.ID,
	}).Error)
	createTestWork(t, author.ID, "Unrelated")

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore?thread=watercolor", "")
	h.Explore(c)

	require.Equal(t, http.StatusOK, w.Code)
	var page explorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Works, 1)
	assert.Equal(t, "Wet On Wet", page.Works[0].Title)
}

func TestExploreUnknownThread(t *testing.T) {
	setupTestDB(t)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/explore?thread=ghost", "")
	h.Explore(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchWorksUnavailableWithoutBackend(t *testing.T) {
	setupTestDB(t)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/search/works?q=ink", "")
	h.SearchWorks(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchArtistsUnavailableWithoutBackend(t *testing.T) {
	setupTestDB(t)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, nil)
	jsonRequest(c, http.MethodGet, "/api/v1/search/artists?q=ana", "")
	h.SearchArtists(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
