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

func seedNotification(t *testing.T, userID, actorID string, read, seen bool) models.Notification {
	t.Helper()
	n := models.Notification{
		UserID:  userID,
		Kind:    models.NotificationComment,
		ActorID: actorID,
		Message: "commented on \"Something\"",
		IsRead:  read,
		IsSeen:  seen,
	}
	require.NoError(t, database.DB.Create(&n).Error)
	return n
}

func TestGetNotificationCounts(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user")
	actor := createTestUser(t, "actor")

	seedNotification(t, user.ID, actor.ID, false, false)
	seedNotification(t, user.ID, actor.ID, false, true)
	seedNotification(t, user.ID, actor.ID, true, true)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	jsonRequest(c, http.MethodGet, "/api/v1/notifications/counts", "")
	h.GetNotificationCounts(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Unseen int64 `json:"unseen"`
		Unread int64 `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Unseen)
	assert.Equal(t, int64(2), resp.Unread)
}

func TestGetNotificationsOnlyOwn(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user")
	other := createTestUser(t, "other")
	actor := createTestUser(t, "actor")

	seedNotification(t, user.ID, actor.ID, false, false)
	seedNotification(t, other.ID, actor.ID, false, false)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	jsonRequest(c, http.MethodGet, "/api/v1/notifications", "")
	h.GetNotifications(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, user.ID, resp.Notifications[0].UserID)
}

func TestMarkNotificationsSeenClearsBadge(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user")
	actor := createTestUser(t, "actor")
	seedNotification(t, user.ID, actor.ID, false, false)
	seedNotification(t, user.ID, actor.ID, false, false)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	jsonRequest(c, http.MethodPost, "/api/v1/notifications/seen", "")
	h.MarkNotificationsSeen(c)

	require.Equal(t, http.StatusOK, w.Code)
	var unseen int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_seen = false", user.ID).Count(&unseen)
	assert.Zero(t, unseen)

	// Seen does not imply read
	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", user.ID).Count(&unread)
	assert.Equal(t, int64(2), unread)
}

func TestMarkNotificationReadScopedToOwner(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user")
	other := createTestUser(t, "other")
	actor := createTestUser(t, "actor")
	n := seedNotification(t, user.ID, actor.ID, false, false)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	// Another user cannot mark it
	w := httptest.NewRecorder()
	c, _ := authedContext(w, &other)
	jsonRequest(c, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", "")
	c.Params = []gin.Param{{Key: "id", Value: n.ID}}
	h.MarkNotificationRead(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The owner can
	w = httptest.NewRecorder()
	c, _ = authedContext(w, &user)
	jsonRequest(c, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", "")
	c.Params = []gin.Param{{Key: "id", Value: n.ID}}
	h.MarkNotificationRead(c)
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.Notification
	require.NoError(t, database.DB.First(&fresh, "id = ?", n.ID).Error)
	assert.True(t, fresh.IsRead)
	assert.True(t, fresh.IsSeen)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user")
	actor := createTestUser(t, "actor")
	seedNotification(t, user.ID, actor.ID, false, false)
	seedNotification(t, user.ID, actor.ID, false, true)

	h := NewHandlers(&stubGate{}, &fakeStore{})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, &user)
	jsonRequest(c, http.MethodPost, "/api/v1/notifications/read", "")
	h.MarkAllNotificationsRead(c)

	require.Equal(t, http.StatusOK, w.Code)
	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", user.ID).Count(&unread)
	assert.Zero(t, unread)
}
