package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/detection"
	"github.com/artfolio/backend/internal/models"
	"github.com/artfolio/backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB swaps the global DB for an in-memory sqlite database with the
// full schema migrated. Each test gets its own database.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Work{},
		&models.WorkVersion{},
		&models.Thread{},
		&models.WorkThread{},
		&models.Comment{},
		&models.Notification{},
		&models.DetectionEvent{},
	))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		database.DB = prev
	})
}

// stubGate is a ContentGate with a scripted outcome and a call counter.
type stubGate struct {
	verdict *detection.Verdict
	err     error
	calls   int
	lastSub detection.Submission
}

func (s *stubGate) Check(_ context.Context, sub detection.Submission) (*detection.Verdict, error) {
	s.calls++
	s.lastSub = sub
	if s.err != nil {
		return nil, s.err
	}
	if s.verdict != nil {
		return s.verdict, nil
	}
	return acceptedVerdict(), nil
}

func acceptedVerdict() *detection.Verdict {
	return &detection.Verdict{
		Accepted: true,
		Results: []detection.Result{{
			Modality:  detection.ModalityImage,
			Passed:    true,
			Score:     0.1,
			Threshold: detection.ImageThreshold,
			Provider:  "stub",
		}},
	}
}

func rejectedVerdict(message string) *detection.Verdict {
	result := detection.Result{
		Modality:  detection.ModalityImage,
		Passed:    false,
		Score:     0.9,
		Threshold: detection.ImageThreshold,
		Provider:  "stub",
	}
	return &detection.Verdict{
		Accepted: false,
		Results:  []detection.Result{result},
		Rejected: &result,
		Message:  message,
	}
}

// fakeStore is an in-memory ImageStore tracking uploads and deletions.
type fakeStore struct {
	uploads   int
	deleted   []string
	uploadErr error
}

func (f *fakeStore) UploadImage(_ context.Context, _ []byte, userID, extension, _ string) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads++
	key := fmt.Sprintf("media/%s/%d%s", userID, f.uploads, extension)
	return &storage.UploadResult{
		Key: key,
		URL: "https://cdn.test/" + key,
	}, nil
}

func (f *fakeStore) PresignUpload(_ context.Context, userID, extension, _ string) (*storage.PresignedUpload, error) {
	key := fmt.Sprintf("media/%s/presigned%s", userID, extension)
	return &storage.PresignedUpload{
		Key:       key,
		UploadURL: "https://bucket.test/" + key + "?sig=abc",
		PublicURL: "https://cdn.test/" + key,
	}, nil
}

func (f *fakeStore) DeleteFile(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

// createTestUser inserts a user with sensible defaults.
func createTestUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		Email:              username + "@example.com",
		Username:           username,
		DisplayName:        username,
		EmailNotifications: true,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

func createTestThread(t *testing.T, name, slug string) models.Thread {
	t.Helper()
	thread := models.Thread{Name: name, Slug: slug}
	require.NoError(t, database.DB.Create(&thread).Error)
	return thread
}

func createTestWork(t *testing.T, authorID, title string) models.Work {
	t.Helper()
	work := models.Work{
		AuthorID:    authorID,
		Title:       title,
		WorkType:    models.WorkTypeImage,
		ImagePath:   "media/" + authorID + "/seed.png",
		ImageURL:    "https://cdn.test/media/" + authorID + "/seed.png",
		IsPublished: true,
	}
	require.NoError(t, database.DB.Create(&work).Error)
	return work
}

// authedContext builds a gin context carrying an authenticated user, the way
// the auth middleware would leave it.
func authedContext(w *httptest.ResponseRecorder, user *models.User) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	if user != nil {
		c.Set("user", user)
		c.Set("user_id", user.ID)
	}
	return c, r
}

// multipartBody builds a multipart form with optional fields and an optional
// image file part.
func multipartBody(t *testing.T, fields map[string]string, imageName, imageMIME string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if imageData != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, imageName))
		header.Set("Content-Type", imageMIME)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func multipartRequest(t *testing.T, c *gin.Context, method, target string, fields map[string]string, imageName, imageMIME string, imageData []byte) {
	t.Helper()
	body, contentType := multipartBody(t, fields, imageName, imageMIME, imageData)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
}

func jsonRequest(c *gin.Context, method, target, body string) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}
