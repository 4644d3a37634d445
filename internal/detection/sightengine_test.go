package detection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sightengineServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "genai", r.FormValue("models"))
		assert.Equal(t, "user-1", r.FormValue("api_user"))
		assert.Equal(t, "secret-1", r.FormValue("api_secret"))
		_, _, err := r.FormFile("media")
		assert.NoError(t, err)

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func newImageDetector(endpoint string, mode Mode, creds *Credentials) *SightengineDetector {
	return NewSightengineDetector(Config{
		Mode:          mode,
		ImageCreds:    creds,
		ImageEndpoint: endpoint,
	})
}

func TestSightengineScoresImage(t *testing.T) {
	srv := sightengineServer(t, http.StatusOK, `{"status":"success","type":{"ai_generated":0.42}}`)
	defer srv.Close()

	d := newImageDetector(srv.URL, ModeStrict, &Credentials{User: "user-1", Secret: "secret-1"})
	res, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
	require.NoError(t, err)

	assert.True(t, res.Passed)
	assert.Equal(t, 0.42, res.Score)
	assert.Equal(t, 0.75, res.Threshold)
	assert.Equal(t, "sightengine", res.Provider)
	assert.Equal(t, ModalityImage, res.Modality)
	assert.Empty(t, res.Warning)
}

func TestSightengineRejectsHighScore(t *testing.T) {
	srv := sightengineServer(t, http.StatusOK, `{"status":"success","type":{"ai_generated":0.8}}`)
	defer srv.Close()

	d := newImageDetector(srv.URL, ModeStrict, &Credentials{User: "user-1", Secret: "secret-1"})
	res, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
	require.NoError(t, err)

	assert.False(t, res.Passed)
	assert.Equal(t, 0.8, res.Score)
}

func TestSightengineMissingScoreFieldFailsOpen(t *testing.T) {
	// Malformed provider output must not block a creator: absent
	// type.ai_generated reads as 0.
	srv := sightengineServer(t, http.StatusOK, `{"status":"success","type":{}}`)
	defer srv.Close()

	d := newImageDetector(srv.URL, ModeStrict, &Credentials{User: "user-1", Secret: "secret-1"})
	res, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
	require.NoError(t, err)

	assert.True(t, res.Passed)
	assert.Equal(t, 0.0, res.Score)
}

func TestSightengineBodyLevelFailureIsServiceError(t *testing.T) {
	// 2xx transport with an embedded failure status is still an error.
	srv := sightengineServer(t, http.StatusOK, `{"status":"failure","error":{"message":"invalid media"}}`)
	defer srv.Close()

	d := newImageDetector(srv.URL, ModeStrict, &Credentials{User: "user-1", Secret: "secret-1"})
	_, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
	require.Error(t, err)
	assert.True(t, IsServiceError(err))
	assert.Contains(t, err.Error(), "invalid media")
}

func TestSightengineNon2xxIsServiceError(t *testing.T) {
	srv := sightengineServer(t, http.StatusBadGateway, `upstream broke`)
	defer srv.Close()

	d := newImageDetector(srv.URL, ModeStrict, &Credentials{User: "user-1", Secret: "secret-1"})
	_, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
	require.Error(t, err)
	assert.True(t, IsServiceError(err))
}

func TestSightengineUnreachableIsServiceError(t *testing.T) {
	d := newImageDetector("http://127.0.0.1:1", ModeStrict, &Credentials{User: "user-1", Secret: "secret-1"})
	_, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
	require.Error(t, err)
	assert.True(t, IsServiceError(err))
}

func TestSightengineMissingCredentials(t *testing.T) {
	t.Run("permissive mode skips with warning", func(t *testing.T) {
		d := newImageDetector("", ModePermissive, nil)
		res, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.True(t, res.Degraded())
		assert.NotEmpty(t, res.Warning)
	})

	t.Run("strict mode fails closed", func(t *testing.T) {
		d := newImageDetector("", ModeStrict, nil)
		_, err := d.CheckImage(context.Background(), []byte("png-bytes"), "art.png")
		require.Error(t, err)
		assert.True(t, IsServiceError(err))
	})
}
