package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/metrics"
	"go.uber.org/zap"
)

const (
	providerSightengine   = "sightengine"
	sightengineEndpoint   = "https://api.sightengine.com/1.0/check.json"
	sightengineModelGenAI = "genai"
)

// SightengineDetector scores images against the Sightengine genai model.
type SightengineDetector struct {
	endpoint   string
	creds      *Credentials
	mode       Mode
	httpClient *http.Client
}

// ImageDetector is the image-modality scoring interface.
type ImageDetector interface {
	CheckImage(ctx context.Context, image []byte, filename string) (Result, error)
}

// NewSightengineDetector creates the image detector from gate config.
func NewSightengineDetector(cfg Config) *SightengineDetector {
	endpoint := cfg.ImageEndpoint
	if endpoint == "" {
		endpoint = sightengineEndpoint
	}
	return &SightengineDetector{
		endpoint:   endpoint,
		creds:      cfg.ImageCreds,
		mode:       cfg.mode(),
		httpClient: cfg.httpClient(),
	}
}

// sightengineResponse is the subset of the provider's reply we care about.
// A missing type.ai_generated field decodes to nil and is read as 0
// ("human") so malformed provider output never blocks a creator.
type sightengineResponse struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Type struct {
		AIGenerated *float64 `json:"ai_generated"`
	} `json:"type"`
}

// CheckImage submits the image bytes to Sightengine and normalizes the
// response into a Result. A body-level status other than "success" is a
// ServiceError even when the transport response is 2xx.
func (d *SightengineDetector) CheckImage(ctx context.Context, image []byte, filename string) (Result, error) {
	if d.creds == nil {
		if d.mode == ModePermissive {
			logger.Log.Warn("image detection skipped: provider not configured",
				zap.String("provider", providerSightengine),
			)
			return Result{
				Modality:  ModalityImage,
				Passed:    true,
				Threshold: ImageThreshold,
				Provider:  providerSightengine,
				Warning:   "AI detection skipped (provider not configured)",
			}, nil
		}
		return Result{}, &ServiceError{
			Provider: providerSightengine,
			Err:      errors.New("credentials not configured"),
		}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("media", filename)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Result{}, fmt.Errorf("failed to write image to form: %w", err)
	}
	for field, value := range map[string]string{
		"models":     sightengineModelGenAI,
		"api_user":   d.creds.User,
		"api_secret": d.creds.Secret,
	} {
		if err := writer.WriteField(field, value); err != nil {
			return Result{}, fmt.Errorf("failed to write %s field: %w", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.endpoint, &body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	metrics.ObserveProviderLatency(providerSightengine, time.Since(start).Seconds())
	if err != nil {
		return Result{}, &ServiceError{Provider: providerSightengine, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ServiceError{Provider: providerSightengine, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("image detection request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)),
		)
		return Result{}, &ServiceError{
			Provider: providerSightengine,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var parsed sightengineResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, &ServiceError{
			Provider: providerSightengine,
			Err:      fmt.Errorf("invalid response body: %w", err),
		}
	}
	if parsed.Status != "success" {
		return Result{}, &ServiceError{
			Provider: providerSightengine,
			Err:      fmt.Errorf("provider status %q: %s", parsed.Status, parsed.Error.Message),
		}
	}

	score := 0.0
	if parsed.Type.AIGenerated != nil {
		score = *parsed.Type.AIGenerated
	}

	return Result{
		Modality:  ModalityImage,
		Passed:    Passes(score, ImageThreshold),
		Score:     score,
		Threshold: ImageThreshold,
		Provider:  providerSightengine,
	}, nil
}
