package detection

import (
	"net/http"
	"os"
	"time"
)

// Mode controls what happens when a provider is not configured.
//
// In strict mode missing credentials are a hard configuration error and the
// attempt fails closed. In permissive mode (local development) detection is
// skipped with a warning and the content passes. Both adapters follow the
// same policy; strict is the default when unspecified.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// Credentials is one provider credential pair. The image provider uses
// User+Secret; the text provider only needs Secret (an API key).
type Credentials struct {
	User   string
	Secret string
}

// Config configures the detection gate. It is built once at startup and
// passed in explicitly — adapters never read ambient process state, which
// keeps the fail-open/fail-closed branches unit-testable.
type Config struct {
	Mode Mode

	// ImageCreds and TextCreds are nil when the provider is not configured.
	ImageCreds *Credentials
	TextCreds  *Credentials

	// ImageEndpoint overrides the Sightengine check URL (tests).
	ImageEndpoint string

	// TextModel and TextBaseURL select the LLM judge. TextBaseURL is any
	// OpenAI-compatible endpoint; empty means the default API.
	TextModel   string
	TextBaseURL string

	// HTTPClient is used for the image provider call; nil gets a client
	// with a sane timeout.
	HTTPClient *http.Client
}

func (c Config) mode() Mode {
	if c.Mode == ModePermissive {
		return ModePermissive
	}
	return ModeStrict
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// ConfigFromEnv builds a Config from environment variables. Absent
// credentials are a recognized state, not an error — the Mode decides how
// the gate reacts to them.
func ConfigFromEnv() Config {
	cfg := Config{
		Mode:        ModeStrict,
		TextModel:   os.Getenv("AI_JUDGE_MODEL"),
		TextBaseURL: os.Getenv("AI_JUDGE_BASE_URL"),
	}
	if os.Getenv("DETECTION_MODE") == string(ModePermissive) {
		cfg.Mode = ModePermissive
	}
	if user, secret := os.Getenv("SIGHTENGINE_API_USER"), os.Getenv("SIGHTENGINE_API_SECRET"); user != "" && secret != "" {
		cfg.ImageCreds = &Credentials{User: user, Secret: secret}
	}
	if key := os.Getenv("AI_JUDGE_API_KEY"); key != "" {
		cfg.TextCreds = &Credentials{Secret: key}
	}
	return cfg
}
