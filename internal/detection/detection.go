// Package detection implements the AI-generated-content gate that every
// upload passes through before it can be published. Each content modality
// (image, essay text) is scored by a third-party provider and compared
// against a per-modality threshold; the aggregate verdict is the AND of all
// attempted modalities.
package detection

// Modality identifies one kind of content that requires its own detector.
type Modality string

const (
	ModalityImage Modality = "image"
	ModalityText  Modality = "text"
)

// Per-modality score cutoffs. A score is the provider's estimate of the
// probability the content is AI-generated; content passes when the score is
// strictly below the threshold. The values differ on purpose: the image
// provider is better calibrated than the LLM judge, so the text cutoff is
// more conservative.
const (
	ImageThreshold = 0.75
	TextThreshold  = 0.65
)

// MinTextLength is the minimum essay length for reliable text detection.
// Shorter text is rejected before any provider is called.
const MinTextLength = 100

// Submission is the candidate content for one upload attempt. It lives for
// the duration of the attempt and is never persisted.
type Submission struct {
	ImageBytes    []byte
	ImageFilename string
	ImageMIME     string
	Text          string
}

// HasImage reports whether the submission carries an image payload.
func (s Submission) HasImage() bool {
	return len(s.ImageBytes) > 0
}

// HasText reports whether the submission carries essay text.
func (s Submission) HasText() bool {
	return s.Text != ""
}

// Result is the outcome of scoring a single modality.
type Result struct {
	Modality  Modality `json:"modality"`
	Passed    bool     `json:"passed"`
	Score     float64  `json:"score"`
	Threshold float64  `json:"threshold"`
	Provider  string   `json:"provider"`
	Reasoning string   `json:"reasoning,omitempty"`
	// Warning is set when detection was skipped or degraded and the result
	// passed by policy rather than by an actual provider verdict.
	Warning string `json:"warning,omitempty"`
}

// Degraded reports whether this result passed without a real provider
// verdict (missing credentials, unparseable judge reply).
func (r Result) Degraded() bool {
	return r.Warning != ""
}

// Verdict is the aggregate decision for a submission attempt. Accepted is
// true only if every attempted modality passed. When rejected on a
// definitive AI verdict, Rejected points at the failing result and Message
// carries the user-facing explanation.
type Verdict struct {
	Accepted bool     `json:"accepted"`
	Results  []Result `json:"results"`
	Rejected *Result  `json:"rejected,omitempty"`
	Message  string   `json:"message,omitempty"`
}
