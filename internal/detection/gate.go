package detection

import (
	"context"
	"fmt"
	"math"

	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/metrics"
	"go.uber.org/zap"
)

// Gate runs detection on every modality present in a submission and
// computes the aggregate verdict before anything is persisted.
//
// Modalities run sequentially, image first, and the gate short-circuits on
// the first definitive AI rejection: once one modality has failed there is
// no reason to pay for scoring the rest. A provider failure on any step
// aborts the whole attempt (fail closed) — that is deliberately different
// from the adapters' internal fail-open branches, which cover parsing and
// configuration hiccups rather than outright service failures.
type Gate struct {
	image ImageDetector
	text  TextDetector
}

// NewGate builds a gate with the real provider adapters.
func NewGate(cfg Config) *Gate {
	return &Gate{
		image: NewSightengineDetector(cfg),
		text:  NewTextJudge(cfg),
	}
}

// NewGateWithDetectors builds a gate over caller-supplied detectors.
func NewGateWithDetectors(image ImageDetector, text TextDetector) *Gate {
	return &Gate{image: image, text: text}
}

// Check validates the submission, scores each present modality and returns
// the aggregate verdict. The returned error is a *InputError or
// *ServiceError; a definitive AI rejection is not an error but a verdict
// with Accepted=false. Each attempt is independent — no state survives it.
func (g *Gate) Check(ctx context.Context, sub Submission) (*Verdict, error) {
	if !sub.HasImage() && !sub.HasText() {
		return nil, &InputError{Reason: "submission has no content"}
	}
	// Length is checked before any detector call so a short essay never
	// costs a provider round trip.
	if sub.HasText() && len(sub.Text) < MinTextLength {
		return nil, &InputError{
			Reason: fmt.Sprintf("text must be at least %d characters for AI detection", MinTextLength),
		}
	}

	verdict := &Verdict{Accepted: true}

	if sub.HasImage() {
		result, err := g.image.CheckImage(ctx, sub.ImageBytes, sub.ImageFilename)
		if err != nil {
			metrics.RecordDetection(string(ModalityImage), "service_error")
			return nil, err
		}
		g.record(result)
		verdict.Results = append(verdict.Results, result)
		if !result.Passed {
			return rejected(verdict, result,
				"This image appears to be AI-generated (confidence: %d%%). Artfolio only accepts human-created artwork."), nil
		}
	}

	if sub.HasText() {
		result, err := g.text.CheckText(ctx, sub.Text)
		if err != nil {
			metrics.RecordDetection(string(ModalityText), "service_error")
			return nil, err
		}
		g.record(result)
		verdict.Results = append(verdict.Results, result)
		if !result.Passed {
			return rejected(verdict, result,
				"This essay appears to be AI-generated (confidence: %d%%). Artfolio only accepts human-written content."), nil
		}
	}

	return verdict, nil
}

// record logs and counts one modality outcome. Degraded passes are
// unverified content entering the system and must stay visible to
// operators even though the uploader never sees them.
func (g *Gate) record(r Result) {
	switch {
	case r.Degraded():
		metrics.RecordDetection(string(r.Modality), "degraded")
		logger.Log.Warn("detection degraded pass",
			zap.String("modality", string(r.Modality)),
			zap.String("provider", r.Provider),
			zap.String("warning", r.Warning),
		)
	case r.Passed:
		metrics.RecordDetection(string(r.Modality), "passed")
	default:
		metrics.RecordDetection(string(r.Modality), "rejected")
		logger.Log.Info("detection rejected content",
			zap.String("modality", string(r.Modality)),
			zap.String("provider", r.Provider),
			zap.Float64("score", r.Score),
			zap.Float64("threshold", r.Threshold),
		)
	}
}

func rejected(v *Verdict, r Result, format string) *Verdict {
	v.Accepted = false
	v.Rejected = &v.Results[len(v.Results)-1]
	v.Message = fmt.Sprintf(format, int(math.Round(r.Score*100)))
	return v
}
