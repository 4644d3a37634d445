package detection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockImageDetector returns a fixed score and counts calls.
type mockImageDetector struct {
	score float64
	err   error
	calls int
}

func (m *mockImageDetector) CheckImage(_ context.Context, _ []byte, _ string) (Result, error) {
	m.calls++
	if m.err != nil {
		return Result{}, m.err
	}
	return Result{
		Modality:  ModalityImage,
		Passed:    Passes(m.score, ImageThreshold),
		Score:     m.score,
		Threshold: ImageThreshold,
		Provider:  "mock-image",
	}, nil
}

// mockTextDetector returns a fixed score and counts calls.
type mockTextDetector struct {
	score   float64
	warning string
	err     error
	calls   int
}

func (m *mockTextDetector) CheckText(_ context.Context, _ string) (Result, error) {
	m.calls++
	if m.err != nil {
		return Result{}, m.err
	}
	return Result{
		Modality:  ModalityText,
		Passed:    Passes(m.score, TextThreshold),
		Score:     m.score,
		Threshold: TextThreshold,
		Provider:  "mock-text",
		Warning:   m.warning,
	}, nil
}

var longEssay = strings.Repeat("When I sat down to write this, the rain was loud on the roof. ", 4)

func TestGateAcceptsWhenAllModalitiesPass(t *testing.T) {
	img := &mockImageDetector{score: 0.1}
	txt := &mockTextDetector{score: 0.2}
	gate := NewGateWithDetectors(img, txt)

	verdict, err := gate.Check(context.Background(), Submission{
		ImageBytes:    []byte("img"),
		ImageFilename: "a.png",
		Text:          longEssay,
	})
	require.NoError(t, err)

	assert.True(t, verdict.Accepted)
	assert.Len(t, verdict.Results, 2)
	assert.Nil(t, verdict.Rejected)
	assert.Equal(t, 1, img.calls)
	assert.Equal(t, 1, txt.calls)
}

func TestGateRejectsOnEssayEvenWhenImagePasses(t *testing.T) {
	// Image 0.40 passes (0.75 cutoff); essay 0.70 fails (0.65 cutoff).
	img := &mockImageDetector{score: 0.40}
	txt := &mockTextDetector{score: 0.70}
	gate := NewGateWithDetectors(img, txt)

	verdict, err := gate.Check(context.Background(), Submission{
		ImageBytes: []byte("img"),
		Text:       longEssay,
	})
	require.NoError(t, err)

	assert.False(t, verdict.Accepted)
	require.NotNil(t, verdict.Rejected)
	assert.Equal(t, ModalityText, verdict.Rejected.Modality)
	assert.Equal(t, 0.70, verdict.Rejected.Score)
	assert.Contains(t, verdict.Message, "essay")
	assert.Contains(t, verdict.Message, "70%")
}

func TestGateShortCircuitsOnImageRejection(t *testing.T) {
	img := &mockImageDetector{score: 0.80}
	txt := &mockTextDetector{score: 0.1}
	gate := NewGateWithDetectors(img, txt)

	verdict, err := gate.Check(context.Background(), Submission{
		ImageBytes: []byte("img"),
		Text:       longEssay,
	})
	require.NoError(t, err)

	assert.False(t, verdict.Accepted)
	require.NotNil(t, verdict.Rejected)
	assert.Equal(t, ModalityImage, verdict.Rejected.Modality)
	assert.Contains(t, verdict.Message, "image")
	assert.Contains(t, verdict.Message, "80%")

	// No point paying for the text call once the image is rejected.
	assert.Equal(t, 1, img.calls)
	assert.Equal(t, 0, txt.calls)
}

func TestGateShortTextRejectedBeforeAnyDetectorCall(t *testing.T) {
	img := &mockImageDetector{score: 0.1}
	txt := &mockTextDetector{score: 0.1}
	gate := NewGateWithDetectors(img, txt)

	_, err := gate.Check(context.Background(), Submission{
		ImageBytes: []byte("img"),
		Text:       "way too short",
	})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Equal(t, 0, img.calls)
	assert.Equal(t, 0, txt.calls)
}

func TestGateEmptySubmissionIsInputError(t *testing.T) {
	gate := NewGateWithDetectors(&mockImageDetector{}, &mockTextDetector{})
	_, err := gate.Check(context.Background(), Submission{})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestGateServiceErrorFailsClosed(t *testing.T) {
	img := &mockImageDetector{err: &ServiceError{Provider: "mock-image", Err: errors.New("connection refused")}}
	txt := &mockTextDetector{score: 0.1}
	gate := NewGateWithDetectors(img, txt)

	_, err := gate.Check(context.Background(), Submission{
		ImageBytes: []byte("img"),
		Text:       longEssay,
	})
	require.Error(t, err)
	assert.True(t, IsServiceError(err))
	assert.Equal(t, 0, txt.calls)
}

func TestGateTextOnlySubmission(t *testing.T) {
	img := &mockImageDetector{score: 0.9}
	txt := &mockTextDetector{score: 0.3}
	gate := NewGateWithDetectors(img, txt)

	verdict, err := gate.Check(context.Background(), Submission{Text: longEssay})
	require.NoError(t, err)

	assert.True(t, verdict.Accepted)
	assert.Equal(t, 0, img.calls)
	assert.Equal(t, 1, txt.calls)
}

func TestGateDegradedPassIsAcceptedButFlagged(t *testing.T) {
	txt := &mockTextDetector{score: 0, warning: "detection parsing failed"}
	gate := NewGateWithDetectors(&mockImageDetector{}, txt)

	verdict, err := gate.Check(context.Background(), Submission{Text: longEssay})
	require.NoError(t, err)

	assert.True(t, verdict.Accepted)
	require.Len(t, verdict.Results, 1)
	assert.True(t, verdict.Results[0].Degraded())
}

func TestGateIsIdempotentForFixedScores(t *testing.T) {
	img := &mockImageDetector{score: 0.5}
	txt := &mockTextDetector{score: 0.6}
	gate := NewGateWithDetectors(img, txt)

	sub := Submission{ImageBytes: []byte("img"), Text: longEssay}

	first, err := gate.Check(context.Background(), sub)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := gate.Check(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, first.Accepted, again.Accepted)
		assert.Equal(t, first.Results, again.Results)
		assert.Equal(t, first.Message, again.Message)
	}
}
