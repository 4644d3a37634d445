package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdValues(t *testing.T) {
	// The cutoffs are part of the product contract, not tunables.
	assert.Equal(t, 0.75, ImageThreshold)
	assert.Equal(t, 0.65, TextThreshold)
	assert.Equal(t, 0.75, ThresholdFor(ModalityImage))
	assert.Equal(t, 0.65, ThresholdFor(ModalityText))
}

func TestPassesStrictInequality(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		threshold float64
		want      bool
	}{
		{"well below threshold", 0.1, 0.75, true},
		{"just below threshold", 0.7499, 0.75, true},
		{"exactly at threshold rejects", 0.75, 0.75, false},
		{"just above threshold", 0.7501, 0.75, false},
		{"well above threshold", 0.99, 0.75, false},
		{"zero score", 0, 0.65, true},
		{"text boundary rejects", 0.65, 0.65, false},
		{"above nominal range", 1.2, 0.75, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Passes(tt.score, tt.threshold))
		})
	}
}
