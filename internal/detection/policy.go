package detection

// Passes applies the verdict policy: content passes when the AI-likelihood
// score is strictly below the threshold. A score exactly equal to the
// threshold is rejected. Pure function, no state.
func Passes(score, threshold float64) bool {
	return score < threshold
}

// ThresholdFor returns the score cutoff for a modality.
func ThresholdFor(m Modality) float64 {
	if m == ModalityText {
		return TextThreshold
	}
	return ImageThreshold
}
