package engine

import "errors"

// DefaultRenormalizeAbove is the score-sum tolerance above which an output
// vector is considered unnormalized.
const DefaultRenormalizeAbove = 1.1

var errEmptyOutput = errors.New("model returned an empty output vector")

// Interpret picks the highest scoring class, lowest index on ties. When the
// scores sum above threshold they are renormalized by their total before the
// confidence is read.
func Interpret(scores []float32, threshold float64) (Prediction, error) {
	if len(scores) == 0 {
		return Prediction{}, errEmptyOutput
	}

	idx := 0
	var sum float64
	for i, v := range scores {
		if v > scores[idx] {
			idx = i
		}
		sum += float64(v)
	}

	confidence := float64(scores[idx])
	if sum > threshold {
		confidence /= sum
	}
	return Prediction{Index: idx, Confidence: confidence}, nil
}
