package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	cases := []struct {
		name       string
		scores     []float32
		index      int
		confidence float64
	}{
		{"normalized", []float32{0.1, 0.7, 0.2}, 1, 0.7},
		{"unnormalized", []float32{10, 70, 20}, 1, 0.7},
		{"tie picks first", []float32{0.5, 0.5}, 0, 0.5},
		{"single class", []float32{0.9}, 0, 0.9},
		{"within tolerance", []float32{0.55, 0.5}, 0, 0.55},
		{"negative logits", []float32{-3, -1, -2}, 1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Interpret(tc.scores, DefaultRenormalizeAbove)

			require.NoError(t, err)
			assert.Equal(t, tc.index, p.Index)
			assert.InDelta(t, tc.confidence, p.Confidence, 1e-6)
		})
	}
}

func TestInterpret_Empty(t *testing.T) {
	_, err := Interpret(nil, DefaultRenormalizeAbove)

	assert.Error(t, err)
}

func TestInterpret_CustomThreshold(t *testing.T) {
	p, err := Interpret([]float32{0.55, 0.5}, 1.0)

	require.NoError(t, err)
	assert.InDelta(t, 0.55/1.05, p.Confidence, 1e-6)
}
