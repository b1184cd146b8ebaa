package service

import (
	"math/rand"
	"testing"

	"github.com/krau/plantclassifier/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBitmap(r *rand.Rand, w, h int) *Bitmap {
	b := &Bitmap{Width: w, Height: h, Pix: make([]uint8, w*h*3)}
	r.Read(b.Pix)
	return b
}

func TestPreprocess_OutputShape(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	sizes := [][2]int{{1, 1}, {3, 500}, {640, 480}, {256, 256}, {97, 13}}
	for _, s := range sizes {
		for _, mode := range []Normalization{NormEfficientNet, NormSimple} {
			tensor, err := Preprocess(randomBitmap(r, s[0], s[1]), 256, 256, mode)

			require.NoError(t, err)
			assert.Equal(t, [3]int{256, 256, 3}, tensor.Shape())
			assert.Len(t, tensor.Data, 256*256*3)
		}
	}

	tensor, err := Preprocess(randomBitmap(r, 50, 40), 32, 24, NormSimple)
	require.NoError(t, err)
	assert.Equal(t, [3]int{24, 32, 3}, tensor.Shape())
}

func TestPreprocess_SimpleRange(t *testing.T) {
	tensor, err := Preprocess(randomBitmap(rand.New(rand.NewSource(2)), 40, 30), 16, 16, NormSimple)

	require.NoError(t, err)
	for _, v := range tensor.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestPreprocess_UniformColor(t *testing.T) {
	b := &Bitmap{Width: 7, Height: 5, Pix: make([]uint8, 7*5*3)}
	for i := 0; i < len(b.Pix); i += 3 {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2] = 123, 200, 10
	}

	tensor, err := Preprocess(b, 4, 4, NormEfficientNet)

	require.NoError(t, err)
	assert.InDelta(t, (123-123.68)/58.393, tensor.Data[0], 1e-4)
	assert.InDelta(t, (200-116.779)/57.12, tensor.Data[1], 1e-4)
	assert.InDelta(t, (10-103.939)/57.375, tensor.Data[2], 1e-4)
}

func TestPreprocess_Invalid(t *testing.T) {
	_, err := Preprocess(nil, 256, 256, NormSimple)
	assert.Error(t, err)

	_, err = Preprocess(&Bitmap{Width: 2, Height: 2, Pix: make([]uint8, 5)}, 256, 256, NormSimple)
	assert.Error(t, err)

	_, err = Preprocess(&Bitmap{Width: 1, Height: 1, Pix: make([]uint8, 3)}, 0, 256, NormSimple)
	assert.Error(t, err)
}

func TestNormalize_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for _, mode := range []Normalization{NormEfficientNet, NormSimple} {
		tensor := engine.NewTensor(9, 11)
		for i := range tensor.Data {
			tensor.Data[i] = float32(r.Intn(256))
		}
		original := append([]float32(nil), tensor.Data...)

		Normalize(tensor, mode)
		Denormalize(tensor, mode)

		assert.InDeltaSlice(t, original, tensor.Data, 1e-3, mode.String())
	}
}

func TestParseNormalization(t *testing.T) {
	n, err := ParseNormalization("EfficientNet")
	require.NoError(t, err)
	assert.Equal(t, NormEfficientNet, n)

	n, err = ParseNormalization("simple")
	require.NoError(t, err)
	assert.Equal(t, NormSimple, n)

	n, err = ParseNormalization("")
	require.NoError(t, err)
	assert.Equal(t, NormEfficientNet, n)

	_, err = ParseNormalization("caffe")
	assert.Error(t, err)
}
