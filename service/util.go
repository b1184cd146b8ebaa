package service

import (
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/krau/plantclassifier/engine"
)

// prepare image for model input
func Preprocess(b *Bitmap, width, height int, mode Normalization) (*engine.Tensor, error) {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return nil, errors.New("empty bitmap")
	}
	if len(b.Pix) != b.Width*b.Height*3 {
		return nil, fmt.Errorf("bitmap has %d samples, want %d", len(b.Pix), b.Width*b.Height*3)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	img := imaging.Resize(b.NRGBA(), width, height, imaging.Lanczos)

	t := engine.NewTensor(height, width)
	i := 0
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			t.Data[i] = float32(row[x*4])
			t.Data[i+1] = float32(row[x*4+1])
			t.Data[i+2] = float32(row[x*4+2])
			i += 3
		}
	}
	Normalize(t, mode)
	return t, nil
}

// Normalize rescales t in place.
func Normalize(t *engine.Tensor, mode Normalization) {
	switch mode {
	case NormSimple:
		for i := range t.Data {
			t.Data[i] /= 255.0
		}
	default:
		for i := range t.Data {
			c := i % engine.Channels
			t.Data[i] = (t.Data[i] - ImageNetMean[c]) / ImageNetStd[c]
		}
	}
}

// Denormalize is the inverse of Normalize, returning samples to the 0-255
// pixel scale.
func Denormalize(t *engine.Tensor, mode Normalization) {
	switch mode {
	case NormSimple:
		for i := range t.Data {
			t.Data[i] *= 255.0
		}
	default:
		for i := range t.Data {
			c := i % engine.Channels
			t.Data[i] = t.Data[i]*ImageNetStd[c] + ImageNetMean[c]
		}
	}
}
