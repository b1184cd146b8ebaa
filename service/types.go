package service

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

const (
	DefaultImageWidth  = 256
	DefaultImageHeight = 256
)

// ImageNet channel statistics on the 0-255 pixel scale, as used when the
// EfficientNet family was trained.
var (
	ImageNetMean = [3]float32{123.68, 116.779, 103.939}
	ImageNetStd  = [3]float32{58.393, 57.12, 57.375}
)

// Bitmap is a decoded RGB image, 8 bits per channel, stored row-major as
// R,G,B triples. It is not modified after acquisition.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint8
}

// NRGBA returns an opaque copy usable with the image package.
func (b *Bitmap) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

type Normalization int

const (
	// NormEfficientNet subtracts the ImageNet mean and divides by the
	// ImageNet std per channel. Models trained with this convention produce
	// plausible but wrong scores when fed anything else.
	NormEfficientNet Normalization = iota
	// NormSimple maps samples to [0,1].
	NormSimple
)

func (n Normalization) String() string {
	if n == NormSimple {
		return "simple"
	}
	return "efficientnet"
}

func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "efficientnet":
		return NormEfficientNet, nil
	case "simple":
		return NormSimple, nil
	default:
		return 0, fmt.Errorf("unknown normalization %q", s)
	}
}

type Result struct {
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

var ErrNoImage = errors.New("no image provided, use image_file or image_url")

// DownloadError reports a failed fetch of a remote image.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download image from %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DecodeError reports bytes that could not be decoded as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsAcquisitionError reports whether err was caused by the caller's input
// rather than by the service.
func IsAcquisitionError(err error) bool {
	var de *DownloadError
	var dec *DecodeError
	return errors.Is(err, ErrNoImage) || errors.As(err, &de) || errors.As(err, &dec)
}
