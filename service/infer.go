package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/krau/plantclassifier/engine"
)

type Predictor interface {
	Predict(t *engine.Tensor) (engine.Prediction, error)
	InputSize() (width, height int, ok bool)
}

type Labeler interface {
	Name(idx int) string
}

type Options struct {
	Width          int
	Height         int
	Normalization  Normalization
	FetchTimeout   time.Duration
	MaxImageBytes  int64
	MaxImagePixels int64
}

// Classifier runs the request pipeline: acquisition, preprocessing,
// inference and label lookup.
type Classifier struct {
	predictor Predictor
	labels    Labeler
	client    *http.Client
	opts      Options
}

func NewClassifier(p Predictor, l Labeler, opts Options) *Classifier {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultImageWidth, DefaultImageHeight
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.MaxImagePixels == 0 {
		opts.MaxImagePixels = DefaultMaxImagePixels
	}
	return &Classifier{
		predictor: p,
		labels:    l,
		client:    &http.Client{Timeout: opts.FetchTimeout},
		opts:      opts,
	}
}

// TargetSize is the spatial size images are resized to: the model's own
// when it declares one, the configured default otherwise.
func (c *Classifier) TargetSize() (width, height int) {
	if w, h, ok := c.predictor.InputSize(); ok {
		return w, h
	}
	return c.opts.Width, c.opts.Height
}

func (c *Classifier) ClassifyURL(ctx context.Context, url string) (*Result, error) {
	b, err := FromURL(ctx, c.client, url, c.limits())
	if err != nil {
		return nil, err
	}
	return c.Classify(b)
}

func (c *Classifier) ClassifyReader(r io.Reader) (*Result, error) {
	b, err := FromReader(r, c.limits())
	if err != nil {
		return nil, err
	}
	return c.Classify(b)
}

func (c *Classifier) limits() Limits {
	return Limits{Bytes: c.opts.MaxImageBytes, Pixels: c.opts.MaxImagePixels}
}

func (c *Classifier) Classify(b *Bitmap) (*Result, error) {
	w, h := c.TargetSize()
	t, err := Preprocess(b, w, h, c.opts.Normalization)
	if err != nil {
		return nil, err
	}
	p, err := c.predictor.Predict(t)
	if err != nil {
		return nil, err
	}
	return &Result{
		Index:      p.Index,
		Confidence: p.Confidence,
		Label:      c.labels.Name(p.Index),
	}, nil
}
