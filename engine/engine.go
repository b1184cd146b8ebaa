package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine owns the single loaded model of the process. Predict may be called
// from any number of goroutines; the forward pass itself runs one at a time.
type Engine struct {
	handle    *Handle
	threshold float64
	mu        sync.Mutex
}

// New wraps h. A nil handle yields an engine that reports not loaded and
// fails every Predict with ErrModelNotLoaded.
func New(h *Handle, renormalizeAbove float64) *Engine {
	if renormalizeAbove <= 0 {
		renormalizeAbove = DefaultRenormalizeAbove
	}
	return &Engine{handle: h, threshold: renormalizeAbove}
}

func (e *Engine) Loaded() bool {
	return e != nil && e.handle != nil
}

// Info describes the loaded model for status display.
type Info struct {
	Path        string
	InputWidth  int
	InputHeight int
	InputDType  DType
	Layout      Layout
}

func (e *Engine) Info() (Info, bool) {
	if !e.Loaded() {
		return Info{}, false
	}
	w, h, _ := e.handle.InputSize()
	return Info{
		Path:        e.handle.Path,
		InputWidth:  w,
		InputHeight: h,
		InputDType:  e.handle.Input.DType,
		Layout:      e.handle.Layout,
	}, true
}

// InputSize returns the spatial size the model declares, ok=false when not
// loaded or dynamic.
func (e *Engine) InputSize() (width, height int, ok bool) {
	if !e.Loaded() {
		return 0, 0, false
	}
	return e.handle.InputSize()
}

func (e *Engine) Predict(t *Tensor) (Prediction, error) {
	if !e.Loaded() {
		return Prediction{}, ErrModelNotLoaded
	}
	batch := Adapt(t, e.handle.Input.DType, e.handle.Layout)

	scores, err := e.run(batch)
	if err != nil {
		inferenceErrors.Inc()
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}
	return Interpret(scores, e.threshold)
}

func (e *Engine) run(b *Batch) ([]float32, error) {
	queued := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	lockWait.Observe(start.Sub(queued).Seconds())
	scores, err := e.handle.Session.Run(b)
	inferenceDuration.Observe(time.Since(start).Seconds())
	return scores, err
}

func (e *Engine) Close() error {
	if !e.Loaded() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.handle.Session.Close(); err != nil {
		slog.Error("Failed to release model session", slog.String("error", err.Error()))
		return err
	}
	return nil
}
