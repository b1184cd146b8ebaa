// Package model provisions the model artifact at startup and loads it into
// the inference engine.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/krau/plantclassifier/config"
	"github.com/krau/plantclassifier/engine"
)

// Opener loads a model file. Dynamic spatial dimensions take width/height.
type Opener func(path string, width, height int) (*engine.Handle, error)

// Load resolves the configured model artifact and opens it.
func Load(ctx context.Context, cfg config.Config, open Opener) (*engine.Handle, error) {
	p := &Provisioner{
		Client:  &http.Client{},
		URL:     cfg.ModelUrl,
		Timeout: cfg.DownloadTimeout.Duration,
	}
	path, err := Provision(ctx, p.Strategies(cfg.ModelPath, scratchDirs()...))
	if err != nil {
		return nil, err
	}

	h, err := open(path, cfg.ImageWidth, cfg.ImageHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	w, hh, _ := h.InputSize()
	slog.Info("Model loaded",
		slog.String("path", h.Path),
		slog.String("input", h.Input.Name),
		slog.String("dtype", h.Input.DType.String()),
		slog.String("layout", h.Layout.String()),
		slog.Int("width", w),
		slog.Int("height", hh),
		slog.Any("output_shape", h.Output.Shape),
	)
	return h, nil
}

// scratchDirs lists writable fallback locations, preferred first.
func scratchDirs() []string {
	dirs := []string{os.TempDir()}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

type Status struct {
	Loaded      bool
	Path        string
	InputWidth  int
	InputHeight int
}

// Describe reports the engine's model, falling back to the configured path
// and default size when nothing is loaded or the model leaves its size open.
func Describe(e *engine.Engine, cfg config.Config) Status {
	s := Status{Path: cfg.ModelPath, InputWidth: cfg.ImageWidth, InputHeight: cfg.ImageHeight}
	info, ok := e.Info()
	if !ok {
		return s
	}
	s.Loaded = true
	s.Path = info.Path
	if info.InputWidth > 0 && info.InputHeight > 0 {
		s.InputWidth, s.InputHeight = info.InputWidth, info.InputHeight
	}
	return s
}
