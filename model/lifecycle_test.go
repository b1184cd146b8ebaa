package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/krau/plantclassifier/config"
	"github.com/krau/plantclassifier/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSession struct{}

func (nopSession) Run(*engine.Batch) ([]float32, error) { return []float32{1}, nil }
func (nopSession) Close() error                         { return nil }

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.onnx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	cfg := config.Default()
	cfg.ModelPath = path

	var openedWith string
	h, err := Load(context.Background(), cfg, func(p string, w, hh int) (*engine.Handle, error) {
		openedWith = p
		return &engine.Handle{
			Path:    p,
			Input:   engine.TensorInfo{Shape: []int64{1, int64(hh), int64(w), 3}},
			Session: nopSession{},
		}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, path, openedWith)
	assert.Equal(t, path, h.Path)

	s := Describe(engine.New(h, 0), cfg)
	assert.Equal(t, Status{Loaded: true, Path: path, InputWidth: 256, InputHeight: 256}, s)
}

func TestLoad_OpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.onnx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	cfg := config.Default()
	cfg.ModelPath = path

	_, err := Load(context.Background(), cfg, func(string, int, int) (*engine.Handle, error) {
		return nil, errors.New("corrupt model")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt model")
}

func TestDescribe_NotLoaded(t *testing.T) {
	cfg := config.Default()

	s := Describe(engine.New(nil, 0), cfg)

	assert.Equal(t, Status{Path: "plant_species.onnx", InputWidth: 256, InputHeight: 256}, s)
}
