package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scratchSession mimics an interpreter with shared input/output buffers: it
// is only correct when calls never overlap.
type scratchSession struct {
	buf     []float32
	classes int
	active  atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
	closed  bool
}

func (s *scratchSession) Run(b *Batch) ([]float32, error) {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)
	s.calls.Add(1)

	copy(s.buf, b.Float32)
	time.Sleep(time.Millisecond)

	out := make([]float32, s.classes)
	for i, v := range s.buf {
		out[i%s.classes] += v
	}
	return out, nil
}

func (s *scratchSession) Close() error {
	s.closed = true
	return nil
}

func newTestHandle(s Session, h, w int) *Handle {
	return &Handle{
		Path:    "test.onnx",
		Input:   TensorInfo{Name: "input", Shape: []int64{1, int64(h), int64(w), Channels}, DType: DTypeFloat32},
		Output:  TensorInfo{Name: "output", Shape: []int64{1, 4}, DType: DTypeFloat32},
		Layout:  LayoutNHWC,
		Session: s,
	}
}

func gradientTensor(h, w int, seed float32) *Tensor {
	t := NewTensor(h, w)
	for i := range t.Data {
		t.Data[i] = seed + float32(i%7)*0.01
	}
	return t
}

func TestPredict_NotLoaded(t *testing.T) {
	e := New(nil, 0)

	_, err := e.Predict(NewTensor(2, 2))

	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.False(t, e.Loaded())
	_, ok := e.Info()
	assert.False(t, ok)
}

func TestPredict_ConcurrentMatchesSequential(t *testing.T) {
	const h, w = 8, 8
	s := &scratchSession{buf: make([]float32, h*w*Channels), classes: 4}
	e := New(newTestHandle(s, h, w), DefaultRenormalizeAbove)

	inputs := []*Tensor{gradientTensor(h, w, 0.1), gradientTensor(h, w, 0.5), gradientTensor(h, w, 0.9)}
	want := make([]Prediction, len(inputs))
	for i, in := range inputs {
		p, err := e.Predict(in)
		require.NoError(t, err)
		want[i] = p
	}

	const n = 48
	got := make([]Prediction, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := e.Predict(inputs[i%len(inputs)])
			assert.NoError(t, err)
			got[i] = p
		}(i)
	}
	wg.Wait()

	assert.False(t, s.overlap.Load(), "session Run calls overlapped")
	assert.Equal(t, int32(n+len(inputs)), s.calls.Load())
	for i, p := range got {
		assert.Equal(t, want[i%len(inputs)], p)
	}
}

type failingSession struct{}

func (failingSession) Run(*Batch) ([]float32, error) { return nil, errors.New("boom") }
func (failingSession) Close() error                  { return nil }

func TestPredict_SessionError(t *testing.T) {
	e := New(newTestHandle(failingSession{}, 2, 2), 0)

	_, err := e.Predict(NewTensor(2, 2))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelNotLoaded)
	assert.Contains(t, err.Error(), "boom")
}

type recordingSession struct {
	last *Batch
}

func (r *recordingSession) Run(b *Batch) ([]float32, error) {
	r.last = b
	return []float32{0.2, 0.8}, nil
}
func (r *recordingSession) Close() error { return nil }

func TestPredict_AdaptsToDeclaredDType(t *testing.T) {
	rec := &recordingSession{}
	h := newTestHandle(rec, 1, 1)
	h.Input.DType = DTypeUint8
	e := New(h, 0)

	tensor := NewTensor(1, 1)
	copy(tensor.Data, []float32{0, 0.5, 1})
	p, err := e.Predict(tensor)

	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
	require.NotNil(t, rec.last)
	assert.Equal(t, []int64{1, 1, 1, 3}, rec.last.Shape)
	assert.Equal(t, []uint8{0, 127, 255}, rec.last.Uint8)
}

func TestInfoAndClose(t *testing.T) {
	s := &scratchSession{buf: make([]float32, 4*6*Channels), classes: 2}
	e := New(newTestHandle(s, 4, 6), 0)

	info, ok := e.Info()
	require.True(t, ok)
	assert.Equal(t, "test.onnx", info.Path)
	assert.Equal(t, 6, info.InputWidth)
	assert.Equal(t, 4, info.InputHeight)

	require.NoError(t, e.Close())
	assert.True(t, s.closed)
}
