package engine

import (
	"errors"
	"fmt"
)

// Channels is the number of color channels every tensor carries (RGB).
const Channels = 3

var ErrModelNotLoaded = errors.New("model not loaded")

// DType is the element type a model declares for its input tensor.
type DType int

const (
	DTypeFloat32 DType = iota
	DTypeUint8
	DTypeInt8
)

func (d DType) String() string {
	switch d {
	case DTypeFloat32:
		return "float32"
	case DTypeUint8:
		return "uint8"
	case DTypeInt8:
		return "int8"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// Layout is the axis order of a 4-D image input.
type Layout int

const (
	LayoutNHWC Layout = iota
	LayoutNCHW
)

func (l Layout) String() string {
	if l == LayoutNCHW {
		return "NCHW"
	}
	return "NHWC"
}

type TensorInfo struct {
	Name  string
	Shape []int64
	DType DType
}

// Tensor is a preprocessed image: Height*Width*Channels float32 samples in
// HWC order, without a batch dimension.
type Tensor struct {
	Height int
	Width  int
	Data   []float32
}

func NewTensor(height, width int) *Tensor {
	return &Tensor{
		Height: height,
		Width:  width,
		Data:   make([]float32, height*width*Channels),
	}
}

// Shape returns (height, width, channels).
func (t *Tensor) Shape() [3]int {
	return [3]int{t.Height, t.Width, Channels}
}

// Batch is a model-ready input: a leading batch dimension of 1 and exactly
// one populated data slice matching DType.
type Batch struct {
	Shape   []int64
	DType   DType
	Float32 []float32
	Uint8   []uint8
	Int8    []int8
}

func (b *Batch) Len() int {
	switch b.DType {
	case DTypeUint8:
		return len(b.Uint8)
	case DTypeInt8:
		return len(b.Int8)
	default:
		return len(b.Float32)
	}
}

type Prediction struct {
	Index      int
	Confidence float64
}

// Session executes a loaded model. Implementations are not required to be
// safe for concurrent use; Engine serializes calls to Run.
type Session interface {
	// Run binds the batch to the model input, executes the forward pass and
	// returns a copy of the output scores with the batch dimension dropped.
	Run(b *Batch) ([]float32, error)
	Close() error
}

// Handle is a loaded model and the tensor metadata it declares.
type Handle struct {
	Path    string
	Input   TensorInfo
	Output  TensorInfo
	Layout  Layout
	Session Session
}

// InputSize returns the declared spatial size, or ok=false when the model
// leaves it dynamic.
func (h *Handle) InputSize() (width, height int, ok bool) {
	s := h.Input.Shape
	if len(s) != 4 {
		return 0, 0, false
	}
	var hh, ww int64
	if h.Layout == LayoutNCHW {
		hh, ww = s[2], s[3]
	} else {
		hh, ww = s[1], s[2]
	}
	if hh <= 0 || ww <= 0 {
		return 0, 0, false
	}
	return int(ww), int(hh), true
}

// DetectLayout guesses the axis order of a 4-D image input shape.
func DetectLayout(shape []int64) Layout {
	if len(shape) == 4 && shape[1] == Channels && shape[3] != Channels {
		return LayoutNCHW
	}
	return LayoutNHWC
}
