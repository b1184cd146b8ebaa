package engine

import (
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// OpenONNX loads the model at path into an ONNX Runtime session with
// preallocated input and output tensors. Dynamic input dimensions are fixed
// to a batch of 1 and the given spatial size. The runtime environment must
// already be initialized.
func OpenONNX(path string, width, height int) (*Handle, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("model declares no inputs or outputs")
	}
	in, out := inputs[0], outputs[0]

	inDType, err := dtypeOf(in.DataType)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", in.Name, err)
	}
	if len(in.Dimensions) != 4 {
		return nil, fmt.Errorf("input %q: expected a 4-D image tensor, got shape %v", in.Name, in.Dimensions)
	}
	layout := DetectLayout(in.Dimensions)
	inShape := resolveInputShape(in.Dimensions, layout, width, height)

	outShape := make([]int64, len(out.Dimensions))
	for i, d := range out.Dimensions {
		if d <= 0 {
			if i != 0 {
				return nil, fmt.Errorf("output %q: dynamic dimension %d is not supported", out.Name, i)
			}
			d = 1
		}
		outShape[i] = d
	}

	s := &onnxSession{}
	if err := s.allocInput(inDType, inShape); err != nil {
		return nil, err
	}
	if err := s.allocOutput(out.DataType, outShape); err != nil {
		s.Close()
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	session, err := ort.NewAdvancedSession(
		path,
		[]string{in.Name},
		[]string{out.Name},
		[]ort.Value{s.input},
		[]ort.Value{s.output},
		opts,
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}
	s.session = session

	return &Handle{
		Path:    path,
		Input:   TensorInfo{Name: in.Name, Shape: inShape, DType: inDType},
		Output:  TensorInfo{Name: out.Name, Shape: outShape, DType: DTypeFloat32},
		Layout:  layout,
		Session: s,
	}, nil
}

func dtypeOf(t ort.TensorElementDataType) (DType, error) {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return DTypeFloat32, nil
	case ort.TensorElementDataTypeUint8:
		return DTypeUint8, nil
	case ort.TensorElementDataTypeInt8:
		return DTypeInt8, nil
	default:
		return 0, fmt.Errorf("unsupported tensor element type %v", t)
	}
}

func resolveInputShape(dims ort.Shape, layout Layout, width, height int) []int64 {
	shape := []int64{1, dims[1], dims[2], dims[3]}
	hAxis, wAxis, cAxis := 1, 2, 3
	if layout == LayoutNCHW {
		hAxis, wAxis, cAxis = 2, 3, 1
	}
	if shape[hAxis] <= 0 {
		shape[hAxis] = int64(height)
	}
	if shape[wAxis] <= 0 {
		shape[wAxis] = int64(width)
	}
	if shape[cAxis] <= 0 {
		shape[cAxis] = Channels
	}
	return shape
}

type onnxSession struct {
	session *ort.AdvancedSession
	input   ort.Value
	output  ort.Value
	fill    func(b *Batch) error
	read    func() []float32
}

func (s *onnxSession) allocInput(dtype DType, shape []int64) error {
	var err error
	switch dtype {
	case DTypeUint8:
		var t *ort.Tensor[uint8]
		t, err = ort.NewEmptyTensor[uint8](ort.NewShape(shape...))
		if err == nil {
			s.input = t
			s.fill = func(b *Batch) error { return fill(t.GetData(), b.Uint8) }
		}
	case DTypeInt8:
		var t *ort.Tensor[int8]
		t, err = ort.NewEmptyTensor[int8](ort.NewShape(shape...))
		if err == nil {
			s.input = t
			s.fill = func(b *Batch) error { return fill(t.GetData(), b.Int8) }
		}
	default:
		var t *ort.Tensor[float32]
		t, err = ort.NewEmptyTensor[float32](ort.NewShape(shape...))
		if err == nil {
			s.input = t
			s.fill = func(b *Batch) error { return fill(t.GetData(), b.Float32) }
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}
	return nil
}

func (s *onnxSession) allocOutput(t ort.TensorElementDataType, shape []int64) error {
	switch t {
	case ort.TensorElementDataTypeFloat:
		out, err := ort.NewEmptyTensor[float32](ort.NewShape(shape...))
		if err != nil {
			return fmt.Errorf("failed to create output tensor: %w", err)
		}
		s.output = out
		s.read = func() []float32 {
			data := out.GetData()
			scores := make([]float32, len(data))
			copy(scores, data)
			return scores
		}
	case ort.TensorElementDataTypeUint8:
		out, err := ort.NewEmptyTensor[uint8](ort.NewShape(shape...))
		if err != nil {
			return fmt.Errorf("failed to create output tensor: %w", err)
		}
		s.output = out
		s.read = func() []float32 {
			data := out.GetData()
			scores := make([]float32, len(data))
			for i, v := range data {
				scores[i] = float32(v)
			}
			return scores
		}
	default:
		return fmt.Errorf("unsupported output element type %v", t)
	}
	return nil
}

func fill[T uint8 | int8 | float32](dst, src []T) error {
	if len(dst) != len(src) {
		return fmt.Errorf("input size mismatch: model expects %d values, got %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

func (s *onnxSession) Run(b *Batch) ([]float32, error) {
	if err := s.fill(b); err != nil {
		return nil, err
	}
	if err := s.session.Run(); err != nil {
		return nil, err
	}
	return s.read(), nil
}

func (s *onnxSession) Close() error {
	var errs []error
	if s.session != nil {
		errs = append(errs, s.session.Destroy())
	}
	if s.input != nil {
		errs = append(errs, s.input.Destroy())
	}
	if s.output != nil {
		errs = append(errs, s.output.Destroy())
	}
	return errors.Join(errs...)
}
