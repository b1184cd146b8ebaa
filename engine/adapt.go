package engine

// Adapt turns a preprocessed tensor into the batch the model expects: it adds
// the leading batch dimension, reorders axes for channel-first models and
// casts samples to the declared input dtype.
func Adapt(t *Tensor, dtype DType, layout Layout) *Batch {
	data := t.Data
	shape := []int64{1, int64(t.Height), int64(t.Width), Channels}
	if layout == LayoutNCHW {
		data = toCHW(t)
		shape = []int64{1, Channels, int64(t.Height), int64(t.Width)}
	}

	b := &Batch{Shape: shape, DType: dtype}
	switch dtype {
	case DTypeUint8:
		b.Uint8 = castUint8(data)
	case DTypeInt8:
		b.Int8 = castInt8(data)
	default:
		b.Float32 = make([]float32, len(data))
		copy(b.Float32, data)
	}
	return b
}

func toCHW(t *Tensor) []float32 {
	plane := t.Height * t.Width
	out := make([]float32, len(t.Data))
	for i := 0; i < plane; i++ {
		for c := 0; c < Channels; c++ {
			out[c*plane+i] = t.Data[i*Channels+c]
		}
	}
	return out
}

// castUint8 rescales [0,1] data to [0,255] before truncating; data already on
// a wider scale is truncated as is.
func castUint8(data []float32) []uint8 {
	scale := float32(1)
	if maxOf(data) <= 1.0 {
		scale = 255
	}
	out := make([]uint8, len(data))
	for i, v := range data {
		out[i] = uint8(clamp(v*scale, 0, 255))
	}
	return out
}

func castInt8(data []float32) []int8 {
	out := make([]int8, len(data))
	for i, v := range data {
		out[i] = int8(clamp(v, -128, 127))
	}
	return out
}

func maxOf(data []float32) float32 {
	if len(data) == 0 {
		return 0
	}
	m := data[0]
	for _, v := range data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
