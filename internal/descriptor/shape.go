package descriptor

import "fmt"

// Shape is the spatial extent and channel depth of a tensor flowing through
// a convolutional stack. The batch dimension is never modeled.
type Shape struct {
	H int `json:"h"`
	W int `json:"w"`
	C int `json:"c"`
}

func (s Shape) Volume() int {
	return s.H * s.W * s.C
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.H, s.W, s.C)
}

// Filter is a square-or-rectangular kernel with an output channel count.
type Filter struct {
	H        int `json:"h"`
	W        int `json:"w"`
	Channels int `json:"channels"`
}

func (f Filter) String() string {
	return fmt.Sprintf("%dx%dx%d", f.H, f.W, f.Channels)
}

// Stride holds per-dimension step sizes. The channel dimension always
// advances by one and is not represented.
type Stride struct {
	H int `json:"h"`
	W int `json:"w"`
}

func (s Stride) String() string {
	return fmt.Sprintf("%dx%d", s.H, s.W)
}

// Contract computes the output shape of a valid (unpadded) convolution or
// pooling pass: each spatial dimension becomes floor((in-f+1)/s), clamped to
// a minimum of 1, and the channel depth becomes the filter's channel count.
func Contract(in Shape, f Filter, st Stride) Shape {
	return Shape{
		H: contractDim(in.H, f.H, st.H),
		W: contractDim(in.W, f.W, st.W),
		C: f.Channels,
	}
}

func contractDim(in, filter, stride int) int {
	span := in - filter + 1
	if span < 1 {
		return 1
	}
	out := span / stride
	if out < 1 {
		return 1
	}
	return out
}

// Expand computes the output shape of a transposed convolution:
// (in-1)*stride + filter per spatial dimension.
func Expand(in Shape, f Filter, st Stride) Shape {
	return Shape{
		H: (in.H-1)*st.H + f.H,
		W: (in.W-1)*st.W + f.W,
		C: f.Channels,
	}
}

// ComputeOutput dispatches on the layer kind: transposed convolutions grow
// the spatial extent, everything else shrinks it.
func ComputeOutput(in Shape, kind LayerKind, f Filter, st Stride) Shape {
	if kind == LayerTConv {
		return Expand(in, f, st)
	}
	return Contract(in, f, st)
}
