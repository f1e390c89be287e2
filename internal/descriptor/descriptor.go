// Package descriptor implements the evolvable genome representations used by
// the architecture search: dense, convolutional, and transposed-convolutional
// network descriptors, their constrained random initializers, and their
// structural mutation operations. A descriptor is owned by exactly one
// individual and is mutated in place; every stochastic entry point takes an
// explicit *rand.Rand so a fixed seed reproduces an identical genome
// sequence.
package descriptor

import (
	"fmt"
	"math/rand"
)

// Kind selects a descriptor family.
type Kind string

const (
	KindMLP   Kind = "mlp"
	KindConv  Kind = "conv"
	KindTConv Kind = "tconv"
)

func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindMLP, KindConv, KindTConv:
		return Kind(name), nil
	default:
		return "", fmt.Errorf("unknown descriptor kind: %s", name)
	}
}

// LayerKind tags the operation a convolutional-family layer performs.
type LayerKind int

const (
	LayerAvgPool LayerKind = iota
	LayerMaxPool
	LayerConv
	LayerTConv
)

func (k LayerKind) String() string {
	switch k {
	case LayerAvgPool:
		return "avg_pool"
	case LayerMaxPool:
		return "max_pool"
	case LayerConv:
		return "conv"
	case LayerTConv:
		return "tconv"
	default:
		return fmt.Sprintf("layer_kind(%d)", int(k))
	}
}

// Status is the outcome of a structural mutation. The driver treats a
// non-zero status as "select a different mutation", never as fatal.
type Status int

const (
	StatusOK         Status = 0
	StatusInfeasible Status = 1
	StatusLayerFloor Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInfeasible:
		return "shape_infeasible"
	case StatusLayerFloor:
		return "layer_floor"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// InitBounds carries the search bounds handed to RandomInit. Families ignore
// the bounds they have no use for (an MLP never reads MaxStride).
type InitBounds struct {
	Input          []int
	Output         []int
	MaxLayers      int
	MaxWidth       int
	MaxStride      int
	MaxFilter      int
	AllowDropout   bool
	AllowBatchNorm bool
}

// Descriptor is the capability set shared by every genome family. Simple
// field edits with an out-of-range position are silently ignored; structural
// edits report a Status.
type Descriptor interface {
	Kind() Kind
	HiddenLayerCount() int
	RandomInit(rng *rand.Rand, bounds InitBounds)
	RemoveLayer(pos int)
	RemoveRandomLayer(rng *rand.Rand) Status
	ChangeActivation(pos int, act Activation)
	ChangeWeightInit(pos int, init WeightInit)
	ToggleDropout()
	ToggleBatchNorm()
	ResampleDropoutRates(rng *rand.Rand)
}

// shapeFromDims interprets a bounds dimension list as a Shape. One value is a
// pure channel target, two are spatial, three are spatial plus channels.
func shapeFromDims(dims []int) Shape {
	switch len(dims) {
	case 0:
		return Shape{H: 1, W: 1, C: 1}
	case 1:
		return Shape{H: 1, W: 1, C: dims[0]}
	case 2:
		return Shape{H: dims[0], W: dims[1], C: 1}
	default:
		return Shape{H: dims[0], W: dims[1], C: dims[2]}
	}
}

// flattenDims collapses a composite dimension list to the scalar unit count
// a dense stack consumes.
func flattenDims(dims []int) int {
	if len(dims) == 0 {
		return 0
	}
	units := 1
	for _, d := range dims {
		units *= d
	}
	return units
}

func coinFlip(rng *rand.Rand) bool {
	return rng.Intn(2) == 0
}

// randRange draws uniformly from [lo, hi). Callers guarantee lo < hi; the
// engine trusts the driver's bounds.
func randRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo)
}
