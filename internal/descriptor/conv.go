package descriptor

import "math/rand"

const (
	minConvChannels = 3
	maxConvChannels = 64
	// minSpatial is the smallest spatial extent a layer may leave behind
	// during construction; stacks that would shrink a tensor below it are
	// truncated instead.
	minSpatial = 2
)

// ConvLayer is one hidden layer of a convolutional stack. Conv-tagged layers
// carry a companion pooling pass applied after the primary operation; pure
// pooling layers have only the primary filter and no weights, so their Init
// stays InitUnset and their Act stays ActNone.
type ConvLayer struct {
	Kind       LayerKind  `json:"kind"`
	Filter     Filter     `json:"filter"`
	Stride     Stride     `json:"stride"`
	PoolFilter *Filter    `json:"pool_filter,omitempty"`
	PoolStride *Stride    `json:"pool_stride,omitempty"`
	Init       WeightInit `json:"init"`
	Act        Activation `json:"act"`
}

// ConvLayerParams are the caller-chosen parameters for an inserted layer.
// The inserted channel count is drawn by AddLayer itself.
type ConvLayerParams struct {
	Stride     int
	KernelSize int
	Act        Activation
	Init       WeightInit
}

// ConvDescriptor is the genome of a stack of convolution/pooling layers. It
// maintains Shapes, the derived cache of the tensor shape left behind by each
// accepted layer; the cache is a pure function of Input and the layer
// sequence and is recomputed in full after any structural mutation.
type ConvDescriptor struct {
	Input     Shape       `json:"input"`
	Output    Shape       `json:"output"`
	Layers    []ConvLayer `json:"layers"`
	Shapes    []Shape     `json:"shapes"`
	Dropout   bool        `json:"dropout"`
	BatchNorm bool        `json:"batch_norm"`
}

func NewConvDescriptor() *ConvDescriptor {
	return &ConvDescriptor{}
}

func (d *ConvDescriptor) Kind() Kind {
	return KindConv
}

func (d *ConvDescriptor) HiddenLayerCount() int {
	return len(d.Layers)
}

func randomConvFilter(rng *rand.Rand, maxFilter int) Filter {
	k := randRange(rng, 2, maxFilter)
	return Filter{H: k, W: k, Channels: randRange(rng, minConvChannels, maxConvChannels+1)}
}

func randomConvStride(rng *rand.Rand, maxStride int) Stride {
	s := randRange(rng, 1, maxStride)
	return Stride{H: s, W: s}
}

func (d *ConvDescriptor) feasible(s Shape) bool {
	return s.H >= minSpatial && s.W >= minSpatial && s.Volume() >= d.Output.Volume()
}

// RandomInit greedily grows the stack up to MaxLayers layers. Each candidate
// draws a kind, a primary filter/stride pair, and, for conv-tagged kinds, a
// companion pooling pair; the first candidate whose resulting shape drops
// below the minimum spatial extent or the target output volume is discarded
// and construction stops with the layers accepted so far. Dropout is not
// modeled for this family.
func (d *ConvDescriptor) RandomInit(rng *rand.Rand, bounds InitBounds) {
	d.Input = shapeFromDims(bounds.Input)
	d.Output = shapeFromDims(bounds.Output)
	d.Layers = nil
	d.Shapes = nil

	shape := d.Input
	for i := 0; i < bounds.MaxLayers; i++ {
		kinds := []LayerKind{LayerAvgPool, LayerMaxPool, LayerConv}
		layer := ConvLayer{
			Kind:   kinds[rng.Intn(len(kinds))],
			Filter: randomConvFilter(rng, bounds.MaxFilter),
			Stride: randomConvStride(rng, bounds.MaxStride),
		}
		next := Contract(shape, layer.Filter, layer.Stride)
		if !d.feasible(next) {
			break
		}
		if layer.Kind == LayerConv {
			pf := randomConvFilter(rng, bounds.MaxFilter)
			ps := randomConvStride(rng, bounds.MaxStride)
			pooled := Contract(next, pf, ps)
			if !d.feasible(pooled) {
				break
			}
			layer.PoolFilter = &pf
			layer.PoolStride = &ps
			layer.Init = RandomConvWeightInit(rng)
			layer.Act = RandomActivation(rng)
			next = pooled
		}
		d.Layers = append(d.Layers, layer)
		d.Shapes = append(d.Shapes, next)
		shape = next
	}

	if bounds.AllowBatchNorm {
		d.BatchNorm = coinFlip(rng)
	}
}

func (d *ConvDescriptor) lastShape() Shape {
	if len(d.Shapes) == 0 {
		return d.Input
	}
	return d.Shapes[len(d.Shapes)-1]
}

// AddLayer inserts a layer at pos (clamped to the layer sequence). The
// insertion is refused when the last cached shape is already at or below the
// minimum spatial extent: growing a near-degenerate stack only produces
// unbuildable genomes. Failure leaves the descriptor untouched. Inserted
// layers carry no pooling companion; a conv-tagged insert draws its channel
// count itself.
func (d *ConvDescriptor) AddLayer(rng *rand.Rand, pos int, kind LayerKind, params ConvLayerParams) Status {
	last := d.lastShape()
	if last.H <= minSpatial || last.W <= minSpatial {
		return StatusInfeasible
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.Layers) {
		pos = len(d.Layers)
	}

	layer := ConvLayer{
		Kind:   kind,
		Stride: Stride{H: params.Stride, W: params.Stride},
	}
	if kind == LayerConv {
		layer.Filter = Filter{H: params.KernelSize, W: params.KernelSize, Channels: rng.Intn(maxConvChannels + 1)}
		layer.Init = params.Init
		layer.Act = params.Act
	} else {
		layer.Filter = Filter{H: params.KernelSize, W: params.KernelSize, Channels: 1}
	}

	d.Layers = append(d.Layers, ConvLayer{})
	copy(d.Layers[pos+1:], d.Layers[pos:])
	d.Layers[pos] = layer
	d.recomputeShapes()
	return StatusOK
}

// RemoveLayer deletes the layer at pos and rebuilds the shape cache.
// Out-of-range positions are silently ignored.
func (d *ConvDescriptor) RemoveLayer(pos int) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers = append(d.Layers[:pos], d.Layers[pos+1:]...)
	d.recomputeShapes()
}

// RemoveRandomLayer removes a uniformly drawn layer. The last remaining
// layer is never removed.
func (d *ConvDescriptor) RemoveRandomLayer(rng *rand.Rand) Status {
	if len(d.Layers) <= 1 {
		return StatusLayerFloor
	}
	d.RemoveLayer(rng.Intn(len(d.Layers)))
	return StatusOK
}

// ChangeFilters overwrites the primary kernel size and channel count at pos
// and rebuilds the shape cache. Only square kernels are representable.
func (d *ConvDescriptor) ChangeFilters(pos, kernelSize, channels int) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Filter = Filter{H: kernelSize, W: kernelSize, Channels: channels}
	d.recomputeShapes()
}

// ChangeStride overwrites the primary per-dimension stride at pos and
// rebuilds the shape cache.
func (d *ConvDescriptor) ChangeStride(pos, stride int) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Stride = Stride{H: stride, W: stride}
	d.recomputeShapes()
}

// ChangeActivation overwrites the activation at pos. The base capability
// bound admits pos == HiddenLayerCount, but a convolutional stack has no
// output slot, so that position is silently ignored along with anything out
// of range.
func (d *ConvDescriptor) ChangeActivation(pos int, act Activation) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Act = act
}

func (d *ConvDescriptor) ChangeWeightInit(pos int, init WeightInit) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Init = init
}

func (d *ConvDescriptor) ToggleDropout() {
	d.Dropout = !d.Dropout
}

func (d *ConvDescriptor) ToggleBatchNorm() {
	d.BatchNorm = !d.BatchNorm
}

// ResampleDropoutRates is part of the shared capability set but dropout
// rates are not modeled for convolutional stacks.
func (d *ConvDescriptor) ResampleDropoutRates(*rand.Rand) {}

// recomputeShapes rebuilds the shape cache from Input and the full layer
// sequence. Positional mutations invalidate every cached shape from the
// mutation point onward, so the cache is always rebuilt whole.
func (d *ConvDescriptor) recomputeShapes() {
	d.Shapes = d.Shapes[:0]
	shape := d.Input
	for _, layer := range d.Layers {
		shape = Contract(shape, layer.Filter, layer.Stride)
		if layer.PoolFilter != nil && layer.PoolStride != nil {
			shape = Contract(shape, *layer.PoolFilter, *layer.PoolStride)
		}
		d.Shapes = append(d.Shapes, shape)
	}
}
