package descriptor

import "math/rand"

// maxGrowthAttempts caps transposed-convolution construction. Every drawn
// layer grows the spatial extent by at least one unit, so the cap is only a
// guard against pathological bounds.
const maxGrowthAttempts = 300

// TConvLayer is one transposed-convolution layer. Unlike the contractive
// family there is no pooling companion; every layer carries weights.
type TConvLayer struct {
	Filter Filter     `json:"filter"`
	Stride Stride     `json:"stride"`
	Init   WeightInit `json:"init"`
	Act    Activation `json:"act"`
}

// TConvLayerParams are the caller-chosen parameters for an inserted layer.
type TConvLayerParams struct {
	Stride     int
	KernelSize int
	Act        Activation
	Init       WeightInit
}

// TConvDescriptor is the genome of an upsampling stack: construction grows
// the cached output shape until it meets or exceeds the target. OutputShapes
// is derived state with the same full-recompute rule as the contractive
// family, using the expansive shape formula.
type TConvDescriptor struct {
	Input        Shape        `json:"input"`
	Output       Shape        `json:"output"`
	Layers       []TConvLayer `json:"layers"`
	OutputShapes []Shape      `json:"output_shapes"`
	Dropout      bool         `json:"dropout"`
	BatchNorm    bool         `json:"batch_norm"`
}

func NewTConvDescriptor() *TConvDescriptor {
	return &TConvDescriptor{}
}

func (d *TConvDescriptor) Kind() Kind {
	return KindTConv
}

func (d *TConvDescriptor) HiddenLayerCount() int {
	return len(d.Layers)
}

// RandomInit appends randomly drawn layers until both output spatial
// dimensions meet or exceed the target. There is no rejection path: every
// drawn layer is accepted. The final layer's channel count is forced to the
// target depth, overriding whatever was drawn.
func (d *TConvDescriptor) RandomInit(rng *rand.Rand, bounds InitBounds) {
	d.Input = shapeFromDims(bounds.Input)
	d.Output = shapeFromDims(bounds.Output)
	d.Layers = nil
	d.OutputShapes = nil

	shape := d.Input
	for i := 0; i < maxGrowthAttempts; i++ {
		layer := TConvLayer{
			Filter: randomConvFilter(rng, bounds.MaxFilter),
			Stride: randomConvStride(rng, bounds.MaxStride),
			Init:   RandomConvWeightInit(rng),
			Act:    RandomActivation(rng),
		}
		shape = Expand(shape, layer.Filter, layer.Stride)
		d.Layers = append(d.Layers, layer)
		d.OutputShapes = append(d.OutputShapes, shape)

		if shape.H >= d.Output.H && shape.W >= d.Output.W {
			last := len(d.Layers) - 1
			d.Layers[last].Filter.Channels = d.Output.C
			d.OutputShapes[last].C = d.Output.C
			break
		}
	}

	if bounds.AllowBatchNorm {
		d.BatchNorm = coinFlip(rng)
	}
}

// AddLayer inserts a layer at pos (clamped to the layer sequence) and
// rebuilds the shape cache. Expansive stacks cannot become infeasible by
// growing, so insertion always succeeds; the channel count is drawn here.
func (d *TConvDescriptor) AddLayer(rng *rand.Rand, pos int, params TConvLayerParams) Status {
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.Layers) {
		pos = len(d.Layers)
	}
	layer := TConvLayer{
		Filter: Filter{H: params.KernelSize, W: params.KernelSize, Channels: rng.Intn(maxConvChannels + 1)},
		Stride: Stride{H: params.Stride, W: params.Stride},
		Init:   params.Init,
		Act:    params.Act,
	}
	d.Layers = append(d.Layers, TConvLayer{})
	copy(d.Layers[pos+1:], d.Layers[pos:])
	d.Layers[pos] = layer
	d.recomputeShapes()
	return StatusOK
}

// RemoveLayer deletes the layer at pos and rebuilds the shape cache.
// Out-of-range positions are silently ignored.
func (d *TConvDescriptor) RemoveLayer(pos int) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers = append(d.Layers[:pos], d.Layers[pos+1:]...)
	d.recomputeShapes()
}

// RemoveRandomLayer visits the layer positions in random order and removes
// the first one whose removal still leaves the stack reaching the target
// output size. At least one layer always remains; if no position is
// removable the genome is left untouched.
func (d *TConvDescriptor) RemoveRandomLayer(rng *rand.Rand) Status {
	if len(d.Layers) <= 1 {
		return StatusLayerFloor
	}
	for _, pos := range rng.Perm(len(d.Layers)) {
		if d.reachesTargetWithout(pos) {
			d.RemoveLayer(pos)
			return StatusOK
		}
	}
	return StatusLayerFloor
}

// reachesTargetWithout replays the expansive shape arithmetic with the layer
// at skip excluded and reports whether the final shape still covers the
// target spatial extent.
func (d *TConvDescriptor) reachesTargetWithout(skip int) bool {
	shape := d.Input
	for i, layer := range d.Layers {
		if i == skip {
			continue
		}
		shape = Expand(shape, layer.Filter, layer.Stride)
	}
	return shape.H >= d.Output.H && shape.W >= d.Output.W
}

func (d *TConvDescriptor) ChangeFilters(pos, kernelSize, channels int) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Filter = Filter{H: kernelSize, W: kernelSize, Channels: channels}
	d.recomputeShapes()
}

func (d *TConvDescriptor) ChangeStride(pos, stride int) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Stride = Stride{H: stride, W: stride}
	d.recomputeShapes()
}

func (d *TConvDescriptor) ChangeActivation(pos int, act Activation) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Act = act
}

func (d *TConvDescriptor) ChangeWeightInit(pos int, init WeightInit) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	d.Layers[pos].Init = init
}

func (d *TConvDescriptor) ToggleDropout() {
	d.Dropout = !d.Dropout
}

func (d *TConvDescriptor) ToggleBatchNorm() {
	d.BatchNorm = !d.BatchNorm
}

// ResampleDropoutRates is part of the shared capability set but dropout
// rates are not modeled for transposed-convolutional stacks.
func (d *TConvDescriptor) ResampleDropoutRates(*rand.Rand) {}

func (d *TConvDescriptor) recomputeShapes() {
	d.OutputShapes = d.OutputShapes[:0]
	shape := d.Input
	for _, layer := range d.Layers {
		shape = Expand(shape, layer.Filter, layer.Stride)
		d.OutputShapes = append(d.OutputShapes, shape)
	}
}
