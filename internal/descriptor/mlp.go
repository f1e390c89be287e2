package descriptor

import "math/rand"

const minDenseWidth = 5

// DenseLayer is one hidden fully-connected layer. Keeping the width,
// initializer, activation, and dropout rate in a single record keeps every
// insert and removal atomic across what would otherwise be four parallel
// sequences.
type DenseLayer struct {
	Width       int        `json:"width"`
	Init        WeightInit `json:"init"`
	Act         Activation `json:"act"`
	DropoutRate float64    `json:"dropout_rate"`
}

// OutputSlot holds the choices for the output-producing layer. Its width is
// fixed by the target output size, so only the initializer, activation, and
// dropout rate evolve.
type OutputSlot struct {
	Init        WeightInit `json:"init"`
	Act         Activation `json:"act"`
	DropoutRate float64    `json:"dropout_rate"`
}

// MLPDescriptor is the genome of a stack of fully-connected layers. Dense
// stacks track no tensor shapes; the only structural state is the per-layer
// width.
type MLPDescriptor struct {
	InputUnits  int          `json:"input_units"`
	OutputUnits int          `json:"output_units"`
	Layers      []DenseLayer `json:"layers"`
	Output      OutputSlot   `json:"output"`
	Dropout     bool         `json:"dropout"`
	BatchNorm   bool         `json:"batch_norm"`
}

func NewMLPDescriptor() *MLPDescriptor {
	return &MLPDescriptor{}
}

func (d *MLPDescriptor) Kind() Kind {
	return KindMLP
}

func (d *MLPDescriptor) HiddenLayerCount() int {
	return len(d.Layers)
}

// RandomInit populates the genome from the given search bounds. Composite
// input/output dimensions are flattened to their element product. The hidden
// layer count is uniform in [1, MaxLayers] and each width uniform in
// [minDenseWidth, MaxWidth]; initializer and activation choices are drawn
// with replacement from the full catalogs, one per hidden layer plus one for
// the output slot.
func (d *MLPDescriptor) RandomInit(rng *rand.Rand, bounds InitBounds) {
	d.InputUnits = flattenDims(bounds.Input)
	d.OutputUnits = flattenDims(bounds.Output)

	count := 1 + rng.Intn(bounds.MaxLayers)
	d.Layers = make([]DenseLayer, count)
	for i := range d.Layers {
		d.Layers[i] = DenseLayer{
			Width: randRange(rng, minDenseWidth, bounds.MaxWidth+1),
			Init:  RandomWeightInit(rng),
			Act:   RandomActivation(rng),
		}
	}
	d.Output = OutputSlot{
		Init: RandomWeightInit(rng),
		Act:  RandomActivation(rng),
	}

	if bounds.AllowBatchNorm {
		d.BatchNorm = coinFlip(rng)
	}
	if bounds.AllowDropout {
		d.Dropout = coinFlip(rng)
		d.ResampleDropoutRates(rng)
	}
}

// AddLayer inserts a hidden layer at pos. Out-of-range positions are
// silently ignored: insertion is only defined between existing hidden
// layers, never past the output boundary.
func (d *MLPDescriptor) AddLayer(pos, width int, init WeightInit, act Activation, dropoutRate float64) {
	if pos < 0 || pos >= len(d.Layers) {
		return
	}
	layer := DenseLayer{Width: width, Init: init, Act: act, DropoutRate: dropoutRate}
	d.Layers = append(d.Layers, DenseLayer{})
	copy(d.Layers[pos+1:], d.Layers[pos:])
	d.Layers[pos] = layer
}

// RemoveLayer deletes the hidden layer at pos. The first two positions are
// protected (removing them would re-anchor the input boundary), as is
// anything at or past the output slot; such requests are silently ignored.
func (d *MLPDescriptor) RemoveLayer(pos int) {
	if pos <= 1 || pos >= len(d.Layers) {
		return
	}
	d.Layers = append(d.Layers[:pos], d.Layers[pos+1:]...)
}

// RemoveRandomLayer draws a uniform position over the hidden layers and
// delegates to RemoveLayer; the protected-position rules there mean the draw
// may end up a no-op.
func (d *MLPDescriptor) RemoveRandomLayer(rng *rand.Rand) Status {
	if len(d.Layers) == 0 {
		return StatusLayerFloor
	}
	d.RemoveLayer(rng.Intn(len(d.Layers)))
	return StatusOK
}

// ChangeLayerWidth overwrites the width of a uniformly drawn hidden layer.
func (d *MLPDescriptor) ChangeLayerWidth(rng *rand.Rand, width int) {
	if len(d.Layers) == 0 {
		return
	}
	d.Layers[rng.Intn(len(d.Layers))].Width = width
}

// ChangeActivation overwrites the activation at pos. Position
// HiddenLayerCount addresses the output slot; anything outside
// [0, HiddenLayerCount] is silently ignored.
func (d *MLPDescriptor) ChangeActivation(pos int, act Activation) {
	switch {
	case pos < 0 || pos > len(d.Layers):
	case pos == len(d.Layers):
		d.Output.Act = act
	default:
		d.Layers[pos].Act = act
	}
}

func (d *MLPDescriptor) ChangeWeightInit(pos int, init WeightInit) {
	switch {
	case pos < 0 || pos > len(d.Layers):
	case pos == len(d.Layers):
		d.Output.Init = init
	default:
		d.Layers[pos].Init = init
	}
}

func (d *MLPDescriptor) ToggleDropout() {
	d.Dropout = !d.Dropout
}

func (d *MLPDescriptor) ToggleBatchNorm() {
	d.BatchNorm = !d.BatchNorm
}

// ResampleDropoutRates discards every dropout rate and redraws them as
// independent uniform(0,1) samples, one per hidden layer plus the output
// slot.
func (d *MLPDescriptor) ResampleDropoutRates(rng *rand.Rand) {
	for i := range d.Layers {
		d.Layers[i].DropoutRate = rng.Float64()
	}
	d.Output.DropoutRate = rng.Float64()
}
