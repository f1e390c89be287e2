package evo

import (
	"math/rand"

	"evonas/internal/descriptor"
)

// ChangeRandomActivation overwrites the activation choice at a uniformly
// drawn position. The draw covers the output slot for dense genomes; for the
// convolutional families the top position is a silent no-op, which the
// driver accepts as a wasted pick.
type ChangeRandomActivation struct{}

func (ChangeRandomActivation) Name() string {
	return "change_activation"
}

func (ChangeRandomActivation) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	count := desc.HiddenLayerCount()
	if count == 0 {
		return ErrNotApplicable
	}
	desc.ChangeActivation(rng.Intn(count+1), descriptor.RandomActivation(rng))
	return nil
}

// ChangeRandomWeightInit overwrites the initializer choice at a uniformly
// drawn position, drawing from the restricted catalog for the convolutional
// families.
type ChangeRandomWeightInit struct{}

func (ChangeRandomWeightInit) Name() string {
	return "change_weight_init"
}

func (ChangeRandomWeightInit) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	count := desc.HiddenLayerCount()
	if count == 0 {
		return ErrNotApplicable
	}
	init := descriptor.RandomWeightInit(rng)
	if desc.Kind() != descriptor.KindMLP {
		init = descriptor.RandomConvWeightInit(rng)
	}
	desc.ChangeWeightInit(rng.Intn(count+1), init)
	return nil
}

type ToggleDropout struct{}

func (ToggleDropout) Name() string {
	return "toggle_dropout"
}

func (ToggleDropout) Apply(desc descriptor.Descriptor, _ *rand.Rand) error {
	desc.ToggleDropout()
	return nil
}

type ToggleBatchNorm struct{}

func (ToggleBatchNorm) Name() string {
	return "toggle_batch_norm"
}

func (ToggleBatchNorm) Apply(desc descriptor.Descriptor, _ *rand.Rand) error {
	desc.ToggleBatchNorm()
	return nil
}

type ResampleDropoutRates struct{}

func (ResampleDropoutRates) Name() string {
	return "resample_dropout_rates"
}

func (ResampleDropoutRates) Applicable(desc descriptor.Descriptor) bool {
	return desc.Kind() == descriptor.KindMLP
}

func (ResampleDropoutRates) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	desc.ResampleDropoutRates(rng)
	return nil
}

type RemoveRandomLayer struct{}

func (RemoveRandomLayer) Name() string {
	return "remove_random_layer"
}

func (RemoveRandomLayer) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	return statusErr(desc.RemoveRandomLayer(rng))
}

// AddRandomLayer inserts a randomly parameterized layer at a random
// position, respecting each family's insertion rules.
type AddRandomLayer struct {
	MaxWidth  int
	MaxStride int
	MaxFilter int
}

func (AddRandomLayer) Name() string {
	return "add_random_layer"
}

func (o AddRandomLayer) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	switch d := desc.(type) {
	case *descriptor.MLPDescriptor:
		if d.HiddenLayerCount() == 0 {
			return ErrNotApplicable
		}
		d.AddLayer(
			rng.Intn(d.HiddenLayerCount()),
			5+rng.Intn(o.MaxWidth-4),
			descriptor.RandomWeightInit(rng),
			descriptor.RandomActivation(rng),
			rng.Float64(),
		)
		return nil
	case *descriptor.ConvDescriptor:
		kinds := []descriptor.LayerKind{descriptor.LayerAvgPool, descriptor.LayerMaxPool, descriptor.LayerConv}
		return statusErr(d.AddLayer(
			rng,
			rng.Intn(d.HiddenLayerCount()+1),
			kinds[rng.Intn(len(kinds))],
			descriptor.ConvLayerParams{
				Stride:     1 + rng.Intn(o.MaxStride-1),
				KernelSize: 2 + rng.Intn(o.MaxFilter-2),
				Act:        descriptor.RandomActivation(rng),
				Init:       descriptor.RandomConvWeightInit(rng),
			},
		))
	case *descriptor.TConvDescriptor:
		return statusErr(d.AddLayer(
			rng,
			rng.Intn(d.HiddenLayerCount()+1),
			descriptor.TConvLayerParams{
				Stride:     1 + rng.Intn(o.MaxStride-1),
				KernelSize: 2 + rng.Intn(o.MaxFilter-2),
				Act:        descriptor.RandomActivation(rng),
				Init:       descriptor.RandomConvWeightInit(rng),
			},
		))
	default:
		return ErrNotApplicable
	}
}

// ChangeRandomWidth overwrites the neuron count of a random hidden layer.
// Dense genomes only.
type ChangeRandomWidth struct {
	MaxWidth int
}

func (ChangeRandomWidth) Name() string {
	return "change_layer_width"
}

func (ChangeRandomWidth) Applicable(desc descriptor.Descriptor) bool {
	return desc.Kind() == descriptor.KindMLP
}

func (o ChangeRandomWidth) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	d, ok := desc.(*descriptor.MLPDescriptor)
	if !ok {
		return ErrNotApplicable
	}
	d.ChangeLayerWidth(rng, 5+rng.Intn(o.MaxWidth-4))
	return nil
}

// ChangeRandomFilters redraws the kernel size and channel count of a random
// layer in a convolutional-family genome.
type ChangeRandomFilters struct {
	MaxFilter int
}

func (ChangeRandomFilters) Name() string {
	return "change_filters"
}

func (ChangeRandomFilters) Applicable(desc descriptor.Descriptor) bool {
	return desc.Kind() != descriptor.KindMLP
}

func (o ChangeRandomFilters) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	count := desc.HiddenLayerCount()
	if count == 0 {
		return ErrNotApplicable
	}
	kernel := 2 + rng.Intn(o.MaxFilter-2)
	channels := 3 + rng.Intn(62)
	switch d := desc.(type) {
	case *descriptor.ConvDescriptor:
		d.ChangeFilters(rng.Intn(count), kernel, channels)
	case *descriptor.TConvDescriptor:
		d.ChangeFilters(rng.Intn(count), kernel, channels)
	default:
		return ErrNotApplicable
	}
	return nil
}

// ChangeRandomStride redraws the stride of a random layer in a
// convolutional-family genome.
type ChangeRandomStride struct {
	MaxStride int
}

func (ChangeRandomStride) Name() string {
	return "change_stride"
}

func (ChangeRandomStride) Applicable(desc descriptor.Descriptor) bool {
	return desc.Kind() != descriptor.KindMLP
}

func (o ChangeRandomStride) Apply(desc descriptor.Descriptor, rng *rand.Rand) error {
	count := desc.HiddenLayerCount()
	if count == 0 {
		return ErrNotApplicable
	}
	stride := 1 + rng.Intn(o.MaxStride-1)
	switch d := desc.(type) {
	case *descriptor.ConvDescriptor:
		d.ChangeStride(rng.Intn(count), stride)
	case *descriptor.TConvDescriptor:
		d.ChangeStride(rng.Intn(count), stride)
	default:
		return ErrNotApplicable
	}
	return nil
}

// DefaultOperators returns the full operator set parameterized by the same
// search bounds the driver used for random initialization.
func DefaultOperators(bounds descriptor.InitBounds) []Operator {
	return []Operator{
		ChangeRandomActivation{},
		ChangeRandomWeightInit{},
		ToggleDropout{},
		ToggleBatchNorm{},
		ResampleDropoutRates{},
		RemoveRandomLayer{},
		AddRandomLayer{MaxWidth: bounds.MaxWidth, MaxStride: bounds.MaxStride, MaxFilter: bounds.MaxFilter},
		ChangeRandomWidth{MaxWidth: bounds.MaxWidth},
		ChangeRandomFilters{MaxFilter: bounds.MaxFilter},
		ChangeRandomStride{MaxStride: bounds.MaxStride},
	}
}
