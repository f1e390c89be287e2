package evo

import (
	"errors"
	"math/rand"
	"testing"

	"evonas/internal/descriptor"
)

var testBounds = descriptor.InitBounds{
	Input:          []int{28, 28, 3},
	Output:         []int{10},
	MaxLayers:      6,
	MaxWidth:       64,
	MaxStride:      3,
	MaxFilter:      5,
	AllowDropout:   true,
	AllowBatchNorm: true,
}

var tconvBounds = descriptor.InitBounds{
	Input:          []int{7, 7, 50},
	Output:         []int{28, 28, 3},
	MaxStride:      3,
	MaxFilter:      4,
	AllowBatchNorm: true,
}

func sampleDescriptor(t *testing.T, kind descriptor.Kind, seed int64) descriptor.Descriptor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	switch kind {
	case descriptor.KindMLP:
		d := descriptor.NewMLPDescriptor()
		d.RandomInit(rng, testBounds)
		return d
	case descriptor.KindConv:
		d := descriptor.NewConvDescriptor()
		d.RandomInit(rng, testBounds)
		return d
	case descriptor.KindTConv:
		d := descriptor.NewTConvDescriptor()
		d.RandomInit(rng, tconvBounds)
		return d
	default:
		t.Fatalf("unknown kind %s", kind)
		return nil
	}
}

func TestOperatorsApplyAcrossKinds(t *testing.T) {
	ops := DefaultOperators(testBounds)
	kinds := []descriptor.Kind{descriptor.KindMLP, descriptor.KindConv, descriptor.KindTConv}

	for _, kind := range kinds {
		for _, op := range ops {
			if ctx, ok := op.(ContextualOperator); ok && !ctx.Applicable(sampleDescriptor(t, kind, 1)) {
				continue
			}
			rng := rand.New(rand.NewSource(42))
			desc := sampleDescriptor(t, kind, 1)
			err := op.Apply(desc, rng)
			if err != nil && !errors.Is(err, ErrShapeInfeasible) && !errors.Is(err, ErrLayerFloor) {
				t.Fatalf("kind=%s op=%s unexpected error: %v", kind, op.Name(), err)
			}
			if got := desc.HiddenLayerCount(); got < 0 {
				t.Fatalf("kind=%s op=%s corrupted layer count: %d", kind, op.Name(), got)
			}
		}
	}
}

func TestToggleOperators(t *testing.T) {
	desc := sampleDescriptor(t, descriptor.KindMLP, 2).(*descriptor.MLPDescriptor)
	dropout, batchNorm := desc.Dropout, desc.BatchNorm

	if err := (ToggleDropout{}).Apply(desc, nil); err != nil {
		t.Fatalf("toggle dropout: %v", err)
	}
	if err := (ToggleBatchNorm{}).Apply(desc, nil); err != nil {
		t.Fatalf("toggle batch norm: %v", err)
	}
	if desc.Dropout == dropout || desc.BatchNorm == batchNorm {
		t.Fatalf("toggles did not flip: dropout=%v batch_norm=%v", desc.Dropout, desc.BatchNorm)
	}
}

func TestRemoveRandomLayerReportsFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	desc := sampleDescriptor(t, descriptor.KindConv, 7).(*descriptor.ConvDescriptor)

	op := RemoveRandomLayer{}
	for desc.HiddenLayerCount() > 1 {
		if err := op.Apply(desc, rng); err != nil {
			t.Fatalf("removal above floor: %v", err)
		}
	}
	if err := op.Apply(desc, rng); !errors.Is(err, ErrLayerFloor) {
		t.Fatalf("removal at floor: got=%v want=%v", err, ErrLayerFloor)
	}
}

func TestAddRandomLayerKeepsCacheConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	op := AddRandomLayer{MaxWidth: 64, MaxStride: 3, MaxFilter: 5}

	for seed := int64(0); seed < 16; seed++ {
		desc := sampleDescriptor(t, descriptor.KindTConv, seed).(*descriptor.TConvDescriptor)
		if err := op.Apply(desc, rng); err != nil {
			t.Fatalf("seed=%d tconv insert: %v", seed, err)
		}
		if got, want := len(desc.OutputShapes), len(desc.Layers); got != want {
			t.Fatalf("seed=%d cache length after insert: got=%d want=%d", seed, got, want)
		}
	}
}

func TestChangeRandomWidthOnlyAppliesToMLP(t *testing.T) {
	op := ChangeRandomWidth{MaxWidth: 64}
	if op.Applicable(sampleDescriptor(t, descriptor.KindConv, 1)) {
		t.Fatal("width change must not apply to conv genomes")
	}
	if !op.Applicable(sampleDescriptor(t, descriptor.KindMLP, 1)) {
		t.Fatal("width change must apply to dense genomes")
	}

	rng := rand.New(rand.NewSource(3))
	if err := op.Apply(sampleDescriptor(t, descriptor.KindTConv, 1), rng); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("applying width change to tconv: want ErrNotApplicable")
	}
}

func TestOperatorDeterminism(t *testing.T) {
	op := AddRandomLayer{MaxWidth: 64, MaxStride: 3, MaxFilter: 5}

	a := sampleDescriptor(t, descriptor.KindConv, 5)
	b := sampleDescriptor(t, descriptor.KindConv, 5)
	errA := op.Apply(a, rand.New(rand.NewSource(99)))
	errB := op.Apply(b, rand.New(rand.NewSource(99)))

	if (errA == nil) != (errB == nil) {
		t.Fatalf("same seed diverged: errA=%v errB=%v", errA, errB)
	}
	if descriptor.Codify(a) != descriptor.Codify(b) {
		t.Fatalf("same seed produced different genomes:\n%s\n%s", descriptor.Codify(a), descriptor.Codify(b))
	}
}
