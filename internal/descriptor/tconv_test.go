package descriptor

import (
	"math/rand"
	"reflect"
	"testing"
)

func newTestTConv(t *testing.T, seed int64) *TConvDescriptor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	d := NewTConvDescriptor()
	d.RandomInit(rng, InitBounds{
		Input:          []int{7, 7, 50},
		Output:         []int{28, 28, 3},
		MaxStride:      3,
		MaxFilter:      4,
		AllowBatchNorm: true,
	})
	return d
}

func TestTConvRandomInitReachesTarget(t *testing.T) {
	for seed := int64(0); seed < 64; seed++ {
		d := newTestTConv(t, seed)
		if n := d.HiddenLayerCount(); n < 1 || n > maxGrowthAttempts {
			t.Fatalf("seed=%d layer count out of range: got=%d", seed, n)
		}
		final := d.OutputShapes[len(d.OutputShapes)-1]
		if final.H < 28 || final.W < 28 {
			t.Fatalf("seed=%d final shape below target: got=%v", seed, final)
		}
		if final.C != 3 {
			t.Fatalf("seed=%d final channels not forced to target depth: got=%d want=3", seed, final.C)
		}
		if got := d.Layers[len(d.Layers)-1].Filter.Channels; got != 3 {
			t.Fatalf("seed=%d final filter channels: got=%d want=3", seed, got)
		}
	}
}

func TestTConvShapeCachePureFunctionOfLayers(t *testing.T) {
	for seed := int64(0); seed < 64; seed++ {
		d := newTestTConv(t, seed)
		incremental := append([]Shape(nil), d.OutputShapes...)
		d.recomputeShapes()
		if !reflect.DeepEqual(d.OutputShapes, incremental) {
			t.Fatalf("seed=%d full recompute diverged from incremental cache:\ngot=%v\nwant=%v",
				seed, d.OutputShapes, incremental)
		}
	}
}

func TestTConvAddThenRemoveRestores(t *testing.T) {
	d := newTestTConv(t, 3)
	before := append([]TConvLayer(nil), d.Layers...)
	beforeShapes := append([]Shape(nil), d.OutputShapes...)

	rng := rand.New(rand.NewSource(1))
	pos := 0
	status := d.AddLayer(rng, pos, TConvLayerParams{
		Stride:     2,
		KernelSize: 3,
		Act:        ActELU,
		Init:       InitGlorotNormal,
	})
	if status != StatusOK {
		t.Fatalf("insert status: got=%v want=%v", status, StatusOK)
	}
	if got, want := d.HiddenLayerCount(), len(before)+1; got != want {
		t.Fatalf("count after insert: got=%d want=%d", got, want)
	}

	d.RemoveLayer(pos)
	if !reflect.DeepEqual(d.Layers, before) {
		t.Fatalf("add+remove did not restore layers:\ngot=%+v\nwant=%+v", d.Layers, before)
	}
	if !reflect.DeepEqual(d.OutputShapes, beforeShapes) {
		t.Fatalf("add+remove did not restore shape cache:\ngot=%v\nwant=%v", d.OutputShapes, beforeShapes)
	}
}

func TestTConvRemoveRandomLayerKeepsTargetReach(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	d := newTestTConv(t, 9)

	// Pad the stack so there is genuinely removable slack.
	for i := 0; i < 3; i++ {
		d.AddLayer(rng, 0, TConvLayerParams{Stride: 2, KernelSize: 3, Act: ActReLU, Init: InitGlorotUniform})
	}

	for {
		status := d.RemoveRandomLayer(rng)
		if status == StatusLayerFloor {
			break
		}
		if status != StatusOK {
			t.Fatalf("unexpected removal status: got=%v", status)
		}
		final := d.OutputShapes[len(d.OutputShapes)-1]
		if final.H < d.Output.H || final.W < d.Output.W {
			t.Fatalf("removal broke target reach: final=%v target=%v", final, d.Output)
		}
	}
	if got := d.HiddenLayerCount(); got < 1 {
		t.Fatalf("hidden layer count dropped below 1: got=%d", got)
	}
}

func TestTConvRemoveRandomLayerFloorOnSingleLayer(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	d := newTestTConv(t, 2)
	for d.HiddenLayerCount() > 1 {
		if d.RemoveRandomLayer(rng) == StatusLayerFloor {
			break
		}
	}
	d.Layers = d.Layers[:1]
	d.recomputeShapes()
	if status := d.RemoveRandomLayer(rng); status != StatusLayerFloor {
		t.Fatalf("single-layer removal: got=%v want=%v", status, StatusLayerFloor)
	}
}

func TestTConvChangeFiltersAndStrideRecompute(t *testing.T) {
	d := newTestTConv(t, 5)

	d.ChangeFilters(0, 3, 12)
	if got := d.Layers[0].Filter; got.H != 3 || got.W != 3 || got.Channels != 12 {
		t.Fatalf("filter overwrite mismatch: got=%v", got)
	}
	want := Expand(d.Input, d.Layers[0].Filter, d.Layers[0].Stride)
	if d.OutputShapes[0] != want {
		t.Fatalf("cache not rebuilt after filter change: got=%v want=%v", d.OutputShapes[0], want)
	}

	d.ChangeStride(0, 2)
	if got := d.Layers[0].Stride; got.H != 2 || got.W != 2 {
		t.Fatalf("stride overwrite mismatch: got=%v", got)
	}

	before := append([]TConvLayer(nil), d.Layers...)
	d.ChangeFilters(len(d.Layers), 3, 3)
	d.ChangeStride(-1, 1)
	d.ChangeActivation(len(d.Layers), ActTanh)
	d.ChangeWeightInit(-1, InitRandomUniform)
	if !reflect.DeepEqual(d.Layers, before) {
		t.Fatalf("out-of-range edit mutated the genome")
	}
}
