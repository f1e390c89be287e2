package storage

import (
	"context"
	"testing"

	"evonas/internal/descriptor"
)

func newRecord(t *testing.T, id, fingerprint, createdAt string) GenomeRecord {
	t.Helper()
	d := descriptor.NewMLPDescriptor()
	d.InputUnits = 4
	d.OutputUnits = 2
	d.Layers = []descriptor.DenseLayer{{Width: 8, Init: descriptor.InitGlorotNormal, Act: descriptor.ActReLU}}

	payload, err := EncodeDescriptor(d)
	if err != nil {
		t.Fatalf("encode descriptor: %v", err)
	}
	return GenomeRecord{
		VersionedRecord: VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Kind:            descriptor.KindMLP,
		Fingerprint:     fingerprint,
		Codified:        descriptor.Codify(d),
		CreatedAtUTC:    createdAt,
		Payload:         payload,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	rec := newRecord(t, "g1", "fp1", "2026-01-01T00:00:00Z")
	if err := store.SaveGenome(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.GetGenome(ctx, "g1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Fingerprint != "fp1" || got.Kind != descriptor.KindMLP {
		t.Fatalf("record mismatch: %+v", got)
	}

	if _, ok, _ := store.GetGenome(ctx, "missing"); ok {
		t.Fatal("missing id reported as present")
	}
}

func TestMemoryStoreFindByFingerprint(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveGenome(ctx, newRecord(t, "g1", "fp1", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, ok, err := store.FindByFingerprint(ctx, "fp1")
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if rec.ID != "g1" {
		t.Fatalf("find returned wrong record: %+v", rec)
	}

	if _, ok, _ := store.FindByFingerprint(ctx, "nope"); ok {
		t.Fatal("unknown fingerprint reported as present")
	}
}

func TestMemoryStoreListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, rec := range []GenomeRecord{
		newRecord(t, "b", "fp-b", "2026-01-02T00:00:00Z"),
		newRecord(t, "a", "fp-a", "2026-01-01T00:00:00Z"),
		newRecord(t, "c", "fp-c", "2026-01-03T00:00:00Z"),
	} {
		if err := store.SaveGenome(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.ID, err)
		}
	}

	records, err := store.ListGenomes(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 || records[0].ID != "a" || records[2].ID != "c" {
		t.Fatalf("list order mismatch: %+v", records)
	}

	limited, err := store.ListGenomes(ctx, 2)
	if err != nil {
		t.Fatalf("limited list: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit ignored: got=%d want=2", len(limited))
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveGenome(ctx, newRecord(t, "g1", "fp1", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.DeleteGenome(ctx, "g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetGenome(ctx, "g1"); ok {
		t.Fatal("deleted record still present")
	}
}
