//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "archive.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close sqlite store: %v", err)
		}
	})
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	rec := newRecord(t, "g1", "fp1", "2026-01-01T00:00:00Z")
	if err := store.SaveGenome(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.GetGenome(ctx, "g1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Fingerprint != rec.Fingerprint || got.Codified != rec.Codified || got.Kind != rec.Kind {
		t.Fatalf("record mismatch:\ngot=%+v\nwant=%+v", got, rec)
	}

	decoded, err := DecodeDescriptor(got)
	if err != nil {
		t.Fatalf("decode archived descriptor: %v", err)
	}
	if decoded.Kind() != rec.Kind {
		t.Fatalf("decoded kind mismatch: got=%s want=%s", decoded.Kind(), rec.Kind)
	}
}

func TestSQLiteStoreUpsertAndFingerprint(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	rec := newRecord(t, "g1", "fp1", "2026-01-01T00:00:00Z")
	if err := store.SaveGenome(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Fingerprint = "fp2"
	if err := store.SaveGenome(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, ok, _ := store.FindByFingerprint(ctx, "fp1"); ok {
		t.Fatal("stale fingerprint still findable after upsert")
	}
	got, ok, err := store.FindByFingerprint(ctx, "fp2")
	if err != nil || !ok {
		t.Fatalf("find upserted: ok=%v err=%v", ok, err)
	}
	if got.ID != "g1" {
		t.Fatalf("fingerprint lookup mismatch: %+v", got)
	}
}

func TestSQLiteStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	for _, rec := range []GenomeRecord{
		newRecord(t, "b", "fp-b", "2026-01-02T00:00:00Z"),
		newRecord(t, "a", "fp-a", "2026-01-01T00:00:00Z"),
	} {
		if err := store.SaveGenome(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.ID, err)
		}
	}

	records, err := store.ListGenomes(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].ID != "a" {
		t.Fatalf("list order mismatch: %+v", records)
	}

	if err := store.DeleteGenome(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetGenome(ctx, "a"); ok {
		t.Fatal("deleted record still present")
	}
}
