package export

import (
	"os"
	"path/filepath"
	"testing"

	"evonas/internal/descriptor"
	"evonas/internal/storage"
)

func newRecord(t *testing.T, id, createdAt string) (storage.GenomeRecord, descriptor.Signature) {
	t.Helper()
	d := descriptor.NewMLPDescriptor()
	d.InputUnits = 4
	d.OutputUnits = 2
	d.Layers = []descriptor.DenseLayer{{Width: 8, Init: descriptor.InitGlorotNormal, Act: descriptor.ActReLU}}

	sig := descriptor.ComputeSignature(d)
	payload, err := storage.EncodeDescriptor(d)
	if err != nil {
		t.Fatalf("encode descriptor: %v", err)
	}
	rec := storage.GenomeRecord{
		VersionedRecord: storage.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           id,
		Kind:         descriptor.KindMLP,
		Fingerprint:  sig.Fingerprint,
		Codified:     descriptor.Codify(d),
		CreatedAtUTC: createdAt,
		Payload:      payload,
	}
	return rec, sig
}

func TestWriteAndReadGenomeArtifact(t *testing.T) {
	baseDir := t.TempDir()
	rec, sig := newRecord(t, "g1", "2026-01-01T00:00:00Z")

	path, err := WriteGenomeArtifact(baseDir, rec, sig)
	if err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if path != filepath.Join(baseDir, "g1.json") {
		t.Fatalf("unexpected artifact path: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected artifact file: %v", err)
	}

	artifact, ok, err := ReadGenomeArtifact(baseDir, "g1")
	if err != nil || !ok {
		t.Fatalf("read artifact: ok=%v err=%v", ok, err)
	}
	if artifact.Record.ID != "g1" || artifact.Record.Kind != descriptor.KindMLP {
		t.Fatalf("record mismatch: %+v", artifact.Record)
	}
	if artifact.Signature.Fingerprint != sig.Fingerprint {
		t.Fatalf("fingerprint mismatch: got=%s want=%s", artifact.Signature.Fingerprint, sig.Fingerprint)
	}

	desc, err := storage.DecodeDescriptor(artifact.Record)
	if err != nil {
		t.Fatalf("decode exported descriptor: %v", err)
	}
	if descriptor.Codify(desc) != rec.Codified {
		t.Fatal("exported payload does not round trip")
	}
}

func TestReadGenomeArtifactMissing(t *testing.T) {
	if _, ok, err := ReadGenomeArtifact(t.TempDir(), "absent"); ok || err != nil {
		t.Fatalf("expected absent artifact: ok=%v err=%v", ok, err)
	}
}

func TestWriteGenomeArtifactRequiresID(t *testing.T) {
	rec, sig := newRecord(t, "g1", "2026-01-01T00:00:00Z")
	rec.ID = ""
	if _, err := WriteGenomeArtifact(t.TempDir(), rec, sig); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestAppendIndexUpsertsAndSorts(t *testing.T) {
	baseDir := t.TempDir()

	entries := []IndexEntry{
		{ID: "g2", Kind: descriptor.KindMLP, CreatedAtUTC: "2026-01-02T00:00:00Z", File: "g2.json"},
		{ID: "g1", Kind: descriptor.KindMLP, CreatedAtUTC: "2026-01-01T00:00:00Z", File: "g1.json"},
	}
	for _, entry := range entries {
		if err := AppendIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.ID, err)
		}
	}

	index, err := ListIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 2 || index[0].ID != "g1" || index[1].ID != "g2" {
		t.Fatalf("unexpected index order: %+v", index)
	}

	updated := IndexEntry{ID: "g1", Kind: descriptor.KindMLP, Fingerprint: "fp-new", CreatedAtUTC: "2026-01-01T00:00:00Z", File: "g1.json"}
	if err := AppendIndex(baseDir, updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	index, err = ListIndex(baseDir)
	if err != nil {
		t.Fatalf("list index after upsert: %v", err)
	}
	if len(index) != 2 || index[0].Fingerprint != "fp-new" {
		t.Fatalf("upsert did not replace entry: %+v", index)
	}
}

func TestListIndexEmptyDir(t *testing.T) {
	index, err := ListIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("expected empty index, got %+v", index)
	}
}
