//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	evoapi "evonas/pkg/evonas"
)

func TestSampleSaveSQLitePersistsGenome(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "evonas.db")
	args := []string{
		"sample",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--kind", "mlp",
		"--input", "784",
		"--output", "10",
		"--seed", "23",
		"--save",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("sample command: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	client, err := evoapi.New(evoapi.Options{StoreKind: "sqlite", DBPath: dbPath})
	if err != nil {
		t.Fatalf("open client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()
	ctx := context.Background()
	if err := client.Init(ctx); err != nil {
		t.Fatalf("init client: %v", err)
	}

	items, err := client.ListArchive(ctx, 0)
	if err != nil {
		t.Fatalf("list archive: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one archived genome, got %d", len(items))
	}
	if items[0].Kind != "mlp" {
		t.Fatalf("unexpected kind: %s", items[0].Kind)
	}

	desc, item, err := client.Lookup(ctx, items[0].ID)
	if err != nil {
		t.Fatalf("lookup genome: %v", err)
	}
	if desc.Kind() != "mlp" || item.Fingerprint == "" {
		t.Fatalf("unexpected genome: kind=%s fingerprint=%q", desc.Kind(), item.Fingerprint)
	}
}
