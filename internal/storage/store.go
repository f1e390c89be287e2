package storage

import (
	"context"

	"evonas/internal/descriptor"
)

// VersionedRecord captures schema and codec evolution for persisted data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GenomeRecord is one archived descriptor. Fingerprint is the dedup key: the
// driver checks it before admitting a child genome that codifies identically
// to an ancestor.
type GenomeRecord struct {
	VersionedRecord
	ID           string          `json:"id"`
	Kind         descriptor.Kind `json:"kind"`
	Fingerprint  string          `json:"fingerprint"`
	Codified     string          `json:"codified"`
	CreatedAtUTC string          `json:"created_at_utc"`
	Payload      []byte          `json:"payload"`
}

// Store defines the persistence operations of the genome archive.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, rec GenomeRecord) error
	GetGenome(ctx context.Context, id string) (GenomeRecord, bool, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (GenomeRecord, bool, error)
	ListGenomes(ctx context.Context, limit int) ([]GenomeRecord, error)
	DeleteGenome(ctx context.Context, id string) error
}
