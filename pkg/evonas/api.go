// Package evonas is the embedding surface for external evolutionary
// drivers: sampling random genomes, applying named mutation operators, and
// archiving genomes for cross-generation deduplication.
package evonas

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"evonas/internal/descriptor"
	"evonas/internal/evo"
	"evonas/internal/export"
	"evonas/internal/storage"
)

const defaultDBPath = "evonas.db"

const (
	defaultMaxLayers = 8
	defaultMaxWidth  = 128
	defaultMaxStride = 3
	defaultMaxFilter = 5
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// SampleRequest carries the search bounds for one random genome. Zero
// bounds fall back to the package defaults; a zero seed is replaced by the
// wall clock so unvalued requests still diverge.
type SampleRequest struct {
	Kind           string
	Seed           int64
	Input          []int
	Output         []int
	MaxLayers      int
	MaxWidth       int
	MaxStride      int
	MaxFilter      int
	AllowDropout   bool
	AllowBatchNorm bool
}

type SampleResult struct {
	Descriptor  descriptor.Descriptor
	Signature   descriptor.Signature
	Codified    string
	TotalParams int64
}

type MutateRequest struct {
	Operators []string
	Steps     int
	Seed      int64
}

// MutateResult reports which operator applications took effect and which
// were blocked by feasibility; blocked picks are normal search traffic, not
// failures.
type MutateResult struct {
	Applied []string
	Blocked []string
}

type ArchiveSummary struct {
	ID          string
	Fingerprint string
	Duplicate   bool
}

type ArchiveItem struct {
	ID           string
	Kind         descriptor.Kind
	Fingerprint  string
	Codified     string
	CreatedAtUTC string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	return evo.RegisterDefaults(descriptor.InitBounds{
		MaxLayers: defaultMaxLayers,
		MaxWidth:  defaultMaxWidth,
		MaxStride: defaultMaxStride,
		MaxFilter: defaultMaxFilter,
	})
}

func (req *SampleRequest) bounds() descriptor.InitBounds {
	if req.MaxLayers <= 0 {
		req.MaxLayers = defaultMaxLayers
	}
	if req.MaxWidth <= 0 {
		req.MaxWidth = defaultMaxWidth
	}
	if req.MaxStride <= 0 {
		req.MaxStride = defaultMaxStride
	}
	if req.MaxFilter <= 0 {
		req.MaxFilter = defaultMaxFilter
	}
	return descriptor.InitBounds{
		Input:          req.Input,
		Output:         req.Output,
		MaxLayers:      req.MaxLayers,
		MaxWidth:       req.MaxWidth,
		MaxStride:      req.MaxStride,
		MaxFilter:      req.MaxFilter,
		AllowDropout:   req.AllowDropout,
		AllowBatchNorm: req.AllowBatchNorm,
	}
}

// Sample constructs a descriptor of the requested kind and runs its random
// initializer once under a seeded source.
func (c *Client) Sample(_ context.Context, req SampleRequest) (SampleResult, error) {
	kind, err := descriptor.ParseKind(req.Kind)
	if err != nil {
		return SampleResult{}, err
	}
	if len(req.Input) == 0 || len(req.Output) == 0 {
		return SampleResult{}, errors.New("input and output dimensions are required")
	}

	desc, err := evo.NewDescriptor(kind)
	if err != nil {
		return SampleResult{}, err
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	desc.RandomInit(rand.New(rand.NewSource(seed)), req.bounds())

	sig := descriptor.ComputeSignature(desc)
	return SampleResult{
		Descriptor:  desc,
		Signature:   sig,
		Codified:    descriptor.Codify(desc),
		TotalParams: sig.Summary.TotalParams,
	}, nil
}

// Mutate applies the named operators in order, Steps passes over the list.
// Operator errors are the feasibility vocabulary of the engine: blocked
// applications are collected, anything else aborts.
func (c *Client) Mutate(_ context.Context, desc descriptor.Descriptor, req MutateRequest) (MutateResult, error) {
	if len(req.Operators) == 0 {
		return MutateResult{}, errors.New("at least one operator is required")
	}
	steps := req.Steps
	if steps <= 0 {
		steps = 1
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var result MutateResult
	for step := 0; step < steps; step++ {
		for _, name := range req.Operators {
			op, err := evo.ResolveOperator(name, desc)
			if err != nil {
				if errors.Is(err, evo.ErrNotApplicable) {
					result.Blocked = append(result.Blocked, name)
					continue
				}
				return MutateResult{}, err
			}
			switch err := op.Apply(desc, rng); {
			case err == nil:
				result.Applied = append(result.Applied, name)
			case errors.Is(err, evo.ErrShapeInfeasible),
				errors.Is(err, evo.ErrLayerFloor),
				errors.Is(err, evo.ErrNotApplicable):
				result.Blocked = append(result.Blocked, name)
			default:
				return MutateResult{}, fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}
	return result, nil
}

// Archive stores a genome keyed by its fingerprint. A genome whose
// fingerprint is already archived is reported as a duplicate and not stored
// again.
func (c *Client) Archive(ctx context.Context, desc descriptor.Descriptor) (ArchiveSummary, error) {
	sig := descriptor.ComputeSignature(desc)

	if existing, ok, err := c.store.FindByFingerprint(ctx, sig.Fingerprint); err != nil {
		return ArchiveSummary{}, err
	} else if ok {
		return ArchiveSummary{ID: existing.ID, Fingerprint: sig.Fingerprint, Duplicate: true}, nil
	}

	payload, err := storage.EncodeDescriptor(desc)
	if err != nil {
		return ArchiveSummary{}, err
	}
	rec := storage.GenomeRecord{
		VersionedRecord: storage.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           uuid.NewString(),
		Kind:         desc.Kind(),
		Fingerprint:  sig.Fingerprint,
		Codified:     descriptor.Codify(desc),
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:      payload,
	}
	if err := c.store.SaveGenome(ctx, rec); err != nil {
		return ArchiveSummary{}, err
	}
	return ArchiveSummary{ID: rec.ID, Fingerprint: sig.Fingerprint}, nil
}

// Lookup fetches an archived genome by record ID.
func (c *Client) Lookup(ctx context.Context, id string) (descriptor.Descriptor, ArchiveItem, error) {
	rec, ok, err := c.store.GetGenome(ctx, id)
	if err != nil {
		return nil, ArchiveItem{}, err
	}
	if !ok {
		return nil, ArchiveItem{}, fmt.Errorf("genome not archived: %s", id)
	}
	desc, err := storage.DecodeDescriptor(rec)
	if err != nil {
		return nil, ArchiveItem{}, err
	}
	return desc, archiveItem(rec), nil
}

func (c *Client) ListArchive(ctx context.Context, limit int) ([]ArchiveItem, error) {
	records, err := c.store.ListGenomes(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]ArchiveItem, len(records))
	for i, rec := range records {
		items[i] = archiveItem(rec)
	}
	return items, nil
}

// ExportEntry describes one genome artifact written by ExportArchive.
type ExportEntry struct {
	ID          string
	Kind        descriptor.Kind
	Fingerprint string
	TotalParams int64
	File        string
}

// ExportArchive writes up to limit archived genomes (oldest first, all when
// limit <= 0) to dir as JSON artifacts and updates the export index. It
// returns the entries written in this pass.
func (c *Client) ExportArchive(ctx context.Context, dir string, limit int) ([]ExportEntry, error) {
	records, err := c.store.ListGenomes(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]ExportEntry, 0, len(records))
	for _, rec := range records {
		desc, err := storage.DecodeDescriptor(rec)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", rec.ID, err)
		}
		sig := descriptor.ComputeSignature(desc)
		path, err := export.WriteGenomeArtifact(dir, rec, sig)
		if err != nil {
			return nil, err
		}
		entry := export.IndexEntry{
			ID:            rec.ID,
			Kind:          rec.Kind,
			Fingerprint:   rec.Fingerprint,
			TotalParams:   sig.Summary.TotalParams,
			CreatedAtUTC:  rec.CreatedAtUTC,
			ExportedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
			File:          filepath.Base(path),
		}
		if err := export.AppendIndex(dir, entry); err != nil {
			return nil, err
		}
		entries = append(entries, ExportEntry{
			ID:          entry.ID,
			Kind:        entry.Kind,
			Fingerprint: entry.Fingerprint,
			TotalParams: entry.TotalParams,
			File:        entry.File,
		})
	}
	return entries, nil
}

func archiveItem(rec storage.GenomeRecord) ArchiveItem {
	return ArchiveItem{
		ID:           rec.ID,
		Kind:         rec.Kind,
		Fingerprint:  rec.Fingerprint,
		Codified:     rec.Codified,
		CreatedAtUTC: rec.CreatedAtUTC,
	}
}

func (c *Client) Kinds() []descriptor.Kind {
	return evo.ListKinds()
}

func (c *Client) Operators() []string {
	return evo.ListOperators()
}
