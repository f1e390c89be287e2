package storage

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[string]GenomeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[string]GenomeRecord)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, rec GenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.genomes[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (GenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.genomes[id]
	return rec, ok, nil
}

func (s *MemoryStore) FindByFingerprint(_ context.Context, fingerprint string) (GenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.genomes {
		if rec.Fingerprint == fingerprint {
			return rec, true, nil
		}
	}
	return GenomeRecord{}, false, nil
}

func (s *MemoryStore) ListGenomes(_ context.Context, limit int) ([]GenomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]GenomeRecord, 0, len(s.genomes))
	for _, rec := range s.genomes {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtUTC != records[j].CreatedAtUTC {
			return records[i].CreatedAtUTC < records[j].CreatedAtUTC
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemoryStore) DeleteGenome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.genomes, id)
	return nil
}
