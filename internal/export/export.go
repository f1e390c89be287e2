// Package export writes archived genomes to a directory of JSON artifacts so
// they can be inspected offline or used to seed another population. The
// directory carries one file per genome plus an index that is upserted on
// re-export.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"evonas/internal/descriptor"
	"evonas/internal/storage"
)

const indexFile = "export_index.json"

// GenomeArtifact pairs an archived record with the signature derived from it
// at export time.
type GenomeArtifact struct {
	Record    storage.GenomeRecord `json:"record"`
	Signature descriptor.Signature `json:"signature"`
}

// IndexEntry is one row of export_index.json.
type IndexEntry struct {
	ID            string          `json:"id"`
	Kind          descriptor.Kind `json:"kind"`
	Fingerprint   string          `json:"fingerprint"`
	TotalParams   int64           `json:"total_params"`
	CreatedAtUTC  string          `json:"created_at_utc"`
	ExportedAtUTC string          `json:"exported_at_utc"`
	File          string          `json:"file"`
}

// WriteGenomeArtifact writes rec and its signature to baseDir/<id>.json and
// returns the written path.
func WriteGenomeArtifact(baseDir string, rec storage.GenomeRecord, sig descriptor.Signature) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("genome id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(baseDir, rec.ID+".json")
	if err := writeJSON(path, GenomeArtifact{Record: rec, Signature: sig}); err != nil {
		return "", err
	}
	return path, nil
}

// ReadGenomeArtifact loads a previously exported genome. The bool reports
// whether the artifact exists.
func ReadGenomeArtifact(baseDir, id string) (GenomeArtifact, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return GenomeArtifact{}, false, nil
		}
		return GenomeArtifact{}, false, err
	}
	var artifact GenomeArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return GenomeArtifact{}, false, err
	}
	return artifact, true, nil
}

// AppendIndex upserts entry into baseDir's index, keyed by genome id.
func AppendIndex(baseDir string, entry IndexEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("genome id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].ID == entry.ID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, indexFile), index)
		}
	}
	index = append(index, entry)
	sort.Slice(index, func(i, j int) bool {
		if index[i].CreatedAtUTC != index[j].CreatedAtUTC {
			return index[i].CreatedAtUTC < index[j].CreatedAtUTC
		}
		return index[i].ID < index[j].ID
	})
	return writeJSON(filepath.Join(baseDir, indexFile), index)
}

// ListIndex returns the index entries, or an empty slice when no index has
// been written yet.
func ListIndex(baseDir string) ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var index []IndexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
