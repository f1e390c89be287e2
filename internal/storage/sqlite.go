//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveGenome(ctx context.Context, rec GenomeRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO genomes (id, schema_version, codec_version, kind, fingerprint, codified, created_at_utc, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			kind = excluded.kind,
			fingerprint = excluded.fingerprint,
			codified = excluded.codified,
			created_at_utc = excluded.created_at_utc,
			payload = excluded.payload
	`, rec.ID, rec.SchemaVersion, rec.CodecVersion, string(rec.Kind), rec.Fingerprint, rec.Codified, rec.CreatedAtUTC, rec.Payload)
	return err
}

func (s *SQLiteStore) GetGenome(ctx context.Context, id string) (GenomeRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return GenomeRecord{}, false, err
	}
	return scanGenome(db.QueryRowContext(ctx, `
		SELECT id, schema_version, codec_version, kind, fingerprint, codified, created_at_utc, payload
		FROM genomes WHERE id = ?
	`, id))
}

func (s *SQLiteStore) FindByFingerprint(ctx context.Context, fingerprint string) (GenomeRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return GenomeRecord{}, false, err
	}
	return scanGenome(db.QueryRowContext(ctx, `
		SELECT id, schema_version, codec_version, kind, fingerprint, codified, created_at_utc, payload
		FROM genomes WHERE fingerprint = ?
		ORDER BY created_at_utc LIMIT 1
	`, fingerprint))
}

func (s *SQLiteStore) ListGenomes(ctx context.Context, limit int) ([]GenomeRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, schema_version, codec_version, kind, fingerprint, codified, created_at_utc, payload
		FROM genomes ORDER BY created_at_utc, id
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []GenomeRecord
	for rows.Next() {
		var rec GenomeRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.SchemaVersion, &rec.CodecVersion, &kind,
			&rec.Fingerprint, &rec.Codified, &rec.CreatedAtUTC, &rec.Payload); err != nil {
			return nil, err
		}
		rec.Kind = kindFromString(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteGenome(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM genomes WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGenome(row rowScanner) (GenomeRecord, bool, error) {
	var rec GenomeRecord
	var kind string
	err := row.Scan(&rec.ID, &rec.SchemaVersion, &rec.CodecVersion, &kind,
		&rec.Fingerprint, &rec.Codified, &rec.CreatedAtUTC, &rec.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GenomeRecord{}, false, nil
		}
		return GenomeRecord{}, false, err
	}
	rec.Kind = kindFromString(kind)
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return GenomeRecord{}, false, fmt.Errorf("genome %s: %w", rec.ID, err)
	}
	return rec, true, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS genomes (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			kind TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			codified TEXT NOT NULL,
			created_at_utc TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS genomes_fingerprint ON genomes (fingerprint);
	`)
	return err
}
