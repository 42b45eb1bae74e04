// Package sqlite persists contest snapshots and ledger deltas in SQLite.
//
// Snapshot state is stored as zstd-compressed JSON so long contest histories
// stay small on disk.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/louisbranch/parley/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/parley/internal/services/contest/ledger"
	"github.com/louisbranch/parley/internal/services/contest/storage"
	"github.com/louisbranch/parley/internal/services/contest/storage/sqlite/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements storage.ContestStore and ledger.Store.
type Store struct {
	sqlDB   *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens the database at path, creating it when missing, and applies
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if path != MemoryPath {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps :memory: databases coherent and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, migrations.Root); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Store{sqlDB: sqlDB, encoder: encoder, decoder: decoder}, nil
}

func initPragmas(ctx context.Context, sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	_ = s.encoder.Close()
	s.decoder.Close()
	return s.sqlDB.Close()
}

// PutContest inserts or replaces a snapshot, keeping the original creation time.
func (s *Store) PutContest(ctx context.Context, record storage.ContestRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("contest id is required")
	}
	compressed := s.encoder.EncodeAll(record.State, nil)
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO contests (id, kind, status, locale, state, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    kind = excluded.kind,
    status = excluded.status,
    locale = excluded.locale,
    state = excluded.state,
    updated_at = excluded.updated_at`,
		record.ID, string(record.Kind), record.Status, record.Locale, compressed,
		toMillis(record.CreatedAt), toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put contest %s: %w", record.ID, err)
	}
	return nil
}

// GetContest loads one snapshot.
func (s *Store) GetContest(ctx context.Context, id string) (storage.ContestRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, kind, status, locale, state, created_at, updated_at
FROM contests WHERE id = ?`, id)
	record, err := s.scanContest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ContestRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ContestRecord{}, fmt.Errorf("get contest %s: %w", id, err)
	}
	return record, nil
}

// ListContests returns snapshots of one kind, most recently updated first.
// An empty kind lists every contest; a non-positive limit means no limit.
func (s *Store) ListContests(ctx context.Context, kind storage.Kind, limit int) ([]storage.ContestRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, status, locale, state, created_at, updated_at
FROM contests
WHERE ? = '' OR kind = ?
ORDER BY updated_at DESC, id
LIMIT ?`, string(kind), string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}
	defer rows.Close()

	var records []storage.ContestRecord
	for rows.Next() {
		record, err := s.scanContest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contest: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read contests: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanContest(row scanner) (storage.ContestRecord, error) {
	var (
		record     storage.ContestRecord
		kind       string
		compressed []byte
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&record.ID, &kind, &record.Status, &record.Locale, &compressed, &createdAt, &updatedAt); err != nil {
		return storage.ContestRecord{}, err
	}
	state, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return storage.ContestRecord{}, fmt.Errorf("decompress contest %s: %w", record.ID, err)
	}
	record.Kind = storage.Kind(kind)
	record.State = state
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// AppendDelta implements ledger.Store.
func (s *Store) AppendDelta(ctx context.Context, delta ledger.Delta) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO ledger_deltas (contest_id, subsystem, kind, amount, source, round, trace_id, span_id, at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		delta.ContestID, delta.Subsystem, string(delta.Kind), delta.Amount, delta.Source,
		delta.Round, delta.TraceID, delta.SpanID, toMillis(delta.At),
	)
	if err != nil {
		return fmt.Errorf("append delta for %s: %w", delta.ContestID, err)
	}
	return nil
}

// ListDeltas returns a contest's deltas in emission order.
func (s *Store) ListDeltas(ctx context.Context, contestID string) ([]ledger.Delta, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT contest_id, subsystem, kind, amount, source, round, trace_id, span_id, at
FROM ledger_deltas WHERE contest_id = ? ORDER BY seq`, contestID)
	if err != nil {
		return nil, fmt.Errorf("list deltas: %w", err)
	}
	defer rows.Close()

	var deltas []ledger.Delta
	for rows.Next() {
		var (
			delta ledger.Delta
			kind  string
			at    int64
		)
		if err := rows.Scan(&delta.ContestID, &delta.Subsystem, &kind, &delta.Amount, &delta.Source,
			&delta.Round, &delta.TraceID, &delta.SpanID, &at); err != nil {
			return nil, fmt.Errorf("scan delta: %w", err)
		}
		delta.Kind = ledger.Kind(kind)
		delta.At = fromMillis(at)
		deltas = append(deltas, delta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read deltas: %w", err)
	}
	return deltas, nil
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
