// Package storage defines persistence contracts for contest snapshots.
package storage

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
)

// ErrNotFound indicates a requested contest record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Kind names the subsystem that owns a persisted contest.
type Kind string

// Persisted contest kinds. Single-shot checks leave no snapshot.
const (
	KindNegotiation   Kind = "negotiation"
	KindInterrogation Kind = "interrogation"
	KindInfluence     Kind = "influence"
)

// ContestRecord is one contest snapshot. State holds the subsystem's plain
// data encoded as JSON.
type ContestRecord struct {
	ID        string
	Kind      Kind
	Status    string
	Locale    string
	State     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContestStore persists contest snapshots.
type ContestStore interface {
	PutContest(ctx context.Context, record ContestRecord) error
	GetContest(ctx context.Context, id string) (ContestRecord, error)
	ListContests(ctx context.Context, kind Kind, limit int) ([]ContestRecord, error)
}

// Memory is an in-process ContestStore.
type Memory struct {
	mu      sync.RWMutex
	records map[string]ContestRecord
	order   []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: map[string]ContestRecord{}}
}

// PutContest implements ContestStore.
func (m *Memory) PutContest(_ context.Context, record ContestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[record.ID]; ok {
		record.CreatedAt = existing.CreatedAt
	} else {
		m.order = append(m.order, record.ID)
	}
	record.State = append([]byte(nil), record.State...)
	m.records[record.ID] = record
	return nil
}

// GetContest implements ContestStore.
func (m *Memory) GetContest(_ context.Context, id string) (ContestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return ContestRecord{}, ErrNotFound
	}
	record.State = append([]byte(nil), record.State...)
	return record, nil
}

// ListContests implements ContestStore in reverse creation order.
func (m *Memory) ListContests(_ context.Context, kind Kind, limit int) ([]ContestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ContestRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		record := m.records[m.order[i]]
		if kind != "" && record.Kind != kind {
			continue
		}
		out = append(out, record)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
