package repository

import (
	"context"
	"sync"

	"github.com/okian/gradestats/internal/domain/grades"
)

// MemoryStore keeps score records in process memory. Reads return copies so
// callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []grades.ScoreRecord
	closed  bool
}

// NewMemoryStore creates a store holding a copy of records.
func NewMemoryStore(records ...grades.ScoreRecord) *MemoryStore {
	s := &MemoryStore{}
	s.records = cloneAll(records)
	return s
}

// FetchScoreRecords implements Store.
func (s *MemoryStore) FetchScoreRecords(ctx context.Context, f grades.Filter) ([]grades.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]grades.ScoreRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

// InsertScoreRecords implements Writer.
func (s *MemoryStore) InsertScoreRecords(ctx context.Context, records []grades.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRecords(records); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records = append(s.records, cloneAll(records)...)
	return nil
}

// Replace swaps the whole record set atomically.
func (s *MemoryStore) Replace(records []grades.ScoreRecord) {
	next := cloneAll(records)
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Driver implements Store.
func (s *MemoryStore) Driver() Driver { return DriverMemory }

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func cloneAll(records []grades.ScoreRecord) []grades.ScoreRecord {
	out := make([]grades.ScoreRecord, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}
