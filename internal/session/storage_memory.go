package session

import (
	"context"
	"sync"
)

// MemoryStorage is a process-local backend. SaveErr and ClearErr, when set,
// are returned by the corresponding calls without touching the record.
type MemoryStorage struct {
	mu       sync.Mutex
	rec      Record
	SaveErr  error
	ClearErr error
}

// NewMemoryStorage returns a backend pre-seeded with rec.
func NewMemoryStorage(rec Record) *MemoryStorage {
	return &MemoryStorage{rec: rec.normalize()}
}

func (s *MemoryStorage) Load(_ context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, nil
}

func (s *MemoryStorage) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.rec = rec.normalize()
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.rec = Record{}
	return nil
}

// Peek returns the stored record.
func (s *MemoryStorage) Peek() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}
