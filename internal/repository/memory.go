package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
)

// MemoryStore keeps matches in process memory. Records are copied in and out
// so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]*Match
	now     func() time.Time
}

var _ MatchStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*Match),
		now:     time.Now,
	}
}

// Create stores a copy of m at version 1.
func (s *MemoryStore) Create(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.matches[m.ID]; exists {
		return apperrors.Newf(apperrors.CodeInvalidArgument, "match %s already exists", m.ID)
	}
	now := s.now()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	s.matches[m.ID] = m.Clone()
	return nil
}

// Load returns a copy of the stored match.
func (s *MemoryStore) Load(_ context.Context, id string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeMatchNotFound, "match %s not found", id)
	}
	return m.Clone(), nil
}

// Save replaces the stored match when expectedVersion is current.
func (s *MemoryStore) Save(_ context.Context, m *Match, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.matches[m.ID]
	if !ok {
		return apperrors.Newf(apperrors.CodeMatchNotFound, "match %s not found", m.ID)
	}
	if stored.Version != expectedVersion {
		return apperrors.Newf(apperrors.CodeVersionConflict, "match %s is at version %d, expected %d", m.ID, stored.Version, expectedVersion)
	}
	m.Version = expectedVersion + 1
	m.CreatedAt = stored.CreatedAt
	m.UpdatedAt = s.now()
	s.matches[m.ID] = m.Clone()
	return nil
}

// ListWaiting returns copies of the lobbies seating only their host, newest
// first.
func (s *MemoryStore) ListWaiting(_ context.Context) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Match
	for _, m := range s.matches {
		if m.Status == StatusLobby && len(m.PlayerIDs) == 1 {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteIdleLobbies removes lobbies last updated before cutoff.
func (s *MemoryStore) DeleteIdleLobbies(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, m := range s.matches {
		if m.Status == StatusLobby && m.UpdatedAt.Before(cutoff) {
			delete(s.matches, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored matches.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// Close is a no-op.
func (s *MemoryStore) Close() {}
