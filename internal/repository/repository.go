// Package repository persists matches. Every save is a compare-and-swap on
// the record version so two writers can never interleave on one match.
package repository

import (
	"context"
	"time"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// Status is the lifecycle stage of a match.
type Status string

const (
	StatusLobby    Status = "LOBBY"
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)

// Match is one stored match. State is nil while the match is in the lobby.
type Match struct {
	ID         string
	HostUserID string
	PlayerIDs  []string
	Status     Status
	State      *state.GameState
	// Version is the record revision, bumped by every successful Save.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the record.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	out := *m
	out.PlayerIDs = append([]string(nil), m.PlayerIDs...)
	out.State = m.State.Clone()
	return &out
}

// MatchStore loads and saves matches.
type MatchStore interface {
	// Create inserts a new match at version 1.
	Create(ctx context.Context, m *Match) error
	// Load returns the match or an ERR_MATCH_NOT_FOUND error.
	Load(ctx context.Context, id string) (*Match, error)
	// Save replaces the match if its stored version equals expectedVersion
	// and bumps the version, or fails with ERR_VERSION_CONFLICT.
	Save(ctx context.Context, m *Match, expectedVersion int) error
	// ListWaiting returns lobbies that seat only their host, newest first.
	ListWaiting(ctx context.Context) ([]*Match, error)
	// DeleteIdleLobbies removes lobbies last updated before cutoff and
	// returns how many went.
	DeleteIdleLobbies(ctx context.Context, cutoff time.Time) (int, error)
	Close()
}
