// Package match runs lobbies and live matches on top of the engine and a
// match store.
package match

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/repository"
	"go.uber.org/zap"
)

// Update is what subscribers of a match receive after every committed
// change.
type Update struct {
	MatchID  string            `json:"matchId"`
	Version  int               `json:"version"`
	Checksum string            `json:"checksum"`
	Patches  []game.Patch      `json:"patches"`
	Events   []state.GameEvent `json:"events"`
}

// LobbyIdleTimeout is how long a lobby may sit untouched before the waiting
// list sweeps it away.
const LobbyIdleTimeout = 2 * time.Hour

// Notifier receives committed updates.
type Notifier interface {
	Publish(update Update)
}

// Result describes a committed action.
type Result struct {
	Match    *repository.Match
	State    *state.GameState
	Events   []state.GameEvent // events appended by the action
	Patches  []game.Patch
	Checksum string
}

func (r *Result) update() Update {
	return Update{
		MatchID:  r.Match.ID,
		Version:  r.State.Version,
		Checksum: r.Checksum,
		Patches:  r.Patches,
		Events:   r.Events,
	}
}

// Manager serializes actions per match and persists every committed state.
type Manager struct {
	logger   *zap.Logger
	engine   *game.Engine
	store    repository.MatchStore
	replays  *game.ReplayRecorder
	newID    func() string
	now      func() time.Time
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	notifier Notifier
}

// NewManager creates a manager. replays may be nil.
func NewManager(logger *zap.Logger, engine *game.Engine, store repository.MatchStore, replays *game.ReplayRecorder) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:  logger,
		engine:  engine,
		store:   store,
		replays: replays,
		newID:   uuid.NewString,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// SetNotifier installs the subscriber for committed updates.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Engine returns the engine the manager plays with.
func (m *Manager) Engine() *game.Engine {
	return m.engine
}

func (m *Manager) lock(matchID string) func() {
	m.mu.Lock()
	l, ok := m.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[matchID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *Manager) notify(r *Result) {
	m.mu.Lock()
	n := m.notifier
	m.mu.Unlock()
	if n != nil {
		n.Publish(r.update())
	}
}

// CreateLobby opens a lobby hosted by hostUserID.
func (m *Manager) CreateLobby(ctx context.Context, hostUserID string) (*repository.Match, error) {
	if hostUserID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "user id is required")
	}
	rec := &repository.Match{
		ID:         m.newID(),
		HostUserID: hostUserID,
		PlayerIDs:  []string{hostUserID},
		Status:     repository.StatusLobby,
	}
	if err := m.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	m.logger.Info("lobby created",
		zap.String("match_id", rec.ID),
		zap.String("host", hostUserID),
	)
	return rec, nil
}

// JoinLobby seats userID in the lobby. Joining a lobby twice is a no-op.
func (m *Manager) JoinLobby(ctx context.Context, matchID, userID string) (*repository.Match, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "user id is required")
	}
	unlock := m.lock(matchID)
	defer unlock()

	rec, err := m.store.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for _, id := range rec.PlayerIDs {
		if id == userID {
			return rec, nil
		}
	}
	if rec.Status != repository.StatusLobby {
		return nil, apperrors.Newf(apperrors.CodeAlreadyStarted, "match %s already started", matchID)
	}
	if len(rec.PlayerIDs) >= state.PlayerCount {
		return nil, apperrors.Newf(apperrors.CodeMatchFull, "match %s is full", matchID)
	}

	rec.PlayerIDs = append(rec.PlayerIDs, userID)
	if err := m.store.Save(ctx, rec, rec.Version); err != nil {
		return nil, err
	}

	m.logger.Info("player joined lobby",
		zap.String("match_id", matchID),
		zap.String("user_id", userID),
		zap.Int("players", len(rec.PlayerIDs)),
	)
	return rec, nil
}

// StartMatch deals the match. Only the host may start it, and only with a
// full lobby.
func (m *Manager) StartMatch(ctx context.Context, matchID, userID string) (*Result, error) {
	unlock := m.lock(matchID)
	defer unlock()

	rec, err := m.store.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec.Status != repository.StatusLobby {
		return nil, apperrors.Newf(apperrors.CodeAlreadyStarted, "match %s already started", matchID)
	}
	if rec.HostUserID != userID {
		return nil, apperrors.New(apperrors.CodeNotHost, "only the host can start the match")
	}
	if len(rec.PlayerIDs) != state.PlayerCount {
		return nil, apperrors.Newf(apperrors.CodeNotEnoughPlayers, "match %s has %d of %d players", matchID, len(rec.PlayerIDs), state.PlayerCount)
	}

	gs, err := m.engine.NewMatch(rec.PlayerIDs)
	if err != nil {
		return nil, err
	}
	result, err := m.commit(ctx, rec, gs)
	if err != nil {
		return nil, err
	}
	m.replays.StartRecording(matchID, gs)

	m.logger.Info("match started",
		zap.String("match_id", matchID),
		zap.Strings("players", rec.PlayerIDs),
	)
	m.notify(result)
	return result, nil
}

// PlayCard plays a card from userID's hand.
func (m *Manager) PlayCard(ctx context.Context, matchID, userID, instanceID string) (*Result, error) {
	if instanceID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "card instance id is required")
	}
	return m.apply(ctx, matchID, userID, func(s *state.GameState, seat int) (*state.GameState, error) {
		return m.engine.PlayCard(s, seat, instanceID)
	})
}

// PassTurn ends userID's turn.
func (m *Manager) PassTurn(ctx context.Context, matchID, userID string) (*Result, error) {
	return m.apply(ctx, matchID, userID, m.engine.PassTurnAs)
}

// Get returns the stored match.
func (m *Manager) Get(ctx context.Context, matchID string) (*repository.Match, error) {
	return m.store.Load(ctx, matchID)
}

// ListWaiting sweeps lobbies idle for longer than LobbyIdleTimeout and
// returns the lobbies still waiting for an opponent, newest first.
func (m *Manager) ListWaiting(ctx context.Context) ([]*repository.Match, error) {
	removed, err := m.store.DeleteIdleLobbies(ctx, m.now().Add(-LobbyIdleTimeout))
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		m.logger.Info("idle lobbies removed", zap.Int("count", removed))
	}
	return m.store.ListWaiting(ctx)
}

// DiffSince brings a client holding sinceVersion up to date. The update
// carries no patches when the client is current and a single full-state
// patch otherwise.
func (m *Manager) DiffSince(ctx context.Context, matchID string, sinceVersion int) (Update, error) {
	rec, err := m.store.Load(ctx, matchID)
	if err != nil {
		return Update{}, err
	}
	if rec.State == nil {
		return Update{}, apperrors.Newf(apperrors.CodeNotStarted, "match %s has not started", matchID)
	}

	update := Update{
		MatchID:  matchID,
		Version:  rec.State.Version,
		Checksum: game.Checksum(rec.State),
		Patches:  []game.Patch{},
	}
	if rec.State.Version <= sinceVersion {
		return update, nil
	}
	patches, err := game.Diff(nil, rec.State)
	if err != nil {
		return Update{}, err
	}
	update.Patches = patches
	return update, nil
}

type action func(s *state.GameState, seat int) (*state.GameState, error)

func (m *Manager) apply(ctx context.Context, matchID, userID string, act action) (*Result, error) {
	unlock := m.lock(matchID)
	defer unlock()

	rec, err := m.store.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec.State == nil {
		return nil, apperrors.Newf(apperrors.CodeNotStarted, "match %s has not started", matchID)
	}
	seat := rec.State.PlayerIndex(userID)
	if seat < 0 {
		return nil, apperrors.Newf(apperrors.CodeNotInMatch, "user %s is not playing match %s", userID, matchID)
	}

	next, err := act(rec.State, seat)
	if err != nil {
		return nil, err
	}
	result, err := m.commit(ctx, rec, next)
	if err != nil {
		return nil, err
	}

	m.replays.RecordState(matchID, next)
	if next.GameOver {
		m.finish(matchID, next)
	}
	m.notify(result)
	return result, nil
}

// commit diffs next against the stored state and saves it under the
// record's current version.
func (m *Manager) commit(ctx context.Context, rec *repository.Match, next *state.GameState) (*Result, error) {
	prev := rec.State
	patches, err := game.Diff(prev, next)
	if err != nil {
		return nil, err
	}

	rec.State = next
	rec.Status = repository.StatusActive
	if next.GameOver {
		rec.Status = repository.StatusFinished
	}
	if err := m.store.Save(ctx, rec, rec.Version); err != nil {
		return nil, err
	}

	return &Result{
		Match:    rec,
		State:    next,
		Events:   appendedEvents(prev, next),
		Patches:  patches,
		Checksum: game.Checksum(next),
	}, nil
}

func (m *Manager) finish(matchID string, s *state.GameState) {
	m.logger.Info("match finished",
		zap.String("match_id", matchID),
		zap.String("winner", s.WinnerUserID),
		zap.Int("turn", s.Turn),
	)
	if !m.replays.Enabled() {
		return
	}
	if err := m.replays.SaveReplay(matchID); err != nil {
		m.logger.Warn("failed to save replay",
			zap.String("match_id", matchID),
			zap.Error(err),
		)
	}
}

// appendedEvents returns the events of next that prev did not have.
func appendedEvents(prev, next *state.GameState) []state.GameEvent {
	seen := make(map[string]bool)
	if prev != nil {
		for _, ev := range prev.Events {
			seen[ev.ID] = true
		}
	}
	var out []state.GameEvent
	for _, ev := range next.Events {
		if !seen[ev.ID] {
			out = append(out, ev)
		}
	}
	return out
}
