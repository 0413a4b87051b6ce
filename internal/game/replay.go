package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"go.uber.org/zap"
)

// replayVersion is bumped whenever the file layout changes.
const replayVersion = 1

// Replay is a recorded match: one state per accepted action.
type Replay struct {
	MatchID      string
	States       []*state.GameState
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(matchID string) *Replay {
	return &Replay{
		MatchID: matchID,
		States:  make([]*state.GameState, 0),
	}
}

// RecordState appends a copy of s.
func (r *Replay) RecordState(s *state.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, s.Clone())
}

// Start rewinds playback.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state at the cursor and moves forward, or nil at the end.
func (r *Replay) Next() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		s := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return s
	}
	return nil
}

// Previous moves back one state and returns it, or nil at the start.
func (r *Replay) Previous() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// StateAt returns the state at index, or nil when out of range.
func (r *Replay) StateAt(index int) *state.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

type replayMetadata struct {
	MatchID    string
	Timestamp  time.Time
	Version    int
	StateCount int
}

func replayPath(directory, matchID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))
}

// SaveToFile writes the replay as gzip-compressed gob into directory.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(replayPath(directory, r.MatchID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	defer zw.Close()

	encoder := gob.NewEncoder(zw)
	metadata := replayMetadata{
		MatchID:    r.MatchID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		StateCount: len(r.States),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, s := range r.States {
		if err := encoder.Encode(s); err != nil {
			return fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	decoder := gob.NewDecoder(zr)
	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.MatchID)
	for i := 0; i < metadata.StateCount; i++ {
		var s state.GameState
		if err := decoder.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		replay.States = append(replay.States, &s)
	}
	return replay, nil
}

// ReplayRecorder keeps in-progress replays per match and flushes them to
// disk when a match ends. A recorder with an empty directory records
// nothing.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder writing into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// Enabled reports whether the recorder writes anything.
func (rr *ReplayRecorder) Enabled() bool {
	return rr != nil && rr.saveDir != ""
}

// StartRecording begins a replay for the match with its initial state.
func (rr *ReplayRecorder) StartRecording(matchID string, initial *state.GameState) {
	if !rr.Enabled() {
		return
	}
	replay := NewReplay(matchID)
	replay.RecordState(initial)

	rr.mu.Lock()
	rr.replays[matchID] = replay
	rr.mu.Unlock()

	rr.logger.Info("started replay recording", zap.String("match_id", matchID))
}

// RecordState appends s to the match's replay if one is being recorded.
func (rr *ReplayRecorder) RecordState(matchID string, s *state.GameState) {
	if !rr.Enabled() {
		return
	}
	rr.mu.RLock()
	replay := rr.replays[matchID]
	rr.mu.RUnlock()
	if replay == nil {
		return
	}

	replay.RecordState(s)
	rr.logger.Debug("recorded replay state",
		zap.String("match_id", matchID),
		zap.Int("state_count", replay.Size()),
	)
}

// Replay returns the in-memory replay for a match.
func (rr *ReplayRecorder) Replay(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, ok := rr.replays[matchID]
	return replay, ok
}

// SaveReplay writes the match's replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(matchID string) error {
	if !rr.Enabled() {
		return nil
	}
	rr.mu.Lock()
	replay, ok := rr.replays[matchID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for match %s", matchID)
	}
	delete(rr.replays, matchID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("match_id", matchID),
		zap.Int("state_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads a saved replay from the recorder's directory.
func (rr *ReplayRecorder) LoadReplay(matchID string) (*Replay, error) {
	return LoadReplayFromFile(rr.saveDir, matchID)
}
