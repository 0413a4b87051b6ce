package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func stateAtTurn(turn int) *state.GameState {
	return &state.GameState{
		Version: turn,
		Turn:    turn,
		Players: []state.PlayerState{
			{UserID: "A", HP: 100 - turn, GCD: 3},
			{UserID: "B", HP: 100, GCD: 3},
		},
	}
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("match-123")
	assert.Equal(t, "match-123", replay.MatchID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
}

func TestReplayRecordStateCopies(t *testing.T) {
	replay := NewReplay("match-123")
	s := stateAtTurn(1)

	replay.RecordState(s)
	s.Players[0].HP = 1

	require.Equal(t, 1, replay.Size())
	assert.Equal(t, 99, replay.StateAt(0).Players[0].HP)
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("match-123")
	for i := 1; i <= 3; i++ {
		replay.RecordState(stateAtTurn(i))
	}

	replay.Start()
	assert.Nil(t, replay.Previous())
	assert.Equal(t, 1, replay.Next().Turn)
	assert.Equal(t, 2, replay.Next().Turn)
	assert.Equal(t, 3, replay.Next().Turn)
	assert.Nil(t, replay.Next())
	assert.Equal(t, 3, replay.Previous().Turn)

	assert.Nil(t, replay.StateAt(-1))
	assert.Nil(t, replay.StateAt(3))
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	replay := NewReplay("match-123")
	for i := 1; i <= 3; i++ {
		replay.RecordState(stateAtTurn(i))
	}

	require.NoError(t, replay.SaveToFile(dir))
	_, err := os.Stat(filepath.Join(dir, "match-123.replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(dir, "match-123")
	require.NoError(t, err)
	assert.Equal(t, "match-123", loaded.MatchID)
	require.Equal(t, 3, loaded.Size())
	for i := 0; i < 3; i++ {
		assert.Equal(t, Checksum(replay.StateAt(i)), Checksum(loaded.StateAt(i)))
	}
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestReplayRecorderLifecycle(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)
	require.True(t, rr.Enabled())

	rr.StartRecording("m1", stateAtTurn(1))
	rr.RecordState("m1", stateAtTurn(2))
	rr.RecordState("unknown", stateAtTurn(2))

	replay, ok := rr.Replay("m1")
	require.True(t, ok)
	assert.Equal(t, 2, replay.Size())

	require.NoError(t, rr.SaveReplay("m1"))
	_, ok = rr.Replay("m1")
	assert.False(t, ok)

	loaded, err := rr.LoadReplay("m1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())

	assert.Error(t, rr.SaveReplay("m1"))
}

func TestReplayRecorderDisabled(t *testing.T) {
	rr := NewReplayRecorder(nil, "")
	assert.False(t, rr.Enabled())

	rr.StartRecording("m1", stateAtTurn(1))
	_, ok := rr.Replay("m1")
	assert.False(t, ok)
	assert.NoError(t, rr.SaveReplay("m1"))
}
