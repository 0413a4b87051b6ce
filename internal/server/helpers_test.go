package server

import (
	"context"
	"fmt"
	"testing"

	"github.com/jianghu-duel/duel-server-go/internal/game"
	"github.com/jianghu-duel/duel-server-go/internal/game/catalog"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/match"
	"github.com/jianghu-duel/duel-server-go/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type noDodgeRNG struct{}

func (noDodgeRNG) Float64() float64 { return 0.99 }
func (noDodgeRNG) Intn(int) int     { return 0 }

func newTestManager(t *testing.T) *match.Manager {
	t.Helper()
	return newTestManagerWithStore(t, repository.NewMemoryStore())
}

func newTestManagerWithStore(t *testing.T, store repository.MatchStore) *match.Manager {
	t.Helper()
	cat, err := catalog.New([]state.Card{{
		ID: "strike", Name: "Strike", Type: state.CardTypeAttack, Target: state.TargetOpponent, GCDCost: 1,
		Effects: []state.CardEffect{{Type: state.EffectDamage, Value: 10}},
	}})
	require.NoError(t, err)

	n := 0
	engine := game.NewEngine(zaptest.NewLogger(t), cat,
		game.WithConfig(game.Config{
			GCDBaseline:     3,
			DrawPerTurn:     1,
			StartingHand:    5,
			DeckComposition: []catalog.DeckEntry{{CardID: "strike", Count: 20}},
		}),
		game.WithRNG(noDodgeRNG{}),
		game.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return match.NewManager(zaptest.NewLogger(t), engine, store, nil)
}

// startMatch opens, fills and starts a match between alice and bob.
func startMatch(t *testing.T, mgr *match.Manager) *match.Result {
	t.Helper()
	ctx := context.Background()
	lobby, err := mgr.CreateLobby(ctx, "alice")
	require.NoError(t, err)
	_, err = mgr.JoinLobby(ctx, lobby.ID, "bob")
	require.NoError(t, err)
	result, err := mgr.StartMatch(ctx, lobby.ID, "alice")
	require.NoError(t, err)
	return result
}
