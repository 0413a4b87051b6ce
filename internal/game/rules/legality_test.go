package rules

import (
	"testing"

	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

type mapCatalog map[string]*state.Card

func (m mapCatalog) Card(id string) (*state.Card, bool) {
	c, ok := m[id]
	return c, ok
}

func testCatalog() mapCatalog {
	return mapCatalog{
		"strike": {ID: "strike", Target: state.TargetOpponent, GCDCost: 1,
			Effects: []state.CardEffect{{Type: state.EffectDamage, Value: 10}}},
		"escape": {ID: "escape", Target: state.TargetSelf, GCDCost: 1,
			Effects: []state.CardEffect{{Type: state.EffectCleanse, AllowWhileControlled: true}}},
	}
}

func baseState() *state.GameState {
	return &state.GameState{
		Players: []state.PlayerState{
			{UserID: "A", HP: 100, GCD: 3, Hand: []state.CardInstance{
				{InstanceID: "s1", CardID: "strike"},
				{InstanceID: "e1", CardID: "escape"},
				{InstanceID: "x1", CardID: "ghost"},
			}},
			{UserID: "B", HP: 100, GCD: 3},
		},
	}
}

func lock(t state.BuffEffectType) state.ActiveBuff {
	return state.ActiveBuff{BuffID: 50, Remaining: 1, Effects: []state.BuffEffect{{Type: t}}}
}

func TestCheckPlayCardErrorOrder(t *testing.T) {
	lc := NewLegalityChecker(testCatalog())

	tests := []struct {
		name     string
		mutate   func(s *state.GameState)
		player   int
		instance string
		want     apperrors.Code
	}{
		{"game over wins over everything", func(s *state.GameState) { s.GameOver = true }, 0, "missing", apperrors.CodeGameOver},
		{"not your turn", func(s *state.GameState) { s.ActivePlayerIndex = 1 }, 0, "s1", apperrors.CodeNotYourTurn},
		{"seat out of range", func(s *state.GameState) {}, 5, "s1", apperrors.CodeNotYourTurn},
		{"not in hand", func(s *state.GameState) {}, 0, "missing", apperrors.CodeCardNotInHand},
		{"catalog miss", func(s *state.GameState) {}, 0, "x1", apperrors.CodeCardNotFound},
		{"silenced", func(s *state.GameState) { s.Players[0].Buffs = []state.ActiveBuff{lock(state.BuffSilence)} }, 0, "e1", apperrors.CodeSilenced},
		{"controlled", func(s *state.GameState) { s.Players[0].Buffs = []state.ActiveBuff{lock(state.BuffControl)} }, 0, "s1", apperrors.CodeControlled},
		{"attack locked", func(s *state.GameState) { s.Players[0].Buffs = []state.ActiveBuff{lock(state.BuffAttackLock)} }, 0, "s1", apperrors.CodeControlled},
		{"out of gcd", func(s *state.GameState) { s.Players[0].GCD = 0 }, 0, "s1", apperrors.CodeNotEnoughGCD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseState()
			tt.mutate(s)
			_, err := lc.CheckPlayCard(s, tt.player, tt.instance)
			if got := apperrors.GetCode(err); got != tt.want {
				t.Fatalf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestCheckPlayCardOverrideWhileControlled(t *testing.T) {
	lc := NewLegalityChecker(testCatalog())
	s := baseState()
	s.Players[0].Buffs = []state.ActiveBuff{lock(state.BuffControl)}

	card, err := lc.CheckPlayCard(s, 0, "e1")
	if err != nil {
		t.Fatalf("expected override card to be playable, got %v", err)
	}
	if card.ID != "escape" {
		t.Fatalf("expected escape, got %s", card.ID)
	}
}

func TestCheckPlayCardDoesNotMutate(t *testing.T) {
	lc := NewLegalityChecker(testCatalog())
	s := baseState()

	if _, err := lc.CheckPlayCard(s, 0, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Players[0].Hand) != 3 || s.Players[0].GCD != 3 {
		t.Fatalf("validator must not mutate state")
	}
}

func TestCheckPassTurn(t *testing.T) {
	lc := NewLegalityChecker(testCatalog())
	s := baseState()

	if err := lc.CheckPassTurn(s, 0); err != nil {
		t.Fatalf("active player may pass: %v", err)
	}
	if code := apperrors.GetCode(lc.CheckPassTurn(s, 1)); code != apperrors.CodeNotYourTurn {
		t.Fatalf("expected not your turn, got %s", code)
	}
	s.GameOver = true
	if code := apperrors.GetCode(lc.CheckPassTurn(s, 0)); code != apperrors.CodeGameOver {
		t.Fatalf("expected game over, got %s", code)
	}
}
