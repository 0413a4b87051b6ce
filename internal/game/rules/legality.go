package rules

import (
	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// CardLookup resolves catalog cards by id.
type CardLookup interface {
	Card(id string) (*state.Card, bool)
}

// LegalityChecker validates actions before any mutation. Target-side
// legality (untargetable, stealth) is left to the effect handlers so a play
// can be legal and still have no effect.
type LegalityChecker struct {
	cards CardLookup
}

// NewLegalityChecker creates a checker backed by cards.
func NewLegalityChecker(cards CardLookup) *LegalityChecker {
	return &LegalityChecker{cards: cards}
}

// CheckPlayCard returns the card to be played, or a coded error naming the
// first failed precondition. The state is not modified.
func (lc *LegalityChecker) CheckPlayCard(s *state.GameState, playerIndex int, instanceID string) (*state.Card, error) {
	if s.GameOver {
		return nil, apperrors.New(apperrors.CodeGameOver, "game is over")
	}
	if playerIndex != s.ActivePlayerIndex || playerIndex < 0 || playerIndex >= len(s.Players) {
		return nil, apperrors.Newf(apperrors.CodeNotYourTurn, "player %d is not active", playerIndex)
	}

	player := &s.Players[playerIndex]
	idx := player.HandIndex(instanceID)
	if idx < 0 {
		return nil, apperrors.Newf(apperrors.CodeCardNotInHand, "card instance %s not in hand", instanceID)
	}

	cardID := player.Hand[idx].CardID
	card, ok := lc.cards.Card(cardID)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeCardNotFound, "card %s not in catalog", cardID)
	}

	if HasSilence(player) {
		return nil, apperrors.New(apperrors.CodeSilenced, "player is silenced")
	}
	if IsControlled(player) && !card.AllowsWhileControlled() {
		return nil, apperrors.New(apperrors.CodeControlled, "player is controlled")
	}
	if player.GCD < card.GCDCost {
		return nil, apperrors.Newf(apperrors.CodeNotEnoughGCD, "gcd %d below cost %d", player.GCD, card.GCDCost)
	}
	return card, nil
}

// CheckPassTurn validates a pass by the given seat.
func (lc *LegalityChecker) CheckPassTurn(s *state.GameState, playerIndex int) error {
	if s.GameOver {
		return apperrors.New(apperrors.CodeGameOver, "game is over")
	}
	if playerIndex != s.ActivePlayerIndex {
		return apperrors.Newf(apperrors.CodeNotYourTurn, "player %d is not active", playerIndex)
	}
	return nil
}
