// Package catalog provides the immutable card and buff tables, the deck
// builder and the client preload payload.
package catalog

import (
	"fmt"
	"sync"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// Catalog is a read-only index of cards and the buffs they grant. Returned
// pointers refer to shared definitions and must not be modified.
type Catalog struct {
	cards     []state.Card
	cardIndex map[string]int
	buffs     map[int]BuffInfo
	buffOrder []int
}

// BuffInfo is a buff definition plus the card that grants it.
type BuffInfo struct {
	state.BuffDefinition
	SourceCardID   string `json:"sourceCardId"`
	SourceCardName string `json:"sourceCardName"`
}

// New indexes cards and validates them. Card ids and buff ids must be unique
// and every effect type must be known.
func New(cards []state.Card) (*Catalog, error) {
	c := &Catalog{
		cards:     make([]state.Card, 0, len(cards)),
		cardIndex: make(map[string]int, len(cards)),
		buffs:     make(map[int]BuffInfo),
	}
	for _, card := range cards {
		if card.ID == "" {
			return nil, fmt.Errorf("card with empty id")
		}
		if _, dup := c.cardIndex[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		if card.Target != state.TargetSelf && card.Target != state.TargetOpponent {
			return nil, fmt.Errorf("card %q: invalid target %q", card.ID, card.Target)
		}
		if card.GCDCost < 0 {
			return nil, fmt.Errorf("card %q: negative gcd cost", card.ID)
		}
		for _, e := range card.Effects {
			if !e.Type.Valid() {
				return nil, fmt.Errorf("card %q: unknown effect type %q", card.ID, e.Type)
			}
		}
		for _, b := range card.Buffs {
			if _, dup := c.buffs[b.BuffID]; dup {
				return nil, fmt.Errorf("card %q: duplicate buff id %d", card.ID, b.BuffID)
			}
			if b.Duration <= 0 {
				return nil, fmt.Errorf("buff %d: duration must be positive", b.BuffID)
			}
			if b.TickOn != state.PhaseTurnStart && b.TickOn != state.PhaseTurnEnd {
				return nil, fmt.Errorf("buff %d: invalid tick phase %q", b.BuffID, b.TickOn)
			}
			for _, e := range b.Effects {
				if !e.Type.Valid() {
					return nil, fmt.Errorf("buff %d: unknown effect type %q", b.BuffID, e.Type)
				}
			}
			c.buffs[b.BuffID] = BuffInfo{BuffDefinition: b, SourceCardID: card.ID, SourceCardName: card.Name}
			c.buffOrder = append(c.buffOrder, b.BuffID)
		}
		c.cardIndex[card.ID] = len(c.cards)
		c.cards = append(c.cards, card)
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := New(builtinCards())
		if err != nil {
			panic(fmt.Sprintf("builtin catalog: %v", err))
		}
		defaultCat = cat
	})
	return defaultCat
}

// Card looks up a card by id.
func (c *Catalog) Card(id string) (*state.Card, bool) {
	i, ok := c.cardIndex[id]
	if !ok {
		return nil, false
	}
	return &c.cards[i], true
}

// Buff looks up a buff definition by id.
func (c *Catalog) Buff(id int) (*BuffInfo, bool) {
	b, ok := c.buffs[id]
	if !ok {
		return nil, false
	}
	return &b, true
}

// Cards returns the cards in catalog order.
func (c *Catalog) Cards() []state.Card {
	return append([]state.Card(nil), c.cards...)
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}
