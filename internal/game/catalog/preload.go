package catalog

import "github.com/jianghu-duel/duel-server-go/internal/game/state"

// CardView is the display projection of a card sent to clients.
type CardView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        state.CardType     `json:"type"`
	Target      state.Target       `json:"target"`
	GCDCost     int                `json:"gcdCost"`
	Effects     []state.CardEffect `json:"effects"`
}

// Preload is the payload clients fetch once to render cards and buffs by id.
type Preload struct {
	Cards   []CardView          `json:"cards"`
	CardMap map[string]CardView `json:"cardMap"`
	Buffs   []BuffInfo          `json:"buffs"`
	BuffMap map[int]BuffInfo    `json:"buffMap"`
}

// Preload builds the client payload.
func (c *Catalog) Preload() Preload {
	p := Preload{
		Cards:   make([]CardView, 0, len(c.cards)),
		CardMap: make(map[string]CardView, len(c.cards)),
		Buffs:   make([]BuffInfo, 0, len(c.buffOrder)),
		BuffMap: make(map[int]BuffInfo, len(c.buffOrder)),
	}
	for _, card := range c.cards {
		effects := card.Effects
		if effects == nil {
			effects = []state.CardEffect{}
		}
		v := CardView{
			ID:          card.ID,
			Name:        card.Name,
			Description: card.Description,
			Type:        card.Type,
			Target:      card.Target,
			GCDCost:     card.GCDCost,
			Effects:     effects,
		}
		p.Cards = append(p.Cards, v)
		p.CardMap[v.ID] = v
	}
	for _, id := range c.buffOrder {
		b := c.buffs[id]
		p.Buffs = append(p.Buffs, b)
		p.BuffMap[id] = b
	}
	return p
}
