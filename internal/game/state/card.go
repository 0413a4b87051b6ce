package state

// Card is an immutable catalog entry.
type Card struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        CardType         `json:"type"`
	Target      Target           `json:"target"`
	GCDCost     int              `json:"gcdCost"`
	Effects     []CardEffect     `json:"effects"`
	Buffs       []BuffDefinition `json:"buffs,omitempty"`
}

// AllowsWhileControlled reports whether any effect lets the card be played
// under CONTROL or ATTACK_LOCK.
func (c *Card) AllowsWhileControlled() bool {
	for _, e := range c.Effects {
		if e.AllowWhileControlled {
			return true
		}
	}
	return false
}

// CardEffect is one immediate effect of a card.
type CardEffect struct {
	Type                 EffectType `json:"type"`
	Value                int        `json:"value,omitempty"`
	Chance               float64    `json:"chance,omitempty"`
	ApplyTo              Target     `json:"applyTo,omitempty"`
	Threshold            int        `json:"threshold,omitempty"`
	AllowWhileControlled bool       `json:"allowWhileControlled,omitempty"`
}

// BuffDefinition is the catalog template for a buff granted by a card.
type BuffDefinition struct {
	BuffID      int          `json:"buffId"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    BuffCategory `json:"category"`
	Duration    int          `json:"duration"`
	TickOn      Phase        `json:"tickOn"`
	BreakOnPlay bool         `json:"breakOnPlay,omitempty"`
	ApplyTo     Target       `json:"applyTo,omitempty"`
	Effects     []BuffEffect `json:"effects"`
}

// HasEffect reports whether the definition carries an effect of type t.
func (d *BuffDefinition) HasEffect(t BuffEffectType) bool {
	for _, e := range d.Effects {
		if e.Type == t {
			return true
		}
	}
	return false
}

// BuffEffect is one effect carried by a buff. Value holds magnitudes
// (damage, heal, draw reduction) and fractional modifiers alike.
type BuffEffect struct {
	Type   BuffEffectType `json:"type"`
	Value  float64        `json:"value,omitempty"`
	Chance float64        `json:"chance,omitempty"`

	// Scheduled damage stage fields.
	When         Phase       `json:"when,omitempty"`
	TurnOf       TurnOf      `json:"turnOf,omitempty"`
	StageTarget  StageTarget `json:"target,omitempty"`
	LifestealPct float64     `json:"lifestealPct,omitempty"`
}
