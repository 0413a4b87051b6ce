package state

// Game-wide constants shared by every match.
const (
	MaxHP        = 100
	PlayerCount  = 2
	MaxHandSize  = 10
	StartingHand = 6
	GCDBaseline  = 3
)

// CardInstance is one physical copy of a catalog card.
type CardInstance struct {
	InstanceID string `json:"instanceId"`
	CardID     string `json:"cardId"`
}

// ActiveBuff is a runtime buff owned by exactly one player. Effects are a deep
// copy of the definition's effects so per-instance counters never touch the
// catalog.
type ActiveBuff struct {
	BuffID         int          `json:"buffId"`
	Name           string       `json:"name"`
	Category       BuffCategory `json:"category"`
	Effects        []BuffEffect `json:"effects"`
	Remaining      int          `json:"remaining"`
	TickOn         Phase        `json:"tickOn"`
	StageIndex     int          `json:"stageIndex"`
	BreakOnPlay    bool         `json:"breakOnPlay,omitempty"`
	SourceCardID   string       `json:"sourceCardId"`
	SourceCardName string       `json:"sourceCardName"`
	AppliedAtTurn  int          `json:"appliedAtTurn"`
}

// Clone returns a deep copy of the buff.
func (b ActiveBuff) Clone() ActiveBuff {
	b.Effects = append([]BuffEffect(nil), b.Effects...)
	return b
}

// PlayerState is one seat of a match.
type PlayerState struct {
	UserID string         `json:"userId"`
	HP     int            `json:"hp"`
	Hand   []CardInstance `json:"hand"`
	Buffs  []ActiveBuff   `json:"buffs"`
	GCD    int            `json:"gcd"`
}

// HandIndex returns the position of instanceID in the hand, or -1.
func (p *PlayerState) HandIndex(instanceID string) int {
	for i, c := range p.Hand {
		if c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// Buff returns the active buff with the given id, or nil.
func (p *PlayerState) Buff(buffID int) *ActiveBuff {
	for i := range p.Buffs {
		if p.Buffs[i].BuffID == buffID {
			return &p.Buffs[i]
		}
	}
	return nil
}

// GameState is the full state of one match.
type GameState struct {
	Version           int            `json:"version"`
	Turn              int            `json:"turn"`
	ActivePlayerIndex int            `json:"activePlayerIndex"`
	Players           []PlayerState  `json:"players"`
	Deck              []CardInstance `json:"deck"`
	Discard           []CardInstance `json:"discard"`
	GameOver          bool           `json:"gameOver"`
	WinnerUserID      string         `json:"winnerUserId,omitempty"`
	Events            []GameEvent    `json:"events"`
}

// Clone returns a deep copy of the state. Events are copied by value since
// they are never mutated after being appended.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]PlayerState, len(s.Players))
	for i, p := range s.Players {
		cp := p
		cp.Hand = append([]CardInstance(nil), p.Hand...)
		if p.Buffs != nil {
			cp.Buffs = make([]ActiveBuff, len(p.Buffs))
			for j, b := range p.Buffs {
				cp.Buffs[j] = b.Clone()
			}
		}
		out.Players[i] = cp
	}
	out.Deck = append([]CardInstance(nil), s.Deck...)
	out.Discard = append([]CardInstance(nil), s.Discard...)
	out.Events = append([]GameEvent(nil), s.Events...)
	return &out
}

// PlayerIndex returns the seat of userID, or -1.
func (s *GameState) PlayerIndex(userID string) int {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// ActivePlayer returns the player whose turn it is.
func (s *GameState) ActivePlayer() *PlayerState {
	return &s.Players[s.ActivePlayerIndex]
}
