package state

// EventType is the wire-stable tag of a GameEvent.
type EventType string

const (
	EventPlayCard    EventType = "PLAY_CARD"
	EventEndTurn     EventType = "END_TURN"
	EventDamage      EventType = "DAMAGE"
	EventHeal        EventType = "HEAL"
	EventBuffApplied EventType = "BUFF_APPLIED"
	EventBuffExpired EventType = "BUFF_EXPIRED"
)

// GameEvent is an immutable audit record appended to GameState.Events.
type GameEvent struct {
	ID             string       `json:"id"`
	Timestamp      int64        `json:"timestamp"`
	Turn           int          `json:"turn"`
	Type           EventType    `json:"type"`
	ActorUserID    string       `json:"actorUserId"`
	TargetUserID   string       `json:"targetUserId,omitempty"`
	CardID         string       `json:"cardId,omitempty"`
	CardName       string       `json:"cardName,omitempty"`
	CardInstanceID string       `json:"cardInstanceId,omitempty"`
	EffectType     string       `json:"effectType,omitempty"`
	Value          int          `json:"value"`
	BuffID         int          `json:"buffId,omitempty"`
	BuffName       string       `json:"buffName,omitempty"`
	BuffCategory   BuffCategory `json:"buffCategory,omitempty"`
	AppliedAtTurn  int          `json:"appliedAtTurn,omitempty"`
}
