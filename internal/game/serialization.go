package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// Checksum returns a SHA-256 over the gameplay-relevant fields of s. Events
// are left out since their ids and timestamps differ between otherwise equal
// states. Clients compare it after applying a patch set.
func Checksum(s *state.GameState) string {
	sum := sha256.Sum256([]byte(canonical(s)))
	return hex.EncodeToString(sum[:])
}

// canonical renders s as a stable text form. Order of players, hands, buffs,
// deck and discard is significant and kept as is.
func canonical(s *state.GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%d|%d|%d|%t|%s\n",
		s.Version,
		s.Turn,
		s.ActivePlayerIndex,
		s.GameOver,
		s.WinnerUserID,
	)

	for i, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%d|%d\n", i, p.UserID, p.HP, p.GCD)
		buf.WriteString("  HAND:")
		buf.WriteString(joinInstances(p.Hand))
		buf.WriteString("\n")
		for _, b := range p.Buffs {
			fmt.Fprintf(&buf, "  BUFF:%d|%d|%s|%d|%t\n", b.BuffID, b.Remaining, b.TickOn, b.StageIndex, b.BreakOnPlay)
			for _, e := range b.Effects {
				fmt.Fprintf(&buf, "    EFFECT:%s|%g|%g\n", e.Type, e.Value, e.Chance)
			}
		}
	}

	buf.WriteString("DECK:")
	buf.WriteString(joinInstances(s.Deck))
	buf.WriteString("\n")
	buf.WriteString("DISCARD:")
	buf.WriteString(joinInstances(s.Discard))
	buf.WriteString("\n")

	return buf.String()
}

func joinInstances(cards []state.CardInstance) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.InstanceID + "=" + c.CardID
	}
	return strings.Join(parts, ",")
}

// VerifyChecksum reports whether s hashes to expected.
func VerifyChecksum(s *state.GameState, expected string) bool {
	return Checksum(s) == expected
}

// EncodeState serializes a state with gob, the format used by replay files.
func EncodeState(s *state.GameState) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState is the inverse of EncodeState.
func DecodeState(data []byte) (*state.GameState, error) {
	var s state.GameState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &s, nil
}

// ValidateRoundtrip checks that s survives EncodeState/DecodeState with an
// unchanged checksum.
func ValidateRoundtrip(s *state.GameState) error {
	data, err := EncodeState(s)
	if err != nil {
		return err
	}
	decoded, err := DecodeState(data)
	if err != nil {
		return err
	}
	if got, want := Checksum(decoded), Checksum(s); got != want {
		return fmt.Errorf("checksum mismatch: original=%s, decoded=%s", want, got)
	}
	return nil
}
