// Package errors provides coded domain errors and their gRPC mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a stable, machine-readable error code. Values are wire-stable.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "ERR_UNKNOWN"

	// Action validation
	CodeGameOver      Code = "ERR_GAME_OVER"
	CodeNotYourTurn   Code = "ERR_NOT_YOUR_TURN"
	CodeCardNotInHand Code = "ERR_CARD_NOT_IN_HAND"
	CodeCardNotFound  Code = "ERR_CARD_NOT_FOUND"
	CodeSilenced      Code = "ERR_SILENCED"
	CodeControlled    Code = "ERR_CONTROLLED"
	CodeNotEnoughGCD  Code = "ERR_NOT_ENOUGH_GCD"

	// Match lifecycle
	CodeMatchNotFound    Code = "ERR_MATCH_NOT_FOUND"
	CodeMatchFull        Code = "ERR_MATCH_FULL"
	CodeNotHost          Code = "ERR_NOT_HOST"
	CodeNotEnoughPlayers Code = "ERR_NOT_ENOUGH_PLAYERS"
	CodeAlreadyStarted   Code = "ERR_ALREADY_STARTED"
	CodeNotStarted       Code = "ERR_NOT_STARTED"
	CodeNotInMatch       Code = "ERR_NOT_IN_MATCH"
	CodeVersionConflict  Code = "ERR_VERSION_CONFLICT"
	CodeInvalidArgument  Code = "ERR_INVALID_ARGUMENT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// FailedPrecondition - the match state does not allow the action
	case CodeGameOver,
		CodeCardNotInHand,
		CodeSilenced,
		CodeControlled,
		CodeNotEnoughGCD,
		CodeNotEnoughPlayers,
		CodeAlreadyStarted,
		CodeNotStarted,
		CodeMatchFull:
		return codes.FailedPrecondition

	// PermissionDenied - acting out of turn or without the right seat
	case CodeNotYourTurn,
		CodeNotHost,
		CodeNotInMatch:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeCardNotFound,
		CodeMatchNotFound:
		return codes.NotFound

	case CodeVersionConflict:
		return codes.Aborted

	case CodeInvalidArgument:
		return codes.InvalidArgument

	default:
		return codes.Internal
	}
}
