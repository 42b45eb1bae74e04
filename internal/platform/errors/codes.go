// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeIdentifierRequired Code = "IDENTIFIER_REQUIRED"
	CodeUnknownTier        Code = "UNKNOWN_TIER"
	CodeUnknownMethod      Code = "UNKNOWN_METHOD"
	CodeUnknownTactic      Code = "UNKNOWN_TACTIC"

	// Dice/mechanics errors
	CodeDiceNegativeCount Code = "DICE_NEGATIVE_COUNT"
	CodeDiceInvalidSides  Code = "DICE_INVALID_SIDES"
	CodeDiceSourceMissing Code = "DICE_SOURCE_MISSING"

	// Modifier errors
	CodeModifierDuplicateSource Code = "MODIFIER_DUPLICATE_SOURCE"

	// Contest errors
	CodeContestInvalidConfig Code = "CONTEST_INVALID_CONFIG"
	CodeContestNotActive     Code = "CONTEST_NOT_ACTIVE"
	CodeContestTerminal      Code = "CONTEST_TERMINAL"
	CodeContestNotStalled    Code = "CONTEST_NOT_STALLED"

	// Negotiation errors
	CodeNegotiationConcessionRequired   Code = "NEGOTIATION_CONCESSION_REQUIRED"
	CodeNegotiationConcessionIncomplete Code = "NEGOTIATION_CONCESSION_INCOMPLETE"
	CodeNegotiationInvalidFlexibility   Code = "NEGOTIATION_INVALID_FLEXIBILITY"
	CodeNegotiationNotTerminal          Code = "NEGOTIATION_NOT_TERMINAL"
	CodeNegotiationClosed               Code = "NEGOTIATION_CLOSED"

	// Interrogation errors
	CodeInterrogationNotInProgress Code = "INTERROGATION_NOT_IN_PROGRESS"

	// Influence errors
	CodeInfluenceLifeEventRequired Code = "INFLUENCE_LIFE_EVENT_REQUIRED"

	// Protocol errors
	CodeProtocolInteractionBlocked Code = "PROTOCOL_INTERACTION_BLOCKED"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeIdentifierRequired,
		CodeUnknownTier,
		CodeUnknownMethod,
		CodeUnknownTactic,
		CodeDiceNegativeCount,
		CodeDiceInvalidSides,
		CodeDiceSourceMissing,
		CodeModifierDuplicateSource,
		CodeContestInvalidConfig,
		CodeNegotiationConcessionRequired,
		CodeNegotiationConcessionIncomplete,
		CodeNegotiationInvalidFlexibility,
		CodeInfluenceLifeEventRequired:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeContestNotActive,
		CodeContestTerminal,
		CodeContestNotStalled,
		CodeNegotiationNotTerminal,
		CodeNegotiationClosed,
		CodeInterrogationNotInProgress,
		CodeProtocolInteractionBlocked:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
