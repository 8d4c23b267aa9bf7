package services

import (
	"errors"
)

// Classified ledger errors. Every rejection maps to exactly one of these;
// none of them aborts the stream.
var (
	ErrMalformedRecord        = errors.New("malformed record")
	ErrUnknownReference       = errors.New("unknown transaction reference")
	ErrClientMismatch         = errors.New("client does not own the referenced transaction")
	ErrInvalidStateTransition = errors.New("invalid dispute state transition")
	ErrDuplicateTransaction   = errors.New("duplicate transaction id")
	ErrInsufficientFunds      = errors.New("insufficient available funds")
	ErrAccountLocked          = errors.New("account is locked")
)

// ErrorCode returns a stable short code for a classified ledger error, used
// for rejection tallies and audit events.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRecord):
		return "MALFORMED_RECORD"
	case errors.Is(err, ErrUnknownReference):
		return "UNKNOWN_REFERENCE"
	case errors.Is(err, ErrClientMismatch):
		return "CLIENT_MISMATCH"
	case errors.Is(err, ErrInvalidStateTransition):
		return "INVALID_STATE_TRANSITION"
	case errors.Is(err, ErrDuplicateTransaction):
		return "DUPLICATE_TRANSACTION"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrAccountLocked):
		return "ACCOUNT_LOCKED"
	default:
		return "UNCLASSIFIED"
	}
}
