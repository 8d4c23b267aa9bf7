package models

import (
	"github.com/shopspring/decimal"
)

// DisputeState tracks where a journal entry sits in its dispute lifecycle.
// Resolved and ChargedBack are terminal; a settled entry cannot be
// re-disputed.
type DisputeState string

const (
	DisputeClear       DisputeState = "clear"
	DisputeDisputed    DisputeState = "disputed"
	DisputeResolved    DisputeState = "resolved"
	DisputeChargedBack DisputeState = "charged_back"
)

// JournalEntry is the retained record of a disputable transaction. Entries
// are created when a deposit or withdrawal is applied and are never deleted;
// settled entries remain so repeat operations on the same transaction id can
// be rejected.
type JournalEntry struct {
	TxID   uint32          `json:"tx"`
	Client uint32          `json:"client"`
	Kind   TransactionKind `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	State  DisputeState    `json:"state"`
}
