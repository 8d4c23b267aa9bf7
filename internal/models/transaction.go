package models

import (
	"github.com/shopspring/decimal"
)

// TransactionKind is the closed set of transaction types the engine accepts.
type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindDispute    TransactionKind = "dispute"
	KindResolve    TransactionKind = "resolve"
	KindChargeback TransactionKind = "chargeback"
)

// Disputable reports whether a transaction of this kind is recorded in the
// journal and can later be referenced by a dispute.
func (k TransactionKind) Disputable() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// CarriesAmount reports whether records of this kind must include an amount
// field. Dispute-family records reference an existing transaction and carry
// no amount of their own.
func (k TransactionKind) CarriesAmount() bool {
	return k.Disputable()
}

// TransactionRecord represents one ingested transaction row.
type TransactionRecord struct {
	Type   TransactionKind  `json:"type" validate:"required,oneof=deposit withdrawal dispute resolve chargeback"`
	Client uint32           `json:"client"`
	TxID   uint32           `json:"tx"`
	Amount *decimal.Decimal `json:"amount,omitempty" validate:"required_if=Type deposit,required_if=Type withdrawal"`
}
