package models

import (
	"github.com/shopspring/decimal"
)

// Account holds the balance state for a single client. Total is derived from
// available + held and is not stored separately.
type Account struct {
	Client    uint32          `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Locked    bool            `json:"locked"`
}

// NewAccount returns a zero-balance, unlocked account for the given client.
func NewAccount(client uint32) *Account {
	return &Account{
		Client:    client,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total is the client's full balance.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}
