package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kithmonite/engine/internal/models"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func deposit(client, tx uint32, amt string) models.TransactionRecord {
	return models.TransactionRecord{Type: models.KindDeposit, Client: client, TxID: tx, Amount: amount(amt)}
}

func withdrawal(client, tx uint32, amt string) models.TransactionRecord {
	return models.TransactionRecord{Type: models.KindWithdrawal, Client: client, TxID: tx, Amount: amount(amt)}
}

func dispute(client, tx uint32) models.TransactionRecord {
	return models.TransactionRecord{Type: models.KindDispute, Client: client, TxID: tx}
}

func resolve(client, tx uint32) models.TransactionRecord {
	return models.TransactionRecord{Type: models.KindResolve, Client: client, TxID: tx}
}

func chargeback(client, tx uint32) models.TransactionRecord {
	return models.TransactionRecord{Type: models.KindChargeback, Client: client, TxID: tx}
}

func assertBalances(t *testing.T, ledger *LedgerService, client uint32, available, held string, locked bool) {
	t.Helper()
	account, ok := ledger.Account(client)
	require.True(t, ok, "account %d should exist", client)
	assert.True(t, account.Available.Equal(decimal.RequireFromString(available)),
		"available: want %s, got %s", available, account.Available)
	assert.True(t, account.Held.Equal(decimal.RequireFromString(held)),
		"held: want %s, got %s", held, account.Held)
	assert.True(t, account.Total().Equal(account.Available.Add(account.Held)))
	assert.Equal(t, locked, account.Locked)
}

func TestLedgerService_DepositsAndWithdrawals(t *testing.T) {
	t.Run("deposit credits available", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("withdrawal debits available", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(withdrawal(1, 2, "3.0")))
		assertBalances(t, ledger, 1, "2.0", "0", false)
	})

	t.Run("withdrawal exceeding available is rejected", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(withdrawal(1, 2, "3.0")))

		err := ledger.Apply(withdrawal(1, 3, "10.0"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assertBalances(t, ledger, 1, "2.0", "0", false)
	})

	t.Run("withdrawal from unknown client materializes no account", func(t *testing.T) {
		ledger := NewLedgerService(4)

		err := ledger.Apply(withdrawal(7, 1, "1.0"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		_, ok := ledger.Account(7)
		assert.False(t, ok)
		assert.Empty(t, ledger.Snapshot())
	})

	t.Run("duplicate transaction id is rejected, not overwritten", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))

		err := ledger.Apply(deposit(1, 1, "100.0"))
		assert.ErrorIs(t, err, ErrDuplicateTransaction)
		assertBalances(t, ledger, 1, "5.0", "0", false)

		err = ledger.Apply(withdrawal(2, 1, "1.0"))
		assert.ErrorIs(t, err, ErrDuplicateTransaction)
		_, ok := ledger.Account(2)
		assert.False(t, ok)
	})

	t.Run("negative amount is malformed", func(t *testing.T) {
		ledger := NewLedgerService(4)

		err := ledger.Apply(deposit(1, 1, "-5.0"))
		assert.ErrorIs(t, err, ErrMalformedRecord)
		_, ok := ledger.Account(1)
		assert.False(t, ok)
	})

	t.Run("missing amount is malformed", func(t *testing.T) {
		ledger := NewLedgerService(4)

		err := ledger.Apply(models.TransactionRecord{Type: models.KindDeposit, Client: 1, TxID: 1})
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("amounts are rounded to the configured scale", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "1.23456")))
		assertBalances(t, ledger, 1, "1.2346", "0", false)
	})

	t.Run("midpoint amounts use banker's rounding", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "1.23445")))
		assert.NoError(t, ledger.Apply(deposit(2, 2, "1.23455")))
		assertBalances(t, ledger, 1, "1.2344", "0", false)
		assertBalances(t, ledger, 2, "1.2346", "0", false)
	})
}

func TestLedgerService_DisputeLifecycle(t *testing.T) {
	t.Run("dispute holds the deposited amount", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 1)))
		assertBalances(t, ledger, 1, "0", "5.0", false)
	})

	t.Run("resolve releases the hold", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 1)))
		assert.NoError(t, ledger.Apply(resolve(1, 1)))
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("chargeback removes held funds and locks the account", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 1)))
		assert.NoError(t, ledger.Apply(chargeback(1, 1)))
		assertBalances(t, ledger, 1, "0", "0", true)

		err := ledger.Apply(deposit(1, 2, "100.0"))
		assert.ErrorIs(t, err, ErrAccountLocked)
		assertBalances(t, ledger, 1, "0", "0", true)
	})

	t.Run("dispute on unknown tx is rejected without side effects", func(t *testing.T) {
		ledger := NewLedgerService(4)

		err := ledger.Apply(dispute(1, 99))
		assert.ErrorIs(t, err, ErrUnknownReference)

		_, ok := ledger.Account(1)
		assert.False(t, ok)
	})

	t.Run("dispute family under the wrong client is rejected", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))

		err := ledger.Apply(resolve(2, 1))
		assert.ErrorIs(t, err, ErrClientMismatch)
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("resolve without a dispute is an invalid transition", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))

		err := ledger.Apply(resolve(1, 1))
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("chargeback without a dispute is an invalid transition", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))

		err := ledger.Apply(chargeback(1, 1))
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("second dispute on the same tx is rejected", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 1)))

		err := ledger.Apply(dispute(1, 1))
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assertBalances(t, ledger, 1, "0", "5.0", false)
	})

	t.Run("resolved entries cannot be re-disputed", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 1)))
		assert.NoError(t, ledger.Apply(resolve(1, 1)))

		err := ledger.Apply(dispute(1, 1))
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("disputing a deposit may drive available negative", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(withdrawal(1, 2, "4.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 1)))

		// The held amount still reconciles: available + held == total.
		assertBalances(t, ledger, 1, "-4.0", "5.0", false)
	})
}

func TestLedgerService_WithdrawalDisputes(t *testing.T) {
	t.Run("dispute holds the withdrawn amount without touching available", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(withdrawal(1, 2, "3.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 2)))
		assertBalances(t, ledger, 1, "2.0", "3.0", false)
	})

	t.Run("resolve refunds the withdrawal", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(withdrawal(1, 2, "3.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 2)))
		assert.NoError(t, ledger.Apply(resolve(1, 2)))
		assertBalances(t, ledger, 1, "5.0", "0", false)
	})

	t.Run("chargeback denies the refund and locks", func(t *testing.T) {
		ledger := NewLedgerService(4)

		assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
		assert.NoError(t, ledger.Apply(withdrawal(1, 2, "3.0")))
		assert.NoError(t, ledger.Apply(dispute(1, 2)))
		assert.NoError(t, ledger.Apply(chargeback(1, 2)))
		assertBalances(t, ledger, 1, "2.0", "0", true)
	})
}

func TestLedgerService_LockedAccountRejectsEverything(t *testing.T) {
	ledger := NewLedgerService(4)

	assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
	assert.NoError(t, ledger.Apply(deposit(1, 2, "2.0")))
	assert.NoError(t, ledger.Apply(dispute(1, 1)))
	assert.NoError(t, ledger.Apply(chargeback(1, 1)))
	assertBalances(t, ledger, 1, "2.0", "0", true)

	rejected := []models.TransactionRecord{
		deposit(1, 3, "1.0"),
		withdrawal(1, 4, "1.0"),
		dispute(1, 2),
		resolve(1, 2),
		chargeback(1, 2),
	}
	for _, rec := range rejected {
		err := ledger.Apply(rec)
		assert.ErrorIs(t, err, ErrAccountLocked, "kind %s", rec.Type)
		assertBalances(t, ledger, 1, "2.0", "0", true)
	}
}

func TestLedgerService_RejectionsAreIdempotent(t *testing.T) {
	// Re-applying a rejected dispute-family record must never mutate state.
	ledger := NewLedgerService(4)

	assert.NoError(t, ledger.Apply(deposit(1, 1, "5.0")))
	assert.NoError(t, ledger.Apply(dispute(1, 1)))
	assert.NoError(t, ledger.Apply(resolve(1, 1)))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, ledger.Apply(dispute(1, 1)), ErrInvalidStateTransition)
		assert.ErrorIs(t, ledger.Apply(resolve(1, 1)), ErrInvalidStateTransition)
		assert.ErrorIs(t, ledger.Apply(chargeback(1, 1)), ErrInvalidStateTransition)
		assertBalances(t, ledger, 1, "5.0", "0", false)
	}
}

func TestLedgerService_Determinism(t *testing.T) {
	stream := []models.TransactionRecord{
		deposit(1, 1, "10.5"),
		deposit(2, 2, "3.3333"),
		withdrawal(1, 3, "4.25"),
		dispute(1, 1),
		resolve(1, 1),
		dispute(2, 2),
		chargeback(2, 2),
		deposit(2, 4, "1.0"),    // rejected, account locked
		withdrawal(3, 5, "1.0"), // rejected, insufficient funds
	}

	run := func() []models.Account {
		ledger := NewLedgerService(4)
		for _, rec := range stream {
			ledger.Apply(rec)
		}
		return ledger.Snapshot()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)

	// Snapshot ordering is ascending client id and the no-op client 3 never
	// materialized.
	require.Len(t, first, 2)
	assert.Equal(t, uint32(1), first[0].Client)
	assert.Equal(t, uint32(2), first[1].Client)
}

func TestLedgerService_MultipleClientsAreIndependent(t *testing.T) {
	ledger := NewLedgerService(4)

	assert.NoError(t, ledger.Apply(deposit(1, 1, "1.0")))
	assert.NoError(t, ledger.Apply(deposit(2, 2, "1.0")))
	assert.NoError(t, ledger.Apply(dispute(2, 2)))
	assert.NoError(t, ledger.Apply(chargeback(2, 2)))

	assertBalances(t, ledger, 1, "1.0", "0", false)
	assertBalances(t, ledger, 2, "0", "0", true)

	// Client 1 keeps transacting while client 2 is frozen.
	assert.NoError(t, ledger.Apply(withdrawal(1, 3, "0.5")))
	assertBalances(t, ledger, 1, "0.5", "0", false)
}
