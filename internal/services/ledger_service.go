package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kithmonite/engine/internal/models"
)

// LedgerService owns the account table and the transaction journal and
// applies transactions one at a time, in the order received. Each application
// mutates exactly one account and at most one journal entry, and is
// all-or-nothing: a rejected record leaves both maps exactly as they were.
type LedgerService struct {
	accounts map[uint32]*models.Account
	journal  *Journal
	scale    int32
}

// NewLedgerService creates an empty ledger. Amounts are rounded to the given
// number of fractional digits at the boundary; all internal arithmetic is
// exact decimal.
func NewLedgerService(scale int32) *LedgerService {
	return &LedgerService{
		accounts: make(map[uint32]*models.Account),
		journal:  NewJournal(),
		scale:    scale,
	}
}

// Apply runs a single transaction record through the state machine. The
// returned error, if any, is one of the classified ledger errors.
func (s *LedgerService) Apply(rec models.TransactionRecord) error {
	switch rec.Type {
	case models.KindDeposit:
		return s.deposit(rec)
	case models.KindWithdrawal:
		return s.withdraw(rec)
	case models.KindDispute:
		return s.dispute(rec)
	case models.KindResolve:
		return s.resolve(rec)
	case models.KindChargeback:
		return s.chargeback(rec)
	default:
		return fmt.Errorf("%w: unknown transaction type %q", ErrMalformedRecord, rec.Type)
	}
}

func (s *LedgerService) deposit(rec models.TransactionRecord) error {
	amount, err := s.recordAmount(rec)
	if err != nil {
		return err
	}
	if account, ok := s.accounts[rec.Client]; ok && account.Locked {
		return fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client)
	}
	if s.journal.Contains(rec.TxID) {
		return fmt.Errorf("%w: tx %d", ErrDuplicateTransaction, rec.TxID)
	}

	account := s.account(rec.Client)
	account.Available = account.Available.Add(amount)
	return s.journal.Record(&models.JournalEntry{
		TxID:   rec.TxID,
		Client: rec.Client,
		Kind:   models.KindDeposit,
		Amount: amount,
		State:  models.DisputeClear,
	})
}

func (s *LedgerService) withdraw(rec models.TransactionRecord) error {
	amount, err := s.recordAmount(rec)
	if err != nil {
		return err
	}
	if account, ok := s.accounts[rec.Client]; ok && account.Locked {
		return fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client)
	}
	if s.journal.Contains(rec.TxID) {
		return fmt.Errorf("%w: tx %d", ErrDuplicateTransaction, rec.TxID)
	}

	available := decimal.Zero
	if account, ok := s.accounts[rec.Client]; ok {
		available = account.Available
	}
	if available.LessThan(amount) {
		return fmt.Errorf("%w: client %d has %s, requested %s",
			ErrInsufficientFunds, rec.Client, available.String(), amount.String())
	}

	account := s.account(rec.Client)
	account.Available = account.Available.Sub(amount)
	return s.journal.Record(&models.JournalEntry{
		TxID:   rec.TxID,
		Client: rec.Client,
		Kind:   models.KindWithdrawal,
		Amount: amount,
		State:  models.DisputeClear,
	})
}

// dispute moves the referenced amount into held. For a disputed deposit the
// amount leaves available; for a disputed withdrawal the funds already left
// available at withdrawal time, so the contested amount re-enters the account
// as held only. Either way, held ends up carrying the amount in contention.
func (s *LedgerService) dispute(rec models.TransactionRecord) error {
	entry, account, err := s.referenced(rec)
	if err != nil {
		return err
	}
	if entry.State != models.DisputeClear {
		return fmt.Errorf("%w: dispute on tx %d in state %q", ErrInvalidStateTransition, rec.TxID, entry.State)
	}

	if entry.Kind == models.KindDeposit {
		account.Available = account.Available.Sub(entry.Amount)
	}
	account.Held = account.Held.Add(entry.Amount)
	entry.State = models.DisputeDisputed
	return nil
}

// resolve releases the hold: the exact amount moved on dispute returns to
// available. The amount is always read back from the journal entry, never
// recomputed, so the hold/release pair cannot drift apart.
func (s *LedgerService) resolve(rec models.TransactionRecord) error {
	entry, account, err := s.referenced(rec)
	if err != nil {
		return err
	}
	if entry.State != models.DisputeDisputed {
		return fmt.Errorf("%w: resolve on tx %d in state %q", ErrInvalidStateTransition, rec.TxID, entry.State)
	}

	account.Held = account.Held.Sub(entry.Amount)
	account.Available = account.Available.Add(entry.Amount)
	entry.State = models.DisputeResolved
	return nil
}

// chargeback removes the held funds permanently and freezes the account.
func (s *LedgerService) chargeback(rec models.TransactionRecord) error {
	entry, account, err := s.referenced(rec)
	if err != nil {
		return err
	}
	if entry.State != models.DisputeDisputed {
		return fmt.Errorf("%w: chargeback on tx %d in state %q", ErrInvalidStateTransition, rec.TxID, entry.State)
	}

	account.Held = account.Held.Sub(entry.Amount)
	account.Locked = true
	entry.State = models.DisputeChargedBack
	return nil
}

// referenced resolves a dispute-family record to its journal entry and
// account, running the shared precondition checks: the account must not be
// locked, the referenced transaction must exist and must belong to the
// issuing client.
func (s *LedgerService) referenced(rec models.TransactionRecord) (*models.JournalEntry, *models.Account, error) {
	if account, ok := s.accounts[rec.Client]; ok && account.Locked {
		return nil, nil, fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client)
	}
	entry, ok := s.journal.Lookup(rec.TxID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: tx %d", ErrUnknownReference, rec.TxID)
	}
	if entry.Client != rec.Client {
		return nil, nil, fmt.Errorf("%w: tx %d belongs to client %d, not %d",
			ErrClientMismatch, rec.TxID, entry.Client, rec.Client)
	}
	// The entry's account must exist: it was created when the entry was.
	return entry, s.accounts[entry.Client], nil
}

// recordAmount validates and normalizes the amount on a deposit or
// withdrawal record. Banker's rounding keeps midpoint inputs byte-identical
// with the reference output.
func (s *LedgerService) recordAmount(rec models.TransactionRecord) (decimal.Decimal, error) {
	if rec.Amount == nil {
		return decimal.Zero, fmt.Errorf("%w: %s without an amount", ErrMalformedRecord, rec.Type)
	}
	if rec.Amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount %s", ErrMalformedRecord, rec.Amount.String())
	}
	return rec.Amount.RoundBank(s.scale), nil
}

// account returns the client's account, creating it on first use. Callers
// must have finished every precondition check before calling this: account
// creation is a mutation and only successful transactions may materialize
// one.
func (s *LedgerService) account(client uint32) *models.Account {
	account, ok := s.accounts[client]
	if !ok {
		account = models.NewAccount(client)
		s.accounts[client] = account
	}
	return account
}

// Account returns a copy of the client's account state, if it exists.
func (s *LedgerService) Account(client uint32) (models.Account, bool) {
	account, ok := s.accounts[client]
	if !ok {
		return models.Account{}, false
	}
	return *account, true
}

// Snapshot returns a copy of every account, ordered by ascending client id
// for deterministic output.
func (s *LedgerService) Snapshot() []models.Account {
	snapshot := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		snapshot = append(snapshot, *account)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].Client < snapshot[j].Client
	})
	return snapshot
}

// JournalSize returns the number of disputable transactions on record.
func (s *LedgerService) JournalSize() int {
	return s.journal.Len()
}

// Scale returns the configured number of fractional digits.
func (s *LedgerService) Scale() int32 {
	return s.scale
}
