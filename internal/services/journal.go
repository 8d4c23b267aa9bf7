package services

import (
	"fmt"

	"github.com/kithmonite/engine/internal/models"
)

// Journal indexes every applied disputable transaction by its id. It is a
// lookup and mutation table driven by the ledger; the state transitions it
// records are decided by the caller.
type Journal struct {
	entries map[uint32]*models.JournalEntry
}

func NewJournal() *Journal {
	return &Journal{
		entries: make(map[uint32]*models.JournalEntry),
	}
}

// Record stores the entry for a freshly applied deposit or withdrawal. A
// transaction id can only ever be recorded once; reuse is rejected, not
// overwritten.
func (j *Journal) Record(entry *models.JournalEntry) error {
	if _, exists := j.entries[entry.TxID]; exists {
		return fmt.Errorf("%w: tx %d", ErrDuplicateTransaction, entry.TxID)
	}
	j.entries[entry.TxID] = entry
	return nil
}

// Lookup returns the entry for the given transaction id, if any.
func (j *Journal) Lookup(txID uint32) (*models.JournalEntry, bool) {
	entry, ok := j.entries[txID]
	return entry, ok
}

// Contains reports whether a transaction id has already been recorded.
func (j *Journal) Contains(txID uint32) bool {
	_, ok := j.entries[txID]
	return ok
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	return len(j.entries)
}
