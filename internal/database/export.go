package database

import (
	"database/sql"
	"time"

	"github.com/kithmonite/engine/internal/models"
)

// SnapshotExporter writes a final account snapshot into the account_balances
// table. It is an output sink like the CSV writer; ledger state itself is
// never read back from the database.
type SnapshotExporter struct {
	db    *sql.DB
	scale int32
}

func NewSnapshotExporter(db *sql.DB, scale int32) *SnapshotExporter {
	return &SnapshotExporter{db: db, scale: scale}
}

// Export upserts one row per account inside a single transaction, so a
// failed export leaves the table untouched.
func (e *SnapshotExporter) Export(accounts []models.Account) error {
	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, account := range accounts {
		_, err := tx.Exec(`
			INSERT INTO account_balances (client_id, available, held, total, locked, exported_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (client_id) DO UPDATE
			SET available = $2, held = $3, total = $4, locked = $5, exported_at = $6`,
			account.Client,
			account.Available.StringFixed(e.scale),
			account.Held.StringFixed(e.scale),
			account.Total().StringFixed(e.scale),
			account.Locked,
			time.Now())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
