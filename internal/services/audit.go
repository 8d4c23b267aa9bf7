package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/kithmonite/engine/internal/models"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	RunID     string    `json:"run_id,omitempty"`
	Client    uint32    `json:"client"`
	TxID      uint32    `json:"tx"`
	Code      string    `json:"code,omitempty"`
	Details   any       `json:"details,omitempty"`
}

// AuditLogger is the side channel for rejected records: every rejection is
// logged as a structured JSON event, separate from the balance output.
type AuditLogger struct {
	runID string
}

func NewAuditLogger(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

func (a *AuditLogger) LogRejection(rec models.TransactionRecord, err error) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "REJECTED",
		RunID:     a.runID,
		Client:    rec.Client,
		TxID:      rec.TxID,
		Code:      ErrorCode(err),
		Details:   map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *AuditLogger) LogSummary(applied, rejected uint64, counts map[string]uint64) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "RUN_SUMMARY",
		RunID:     a.runID,
		Details: map[string]any{
			"applied":  applied,
			"rejected": rejected,
			"counts":   counts,
		},
	}
	a.log(event)
}

func (a *AuditLogger) log(event AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal audit event: %v", err)
		return
	}
	log.Println(string(data))
}
