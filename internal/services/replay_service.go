package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kithmonite/engine/internal/models"
)

// RecordSource yields transaction records in input order. Next returns
// io.EOF when the stream is exhausted; any other error is a per-row decode
// failure and never aborts the replay.
type RecordSource interface {
	Next() (models.TransactionRecord, error)
}

// RejectionSink receives rejected records on a side channel, e.g. a Redis
// queue. It is optional; a nil sink disables it.
type RejectionSink interface {
	Push(ctx context.Context, rec models.TransactionRecord, reason string) error
}

// ReplaySummary reports what a replay did. Rejections are tallied per
// classified error code; rejected records never reach the balances.
type ReplaySummary struct {
	Applied  uint64            `json:"applied"`
	Rejected uint64            `json:"rejected"`
	Counts   map[string]uint64 `json:"counts"`
}

// ReplayService drives an ordered record stream through the ledger. The
// ledger stays pure and lock-free; validation, rejection accounting, the
// side channels and the serialization concurrent drivers need all live here.
// Drivers with in-flight concurrency (the HTTP server) must go through
// ApplyRecord, Snapshot and Account, which serialize every ledger mutation
// and read.
type ReplayService struct {
	mu        sync.Mutex
	ledger    *LedgerService
	validator *ValidationHelper
	audit     *AuditLogger
	sink      RejectionSink
}

func NewReplayService(ledger *LedgerService, audit *AuditLogger, sink RejectionSink) *ReplayService {
	return &ReplayService{
		ledger:    ledger,
		validator: NewValidationHelper(),
		audit:     audit,
		sink:      sink,
	}
}

// Ledger returns the ledger this service feeds. It is meant for
// single-threaded drivers; concurrent callers use Snapshot and Account
// instead.
func (s *ReplayService) Ledger() *LedgerService {
	return s.ledger
}

// Snapshot returns the current account snapshot, serialized against
// in-flight applications.
func (s *ReplayService) Snapshot() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Account returns one client's account state, serialized against in-flight
// applications.
func (s *ReplayService) Account(client uint32) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Account(client)
}

// Replay consumes the source to exhaustion, applying each record in order.
// Every failure is local to its record; the only fatal condition is a
// cancelled context.
func (s *ReplayService) Replay(ctx context.Context, source RecordSource) (ReplaySummary, error) {
	summary := ReplaySummary{Counts: make(map[string]uint64)}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rec, err := source.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			s.reject(ctx, &summary, rec, err)
			continue
		}

		if err := s.ApplyRecord(ctx, rec); err != nil {
			s.reject(ctx, &summary, rec, err)
			continue
		}
		summary.Applied++
	}
}

// ApplyRecord validates and applies a single record. Applications are
// serialized, so no two mutations to the same account can interleave even
// when records arrive concurrently.
func (s *ReplayService) ApplyRecord(ctx context.Context, rec models.TransactionRecord) error {
	if err := s.validator.ValidateRecord(&rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Apply(rec)
}

func (s *ReplayService) reject(ctx context.Context, summary *ReplaySummary, rec models.TransactionRecord, cause error) {
	summary.Rejected++
	summary.Counts[ErrorCode(cause)]++

	if s.audit != nil {
		s.audit.LogRejection(rec, cause)
	}
	if s.sink != nil {
		if err := s.sink.Push(ctx, rec, cause.Error()); err != nil && s.audit != nil {
			s.audit.LogRejection(rec, fmt.Errorf("rejection sink push failed: %w", err))
		}
	}
}
