package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kithmonite/engine/internal/config"
	"github.com/kithmonite/engine/internal/csvio"
	"github.com/kithmonite/engine/internal/database"
	"github.com/kithmonite/engine/internal/services"
)

func main() {
	log.SetFlags(0)
	timer := time.Now()

	config.BindEnv()
	cfg := config.LoadEngineConfig()

	if len(os.Args) < 2 {
		log.Fatal("usage: engine <transactions.csv>")
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("Unable to read the transactions file: %v", err)
	}
	defer file.Close()

	var sink services.RejectionSink
	if cfg.RejectionQueueEnabled {
		if rdb := database.InitRedis(); rdb != nil {
			defer rdb.Close()
			sink = database.NewRejectionQueue(rdb)
		}
	}

	audit := services.NewAuditLogger(uuid.NewString())
	ledger := services.NewLedgerService(cfg.Scale)
	replay := services.NewReplayService(ledger, audit, sink)

	summary, err := replay.Replay(context.Background(), csvio.NewReader(file))
	if err != nil {
		log.Fatalf("Replay aborted: %v", err)
	}

	// Extraction and application happen in one streaming pass, so a single
	// timing line covers both.
	log.Printf("time elapsed during extraction and replay: %v", time.Since(timer))

	snapshot := ledger.Snapshot()
	if err := csvio.WriteSnapshot(os.Stdout, snapshot, cfg.Scale); err != nil {
		log.Fatalf("Unable to write snapshot: %v", err)
	}

	if cfg.ExportEnabled {
		db, err := database.InitDB()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		if err := database.NewSnapshotExporter(db, cfg.Scale).Export(snapshot); err != nil {
			log.Fatalf("Snapshot export failed: %v", err)
		}
		log.Printf("Snapshot exported: %d accounts", len(snapshot))
	}

	audit.LogSummary(summary.Applied, summary.Rejected, summary.Counts)
	log.Printf("time elapsed: %v", time.Since(timer))
}
