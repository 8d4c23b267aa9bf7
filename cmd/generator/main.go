// Random test transaction history generator. Data correctness is not
// guaranteed: this is a chaos generator used to load-test the engine, so it
// happily emits negative amounts, dangling dispute references and duplicate
// ids alongside valid rows.
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kithmonite/engine/internal/models"
)

func main() {
	rows := flag.Uint64("rows", 1_000_000, "number of rows to generate")
	clients := flag.Uint64("clients", 65_535, "size of the client id space")
	flag.Parse()

	log.SetFlags(0)
	log.Printf("generator run %s: %d rows across %d clients", uuid.NewString(), *rows, *clients)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	writer := csv.NewWriter(out)
	defer writer.Flush()

	if err := writer.Write([]string{"type", "client", "tx", "amount"}); err != nil {
		log.Fatalf("Unable to write header: %v", err)
	}

	perClient, err := rowsPerClient(*rows, *clients)
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	rng := rand.New(rand.NewSource(rand.Int63()))
	history := make([]row, 0, perClient)

	for client := uint64(0); client < *clients; client++ {
		history = history[:0]
		for i := uint64(0); i < perClient; i++ {
			r := randomRow(rng, uint32(client), history)
			history = append(history, r)
			if err := writer.Write(r.fields()); err != nil {
				log.Fatalf("Unable to write record: %v", err)
			}
		}
	}
}

// rowsPerClient validates the flag values and splits the row budget across
// the client id space.
func rowsPerClient(rows, clients uint64) (uint64, error) {
	if clients == 0 {
		return 0, errors.New("clients must be greater than zero")
	}
	if rows < clients {
		return 0, fmt.Errorf("rows (%d) must cover the client space (%d)", rows, clients)
	}
	return rows / clients, nil
}

type row struct {
	kind   models.TransactionKind
	client uint32
	tx     uint32
	amount string
}

func (r row) fields() []string {
	return []string{
		string(r.kind),
		strconv.FormatUint(uint64(r.client), 10),
		strconv.FormatUint(uint64(r.tx), 10),
		r.amount,
	}
}

var kinds = []models.TransactionKind{
	models.KindDeposit,
	models.KindWithdrawal,
	models.KindDispute,
	models.KindResolve,
	models.KindChargeback,
}

// randomRow generates a transaction that can refer to past transactions of
// the same client for dispute resolution.
func randomRow(rng *rand.Rand, client uint32, history []row) row {
	kind := kinds[rng.Intn(len(kinds))]

	switch kind {
	case models.KindDeposit, models.KindWithdrawal:
		amount := decimal.New(rng.Int63n(2_000_000_000)-1_000_000_000, -5).RoundBank(4)
		return row{kind: kind, client: client, tx: rng.Uint32(), amount: amount.String()}
	case models.KindDispute:
		return row{kind: kind, client: client, tx: pickTx(rng, history, models.KindDeposit)}
	default:
		// Resolve and chargeback chase an existing dispute.
		return row{kind: kind, client: client, tx: pickTx(rng, history, models.KindDispute)}
	}
}

// pickTx chooses a random past transaction of the wanted kind, or id 0 when
// the client has none yet.
func pickTx(rng *rand.Rand, history []row, wanted models.TransactionKind) uint32 {
	candidates := make([]uint32, 0, len(history))
	for _, r := range history {
		if r.kind == wanted {
			candidates = append(candidates, r.tx)
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	return candidates[rng.Intn(len(candidates))]
}
