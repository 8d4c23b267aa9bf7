package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kithmonite/engine/internal/models"
	"github.com/kithmonite/engine/internal/services"
)

// TransactionsHandler exposes the ledger's apply/snapshot contract over
// HTTP. The ledger itself stays network-free; this handler is just another
// driver feeding it records in arrival order.
type TransactionsHandler struct {
	replay *services.ReplayService
}

func NewTransactionsHandler(replay *services.ReplayService) *TransactionsHandler {
	return &TransactionsHandler{replay: replay}
}

// ApplyTransaction applies a single transaction record
// @Summary Apply transaction
// @Description Apply one transaction record to the ledger
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TransactionRecord true "Transaction record"
// @Success 200 {object} map[string]string
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /transactions [post]
func (h *TransactionsHandler) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	var rec models.TransactionRecord

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&rec); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.replay.ApplyRecord(r.Context(), rec); err != nil {
		services.SendErrorResponse(w, "Transaction rejected", rejectionStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "applied"})
}

// ListAccounts returns the current account snapshot
// @Summary List accounts
// @Description Snapshot of all accounts, ordered by client id
// @Tags Accounts
// @Produce json
// @Success 200 {array} models.Account
// @Router /accounts [get]
func (h *TransactionsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.replay.Snapshot())
}

// GetAccount returns one client's account
// @Summary Get account
// @Description Current balance state for one client
// @Tags Accounts
// @Produce json
// @Param clientID path int true "Client ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{clientID} [get]
func (h *TransactionsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseUint(chi.URLParam(r, "clientID"), 10, 32)
	if err != nil {
		services.SendErrorResponse(w, "Invalid client id", http.StatusBadRequest, nil)
		return
	}

	account, ok := h.replay.Account(uint32(clientID))
	if !ok {
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// rejectionStatus maps classified ledger errors to HTTP status codes.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrMalformedRecord):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAccountLocked):
		return http.StatusForbidden
	case errors.Is(err, services.ErrDuplicateTransaction),
		errors.Is(err, services.ErrClientMismatch),
		errors.Is(err, services.ErrInvalidStateTransition):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
