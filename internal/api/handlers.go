/**
 * @description
 * This file contains the HTTP handlers for the service's API endpoints. Handlers
 * parse incoming requests, call the application service, and map domain errors to
 * transport responses. They are the only place that knows about HTTP status codes.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain: Service logic, models, and the error taxonomy.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fabriciomarote/capacitacion/internal/app"
	"github.com/fabriciomarote/capacitacion/internal/domain"
)

// Handlers holds the application service that handlers delegate to.
type Handlers struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps a domain error to an HTTP response. notFoundStatus lets
// transfer endpoints report a missing account as 400 while direct lookups use 404.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error, notFoundStatus int) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		h.writeError(w, notFoundStatus, err.Error())
	case errors.Is(err, domain.ErrTransactionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateNationalID):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPersistenceInconsistency):
		h.logger.Error("persistence inconsistency surfaced to API", "error", err)
		h.writeError(w, http.StatusInternalServerError, "persistence inconsistency")
	default:
		h.logger.Error("unexpected error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// CreateAccountHandler handles POST /api/accounts.
func (h *Handlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// ListAccountsHandler handles GET /api/accounts. An empty directory responds 204.
func (h *Handlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	if len(accounts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

// GetAccountHandler handles GET /api/accounts/{id}.
func (h *Handlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// GetAccountByNationalIDHandler handles GET /api/accounts/by-national-id/{nationalID}.
func (h *Handlers) GetAccountByNationalIDHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccountByNationalID(r.Context(), chi.URLParam(r, "nationalID"))
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// UpdateAccountHandler handles PUT /api/accounts/{id}.
func (h *Handlers) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req domain.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, req)
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// DeleteAccountHandler handles DELETE /api/accounts/{id}.
func (h *Handlers) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// DeleteAllAccountsHandler handles DELETE /api/accounts.
func (h *Handlers) DeleteAllAccountsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAllAccounts(r.Context()); err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "all accounts deleted"})
}

// TransferHandler handles POST /api/transactions. A missing party maps to 400
// here, not 404: the transfer endpoint treats every validation failure as a bad
// request.
func (h *Handlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transaction, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, transaction)
}

// GetTransactionHandler handles GET /api/transactions/{id}.
func (h *Handlers) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, transaction)
}

// ListTransactionsHandler handles GET /api/transactions.
func (h *Handlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListTransactions(r.Context())
	if err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	if len(transactions) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// DeleteAllTransactionsHandler handles DELETE /api/transactions.
func (h *Handlers) DeleteAllTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAllTransactions(r.Context()); err != nil {
		h.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "all transactions deleted"})
}
