package api

import (
	"encoding/json"
	"net/http"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/abkawan/cpf-ledger/internal/service"
	"go.uber.org/zap"
)

const (
	msgInvalidPayload = "Invalid request payload!"
	msgInternalError  = "Internal server error!"
)

// Handler is for handling api requests
type Handler struct {
	ledger *service.LedgerService
	logger *zap.Logger
}

func NewHandler(ledger *service.LedgerService, logger *zap.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// for error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// sends a bodiless response
func respondEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// ledger errors are client errors and all map to 400
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if service.IsClientError(err) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, msgInternalError)
}

// account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	if _, err := h.ledger.CreateAccount(r.Context(), req.CPF, req.Name); err != nil {
		h.handleError(w, r, err)
		return
	}

	respondEmpty(w, http.StatusCreated)
}

// handles account retrieval
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, customerFromContext(r.Context()))
}

// renames the account
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	customer := customerFromContext(r.Context())
	if _, err := h.ledger.UpdateName(r.Context(), customer.CPF, req.Name); err != nil {
		h.handleError(w, r, err)
		return
	}

	respondEmpty(w, http.StatusCreated)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r.Context())
	if err := h.ledger.DeleteAccount(r.Context(), customer.CPF); err != nil {
		h.handleError(w, r, err)
		return
	}

	respondEmpty(w, http.StatusNoContent)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req models.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	customer := customerFromContext(r.Context())
	if _, err := h.ledger.Deposit(r.Context(), customer.CPF, req.Description, req.Amount); err != nil {
		h.handleError(w, r, err)
		return
	}

	respondEmpty(w, http.StatusCreated)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req models.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	customer := customerFromContext(r.Context())
	if _, err := h.ledger.Withdraw(r.Context(), customer.CPF, req.Amount); err != nil {
		h.handleError(w, r, err)
		return
	}

	respondEmpty(w, http.StatusCreated)
}

// GetStatement returns the whole statement in stored order
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, customerFromContext(r.Context()).Statement)
}

// GetStatementByDate handles GET /statement/date?date=YYYY-MM-DD
func (h *Handler) GetStatementByDate(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r.Context())

	statement, err := h.ledger.StatementByDate(customer.Statement, r.URL.Query().Get("date"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, statement)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r.Context())
	respondJSON(w, http.StatusOK, models.AmountJSON(service.CalculateBalance(customer.Statement)))
}

// handles health check
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
