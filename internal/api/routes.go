package api

import (
	"net/http"

	"github.com/abkawan/cpf-ledger/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// sets up the API routes
func SetupRoutes(r *mux.Router, ledger *service.LedgerService, logger *zap.Logger) {
	h := NewHandler(ledger, logger)
	withCustomer := func(fn http.HandlerFunc) http.Handler {
		return h.RequireCustomer(fn)
	}

	r.Use(requestLogger(logger))

	// Health check (check if API is working)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Account routes
	r.HandleFunc("/account", h.CreateAccount).Methods("POST")
	r.Handle("/account", withCustomer(h.GetAccount)).Methods("GET")
	r.Handle("/account", withCustomer(h.UpdateAccount)).Methods("PUT")
	r.Handle("/account", withCustomer(h.DeleteAccount)).Methods("DELETE")

	// Statement routes
	r.Handle("/statement", withCustomer(h.GetStatement)).Methods("GET")
	r.Handle("/statement/date", withCustomer(h.GetStatementByDate)).Methods("GET")
	r.Handle("/deposit", withCustomer(h.Deposit)).Methods("POST")
	r.Handle("/withdraw", withCustomer(h.Withdraw)).Methods("POST")
	r.Handle("/balance", withCustomer(h.GetBalance)).Methods("GET")
}
