package api

import (
	"context"
	"net/http"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"go.uber.org/zap"
)

// CPFHeader carries the caller's identity on every request but account creation.
const CPFHeader = "cpf"

type contextKey struct{}

var customerKey = contextKey{}

// RequireCustomer resolves the cpf header to a customer and stores it in the
// request context. Unknown CPFs are rejected before the handler runs.
func (h *Handler) RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customer, err := h.ledger.Customer(r.Context(), r.Header.Get(CPFHeader))
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), customerKey, customer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func customerFromContext(ctx context.Context) *models.Customer {
	customer, _ := ctx.Value(customerKey).(*models.Customer)
	return customer
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// logs one line per request
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
