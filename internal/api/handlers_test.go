package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/abkawan/cpf-ledger/internal/queue"
	"github.com/abkawan/cpf-ledger/internal/service"
	"github.com/abkawan/cpf-ledger/internal/store"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestRouter(opts ...service.Option) http.Handler {
	ledger := service.NewLedgerService(store.NewMemory(), queue.NopPublisher{}, zap.NewNop(), opts...)
	r := mux.NewRouter()
	SetupRoutes(r, ledger, zap.NewNop())
	return r
}

func do(t *testing.T, h http.Handler, method, path, cpf, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cpf != "" {
		req.Header.Set(CPFHeader, cpf)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, message string) {
	t.Helper()
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"`+message+`"}`, rec.Body.String())
}

func TestScenario_DepositWithdrawBalance(t *testing.T) {
	r := newTestRouter()

	rec := do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/deposit", "111", `{"description":"salary","amount":100}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/withdraw", "111", `{"amount":150}`)
	assertError(t, rec, "Insufficient funds!")

	rec = do(t, r, http.MethodPost, "/withdraw", "111", `{"amount":100}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodGet, "/balance", "111", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", strings.TrimSpace(rec.Body.String()))
}

func TestCreateAccount_Duplicate(t *testing.T) {
	r := newTestRouter()

	rec := do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Someone"}`)
	assertError(t, rec, "Customer already exists!")

	rec = do(t, r, http.MethodGet, "/account", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Alice"`)
}

func TestCreateAccount_MalformedBody(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodPost, "/account", "", `{"cpf":`)
	assertError(t, rec, "Invalid request payload!")
}

func TestIdentityLookup_RejectsUnknownCPF(t *testing.T) {
	r := newTestRouter()

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/statement", ""},
		{http.MethodPost, "/deposit", `{"amount":1}`},
		{http.MethodPost, "/withdraw", `{"amount":1}`},
		{http.MethodGet, "/statement/date?date=2024-01-01", ""},
		{http.MethodPut, "/account", `{"name":"x"}`},
		{http.MethodGet, "/account", ""},
		{http.MethodDelete, "/account", ""},
		{http.MethodGet, "/balance", ""},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			assertError(t, do(t, r, rt.method, rt.path, "404", rt.body), "Customer not found!")
			assertError(t, do(t, r, rt.method, rt.path, "", rt.body), "Customer not found!")
		})
	}
}

func TestGetAccount_ReturnsFullCustomer(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	rec := do(t, r, http.MethodGet, "/account", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "id")
	assert.JSONEq(t, `"111"`, string(body["cpf"]))
	assert.JSONEq(t, `"Alice"`, string(body["name"]))
	assert.JSONEq(t, `[]`, string(body["statement"]))
}

func TestUpdateAccount_ChangesNameOnly(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	var before models.Customer
	require.NoError(t, json.Unmarshal(do(t, r, http.MethodGet, "/account", "111", "").Body.Bytes(), &before))

	rec := do(t, r, http.MethodPut, "/account", "111", `{"name":"Alicia","cpf":"999"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	var after models.Customer
	require.NoError(t, json.Unmarshal(do(t, r, http.MethodGet, "/account", "111", "").Body.Bytes(), &after))
	assert.Equal(t, "Alicia", after.Name)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "111", after.CPF)

	assertError(t, do(t, r, http.MethodGet, "/account", "999", ""), "Customer not found!")
}

func TestDeleteAccount(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"222","name":"Bob"}`).Code)

	rec := do(t, r, http.MethodDelete, "/account", "111", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	assertError(t, do(t, r, http.MethodGet, "/account", "111", ""), "Customer not found!")
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/account", "222", "").Code)

	// the cpf is free again
	assert.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)
}

func TestStatement_KeepsOrderAndShape(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	rec := do(t, r, http.MethodGet, "/statement", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/deposit", "111", `{"description":"salary","amount":100.5}`).Code)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/withdraw", "111", `{"amount":20.25}`).Code)

	rec = do(t, r, http.MethodGet, "/statement", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var statement []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statement))
	require.Len(t, statement, 2)

	assert.Equal(t, "credit", statement[0]["type"])
	assert.Equal(t, "salary", statement[0]["description"])
	assert.Equal(t, 100.5, statement[0]["amount"])
	assert.Contains(t, statement[0], "created_at")

	assert.Equal(t, "debit", statement[1]["type"])
	assert.NotContains(t, statement[1], "description")
	assert.Equal(t, 20.25, statement[1]["amount"])

	rec = do(t, r, http.MethodGet, "/balance", "111", "")
	assert.Equal(t, "80.25", strings.TrimSpace(rec.Body.String()))
}

func TestStatementByDate(t *testing.T) {
	c := &clock{}
	r := newTestRouter(service.WithClock(c.Now), service.WithLocation(time.UTC))
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	c.Set(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/deposit", "111", `{"description":"a","amount":1}`).Code)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/deposit", "111", `{"description":"b","amount":2}`).Code)
	c.Set(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/deposit", "111", `{"description":"c","amount":3}`).Code)

	rec := do(t, r, http.MethodGet, "/statement/date?date=2024-01-01", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var statement []models.Operation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statement))
	require.Len(t, statement, 2)
	assert.Equal(t, "a", statement[0].Description)
	assert.Equal(t, "b", statement[1].Description)

	rec = do(t, r, http.MethodGet, "/statement/date?date=2024-03-01", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatementByDate_InvalidDate(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	assertError(t, do(t, r, http.MethodGet, "/statement/date?date=not-a-date", "111", ""), "Invalid date!")
	assertError(t, do(t, r, http.MethodGet, "/statement/date", "111", ""), "Invalid date!")
}

func TestDeposit_NegativeAmountRejected(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	assertError(t, do(t, r, http.MethodPost, "/deposit", "111", `{"amount":-10}`), "Invalid amount!")
	assertError(t, do(t, r, http.MethodPost, "/withdraw", "111", `{"amount":"abc"}`), "Invalid request payload!")

	rec := do(t, r, http.MethodGet, "/statement", "111", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDeposit_OutOfRangeAmountRejected(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/account", "", `{"cpf":"111","name":"Alice"}`).Code)

	assertError(t, do(t, r, http.MethodPost, "/deposit", "111", `{"amount":1e100000000}`), "Invalid amount!")
	assertError(t, do(t, r, http.MethodPost, "/deposit", "111", `{"amount":1e-100000000}`), "Invalid amount!")
	assertError(t, do(t, r, http.MethodPost, "/withdraw", "111", `{"amount":1e100000000}`), "Invalid amount!")

	rec := do(t, r, http.MethodGet, "/balance", "111", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", strings.TrimSpace(rec.Body.String()))
	assert.JSONEq(t, `[]`, do(t, r, http.MethodGet, "/statement", "111", "").Body.String())
}

func TestHealthCheck(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequireCustomer_SkipsHandlerForUnknownCPF(t *testing.T) {
	ledger := service.NewLedgerService(store.NewMemory(), queue.NopPublisher{}, zap.NewNop())
	h := NewHandler(ledger, zap.NewNop())

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set(CPFHeader, "404")
	rec := httptest.NewRecorder()

	h.RequireCustomer(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireCustomer_InjectsCustomer(t *testing.T) {
	ledger := service.NewLedgerService(store.NewMemory(), queue.NopPublisher{}, zap.NewNop())
	_, err := ledger.CreateAccount(context.Background(), "111", "Alice")
	require.NoError(t, err)
	h := NewHandler(ledger, zap.NewNop())

	var got *models.Customer
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = customerFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set(CPFHeader, "111")
	h.RequireCustomer(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Name)
}
