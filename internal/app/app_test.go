package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/klokku/expenses/internal/test_utils"
	"github.com/klokku/expenses/internal/utils"
	"github.com/klokku/expenses/pkg/expense"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *httptest.Server {
	db := test_utils.SetupSqliteDB(t)
	deps := BuildDependencies(expense.NewSqliteRepository(db), db.PingContext, &utils.MockClock{FixedNow: time.Now()})
	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) *http.Response {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExpensesApi_CategoryScenario(t *testing.T) {
	// given
	server := setupServer(t)
	for _, body := range []string{
		`{"title": "Lunch", "amount": 10.00, "category": "Food", "date": "2025-03-01"}`,
		`{"title": "Dinner", "amount": 20.00, "category": "Food", "date": "2025-03-02"}`,
		`{"title": "Bus", "amount": 5.00, "category": "Transport", "date": "2025-03-03"}`,
	} {
		resp := do(t, http.MethodPost, server.URL+"/api/expenses", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// when
	totalResp := do(t, http.MethodGet, server.URL+"/api/expenses/category/Food/total", "")
	categoriesResp := do(t, http.MethodGet, server.URL+"/api/expenses/categories", "")

	// then
	require.Equal(t, http.StatusOK, totalResp.StatusCode)
	var total decimal.Decimal
	require.NoError(t, json.NewDecoder(totalResp.Body).Decode(&total))
	assert.True(t, decimal.RequireFromString("30.00").Equal(total), "got %s", total)

	require.Equal(t, http.StatusOK, categoriesResp.StatusCode)
	var categories []string
	require.NoError(t, json.NewDecoder(categoriesResp.Body).Decode(&categories))
	assert.ElementsMatch(t, []string{"Food", "Transport"}, categories)
}

func TestExpensesApi_Lifecycle(t *testing.T) {
	// given
	server := setupServer(t)
	createResp := do(t, http.MethodPost, server.URL+"/api/expenses",
		`{"title": "Netflix", "amount": "15.99", "category": "Entertainment", "date": "2025-02-27", "description": "Monthly subscription"}`)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var created expense.ExpenseDTO
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	url := server.URL + "/api/expenses/" + strconv.Itoa(created.Id)

	// when
	getResp := do(t, http.MethodGet, url, "")
	updateResp := do(t, http.MethodPut, url, `{"title": "Netflix HD", "amount": "17.99", "category": "Entertainment", "date": "2025-02-27"}`)
	deleteResp := do(t, http.MethodDelete, url, "")
	getAfterDelete := do(t, http.MethodGet, url, "")
	deleteAgain := do(t, http.MethodDelete, url, "")

	// then
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, http.StatusOK, updateResp.StatusCode)
	var updated expense.ExpenseDTO
	require.NoError(t, json.NewDecoder(updateResp.Body).Decode(&updated))
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "Netflix HD", updated.Title)
	assert.Equal(t, http.StatusNoContent, deleteResp.StatusCode)
	assert.Equal(t, http.StatusNotFound, getAfterDelete.StatusCode)
	assert.Equal(t, http.StatusNotFound, deleteAgain.StatusCode)
}

func TestExpensesApi_RoutesDoNotShadowEachOther(t *testing.T) {
	// given
	server := setupServer(t)

	// when
	categories := do(t, http.MethodGet, server.URL+"/api/expenses/categories", "")
	dateRange := do(t, http.MethodGet, server.URL+"/api/expenses/date-range?startDate=2025-01-01&endDate=2025-12-31", "")
	unknown := do(t, http.MethodGet, server.URL+"/api/expenses/not-a-number", "")

	// then
	assert.Equal(t, http.StatusOK, categories.StatusCode)
	assert.Equal(t, http.StatusOK, dateRange.StatusCode)
	assert.Equal(t, http.StatusNotFound, unknown.StatusCode)
}

func TestMiddleware_RequestId(t *testing.T) {
	// given
	server := setupServer(t)

	// when
	generated := do(t, http.MethodGet, server.URL+"/api/expenses", "")
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/expenses", nil)
	require.NoError(t, err)
	req.Header.Set(requestIdHeader, "client-supplied")
	echoed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer echoed.Body.Close()

	// then
	assert.NotEmpty(t, generated.Header.Get(requestIdHeader))
	assert.Equal(t, "client-supplied", echoed.Header.Get(requestIdHeader))
}

func TestHealth(t *testing.T) {
	t.Run("should report ok", func(t *testing.T) {
		server := setupServer(t)

		resp := do(t, http.MethodGet, server.URL+"/api/health", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("should report unavailable when storage is down", func(t *testing.T) {
		handler := &HealthHandler{ping: func(ctx context.Context) error { return errors.New("down") }}
		w := httptest.NewRecorder()

		handler.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"unavailable"}`, w.Body.String())
	})
}
