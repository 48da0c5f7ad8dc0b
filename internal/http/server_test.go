package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cvetanski/dev-t/internal/auth"
	"github.com/Cvetanski/dev-t/internal/core"
	"github.com/Cvetanski/dev-t/internal/services"
	"github.com/Cvetanski/dev-t/internal/storage"
)

type apiResponse struct {
	Error      bool            `json:"error"`
	Message    string          `json:"message"`
	Token      string          `json:"token"`
	Total      *int64          `json:"total"`
	Expenses   []core.Expense  `json:"expenses"`
	Categories []core.Category `json:"categories"`
}

type testServer struct {
	server *Server
	repo   *storage.SQLiteRepository
	token  string
	userID int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	user, err := repo.CreateUser(ctx, "tester", hash)
	require.NoError(t, err)
	require.NoError(t, repo.SetBalance(ctx, user.ID, 1000))

	authSvc := auth.NewService(repo)
	token, err := authSvc.IssueToken(ctx, user.ID)
	require.NoError(t, err)

	server := NewServer(":0", authSvc, services.NewCommandService(repo, nil), services.NewQueryService(repo))
	t.Cleanup(func() { server.Shutdown(context.Background()) })

	return &testServer{server: server, repo: repo, token: token, userID: user.ID}
}

func (ts *testServer) do(t *testing.T, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	rec := httptest.NewRecorder()
	ts.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) seed(t *testing.T, amount int64, description string, createdAt time.Time, categoryID *int64) core.Expense {
	t.Helper()
	e, err := ts.repo.CreateExpense(context.Background(), core.Expense{
		UserID:      ts.userID,
		Amount:      amount,
		Description: description,
		CategoryID:  categoryID,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return e
}

func TestUnauthenticatedRequests(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/expenses/", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses/", nil)
	req.Header.Set("Authorization", "Bearer bogus-token")
	rec2 := httptest.NewRecorder()
	ts.server.Server.Handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/login", `{"username":"tester","password":"hunter2"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Error)
	assert.NotEmpty(t, resp.Token)

	// The returned token authenticates subsequent requests.
	req := httptest.NewRequest(http.MethodGet, "/api/expenses/", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec2 := httptest.NewRecorder()
	ts.server.Server.Handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/login", `{"username":"tester","password":"wrong"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "Invalid credentials", resp.Message)
}

func TestStoreExpense(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/expenses/store",
		`{"amount":250,"description":"groceries","category":"Food"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Error)
	assert.Equal(t, "You Successfully added your expense", resp.Message)

	list := decode(t, ts.do(t, http.MethodGet, "/api/expenses/", "", true))
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, int64(250), list.Expenses[0].Amount)
	assert.Equal(t, "Food", list.Expenses[0].CategoryName)
}

func TestStoreExpenseByCategoryID(t *testing.T) {
	ts := newTestServer(t)

	food, err := ts.repo.FindCategoryByName(context.Background(), "Food")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/expenses/store",
		`{"amount":10,"description":"bread","category_id":`+jsonInt(food.ID)+`}`, true)
	resp := decode(t, rec)
	require.False(t, resp.Error)

	list := decode(t, ts.do(t, http.MethodGet, "/api/expenses/", "", true))
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, "Food", list.Expenses[0].CategoryName)
}

func TestStoreExpenseInsufficientFunds(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/expenses/store", `{"amount":1001}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "You don't enough finances on your account", resp.Message)

	list := decode(t, ts.do(t, http.MethodGet, "/api/expenses/", "", true))
	assert.Empty(t, list.Expenses)
}

func TestStoreExpenseValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing amount", `{"description":"no amount"}`, "The amount field is required"},
		{"fractional amount", `{"amount":10.5}`, "The amount must be an integer"},
		{"string amount", `{"amount":"ten"}`, "The amount must be an integer"},
		{"negative amount", `{"amount":-5}`, "The amount must be a non-negative integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/expenses/store", tt.body, true)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode(t, rec)
			assert.True(t, resp.Error)
			assert.Equal(t, tt.want, resp.Message)
		})
	}

	// No write happened.
	list := decode(t, ts.do(t, http.MethodGet, "/api/expenses/", "", true))
	assert.Empty(t, list.Expenses)
}

func TestStoreExpenseFormEncoded(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/store",
		strings.NewReader("amount=75&description=bus+ticket&category=Transport"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.server.Server.Handler.ServeHTTP(rec, req)

	resp := decode(t, rec)
	assert.False(t, resp.Error)

	list := decode(t, ts.do(t, http.MethodGet, "/api/expenses/", "", true))
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, "bus ticket", list.Expenses[0].Description)
	assert.Equal(t, "Transport", list.Expenses[0].CategoryName)
}

func TestUpdateExpense(t *testing.T) {
	ts := newTestServer(t)
	e := ts.seed(t, 100, "lunch", time.Now().UTC(), nil)

	rec := ts.do(t, http.MethodPost, "/api/expenses/update/"+jsonInt(e.ID),
		`{"amount":150,"description":"dinner"}`, true)
	resp := decode(t, rec)
	assert.False(t, resp.Error)
	assert.Equal(t, "You Successfully added your expense", resp.Message)

	got, err := ts.repo.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.Amount)
	assert.Equal(t, "dinner", got.Description)
}

func TestUpdateExpenseNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/expenses/update/9999", `{"amount":10}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "Expense not found", resp.Message)
}

func TestDeleteExpense(t *testing.T) {
	ts := newTestServer(t)
	e := ts.seed(t, 100, "lunch", time.Now().UTC(), nil)

	rec := ts.do(t, http.MethodDelete, "/api/expenses/delete/"+jsonInt(e.ID), "", true)
	resp := decode(t, rec)
	assert.False(t, resp.Error)
	assert.Equal(t, "You Successfully deleted expense", resp.Message)

	rec2 := ts.do(t, http.MethodDelete, "/api/expenses/delete/"+jsonInt(e.ID), "", true)
	require.Equal(t, http.StatusOK, rec2.Code)
	resp2 := decode(t, rec2)
	assert.True(t, resp2.Error)
	assert.Equal(t, "Expense not found", resp2.Message)
}

func TestPriceFilter(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()
	for _, amount := range []int64{50, 150, 250, 400} {
		ts.seed(t, amount, "item", now, nil)
	}

	rec := ts.do(t, http.MethodGet, "/api/expenses/price-filter?min_amount=100&max_amount=300", "", true)
	resp := decode(t, rec)
	require.False(t, resp.Error)
	require.Len(t, resp.Expenses, 2)
	assert.Equal(t, int64(150), resp.Expenses[0].Amount)
	assert.Equal(t, int64(250), resp.Expenses[1].Amount)
}

func TestPriceFilterRequiresBothBounds(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"/api/expenses/price-filter",
		"/api/expenses/price-filter?min_amount=100",
		"/api/expenses/price-filter?max_amount=300",
	} {
		rec := ts.do(t, http.MethodGet, target, "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode(t, rec)
		assert.True(t, resp.Error, target)
	}
}

func TestDayBetweenInclusiveBoundaries(t *testing.T) {
	ts := newTestServer(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	ts.seed(t, 10, "on start", start, nil)
	ts.seed(t, 20, "inside", start.AddDate(0, 0, 5), nil)
	ts.seed(t, 30, "on end", end, nil)
	ts.seed(t, 40, "before", start.Add(-time.Second), nil)
	ts.seed(t, 50, "after", end.Add(time.Second), nil)

	rec := ts.do(t, http.MethodGet,
		"/api/expenses/day-between?start_date=2024-03-01&end_date=2024-03-10", "", true)
	resp := decode(t, rec)
	require.False(t, resp.Error)
	require.Len(t, resp.Expenses, 3)
	assert.Equal(t, "on start", resp.Expenses[0].Description)
	assert.Equal(t, "inside", resp.Expenses[1].Description)
	assert.Equal(t, "on end", resp.Expenses[2].Description)
}

func TestDayBetweenRequiresBothDates(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/expenses/day-between?start_date=2024-03-01", "", true)
	resp := decode(t, rec)
	assert.True(t, resp.Error)

	rec2 := ts.do(t, http.MethodGet, "/api/expenses/day-between?start_date=notadate&end_date=2024-03-10", "", true)
	resp2 := decode(t, rec2)
	assert.True(t, resp2.Error)
}

func TestCategoryFilterEquivalence(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	food, err := ts.repo.FindCategoryByName(ctx, "Food")
	require.NoError(t, err)
	transport, err := ts.repo.FindCategoryByName(ctx, "Transport")
	require.NoError(t, err)

	now := time.Now().UTC()
	ts.seed(t, 10, "bread", now, &food.ID)
	ts.seed(t, 20, "bus", now, &transport.ID)

	byName := decode(t, ts.do(t, http.MethodGet, "/api/expenses/category-filter?category=Food", "", true))
	byLabel := decode(t, ts.do(t, http.MethodGet, "/api/expenses/category-filter?myCategory=Food", "", true))

	require.False(t, byName.Error)
	require.False(t, byLabel.Error)
	assert.Equal(t, byName.Expenses, byLabel.Expenses)
	require.Len(t, byName.Expenses, 1)
	assert.Equal(t, "bread", byName.Expenses[0].Description)
}

func TestCategoryFilterRequiresExactlyOneParam(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"/api/expenses/category-filter",
		"/api/expenses/category-filter?category=Food&myCategory=Food",
	} {
		rec := ts.do(t, http.MethodGet, target, "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode(t, rec)
		assert.True(t, resp.Error, target)
	}
}

func TestCategoryFilterUnknownCategory(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/expenses/category-filter?category=Quantum", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "Category not found", resp.Message)
}

func TestSumsReturnZeroWhenEmpty(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"/api/expenses/sum-last-week",
		"/api/expenses/sum-last-month",
		"/api/expenses/sum-last-year",
	} {
		rec := ts.do(t, http.MethodGet, target, "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode(t, rec)
		assert.False(t, resp.Error, target)
		require.NotNil(t, resp.Total, target)
		assert.Zero(t, *resp.Total, target)
	}
}

func TestSumLastMonthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	now := time.Now()
	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	ts.seed(t, 100, "one", lastMonth.Add(24*time.Hour), nil)
	ts.seed(t, 50, "two", lastMonth.Add(48*time.Hour), nil)

	rec := ts.do(t, http.MethodGet, "/api/expenses/sum-last-month", "", true)
	resp := decode(t, rec)
	require.False(t, resp.Error)
	require.NotNil(t, resp.Total)
	assert.Equal(t, int64(150), *resp.Total)
}

func TestListCategories(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/categories/", "", true)
	resp := decode(t, rec)
	require.False(t, resp.Error)
	assert.NotEmpty(t, resp.Categories)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/expenses/store", "", true)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec2 := ts.do(t, http.MethodGet, "/readyz", "", false)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func jsonInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
