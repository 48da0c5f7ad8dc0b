package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Cvetanski/dev-t/internal/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body := parseRequestBody(r)
	if body.err != nil {
		respondValidationError(w, "Invalid request body")
		return
	}

	username := body.Get("username")
	password := body.Get("password")
	if username == "" || password == "" {
		respondValidationError(w, "The username and password fields are required")
		return
	}

	token, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondValidationError(w, "Invalid credentials")
			return
		}
		respondError(r.Context(), w, err)
		return
	}

	respondData(w, "token", token)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.queries.ListExpenses(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "expenses", expenses)
}

func (s *Server) handleStoreExpense(w http.ResponseWriter, r *http.Request) {
	body := parseRequestBody(r)
	if body.err != nil {
		respondValidationError(w, "Invalid request body")
		return
	}

	amount, description, categoryName, failMsg := s.expenseFields(r.Context(), body)
	if failMsg != "" {
		respondValidationError(w, failMsg)
		return
	}

	_, err := s.commands.AddExpense(r.Context(), userIDFrom(r.Context()), amount, description, categoryName)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondMessage(w, msgAddSuccess)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondValidationError(w, "The expense id must be an integer")
		return
	}

	body := parseRequestBody(r)
	if body.err != nil {
		respondValidationError(w, "Invalid request body")
		return
	}

	amount, description, categoryName, failMsg := s.expenseFields(r.Context(), body)
	if failMsg != "" {
		respondValidationError(w, failMsg)
		return
	}

	_, err = s.commands.EditExpense(r.Context(), id, amount, description, categoryName)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondMessage(w, msgAddSuccess)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondValidationError(w, "The expense id must be an integer")
		return
	}

	if err := s.commands.DeleteExpense(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondMessage(w, msgDeleteSuccess)
}

func (s *Server) handleDayBetween(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, ok := parseTimestamp(query.Get("start_date"))
	if !ok {
		respondValidationError(w, "The start_date field is required and must be a date")
		return
	}
	end, ok := parseTimestamp(query.Get("end_date"))
	if !ok {
		respondValidationError(w, "The end_date field is required and must be a date")
		return
	}

	expenses, err := s.queries.ListByDateRange(r.Context(), start, end)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "expenses", expenses)
}

func (s *Server) handlePriceFilter(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	min, err := strconv.ParseInt(strings.TrimSpace(query.Get("min_amount")), 10, 64)
	if err != nil {
		respondValidationError(w, "The min_amount field is required and must be an integer")
		return
	}
	max, err := strconv.ParseInt(strings.TrimSpace(query.Get("max_amount")), 10, 64)
	if err != nil {
		respondValidationError(w, "The max_amount field is required and must be an integer")
		return
	}

	expenses, err := s.queries.ListByPriceRange(r.Context(), min, max)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "expenses", expenses)
}

func (s *Server) handleCategoryFilter(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := strings.TrimSpace(query.Get("category"))
	fragment := strings.TrimSpace(query.Get("myCategory"))

	if (category == "") == (fragment == "") {
		respondValidationError(w, "Exactly one of category or myCategory is required")
		return
	}

	var err error
	var expenses any
	if category != "" {
		expenses, err = s.queries.ListByCategory(r.Context(), category)
	} else {
		expenses, err = s.queries.ListByCategoryFragment(r.Context(), fragment)
	}
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "expenses", expenses)
}

func (s *Server) handleLastMonth(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.queries.ListLastMonth(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "expenses", expenses)
}

func (s *Server) handleLastYear(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.queries.ListLastYear(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "expenses", expenses)
}

func (s *Server) handleSumLastWeek(w http.ResponseWriter, r *http.Request) {
	total, err := s.queries.SumLastWeek(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "total", total)
}

func (s *Server) handleSumLastMonth(w http.ResponseWriter, r *http.Request) {
	total, err := s.queries.SumLastMonth(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "total", total)
}

func (s *Server) handleSumLastYear(w http.ResponseWriter, r *http.Request) {
	total, err := s.queries.SumLastYear(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "total", total)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.queries.Categories(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, "categories", categories)
}

// expenseFields extracts and validates the shared store/update body:
// required non-negative integer amount, optional description, and a
// category given by name or by id. A non-empty failMsg means reject.
func (s *Server) expenseFields(ctx context.Context, body *requestBodyParser) (amount int64, description, categoryName, failMsg string) {
	amount, present, err := body.GetInt64("amount")
	if !present {
		return 0, "", "", "The amount field is required"
	}
	if err != nil {
		return 0, "", "", "The amount must be an integer"
	}
	if amount < 0 {
		return 0, "", "", "The amount must be a non-negative integer"
	}

	description = body.Get("description")
	categoryName = body.Get("category")

	if categoryName == "" {
		if id, present, err := body.GetInt64("category_id"); present {
			if err != nil {
				return 0, "", "", "The category_id must be an integer"
			}
			category, err := s.queries.Category(ctx, id)
			if err != nil {
				return 0, "", "", "Category not found"
			}
			categoryName = category.Name
		}
	}

	return amount, description, categoryName, ""
}

// parseTimestamp accepts the date formats clients actually send.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
