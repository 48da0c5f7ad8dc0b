package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Expense is a single recorded spending event tied to a user.
	// CategoryName is derived from CategoryID via lookup on read; the
	// database keeps only the reference.
	Expense struct {
		ID           int64     `json:"id"`
		UserID       int64     `json:"user_id"`
		Amount       int64     `json:"amount"`
		Description  string    `json:"description"`
		CategoryID   *int64    `json:"category_id,omitempty"`
		CategoryName string    `json:"category,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	// Category is a named grouping expenses can be tagged with.
	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// Balance is a user's available funds ceiling, checked against new
	// expense amounts.
	Balance struct {
		UserID int64 `json:"user_id"`
		Amount int64 `json:"amount"`
	}

	User struct {
		ID           int64     `json:"id"`
		Username     string    `json:"username"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrBalanceNotFound    = errors.New("balance not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func (e Expense) Validate() error {
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	return nil
}

// Covers reports whether the balance can absorb an expense of the given
// amount. The ledger is only ever checked, never debited.
func (b Balance) Covers(amount int64) bool {
	return amount <= b.Amount
}
