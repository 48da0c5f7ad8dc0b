package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Cvetanski/dev-t/internal/amqp"
	"github.com/Cvetanski/dev-t/internal/cache"
	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"
	"github.com/Cvetanski/dev-t/internal/storage"
)

// CommandService orchestrates expense writes across SQLite and AMQP.
// Every write first checks the owner's balance; the balance itself is
// never debited.
type CommandService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	categories *cache.LRUCache[core.Category]
}

func NewCommandService(repo *storage.SQLiteRepository, amqpClient *amqp.Client) *CommandService {
	return &CommandService{
		storage:    repo,
		amqpClient: amqpClient,
		categories: cache.NewLRUCache[core.Category](64, 10*time.Minute),
	}
}

// AddExpense validates and saves a new expense, then publishes a created
// event. The category name is optional; when present it must resolve.
func (s *CommandService) AddExpense(ctx context.Context, userID, amount int64, description, categoryName string) (core.Expense, error) {
	e := core.Expense{
		UserID:      userID,
		Amount:      amount,
		Description: description,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.checkBalance(ctx, userID, amount); err != nil {
		return core.Expense{}, err
	}

	if categoryName != "" {
		category, err := s.resolveCategory(ctx, categoryName)
		if err != nil {
			return core.Expense{}, err
		}
		e.CategoryID = &category.ID
	}

	saved, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishEvent(ctx, saved.ID, amqp.ActionCreated, 1)

	return saved, nil
}

// EditExpense replaces amount, description, and category of an existing
// expense and publishes an updated event. The new amount is re-checked
// against the owner's balance.
func (s *CommandService) EditExpense(ctx context.Context, id, amount int64, description, categoryName string) (core.Expense, error) {
	existing, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:          id,
		UserID:      existing.UserID,
		Amount:      amount,
		Description: description,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.checkBalance(ctx, existing.UserID, amount); err != nil {
		return core.Expense{}, err
	}

	if categoryName != "" {
		category, err := s.resolveCategory(ctx, categoryName)
		if err != nil {
			return core.Expense{}, err
		}
		e.CategoryID = &category.ID
	}

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.publishEvent(ctx, id, amqp.ActionUpdated, 2)

	return s.storage.GetExpense(ctx, id)
}

// DeleteExpense removes an expense and publishes a deleted event.
func (s *CommandService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, id, amqp.ActionDeleted, 1)

	return nil
}

func (s *CommandService) checkBalance(ctx context.Context, userID, amount int64) error {
	balance, err := s.storage.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrBalanceNotFound) {
			return core.ErrInsufficientFunds
		}
		return fmt.Errorf("check balance: %w", err)
	}
	if !balance.Covers(amount) {
		slog.WarnContext(ctx, "Expense exceeds available balance",
			applog.FieldUserID, userID,
			applog.FieldAmount, amount,
			applog.FieldBalance, balance.Amount)
		return core.ErrInsufficientFunds
	}
	return nil
}

func (s *CommandService) resolveCategory(ctx context.Context, name string) (core.Category, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if category, ok := s.categories.Get(key); ok {
		return category, nil
	}

	category, err := s.storage.FindCategoryByName(ctx, name)
	if err != nil {
		return core.Category{}, err
	}

	s.categories.Set(key, category)
	return category, nil
}

// publishEvent is best-effort: the local write already succeeded, so a
// broker failure is logged but never fails the request.
func (s *CommandService) publishEvent(ctx context.Context, id int64, action amqp.Action, version int64) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", applog.FieldExpenseID, id, "action", action)
		return
	}
	if err := s.amqpClient.PublishExpenseEvent(ctx, id, action, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			applog.FieldExpenseID, id,
			"action", action,
			applog.FieldError, err)
	}
}

// Close closes both storage and AMQP connections.
func (s *CommandService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close command service: %v", errs)
	}

	return nil
}
