package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"
)

const expenseColumns = `
	e.id, e.user_id, e.amount, e.description, e.category_id, c.name,
	e.created_at, e.updated_at`

const expenseSelect = `
	SELECT` + expenseColumns + `
	FROM expenses e
	LEFT JOIN categories c ON c.id = e.category_id`

// CreateExpense inserts a new expense row and returns it with its identity
// and timestamps filled in. A zero CreatedAt means "now".
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, amount, description, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Amount, e.Description, e.CategoryID, createdAt, now,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		applog.FieldExpenseID, id,
		applog.FieldUserID, e.UserID,
		applog.FieldAmount, e.Amount,
		"description", e.Description)

	return r.GetExpense(ctx, id)
}

// GetExpense retrieves a single expense by id, with the category name
// resolved via lookup.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, expenseSelect+" WHERE e.id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense replaces amount, description, and category of an existing
// row. Identity, owner, and created_at stay managed by storage.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET amount = ?, description = ?, category_id = ?, updated_at = ?
		WHERE id = ?`,
		e.Amount, e.Description, e.CategoryID, time.Now().UTC(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrExpenseNotFound
	}

	slog.InfoContext(ctx, "Expense updated", applog.FieldExpenseID, e.ID, applog.FieldAmount, e.Amount)
	return nil
}

// DeleteExpense removes a row. Hard delete, no tombstone.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrExpenseNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id)
	return nil
}

// ListExpenses returns every expense row, ascending by creation time.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return r.queryExpenses(ctx, expenseSelect+" ORDER BY e.created_at ASC, e.id ASC")
}

// ListExpensesCreatedBetween returns rows whose created_at falls within
// [start, end], inclusive of both boundaries, ascending by created_at.
func (r *SQLiteRepository) ListExpensesCreatedBetween(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+" WHERE e.created_at >= ? AND e.created_at <= ? ORDER BY e.created_at ASC, e.id ASC",
		start.UTC(), end.UTC(),
	)
}

// ListExpensesCreatedIn returns rows in the half-open interval
// [start, end), ascending by created_at. Used for calendar windows.
func (r *SQLiteRepository) ListExpensesCreatedIn(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+" WHERE e.created_at >= ? AND e.created_at < ? ORDER BY e.created_at ASC, e.id ASC",
		start.UTC(), end.UTC(),
	)
}

// ListExpensesByAmountBetween returns rows whose amount is within
// [min, max], ascending by amount.
func (r *SQLiteRepository) ListExpensesByAmountBetween(ctx context.Context, min, max int64) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+" WHERE e.amount BETWEEN ? AND ? ORDER BY e.amount ASC, e.id ASC",
		min, max,
	)
}

// ListExpensesByCategoryID returns rows tagged with the given category.
func (r *SQLiteRepository) ListExpensesByCategoryID(ctx context.Context, categoryID int64) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+" WHERE e.category_id = ? ORDER BY e.created_at ASC, e.id ASC",
		categoryID,
	)
}

// ListExpensesByCategoryName returns rows whose resolved category name
// contains the given fragment.
func (r *SQLiteRepository) ListExpensesByCategoryName(ctx context.Context, name string) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+" WHERE c.name LIKE '%' || ? || '%' ORDER BY e.created_at ASC, e.id ASC",
		name,
	)
}

// SumAmountCreatedIn returns the arithmetic sum of amount over the
// half-open interval [start, end). Zero when nothing matches.
func (r *SQLiteRepository) SumAmountCreatedIn(ctx context.Context, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE created_at >= ? AND created_at < ?",
		start.UTC(), end.UTC(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e            core.Expense
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Description, &categoryID, &categoryName, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	if categoryID.Valid {
		e.CategoryID = &categoryID.Int64
	}
	if categoryName.Valid {
		e.CategoryName = categoryName.String
	}
	return e, nil
}
