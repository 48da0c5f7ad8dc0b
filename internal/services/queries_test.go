package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cvetanski/dev-t/internal/core"
	"github.com/Cvetanski/dev-t/internal/storage"
)

// seedAt inserts an expense with a fixed creation time, bypassing the
// balance check.
func seedAt(t *testing.T, repo *storage.SQLiteRepository, userID, amount int64, description string, createdAt time.Time) core.Expense {
	t.Helper()
	e, err := repo.CreateExpense(context.Background(), core.Expense{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return e
}

func TestListByCategoryMatchesFilterByID(t *testing.T) {
	commands, queries, repo, userID := newTestEnv(t)
	ctx := context.Background()

	_, err := commands.AddExpense(ctx, userID, 10, "bread", "Food")
	require.NoError(t, err)
	_, err = commands.AddExpense(ctx, userID, 20, "bus", "Transport")
	require.NoError(t, err)

	byName, err := queries.ListByCategory(ctx, "Food")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "bread", byName[0].Description)

	category, err := repo.FindCategoryByName(ctx, "Food")
	require.NoError(t, err)
	byID, err := repo.ListExpensesByCategoryID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, byName, byID)
}

func TestListByCategoryUnknown(t *testing.T) {
	_, queries, _, _ := newTestEnv(t)

	_, err := queries.ListByCategory(context.Background(), "Quantum")
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)
}

func TestListByCategoryFragment(t *testing.T) {
	commands, queries, _, userID := newTestEnv(t)
	ctx := context.Background()

	_, err := commands.AddExpense(ctx, userID, 10, "bread", "Food")
	require.NoError(t, err)
	_, err = commands.AddExpense(ctx, userID, 20, "rent", "Housing")
	require.NoError(t, err)

	got, err := queries.ListByCategoryFragment(ctx, "oo")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bread", got[0].Description)

	empty, err := queries.ListByCategoryFragment(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListByPriceRangeOrdering(t *testing.T) {
	_, queries, repo, userID := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, amount := range []int64{400, 50, 250, 150} {
		seedAt(t, repo, userID, amount, "item", now)
	}

	got, err := queries.ListByPriceRange(ctx, 100, 300)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(150), got[0].Amount)
	assert.Equal(t, int64(250), got[1].Amount)
}

func TestListLastMonth(t *testing.T) {
	_, queries, repo, userID := newTestEnv(t)
	ctx := context.Background()

	queries.now = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	inside := seedAt(t, repo, userID, 10, "february", time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 20, "january", time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 30, "march", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	got, err := queries.ListLastMonth(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside.ID, got[0].ID)
}

func TestListLastYear(t *testing.T) {
	_, queries, repo, userID := newTestEnv(t)
	ctx := context.Background()

	queries.now = func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}

	inside := seedAt(t, repo, userID, 10, "last year", time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 20, "two years back", time.Date(2022, 12, 31, 23, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 30, "this year", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got, err := queries.ListLastYear(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside.ID, got[0].ID)
}

func TestSumLastWeek(t *testing.T) {
	_, queries, repo, userID := newTestEnv(t)
	ctx := context.Background()

	// 2024-03-13 is a Wednesday; previous week is Mon 03-04 until Mon 03-11.
	queries.now = func() time.Time {
		return time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	}

	seedAt(t, repo, userID, 100, "in week", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 40, "week start", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 7, "this week", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 9, "older", time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC))

	total, err := queries.SumLastWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(140), total)
}

func TestSumsReturnZeroOnEmpty(t *testing.T) {
	_, queries, _, _ := newTestEnv(t)
	ctx := context.Background()

	week, err := queries.SumLastWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, week)

	month, err := queries.SumLastMonth(ctx)
	require.NoError(t, err)
	assert.Zero(t, month)

	year, err := queries.SumLastYear(ctx)
	require.NoError(t, err)
	assert.Zero(t, year)
}

func TestSumLastMonth(t *testing.T) {
	_, queries, repo, userID := newTestEnv(t)
	ctx := context.Background()

	queries.now = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	seedAt(t, repo, userID, 100, "feb", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 50, "feb too", time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC))
	seedAt(t, repo, userID, 7, "march", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	total, err := queries.SumLastMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}

func TestCategoriesListsSeeded(t *testing.T) {
	_, queries, _, _ := newTestEnv(t)

	categories, err := queries.Categories(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, categories)

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Food")
	assert.Contains(t, names, "Transport")
}
