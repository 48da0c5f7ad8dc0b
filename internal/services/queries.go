package services

import (
	"context"
	"time"

	"github.com/Cvetanski/dev-t/internal/core"
	"github.com/Cvetanski/dev-t/internal/storage"
)

// QueryService serves expense reads: listings, filters, and period sums.
type QueryService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewQueryService(repo *storage.SQLiteRepository) *QueryService {
	return &QueryService{
		storage: repo,
		now:     time.Now,
	}
}

// ListExpenses returns every expense, oldest first.
func (s *QueryService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx)
}

// ListByDateRange returns expenses created within [from, to], both
// boundaries inclusive.
func (s *QueryService) ListByDateRange(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	return s.storage.ListExpensesCreatedBetween(ctx, from, to)
}

// ListByPriceRange returns expenses whose amount falls within [min, max],
// cheapest first.
func (s *QueryService) ListByPriceRange(ctx context.Context, min, max int64) ([]core.Expense, error) {
	return s.storage.ListExpensesByAmountBetween(ctx, min, max)
}

// ListByCategory resolves a category by name suffix match, then returns
// the expenses tagged with the resolved category's id.
func (s *QueryService) ListByCategory(ctx context.Context, name string) ([]core.Expense, error) {
	category, err := s.storage.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.storage.ListExpensesByCategoryID(ctx, category.ID)
}

// ListByCategoryFragment returns expenses whose category name contains
// the given fragment anywhere.
func (s *QueryService) ListByCategoryFragment(ctx context.Context, fragment string) ([]core.Expense, error) {
	return s.storage.ListExpensesByCategoryName(ctx, fragment)
}

// ListLastMonth returns expenses from the previous calendar month.
func (s *QueryService) ListLastMonth(ctx context.Context) ([]core.Expense, error) {
	start, end := previousMonthRange(s.now())
	return s.storage.ListExpensesCreatedIn(ctx, start, end)
}

// ListLastYear returns expenses from the previous calendar year.
func (s *QueryService) ListLastYear(ctx context.Context) ([]core.Expense, error) {
	start, end := previousYearRange(s.now())
	return s.storage.ListExpensesCreatedIn(ctx, start, end)
}

// SumLastWeek totals expenses from the previous Monday-based week.
// Zero when the week holds nothing.
func (s *QueryService) SumLastWeek(ctx context.Context) (int64, error) {
	start, end := previousWeekRange(s.now())
	return s.storage.SumAmountCreatedIn(ctx, start, end)
}

// SumLastMonth totals expenses from the previous calendar month.
func (s *QueryService) SumLastMonth(ctx context.Context) (int64, error) {
	start, end := previousMonthRange(s.now())
	return s.storage.SumAmountCreatedIn(ctx, start, end)
}

// SumLastYear totals expenses from the previous calendar year.
func (s *QueryService) SumLastYear(ctx context.Context) (int64, error) {
	start, end := previousYearRange(s.now())
	return s.storage.SumAmountCreatedIn(ctx, start, end)
}

// Categories returns the full category list, for clients that need the
// valid tag names.
func (s *QueryService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

// Category resolves a category by id.
func (s *QueryService) Category(ctx context.Context, id int64) (core.Category, error) {
	return s.storage.GetCategory(ctx, id)
}
