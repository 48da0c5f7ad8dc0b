package sheets

import (
	"context"

	"github.com/Cvetanski/dev-t/internal/core"
)

// ExpenseAppender appends one expense row to the export sheet and
// returns a reference to the written range.
type ExpenseAppender interface {
	AppendExpenseRow(ctx context.Context, e core.Expense, action string) (string, error)
}
