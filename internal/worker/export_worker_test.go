package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cvetanski/dev-t/internal/amqp"
	"github.com/Cvetanski/dev-t/internal/core"
	"github.com/Cvetanski/dev-t/internal/storage"
)

type fakeAppender struct {
	rows    []appendedRow
	failErr error
}

type appendedRow struct {
	expense core.Expense
	action  string
}

func (f *fakeAppender) AppendExpenseRow(ctx context.Context, e core.Expense, action string) (string, error) {
	if f.failErr != nil {
		return "", f.failErr
	}
	f.rows = append(f.rows, appendedRow{expense: e, action: action})
	return "Expenses!A1:G1", nil
}

func newWorkerEnv(t *testing.T) (*ExportWorker, *fakeAppender, *storage.SQLiteRepository, int64) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), "tester", "hash")
	require.NoError(t, err)

	appender := &fakeAppender{}
	return NewExportWorker(repo, appender, 5*time.Second), appender, repo, user.ID
}

func TestHandleExpenseEventCreated(t *testing.T) {
	w, appender, repo, userID := newWorkerEnv(t)
	ctx := context.Background()

	e, err := repo.CreateExpense(ctx, core.Expense{UserID: userID, Amount: 42, Description: "coffee"})
	require.NoError(t, err)

	msg := amqp.NewExpenseEventMessage(e.ID, amqp.ActionCreated, 1)
	require.NoError(t, w.HandleExpenseEvent(ctx, msg))

	require.Len(t, appender.rows, 1)
	assert.Equal(t, "created", appender.rows[0].action)
	assert.Equal(t, e.ID, appender.rows[0].expense.ID)
	assert.Equal(t, int64(42), appender.rows[0].expense.Amount)
}

func TestHandleExpenseEventDeleted(t *testing.T) {
	w, appender, _, _ := newWorkerEnv(t)

	// Deleted events carry no row to fetch; export from the message alone.
	msg := amqp.NewExpenseEventMessage(77, amqp.ActionDeleted, 1)
	require.NoError(t, w.HandleExpenseEvent(context.Background(), msg))

	require.Len(t, appender.rows, 1)
	assert.Equal(t, "deleted", appender.rows[0].action)
	assert.Equal(t, int64(77), appender.rows[0].expense.ID)
}

func TestHandleExpenseEventRowGone(t *testing.T) {
	w, appender, _, _ := newWorkerEnv(t)

	msg := amqp.NewExpenseEventMessage(9999, amqp.ActionCreated, 1)
	assert.NoError(t, w.HandleExpenseEvent(context.Background(), msg))
	assert.Empty(t, appender.rows)
}

func TestHandleExpenseEventAppendFailure(t *testing.T) {
	w, appender, repo, userID := newWorkerEnv(t)
	ctx := context.Background()

	appender.failErr = errors.New("quota exceeded")

	e, err := repo.CreateExpense(ctx, core.Expense{UserID: userID, Amount: 1, Description: "x"})
	require.NoError(t, err)

	msg := amqp.NewExpenseEventMessage(e.ID, amqp.ActionCreated, 1)
	assert.Error(t, w.HandleExpenseEvent(ctx, msg))
}
