package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Cvetanski/dev-t/internal/amqp"
	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"
	"github.com/Cvetanski/dev-t/internal/sheets"
	"github.com/Cvetanski/dev-t/internal/storage"
)

// ExportWorker consumes expense events and appends an audit row per
// event to the export spreadsheet.
type ExportWorker struct {
	storage *storage.SQLiteRepository
	sheets  sheets.ExpenseAppender
	timeout time.Duration
}

func NewExportWorker(repo *storage.SQLiteRepository, appender sheets.ExpenseAppender, timeout time.Duration) *ExportWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExportWorker{
		storage: repo,
		sheets:  appender,
		timeout: timeout,
	}
}

// HandleExpenseEvent processes a single expense event message.
func (w *ExportWorker) HandleExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	slog.InfoContext(ctx, "Processing expense event",
		applog.FieldExpenseID, msg.ID,
		"action", msg.Action,
		"version", msg.Version)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	expense := core.Expense{ID: msg.ID, CreatedAt: msg.Timestamp}
	if msg.Action != amqp.ActionDeleted {
		var err error
		expense, err = w.storage.GetExpense(ctx, msg.ID)
		if errors.Is(err, core.ErrExpenseNotFound) {
			// Row deleted between publish and consume; nothing to export.
			slog.WarnContext(ctx, "Expense gone before export, skipping",
				applog.FieldExpenseID, msg.ID,
				"action", msg.Action)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
	}

	ref, err := w.sheets.AppendExpenseRow(ctx, expense, string(msg.Action))
	if err != nil {
		return fmt.Errorf("export expense %d: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "Expense exported",
		applog.FieldExpenseID, msg.ID,
		"action", msg.Action,
		"sheets_ref", ref)

	return nil
}
