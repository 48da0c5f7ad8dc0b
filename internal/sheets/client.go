package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"
)

// Client appends expense audit rows to a Google Sheets spreadsheet using
// service-account credentials.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ExpenseAppender = (*Client)(nil)

// NewClient builds a Sheets client. Credentials come from inline JSON
// when present, otherwise from the given file path.
func NewClient(ctx context.Context, spreadsheetID, sheetName, serviceAccountFile, serviceAccountJSON string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Expenses"
	}

	svc, err := newSheetsService(ctx, serviceAccountFile, serviceAccountJSON)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context, serviceAccountFile, serviceAccountJSON string) (*gsheet.Service, error) {
	var credentialsJSON []byte

	switch {
	case strings.TrimSpace(serviceAccountJSON) != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case strings.TrimSpace(serviceAccountFile) != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendExpenseRow writes one row per expense event:
// id, action, amount, description, category, created_at, exported_at.
func (c *Client) AppendExpenseRow(ctx context.Context, e core.Expense, action string) (string, error) {
	row := []any{
		e.ID,
		action,
		e.Amount,
		e.Description,
		e.CategoryName,
		e.CreatedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	}

	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:G", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet: %w", err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}

	slog.InfoContext(ctx, "Appended expense row",
		applog.FieldExpenseID, e.ID,
		"action", action,
		"range", ref)

	return ref, nil
}
