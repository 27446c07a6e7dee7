// Package google exports expenses to a Google Sheets spreadsheet using an
// OAuth token produced by cmd/oauth-init.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendshare/internal/config"
	"spendshare/internal/core"
	ports "spendshare/internal/sheets"
)

// Exporter appends expense rows to a single sheet of a spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ExpenseWriter = (*Exporter)(nil)

// New builds an Exporter from the Google section of the configuration.
// Validate has already checked that client and token credentials are present
// when a spreadsheet id is set.
func New(ctx context.Context, cfg config.Config) (*Exporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	clientJSON, err := readCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client credentials: %w", err)
	}
	tokenJSON, err := readCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	oauthCfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	httpClient := oauthCfg.Client(ctx, &token)
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

// readCredential prefers inline JSON and falls back to a file path.
func readCredential(inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	if inline != "" {
		return []byte(inline), nil
	}
	if file == "" {
		return nil, errors.New("no inline JSON and no file path provided")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return b, nil
}

// Append adds one expense as a new row and returns the updated range
// reported by the API.
func (e *Exporter) Append(ctx context.Context, expense core.Expense) (string, error) {
	if err := expense.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(expense)}}
	rng := fmt.Sprintf("%s!A:G", e.sheetName)

	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// expenseRow lays out the columns: Date, Owner, Description, Amount,
// Category, Subcategory, Flow.
func expenseRow(e core.Expense) []any {
	return []any{
		e.Date.Format("2006-01-02"),
		e.OwnerID,
		e.Description,
		e.Amount.Euros(),
		e.Category,
		e.Subcategory,
		string(e.Flow),
	}
}
