package sheets

import (
	"context"

	"spendshare/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// ExpenseWriter appends one expense row to the external spreadsheet and
	// returns a row reference.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)
