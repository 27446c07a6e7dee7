package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendshare/internal/core"
	"spendshare/internal/layout"

	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense inserts a new expense and returns it with its assigned id.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (owner_id, date, description, amount_cents, category, subcategory, flow)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.Date.Format(dateFormat), e.Description, e.Amount.Cents,
		e.Category, e.Subcategory, string(e.Flow))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents)

	return e, nil
}

// GetExpense retrieves a single expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, date, description, amount_cents, category, subcategory, flow
		FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, fmt.Errorf("expense %d not found: %w", id, err)
		}
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns all expenses owned by ownerID, newest first. Filtering
// and pagination happen in the report service, which needs whole result sets
// to apply column predicates consistently.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, date, description, amount_cents, category, subcategory, flow
		FROM expenses WHERE owner_id = ?
		ORDER BY date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// ReadMonthOverview aggregates an owner's expense totals for one month.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, ownerID string, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{
		OwnerID: ownerID,
		Year:    year,
		Month:   month,
	}

	prefix := fmt.Sprintf("%04d-%02d-", year, month)

	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM expenses
		WHERE owner_id = ? AND date LIKE ? || '%' AND flow = 'expense'`,
		ownerID, prefix).Scan(&total)
	if err != nil {
		return overview, fmt.Errorf("get month total: %w", err)
	}
	overview.Total = core.Money{Cents: total.Int64}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) AS total_amount FROM expenses
		WHERE owner_id = ? AND date LIKE ? || '%' AND flow = 'expense'
		GROUP BY category ORDER BY total_amount DESC`,
		ownerID, prefix)
	if err != nil {
		return overview, fmt.Errorf("get category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var cents int64
		if err := rows.Scan(&name, &cents); err != nil {
			return overview, fmt.Errorf("scan category sum: %w", err)
		}
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return overview, fmt.Errorf("iterate category sums: %w", err)
	}

	return overview, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
		flow    string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &dateStr, &e.Description,
		&e.Amount.Cents, &e.Category, &e.Subcategory, &flow); err != nil {
		return core.Expense{}, err
	}

	t, err := time.Parse(dateFormat, dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", dateStr, err)
	}
	e.Date = core.Date{Time: t}
	e.Flow = core.FlowType(flow)
	return e, nil
}

// GetRelationshipBetween returns the sharing relationship linking two users,
// regardless of which side requested it. A missing relationship is not an
// error: a nil record resolves to no access downstream.
func (r *SQLiteRepository) GetRelationshipBetween(ctx context.Context, viewerID, targetID string) (*core.Relationship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, requester_id, recipient_id, requester_access, recipient_access
		FROM relationships
		WHERE (requester_id = ? AND recipient_id = ?)
		   OR (requester_id = ? AND recipient_id = ?)`,
		viewerID, targetID, targetID, viewerID)

	rel, err := scanRelationship(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return rel, nil
}

// ListRelationships returns all relationships a user participates in.
func (r *SQLiteRepository) ListRelationships(ctx context.Context, partyID string) ([]core.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, requester_id, recipient_id, requester_access, recipient_access
		FROM relationships
		WHERE requester_id = ? OR recipient_id = ?
		ORDER BY created_at`, partyID, partyID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []core.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}

	return rels, nil
}

// SaveRelationship upserts a sharing relationship by its requester/recipient pair.
func (r *SQLiteRepository) SaveRelationship(ctx context.Context, rel core.Relationship) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO relationships (id, requester_id, recipient_id, requester_access, recipient_access)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (requester_id, recipient_id) DO UPDATE SET
			requester_access = excluded.requester_access,
			recipient_access = excluded.recipient_access,
			updated_at = CURRENT_TIMESTAMP`,
		rel.ID, rel.Requester.ID, rel.Recipient.ID,
		string(core.ParseAccessLevel(string(rel.RequesterAccess))),
		string(core.ParseAccessLevel(string(rel.RecipientAccess))))
	if err != nil {
		return fmt.Errorf("save relationship: %w", err)
	}

	slog.InfoContext(ctx, "Relationship saved",
		"id", rel.ID,
		"requester_id", rel.Requester.ID,
		"recipient_id", rel.Recipient.ID)
	return nil
}

func scanRelationship(row rowScanner) (*core.Relationship, error) {
	var rel core.Relationship
	var reqAccess, recAccess string
	if err := row.Scan(&rel.ID, &rel.Requester.ID, &rel.Recipient.ID,
		&reqAccess, &recAccess); err != nil {
		return nil, err
	}
	rel.RequesterAccess = core.ParseAccessLevel(reqAccess)
	rel.RecipientAccess = core.ParseAccessLevel(recAccess)
	return &rel, nil
}

// LoadLayout implements layout.LocalStore. Returns nil with no error when
// nothing is persisted for this owner and report type.
func (r *SQLiteRepository) LoadLayout(ctx context.Context, ownerID, reportType string) ([]layout.Section, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT sections FROM layout_preferences
		WHERE owner_id = ? AND report_type = ?`, ownerID, reportType).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}

	var sections []layout.Section
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil, fmt.Errorf("decode layout sections: %w", err)
	}
	return sections, nil
}

// SaveLayout implements layout.LocalStore. Every save marks the row dirty so
// the sync worker pushes it to the remote store.
func (r *SQLiteRepository) SaveLayout(ctx context.Context, ownerID, reportType string, sections []layout.Section) error {
	raw, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode layout sections: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO layout_preferences (owner_id, report_type, sections, dirty)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (owner_id, report_type) DO UPDATE SET
			sections = excluded.sections,
			dirty = 1,
			updated_at = CURRENT_TIMESTAMP`,
		ownerID, reportType, string(raw))
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

// DeleteLayout implements layout.LocalStore.
func (r *SQLiteRepository) DeleteLayout(ctx context.Context, ownerID, reportType string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM layout_preferences
		WHERE owner_id = ? AND report_type = ?`, ownerID, reportType)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	return nil
}

// DirtyLayout identifies a locally saved layout that has not reached the
// remote store yet.
type DirtyLayout struct {
	OwnerID    string
	ReportType string
	Sections   []layout.Section
	UpdatedAt  time.Time
}

// ListDirtyLayouts returns layouts awaiting remote sync, oldest first.
func (r *SQLiteRepository) ListDirtyLayouts(ctx context.Context, limit int) ([]DirtyLayout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id, report_type, sections, updated_at
		FROM layout_preferences WHERE dirty = 1
		ORDER BY updated_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dirty layouts: %w", err)
	}
	defer rows.Close()

	var dirty []DirtyLayout
	for rows.Next() {
		var d DirtyLayout
		var raw string
		if err := rows.Scan(&d.OwnerID, &d.ReportType, &raw, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dirty layout: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &d.Sections); err != nil {
			return nil, fmt.Errorf("decode layout sections: %w", err)
		}
		dirty = append(dirty, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dirty layouts: %w", err)
	}

	return dirty, nil
}

// MarkLayoutSynced clears the dirty flag after a successful remote push.
func (r *SQLiteRepository) MarkLayoutSynced(ctx context.Context, ownerID, reportType string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE layout_preferences
		SET dirty = 0, synced_at = CURRENT_TIMESTAMP
		WHERE owner_id = ? AND report_type = ?`, ownerID, reportType)
	if err != nil {
		return fmt.Errorf("mark layout synced: %w", err)
	}

	slog.InfoContext(ctx, "Layout marked as synced",
		"owner_id", ownerID, "report_type", reportType)
	return nil
}

// PendingExportExpense is the minimal row the export worker needs to pick up
// an expense bound for the external spreadsheet.
type PendingExportExpense struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// GetPendingExportExpenses returns expenses awaiting spreadsheet export.
func (r *SQLiteRepository) GetPendingExportExpenses(ctx context.Context, limit int) ([]PendingExportExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM expenses
		WHERE export_status = 'pending'
		ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export expenses: %w", err)
	}
	defer rows.Close()

	var pending []PendingExportExpense
	for rows.Next() {
		var p PendingExportExpense
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export expense: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending export expenses: %w", err)
	}

	return pending, nil
}

// MarkExported marks an expense as successfully exported.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET export_status = 'exported', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense exported: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExportError marks an expense as having failed export.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET export_status = 'error', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense export error: %w", err)
	}

	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}
