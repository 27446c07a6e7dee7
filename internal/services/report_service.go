package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"spendshare/internal/cache"
	"spendshare/internal/core"
	"spendshare/internal/filter"
	"spendshare/internal/querykey"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ErrAccessDenied is returned when the viewer's resolved access level does
// not permit the requested operation.
var ErrAccessDenied = errors.New("access denied")

// ReportQuery is one expense report request. OwnerID selects whose data to
// read; empty means the viewer's own. Offset and OwnerID are loosely typed
// on purpose: key normalization owns their coercion.
type ReportQuery struct {
	OwnerID   any
	Range     string
	Offset    any
	Limit     int
	FlowType  string
	Category  string
	Type      string
	StartDate string
	EndDate   string
	GroupBy   string
	Search    string
	Filters   []filter.ColumnFilter
}

// ReportPage is one page of a filtered expense report.
type ReportPage struct {
	Rows   []core.Expense `json:"rows"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// ReportService answers expense report queries with access control, column
// filtering and a keyed response cache.
type ReportService struct {
	store  ExpenseStore
	access *AccessService
	cache  cache.Cache[ReportPage]
}

func NewReportService(store ExpenseStore, access *AccessService, pageCache cache.Cache[ReportPage]) *ReportService {
	return &ReportService{
		store:  store,
		access: access,
		cache:  pageCache,
	}
}

// GetExpenses resolves the viewer's access against the query owner, then
// filters, paginates and caches the result. Queries carrying ad-hoc column
// filters bypass the cache: the canonical key covers only the closed query
// parameter set.
func (s *ReportService) GetExpenses(ctx context.Context, viewerID string, q ReportQuery) (ReportPage, error) {
	desc := querykey.Describe(querykey.Params{
		Range:     q.Range,
		Offset:    q.Offset,
		FlowType:  q.FlowType,
		Category:  q.Category,
		Type:      q.Type,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		GroupBy:   q.GroupBy,
		TargetID:  viewerID,
		OwnerID:   q.OwnerID,
		Search:    q.Search,
	})

	ownerID := desc.OwnerID
	if ownerID == "" {
		ownerID = viewerID
	}

	resolution, err := s.access.Resolve(ctx, viewerID, ownerID)
	if err != nil {
		return ReportPage{}, err
	}
	if !resolution.CanRead {
		return ReportPage{}, fmt.Errorf("%w: viewer %s cannot read data of %s", ErrAccessDenied, viewerID, ownerID)
	}

	// Limit is not part of the canonical descriptor, so it must be appended
	// to the key: two queries differing only in limit are different pages.
	limit := clampLimit(q.Limit)
	cacheable := len(q.Filters) == 0 && s.cache != nil
	key := desc.Key() + "&limit=" + strconv.Itoa(limit)
	if cacheable {
		if page, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Report cache hit", "cache_key", key)
			return page, nil
		}
	}

	rows, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return ReportPage{}, fmt.Errorf("list expenses: %w", err)
	}

	filtered := applyQuery(rows, desc, q.Filters)
	page := paginate(filtered, desc.Offset, limit)

	if cacheable {
		s.cache.Set(key, page)
	}
	return page, nil
}

// GetOverview aggregates one month of the owner's expenses, subject to the
// same access resolution as row-level reads.
func (s *ReportService) GetOverview(ctx context.Context, viewerID, ownerID string, year, month int) (core.MonthOverview, error) {
	if ownerID == "" {
		ownerID = viewerID
	}
	resolution, err := s.access.Resolve(ctx, viewerID, ownerID)
	if err != nil {
		return core.MonthOverview{}, err
	}
	if !resolution.CanRead {
		return core.MonthOverview{}, fmt.Errorf("%w: viewer %s cannot read data of %s", ErrAccessDenied, viewerID, ownerID)
	}

	return s.store.ReadMonthOverview(ctx, ownerID, year, month)
}

// Invalidate drops every cached report page. Called after any expense write.
func (s *ReportService) Invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func applyQuery(rows []core.Expense, desc querykey.Descriptor, filters []filter.ColumnFilter) []core.Expense {
	search := strings.ToLower(desc.Search)
	flow := flowForReportType(desc.Type)
	rangeStart := rangeFloor(desc.Range, time.Now())

	out := make([]core.Expense, 0, len(rows))
	for _, e := range rows {
		if desc.FlowType != "" && string(e.Flow) != desc.FlowType {
			continue
		}
		if flow != "" && e.Flow != flow {
			continue
		}
		if desc.Category != "" && !strings.EqualFold(e.Category, desc.Category) {
			continue
		}
		if !withinDates(e, desc.StartDate, desc.EndDate) {
			continue
		}
		if rangeStart != "" && e.Date.Format("2006-01-02") < rangeStart {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		if len(filters) > 0 && !filter.Match(columnGetter(e), filters) {
			continue
		}
		out = append(out, e)
	}

	// Grouping is shape-preserving: rows sharing a column value become
	// contiguous, the stable sort keeps the newest-first order inside groups.
	if desc.GroupBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return columnGetter(out[i])(desc.GroupBy) < columnGetter(out[j])(desc.GroupBy)
		})
	}
	return out
}

// flowForReportType maps the report flavor dimension onto a flow constraint.
// The names match the layout report types; anything else means no constraint.
func flowForReportType(reportType string) core.FlowType {
	switch reportType {
	case "expenses":
		return core.FlowExpense
	case "incomes":
		return core.FlowIncome
	default:
		return ""
	}
}

// rangeFloor resolves a named relative window to its inclusive start day.
func rangeFloor(name string, now time.Time) string {
	switch name {
	case "week":
		return now.AddDate(0, 0, -7).Format("2006-01-02")
	case "month":
		return now.AddDate(0, -1, 0).Format("2006-01-02")
	case "year":
		return now.AddDate(-1, 0, 0).Format("2006-01-02")
	default:
		return ""
	}
}

// withinDates checks inclusive day bounds; absent bounds are open ends.
func withinDates(e core.Expense, start, end string) bool {
	day := e.Date.Format("2006-01-02")
	if start != "" && day < start {
		return false
	}
	if end != "" && day > end {
		return false
	}
	return true
}

// columnGetter projects an expense onto the filterable column namespace.
func columnGetter(e core.Expense) func(column string) string {
	return func(column string) string {
		switch column {
		case "date":
			return e.Date.Format("2006-01-02")
		case "description":
			return e.Description
		case "amount":
			return strconv.FormatFloat(float64(e.Amount.Cents)/100, 'f', 2, 64)
		case "category":
			return e.Category
		case "subcategory":
			return e.Subcategory
		case "flow":
			return string(e.Flow)
		default:
			return ""
		}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// paginate expects a clamped limit: the limit is part of the cache key, so
// it must be normalized before keying, not here.
func paginate(rows []core.Expense, offset, limit int) ReportPage {
	total := len(rows)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return ReportPage{
		Rows:   rows[offset:end],
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
}
