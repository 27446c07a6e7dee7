package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldViewerID   = "viewer_id"
	FieldTargetID   = "target_id"
	FieldOwnerID    = "owner_id"
	FieldReportType = "report_type"
	FieldSectionID  = "section_id"
	FieldCacheKey   = "cache_key"
	FieldExpenseID  = "expense_id"
	FieldCategory   = "category"
	FieldAmount     = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAccess    = "access"
	ComponentReport    = "report"
	ComponentLayout    = "layout"
	ComponentExpense   = "expense"
	ComponentStorage   = "storage"
	ComponentRemote    = "remote"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpList     = "list"
	OpToggle   = "toggle"
	OpReorder  = "reorder"
	OpReset    = "reset"
	OpSave     = "save"
	OpSync     = "sync"
	OpExport   = "export"
	OpResolve  = "resolve"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
