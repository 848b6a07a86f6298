package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldUserID       = "user_id"
	FieldMonth        = "month"
	FieldYear         = "year"
	FieldMonthKey     = "month_key"
	FieldBalanceCents = "balance_cents"
	FieldIncomeCents  = "income_cents"
	FieldExpenseCents = "expense_cents"
	FieldTxCount      = "transactions_count"
	FieldFolderID     = "folder_id"
	FieldCreated      = "created"
	FieldClosed       = "closed"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentBalance  = "balance"
	ComponentFolder   = "folder"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentRollover = "rollover"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
)
