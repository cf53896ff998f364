package log

// Field names shared across components.
const (
	FieldComponent = "component"
	FieldCompany   = "company_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldScope     = "scope"
	FieldVersion   = "version"
	FieldMonth     = "month"
	FieldYear      = "year"
	FieldBank      = "bank_id"
	FieldFile      = "file"
	FieldCount     = "count"
	FieldTable     = "table"
	FieldDuration  = "duration_ms"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentStore     = "store"
	ComponentCashFlow  = "cashflow"
	ComponentImport    = "import"
	ComponentClassify  = "classify"
	ComponentFutures   = "futures"
	ComponentRefresh   = "refresh"
	ComponentExport    = "export"
	ComponentDashboard = "dashboard"
	ComponentAMQP      = "amqp"
)

// Operation names.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpLoad   = "load"
	OpImport = "import"
	OpExport = "export"
)
