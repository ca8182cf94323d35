package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldExpenseID   = "expense_id"
	FieldExpenseDesc = "expense_description"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldMessageID   = "message_id"
	FieldLabelID     = "label_id"
	FieldQuery       = "query"
	FieldCandidates  = "candidates"
	FieldAdded       = "added"
	FieldSkipped     = "skipped"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentMail    = "mail"
	ComponentExtract = "extract"
	ComponentIngest  = "ingest"
	ComponentWorker  = "worker"
	ComponentAMQP    = "amqp"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpScan     = "scan"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpSearch   = "search"
	OpFetch    = "fetch"
	OpExtract  = "extract"
	OpMark     = "mark"
	OpSync     = "sync"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
