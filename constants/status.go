package constants

// ImportStatus tracks a file through the extraction state machine.
type ImportStatus string

// Stable values (logged and stored as these exact strings).
const (
	StatusReceived   ImportStatus = "RECEIVED"
	StatusValidated  ImportStatus = "VALIDATED"
	StatusOCRRun     ImportStatus = "OCR_RUN"
	StatusNormalized ImportStatus = "NORMALIZED"
	StatusDone       ImportStatus = "DONE"
	StatusFailed     ImportStatus = "FAILED"
)
