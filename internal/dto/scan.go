package dto

import "markline/backend/internal/state"

// Scan response statuses.
const (
	ScanStatusSuccess = "success"
	ScanStatusError   = "error"
	ScanStatusCommand = "command"
)

// Order readiness, reported to the operator UI.
const (
	OrderStatusNeedsTraining = "NEEDS_TRAINING"
	OrderStatusOperational   = "OPERATIONAL"
)

// Commands the ingress must act on.
const CommandLogout = "logout"

// Error kinds: the stable taxonomy the processor emits. The operator
// screen keys its exit-path cue off these.
const (
	KindInvalidCode          = "InvalidCode"
	KindNotTrained           = "NotTrained"
	KindOrderInactive        = "OrderInactive"
	KindSessionUnavailable   = "SessionUnavailable"
	KindPersistFailed        = "PersistFailed"
	KindDuplicateChild       = "DuplicateChild"
	KindDuplicateParent      = "DuplicateParent"
	KindNestedSetForbidden   = "NestedSetForbidden"
	KindSetClosedByProduct   = "SetClosedByProduct"
	KindCapacityExceeded     = "CapacityExceeded"
	KindDuplicateInUnit      = "DuplicateInUnit"
	KindConfirmationMismatch = "ConfirmationMismatch"
	KindSessionAlreadyActive = "SessionAlreadyActive"
	KindLoggerSenior         = "LoggerSenior"
	KindTrainingFailed       = "TrainingFailed"
	KindInternal             = "Internal"
)

// ScanRequest is one barcode scan from the operator console.
type ScanRequest struct {
	ScannedCode string `json:"scanned_code" binding:"required"`
}

// TrainedPrefixes announces the detected code families after a
// successful training run.
type TrainedPrefixes struct {
	ProductPrefixes []string `json:"product_prefixes"`
	SetPrefixes     []string `json:"set_prefixes"`
}

// SessionStateResponse is the read-only snapshot behind the state
// endpoint; the operator screen uses it to restore itself after a
// reload without consuming a scan.
type SessionStateResponse struct {
	Session     *state.EmployeeState   `json:"session"`
	OrderStatus string                 `json:"order_status"`
	Mode        string                 `json:"mode"`
	Correction  *state.CorrectionStats `json:"correction_stats,omitempty"`
}

// ScanResponse is the full result of one processor invocation. It is
// the only contract between the engine and the operator screen: the
// session snapshot drives the UI state, Kind selects the exit-path cue.
type ScanResponse struct {
	Status      string                 `json:"status"`
	Kind        string                 `json:"kind,omitempty"`
	Message     string                 `json:"message"`
	Session     *state.EmployeeState   `json:"session"`
	OrderStatus string                 `json:"order_status,omitempty"`
	Correction  *state.CorrectionStats `json:"correction_stats,omitempty"`
	Command     string                 `json:"command,omitempty"`
	Prefixes    *TrainedPrefixes       `json:"prefixes,omitempty"`
}
