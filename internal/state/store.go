package state

import "context"

// Store is the fast keyed session store shared by all processor
// workers. Keys are partitioned by pass (employee state, session lock,
// pending confirmation) and by order (mode, trained model, correction
// sets, SSCC serial). A nil-state read means "no record"; transport
// failures are returned as errors and the processor surfaces them as
// hard errors with no state change.
type Store interface {
	// per-pass employee state
	GetEmployeeState(ctx context.Context, passID uint) (*EmployeeState, error)
	SaveEmployeeState(ctx context.Context, passID uint, st *EmployeeState) error
	ClearEmployeeState(ctx context.Context, passID uint) error

	// pass mutual exclusion (one live session per pass)
	AcquireSessionLock(ctx context.Context, passID uint) (bool, error)
	ReleaseSessionLock(ctx context.Context, passID uint) error

	// order-wide mode
	GetOrderMode(ctx context.Context, orderID uint) (Mode, error)
	SetOrderMode(ctx context.Context, orderID uint, mode Mode) error

	// trained code model
	GetCodeModel(ctx context.Context, orderID uint) (*CodeModel, error)
	SaveCodeModel(ctx context.Context, orderID uint, m *CodeModel) error

	// correction accounting (atomic set operations)
	ReplaceSetsToCheck(ctx context.Context, orderID uint, codes []string) error
	IsSetToCheck(ctx context.Context, orderID uint, code string) (bool, error)
	ConfirmErrorSet(ctx context.Context, orderID, passID uint, code string) error
	AddScannedOK(ctx context.Context, orderID uint, code string) error
	CorrectionStats(ctx context.Context, orderID uint) (*CorrectionStats, error)
	CorrectionSets(ctx context.Context, orderID uint) (remaining, ok, errored []string, err error)
	ClearCorrection(ctx context.Context, orderID uint) error

	// correction pending-confirmation slot (short TTL)
	SetPendingConfirm(ctx context.Context, passID uint, code string) error
	GetPendingConfirm(ctx context.Context, passID uint) (string, error)
	ClearPendingConfirm(ctx context.Context, passID uint) error

	// monotonic SSCC serial per order
	NextSSCCSerial(ctx context.Context, orderID uint) (int64, error)
}
