package state

import "markline/backend/internal/model"

// Status is the per-pass scan-processor state.
type Status string

const (
	StatusIdle                  Status = "IDLE"
	StatusAggregatingSet        Status = "AGGREGATING_SET"
	StatusAggregatingBox        Status = "AGGREGATING_BOX"
	StatusAggregatingPallet     Status = "AGGREGATING_PALLET"
	StatusAggregatingContainer  Status = "AGGREGATING_CONTAINER"
	StatusTraining              Status = "TRAINING"
	StatusAwaitingSeniorCorrect Status = "AWAITING_SENIOR_FOR_CORRECTION"
	StatusAwaitingSeniorExit    Status = "AWAITING_SENIOR_FOR_EXIT_CORRECTION"
	StatusLocked                Status = "LOCKED"
)

// AggregatingStatus maps a unit level to its aggregating status.
func AggregatingStatus(l model.Level) Status {
	switch l {
	case model.LevelSet:
		return StatusAggregatingSet
	case model.LevelBox:
		return StatusAggregatingBox
	case model.LevelPallet:
		return StatusAggregatingPallet
	case model.LevelContainer:
		return StatusAggregatingContainer
	}
	return StatusIdle
}

// IsAggregating reports whether the status carries an in-progress unit.
func (s Status) IsAggregating() bool {
	switch s {
	case StatusAggregatingSet, StatusAggregatingBox, StatusAggregatingPallet, StatusAggregatingContainer:
		return true
	}
	return false
}

// Mode is the order-wide processing mode.
type Mode string

const (
	ModeOperational Mode = "OPERATIONAL"
	ModeCorrection  Mode = "CORRECTION"
)

// Unit is an in-progress package being assembled. Items accumulate in
// scan order; on completion the parent code is chosen per the
// completion rules and the rest become children.
type Unit struct {
	Level model.Level `json:"level"`
	Items []string    `json:"items"`
}

// Contains reports whether the code was already scanned into the unit.
func (u *Unit) Contains(code string) bool {
	for _, it := range u.Items {
		if it == code {
			return true
		}
	}
	return false
}

// Sample is one training exemplar collected by the shift-senior.
type Sample struct {
	Parent   string   `json:"parent"`
	Children []string `json:"children"`
}

// TrainingProgress is the TRAINING-state payload.
type TrainingProgress struct {
	Samples []Sample `json:"samples"`
	Current []string `json:"current"`
}

// EmployeeState is the full per-pass record kept in the session store.
// LOCKED preserves the prior status and unit so the shift-senior badge
// can restore them exactly.
type EmployeeState struct {
	Status     Status            `json:"status"`
	NextStep   model.Level       `json:"next_step,omitempty"`
	Unit       *Unit             `json:"unit,omitempty"`
	Training   *TrainingProgress `json:"training,omitempty"`
	PrevStatus Status            `json:"previous_status,omitempty"`
	PrevUnit   *Unit             `json:"previous_unit,omitempty"`
}

// NewIdle returns a fresh IDLE state cycling at the order's first level.
func NewIdle(firstLevel model.Level) *EmployeeState {
	return &EmployeeState{Status: StatusIdle, NextStep: firstLevel}
}

// Lock captures the current status and unit and transitions to LOCKED.
func (s *EmployeeState) Lock() {
	s.PrevStatus = s.Status
	s.PrevUnit = s.Unit
	s.Status = StatusLocked
	s.Unit = nil
}

// Unlock restores the state captured by Lock.
func (s *EmployeeState) Unlock() {
	s.Status = s.PrevStatus
	s.Unit = s.PrevUnit
	if s.Status == "" {
		s.Status = StatusIdle
	}
	s.PrevStatus = ""
	s.PrevUnit = nil
}

// CorrectionStats is the correction-mode accounting snapshot.
type CorrectionStats struct {
	Remaining    int64 `json:"remaining"`
	ScannedOK    int64 `json:"scanned_ok"`
	ScannedError int64 `json:"scanned_error"`
}
