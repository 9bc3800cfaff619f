package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"markline/backend/internal/dto"
	"markline/backend/internal/model"
	"markline/backend/internal/repository"
	"markline/backend/internal/state"
)

// ScanCaller identifies the work session invoking the processor.
type ScanCaller struct {
	SessionID uint
	PassID    uint
	OrderID   uint
}

// ScanService is the manual-aggregation scan processor. One invocation
// consumes one scan and returns a structured response; it never returns
// an error across the ingress boundary. Invocations are serialized per
// pass so every scan observes the state its predecessor wrote.
type ScanService interface {
	Scan(ctx context.Context, caller ScanCaller, rawCode string) *dto.ScanResponse
	State(ctx context.Context, caller ScanCaller) (*dto.SessionStateResponse, error)
}

type scanService struct {
	repo   *repository.Repository
	store  state.Store
	logger *zap.Logger
	locks  passLocks
}

// NewScanService creates the scan processor.
func NewScanService(repo *repository.Repository, store state.Store, logger *zap.Logger) ScanService {
	return &scanService{repo: repo, store: store, logger: logger}
}

// passLocks serializes processing per pass id.
type passLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func (p *passLocks) get(passID uint) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[uint]*sync.Mutex)
	}
	l, ok := p.m[passID]
	if !ok {
		l = &sync.Mutex{}
		p.m[passID] = l
	}
	return l
}

// ── response shaping ──

func okResp(message string, st *state.EmployeeState) *dto.ScanResponse {
	return &dto.ScanResponse{Status: dto.ScanStatusSuccess, Message: message, Session: st}
}

func errResp(kind, message string, st *state.EmployeeState) *dto.ScanResponse {
	return &dto.ScanResponse{Status: dto.ScanStatusError, Kind: kind, Message: message, Session: st}
}

// sessionUnavailable is the hard-error response for a failed session
// store round-trip: no state change, session null.
func sessionUnavailable() *dto.ScanResponse {
	return &dto.ScanResponse{
		Status:  dto.ScanStatusError,
		Kind:    dto.KindSessionUnavailable,
		Message: "session store unavailable",
		Session: nil,
	}
}

// persistFailed preserves the in-progress state so the operator can
// retry the same scan.
func persistFailed(st *state.EmployeeState) *dto.ScanResponse {
	return errResp(dto.KindPersistFailed, "saving failed, rescan to retry", st)
}

// Scan processes one scan for the caller's pass.
func (s *scanService) Scan(ctx context.Context, caller ScanCaller, rawCode string) (resp *dto.ScanResponse) {
	lock := s.locks.get(caller.PassID)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan processor panic",
				zap.Uint("pass_id", caller.PassID),
				zap.Any("panic", r),
			)
			resp = errResp(dto.KindInternal, fmt.Sprintf("internal error: %v", r), nil)
		}
	}()

	return s.process(ctx, caller, rawCode)
}

// State is the read-only snapshot behind the session-state endpoint.
// It never mutates anything, so it runs outside the per-pass lock.
func (s *scanService) State(ctx context.Context, caller ScanCaller) (*dto.SessionStateResponse, error) {
	order, err := s.repo.Order.GetByID(ctx, caller.OrderID)
	if err != nil {
		return nil, err
	}

	st, err := s.store.GetEmployeeState(ctx, caller.PassID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = state.NewIdle(order.FirstLevel())
	}

	mdl, err := s.store.GetCodeModel(ctx, caller.OrderID)
	if err != nil {
		return nil, err
	}
	orderStatus := dto.OrderStatusNeedsTraining
	if mdl != nil && mdl.LearningSuccessful {
		orderStatus = dto.OrderStatusOperational
	}

	mode, err := s.store.GetOrderMode(ctx, caller.OrderID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SessionStateResponse{
		Session:     st,
		OrderStatus: orderStatus,
		Mode:        string(mode),
	}
	if mode == state.ModeCorrection {
		if stats, err := s.store.CorrectionStats(ctx, caller.OrderID); err == nil {
			resp.Correction = stats
		}
	}
	return resp, nil
}

func (s *scanService) process(ctx context.Context, caller ScanCaller, rawCode string) *dto.ScanResponse {
	// normalization: commands by exact equality on the raw scan, data
	// codes trimmed only. A padded command token is a data code.
	var cmd string
	if IsCommand(rawCode) {
		cmd = rawCode
	}
	code := strings.TrimSpace(rawCode)

	order, err := s.repo.Order.GetByID(ctx, caller.OrderID)
	if err != nil {
		s.logger.Error("load order failed", zap.Uint("order_id", caller.OrderID), zap.Error(err))
		return errResp(dto.KindInternal, "order lookup failed", nil)
	}

	// guard 1: order must be active
	if order.Status != model.OrderStatusActive {
		return errResp(dto.KindOrderInactive, "order not active", nil)
	}

	senior, err := s.repo.Pass.Senior(ctx, order.ID)
	if err != nil {
		s.logger.Error("load senior pass failed", zap.Uint("order_id", order.ID), zap.Error(err))
		return errResp(dto.KindInternal, "pass lookup failed", nil)
	}
	isSenior := senior.ID == caller.PassID

	mdl, err := s.store.GetCodeModel(ctx, order.ID)
	if err != nil {
		return sessionUnavailable()
	}
	trained := mdl != nil && mdl.LearningSuccessful

	st, err := s.store.GetEmployeeState(ctx, caller.PassID)
	if err != nil {
		return sessionUnavailable()
	}
	if st == nil {
		st = state.NewIdle(order.FirstLevel())
	}

	// guard 2: untrained order accepts training scans from the senior only
	if !trained {
		if !isSenior {
			resp := errResp(dto.KindNotTrained, "system not trained", st)
			resp.OrderStatus = dto.OrderStatusNeedsTraining
			return resp
		}
		return s.processTraining(ctx, caller, order, st, cmd, code)
	}

	// guard 3: locked state accepts only the unlock flow
	if st.Status == state.StatusLocked {
		return s.processUnlock(ctx, caller, senior, st, code)
	}

	// guard 4: correction-mode entry request
	if cmd == CmdEnterCorrection {
		st.Status = state.StatusAwaitingSeniorCorrect
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
			return sessionUnavailable()
		}
		return okResp("scan the shift-senior badge to enable correction mode", st)
	}

	mode, err := s.store.GetOrderMode(ctx, order.ID)
	if err != nil {
		return sessionUnavailable()
	}

	// guard 5: correction-mode exit request
	if cmd == CmdExitCorrection && mode == state.ModeCorrection {
		st.Status = state.StatusAwaitingSeniorExit
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
			return sessionUnavailable()
		}
		return okResp("scan the shift-senior badge to leave correction mode", st)
	}

	// guard 6: confirmation of a pending mode toggle
	if st.Status == state.StatusAwaitingSeniorCorrect || st.Status == state.StatusAwaitingSeniorExit {
		return s.processCorrectionToggle(ctx, caller, order, senior, mdl, st, code)
	}

	// guard 7: order in correction mode
	if mode == state.ModeCorrection {
		return s.processCorrectionScan(ctx, caller, order, st, cmd, code)
	}

	// guard 8: logout command; ingress terminates the session
	if cmd == CmdLogout {
		return &dto.ScanResponse{
			Status:  dto.ScanStatusCommand,
			Command: dto.CommandLogout,
			Message: "logging out",
			Session: st,
		}
	}

	// guard 9: cancel discards the unit, or undoes the last saved one
	if cmd == CmdCancelUnit {
		if st.Status != state.StatusIdle {
			fresh := state.NewIdle(order.FirstLevel())
			if err := s.store.SaveEmployeeState(ctx, caller.PassID, fresh); err != nil {
				return sessionUnavailable()
			}
			return okResp("unit discarded", fresh)
		}
		return s.undoLast(ctx, caller, order, st)
	}

	// guard 10: explicit completion
	if cmd == CmdCompleteUnit {
		return s.completeByCommand(ctx, caller, order, mdl, st)
	}

	// guard 11: a data code
	if code == "" {
		return errResp(dto.KindInvalidCode, "empty scan", st)
	}
	if err := ValidateCode(code); err != nil {
		return s.lockState(ctx, caller, st, dto.KindInvalidCode, err.Error())
	}

	return s.processDataCode(ctx, caller, order, mdl, st, code)
}

// lockState captures the current state, transitions to LOCKED and
// persists the record. Only the shift-senior badge exits LOCKED.
func (s *scanService) lockState(ctx context.Context, caller ScanCaller, st *state.EmployeeState, kind, message string) *dto.ScanResponse {
	st.Lock()
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
		return sessionUnavailable()
	}
	return errResp(kind, message+"; call the shift-senior to unlock", st)
}

func (s *scanService) processUnlock(ctx context.Context, caller ScanCaller, senior *model.Pass, st *state.EmployeeState, code string) *dto.ScanResponse {
	if code != senior.AccessToken {
		// stay locked without deepening the lock
		return errResp(dto.KindLoggerSenior, "scan the shift-senior badge to unlock", st)
	}
	st.Unlock()
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
		return sessionUnavailable()
	}
	return okResp("unlocked, last operation discarded", st)
}

// ── unit building ──

func (s *scanService) processDataCode(ctx context.Context, caller ScanCaller, order *model.Order, mdl *state.CodeModel, st *state.EmployeeState, code string) *dto.ScanResponse {
	if st.Status == state.StatusIdle {
		return s.startUnit(ctx, caller, order, mdl, st, code)
	}
	if !st.Status.IsAggregating() || st.Unit == nil {
		s.logger.Warn("data code in unexpected state",
			zap.Uint("pass_id", caller.PassID),
			zap.String("status", string(st.Status)),
		)
		return errResp(dto.KindInternal, "unexpected state for a data code", st)
	}

	unit := st.Unit
	level := unit.Level

	// (a) an SSCC closes any transport-level unit
	if level != model.LevelSet && IsSSCC(code) {
		return s.completeUnit(ctx, caller, order, mdl, st, code, unit.Items)
	}

	// (b) a full set is closed by the next code
	if level == model.LevelSet && order.SetCapacity != nil && len(unit.Items) == *order.SetCapacity {
		return s.completeUnit(ctx, caller, order, mdl, st, code, unit.Items)
	}

	// (c) a set-family code cannot nest inside a set
	if level == model.LevelSet && mdl.HasSetPrefix(code) {
		return s.lockState(ctx, caller, st, dto.KindNestedSetForbidden, "set code cannot nest inside a set")
	}

	// (d) capacity overflow
	if level == model.LevelSet && order.SetCapacity != nil && len(unit.Items) > *order.SetCapacity {
		return s.lockState(ctx, caller, st, dto.KindCapacityExceeded, "set capacity exceeded")
	}

	// (e) duplicate within the unit
	if unit.Contains(code) {
		return s.lockState(ctx, caller, st, dto.KindDuplicateInUnit, "code already scanned in this unit")
	}

	// (f) global child uniqueness
	nested, err := s.repo.Aggregation.ExistsAsChild(ctx, order.ID, code)
	if err != nil {
		return persistFailed(st)
	}
	if nested {
		return s.lockState(ctx, caller, st, dto.KindDuplicateChild, "code already nested elsewhere")
	}

	// (g) accept
	unit.Items = append(unit.Items, code)
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
		return sessionUnavailable()
	}
	return okResp(fmt.Sprintf("item %d accepted", len(unit.Items)), st)
}

// startLevel classifies the first scan of a unit: a set-family code
// opens a box, an SSCC opens the order's transport level, anything else
// opens the order's first level.
func startLevel(order *model.Order, mdl *state.CodeModel, code string) model.Level {
	if mdl.HasSetPrefix(code) && order.HasLevel(model.LevelBox) {
		return model.LevelBox
	}
	if IsSSCC(code) {
		if order.HasLevel(model.LevelPallet) {
			return model.LevelPallet
		}
		if order.HasLevel(model.LevelContainer) {
			return model.LevelContainer
		}
	}
	return order.FirstLevel()
}

func (s *scanService) startUnit(ctx context.Context, caller ScanCaller, order *model.Order, mdl *state.CodeModel, st *state.EmployeeState, code string) *dto.ScanResponse {
	level := startLevel(order, mdl, code)

	if level == model.LevelSet && mdl.HasSetPrefix(code) {
		return s.lockState(ctx, caller, st, dto.KindNestedSetForbidden, "set code cannot nest inside a set")
	}

	nested, err := s.repo.Aggregation.ExistsAsChild(ctx, order.ID, code)
	if err != nil {
		return persistFailed(st)
	}
	if nested {
		return s.lockState(ctx, caller, st, dto.KindDuplicateChild, "code already nested elsewhere")
	}

	st.Status = state.AggregatingStatus(level)
	st.Unit = &state.Unit{Level: level, Items: []string{code}}
	st.NextStep = ""
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
		return sessionUnavailable()
	}
	return okResp(fmt.Sprintf("new %s started", level), st)
}

// ── completion ──

func (s *scanService) completeByCommand(ctx context.Context, caller ScanCaller, order *model.Order, mdl *state.CodeModel, st *state.EmployeeState) *dto.ScanResponse {
	if !st.Status.IsAggregating() || st.Unit == nil || len(st.Unit.Items) < 2 {
		return errResp(dto.KindInternal, "nothing to complete", st)
	}
	items := st.Unit.Items
	parent := items[len(items)-1]
	children := items[:len(items)-1]
	return s.completeUnit(ctx, caller, order, mdl, st, parent, children)
}

func (s *scanService) completeUnit(ctx context.Context, caller ScanCaller, order *model.Order, mdl *state.CodeModel, st *state.EmployeeState, parent string, children []string) *dto.ScanResponse {
	if len(children) == 0 {
		return errResp(dto.KindInternal, "nothing to complete", st)
	}
	level := st.Unit.Level

	// a set cannot be closed by a product-family code
	if level == model.LevelSet && mdl.HasProductPrefix(parent) {
		return s.lockState(ctx, caller, st, dto.KindSetClosedByProduct, "set closed by a product code")
	}

	registered, err := s.repo.Aggregation.ExistsAsParent(ctx, order.ID, parent)
	if err != nil {
		return persistFailed(st)
	}
	if registered {
		return s.lockState(ctx, caller, st, dto.KindDuplicateParent, "package already registered")
	}

	batch := &repository.AggregationBatch{
		OrderID:    order.ID,
		PassID:     caller.PassID,
		SessionID:  caller.SessionID,
		ParentCode: parent,
		ParentType: level,
		Children:   children,
		ChildType:  level.Child(),
	}
	if err := s.repo.Aggregation.InsertBatch(ctx, batch); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateParent):
			return s.lockState(ctx, caller, st, dto.KindDuplicateParent, "package already registered")
		case errors.Is(err, repository.ErrDuplicateChild):
			return s.lockState(ctx, caller, st, dto.KindDuplicateChild, "code already nested elsewhere")
		default:
			s.logger.Error("insert batch failed",
				zap.Uint("order_id", order.ID),
				zap.String("parent", parent),
				zap.Error(err),
			)
			return persistFailed(st)
		}
	}

	fresh := state.NewIdle(order.FirstLevel())
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, fresh); err != nil {
		// rows are committed; a rescan hits DuplicateParent and undo recovers
		return sessionUnavailable()
	}
	return okResp(fmt.Sprintf("%s saved: %d items", level, len(children)), fresh)
}

func (s *scanService) undoLast(ctx context.Context, caller ScanCaller, order *model.Order, st *state.EmployeeState) *dto.ScanResponse {
	parent, removed, err := s.repo.Aggregation.UndoLastByPass(ctx, order.ID, caller.PassID)
	if err != nil {
		return persistFailed(st)
	}
	if parent == "" {
		return okResp("nothing to undo", st)
	}
	return okResp(fmt.Sprintf("package %s undone, %d aggregations removed", parent, removed), st)
}
