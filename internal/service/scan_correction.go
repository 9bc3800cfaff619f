package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"markline/backend/internal/dto"
	"markline/backend/internal/model"
	"markline/backend/internal/state"
)

// processCorrectionToggle confirms a pending mode toggle. The scan must
// be the shift-senior's badge; anything else resets to IDLE without a
// lock.
func (s *scanService) processCorrectionToggle(ctx context.Context, caller ScanCaller, order *model.Order, senior *model.Pass, mdl *state.CodeModel, st *state.EmployeeState, code string) *dto.ScanResponse {
	exiting := st.Status == state.StatusAwaitingSeniorExit

	if code != senior.AccessToken {
		fresh := state.NewIdle(order.FirstLevel())
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, fresh); err != nil {
			return sessionUnavailable()
		}
		return errResp(dto.KindLoggerSenior, "shift-senior badge required", fresh)
	}

	if exiting {
		if err := s.store.SetOrderMode(ctx, order.ID, state.ModeOperational); err != nil {
			return sessionUnavailable()
		}
		_ = s.store.ClearPendingConfirm(ctx, caller.PassID)
		fresh := state.NewIdle(order.FirstLevel())
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, fresh); err != nil {
			return sessionUnavailable()
		}
		return okResp("correction mode off", fresh)
	}

	suspects, err := s.erroneousParents(ctx, order, mdl)
	if err != nil {
		return persistFailed(st)
	}
	if err := s.store.ReplaceSetsToCheck(ctx, order.ID, suspects); err != nil {
		return sessionUnavailable()
	}
	if err := s.store.SetOrderMode(ctx, order.ID, state.ModeCorrection); err != nil {
		return sessionUnavailable()
	}

	fresh := state.NewIdle(order.FirstLevel())
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, fresh); err != nil {
		return sessionUnavailable()
	}

	s.logger.Info("correction mode enabled",
		zap.Uint("order_id", order.ID),
		zap.Int("suspects", len(suspects)),
	)

	resp := okResp(fmt.Sprintf("correction mode on, %d sets to recheck", len(suspects)), fresh)
	resp.Correction = &state.CorrectionStats{Remaining: int64(len(suspects))}
	return resp
}

// erroneousParents computes the parent codes whose stored rows violate
// the validator, single-parentage, or the code-model consistency rules.
func (s *scanService) erroneousParents(ctx context.Context, order *model.Order, mdl *state.CodeModel) ([]string, error) {
	rows, err := s.repo.Aggregation.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	flagged := make(map[string]struct{})
	childOwners := make(map[string]map[string]struct{})

	for _, row := range rows {
		if ValidateCode(row.ChildCode) != nil || ValidateCode(row.ParentCode) != nil {
			flagged[row.ParentCode] = struct{}{}
		}
		if row.ParentType == model.LevelSet {
			if mdl.HasProductPrefix(row.ParentCode) {
				flagged[row.ParentCode] = struct{}{}
			}
			if mdl.HasSetPrefix(row.ChildCode) {
				flagged[row.ParentCode] = struct{}{}
			}
		}
		owners, ok := childOwners[row.ChildCode]
		if !ok {
			owners = make(map[string]struct{})
			childOwners[row.ChildCode] = owners
		}
		owners[row.ParentCode] = struct{}{}
	}

	// a child claimed by two parents taints every claiming parent
	for _, owners := range childOwners {
		if len(owners) > 1 {
			for parent := range owners {
				flagged[parent] = struct{}{}
			}
		}
	}

	suspects := make([]string, 0, len(flagged))
	for parent := range flagged {
		suspects = append(suspects, parent)
	}
	sort.Strings(suspects)
	return suspects, nil
}

// processCorrectionScan interprets a scan against the recheck set and
// the pass's pending-confirmation slot. No aggregation rows are written
// in correction mode; only the accounting sets move.
func (s *scanService) processCorrectionScan(ctx context.Context, caller ScanCaller, order *model.Order, st *state.EmployeeState, cmd, code string) *dto.ScanResponse {
	// the operator is never trapped inside correction mode
	if cmd == CmdLogout {
		return &dto.ScanResponse{
			Status:  dto.ScanStatusCommand,
			Command: dto.CommandLogout,
			Message: "logging out",
			Session: st,
		}
	}

	pending, err := s.store.GetPendingConfirm(ctx, caller.PassID)
	if err != nil {
		return sessionUnavailable()
	}

	if pending != "" {
		if code == pending {
			if err := s.store.ConfirmErrorSet(ctx, order.ID, caller.PassID, code); err != nil {
				return sessionUnavailable()
			}
			return s.withStats(ctx, order.ID, okResp("confirmed erroneous, set the package aside", st))
		}
		if err := s.store.ClearPendingConfirm(ctx, caller.PassID); err != nil {
			return sessionUnavailable()
		}
		return s.withStats(ctx, order.ID, errResp(dto.KindConfirmationMismatch, "confirmation mismatch", st))
	}

	suspect, err := s.store.IsSetToCheck(ctx, order.ID, code)
	if err != nil {
		return sessionUnavailable()
	}
	if suspect {
		if err := s.store.SetPendingConfirm(ctx, caller.PassID, code); err != nil {
			return sessionUnavailable()
		}
		return s.withStats(ctx, order.ID, okResp("flagged: set aside, rescan to confirm", st))
	}

	if err := s.store.AddScannedOK(ctx, order.ID, code); err != nil {
		return sessionUnavailable()
	}
	return s.withStats(ctx, order.ID, okResp("OK, not in error list", st))
}

// withStats attaches the live correction accounting to a response.
func (s *scanService) withStats(ctx context.Context, orderID uint, resp *dto.ScanResponse) *dto.ScanResponse {
	stats, err := s.store.CorrectionStats(ctx, orderID)
	if err != nil {
		s.logger.Warn("correction stats unavailable", zap.Uint("order_id", orderID), zap.Error(err))
		return resp
	}
	resp.Correction = stats
	return resp
}
