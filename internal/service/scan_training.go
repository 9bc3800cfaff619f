package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"markline/backend/internal/dto"
	"markline/backend/internal/model"
	"markline/backend/internal/repository"
	"markline/backend/internal/state"
)

// processTraining handles every scan of an untrained order. Only the
// shift-senior reaches here; everyone else was rejected at the guard.
func (s *scanService) processTraining(ctx context.Context, caller ScanCaller, order *model.Order, st *state.EmployeeState, cmd, code string) *dto.ScanResponse {
	if st.Status != state.StatusTraining || st.Training == nil {
		st = &state.EmployeeState{
			Status:   state.StatusTraining,
			Training: &state.TrainingProgress{},
		}
	}
	tr := st.Training

	// a full exemplar set may be waiting if a previous persist failed
	if len(tr.Samples) >= TrainingSamples {
		return s.finishTraining(ctx, caller, order, st)
	}

	switch cmd {
	case CmdCancelUnit:
		tr.Current = nil
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
			return sessionUnavailable()
		}
		return s.trainingResp(okResp("sample discarded", st))

	case CmdLogout:
		return &dto.ScanResponse{
			Status:      dto.ScanStatusCommand,
			Command:     dto.CommandLogout,
			Message:     "logging out",
			Session:     st,
			OrderStatus: dto.OrderStatusNeedsTraining,
		}

	case CmdCompleteUnit:
		if len(tr.Current) < 2 {
			return s.trainingResp(errResp(dto.KindInternal, "a sample needs items and a closing parent", st))
		}
		parent := tr.Current[len(tr.Current)-1]
		children := tr.Current[:len(tr.Current)-1]
		return s.pushSample(ctx, caller, order, st, parent, children)

	case CmdEnterCorrection, CmdExitCorrection:
		return s.trainingResp(errResp(dto.KindNotTrained, "not available during training", st))
	}

	// data code; training errors never lock
	if code == "" {
		return s.trainingResp(errResp(dto.KindInvalidCode, "empty scan", st))
	}
	if err := ValidateCode(code); err != nil {
		return s.trainingResp(errResp(dto.KindInvalidCode, err.Error(), st))
	}
	// capacity auto-complete: the code after a full sample is its parent
	if order.SetCapacity != nil && len(tr.Current) == *order.SetCapacity {
		children := append([]string(nil), tr.Current...)
		return s.pushSample(ctx, caller, order, st, code, children)
	}

	for _, item := range tr.Current {
		if item == code {
			return s.trainingResp(errResp(dto.KindDuplicateInUnit, "code already scanned in this sample", st))
		}
	}

	tr.Current = append(tr.Current, code)
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
		return sessionUnavailable()
	}
	msg := fmt.Sprintf("sample %d: item %d", len(tr.Samples)+1, len(tr.Current))
	return s.trainingResp(okResp(msg, st))
}

func (s *scanService) pushSample(ctx context.Context, caller ScanCaller, order *model.Order, st *state.EmployeeState, parent string, children []string) *dto.ScanResponse {
	tr := st.Training
	tr.Samples = append(tr.Samples, state.Sample{
		Parent:   parent,
		Children: append([]string(nil), children...),
	})
	tr.Current = nil

	if len(tr.Samples) < TrainingSamples {
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
			return sessionUnavailable()
		}
		msg := fmt.Sprintf("sample %d of %d collected", len(tr.Samples), TrainingSamples)
		return s.trainingResp(okResp(msg, st))
	}
	return s.finishTraining(ctx, caller, order, st)
}

// finishTraining runs the trainer over the three exemplars. On success
// the exemplars are persisted as real aggregations and the model is
// saved; on prefix overlap everything is discarded and collection
// starts over.
func (s *scanService) finishTraining(ctx context.Context, caller ScanCaller, order *model.Order, st *state.EmployeeState) *dto.ScanResponse {
	mdl := TrainModel(st.Training.Samples)
	if !mdl.LearningSuccessful {
		st.Training = &state.TrainingProgress{}
		if err := s.store.SaveEmployeeState(ctx, caller.PassID, st); err != nil {
			return sessionUnavailable()
		}
		return s.trainingResp(errResp(dto.KindTrainingFailed, "prefixes overlap, collect fresh samples", st))
	}

	for _, sample := range st.Training.Samples {
		batch := &repository.AggregationBatch{
			OrderID:    order.ID,
			PassID:     caller.PassID,
			SessionID:  caller.SessionID,
			ParentCode: sample.Parent,
			ParentType: model.LevelSet,
			Children:   sample.Children,
			ChildType:  model.LevelProduct,
		}
		err := s.repo.Aggregation.InsertBatch(ctx, batch)
		if err != nil &&
			!errors.Is(err, repository.ErrDuplicateParent) &&
			!errors.Is(err, repository.ErrDuplicateChild) {
			// keep the exemplars; the next scan retries, duplicates
			// from a partial persist are skipped above
			s.logger.Error("persist exemplar failed",
				zap.Uint("order_id", order.ID),
				zap.Error(err),
			)
			if saveErr := s.store.SaveEmployeeState(ctx, caller.PassID, st); saveErr != nil {
				return sessionUnavailable()
			}
			return s.trainingResp(persistFailed(st))
		}
	}

	if err := s.store.SaveCodeModel(ctx, order.ID, mdl); err != nil {
		return sessionUnavailable()
	}

	fresh := state.NewIdle(order.FirstLevel())
	if err := s.store.SaveEmployeeState(ctx, caller.PassID, fresh); err != nil {
		return sessionUnavailable()
	}
	return &dto.ScanResponse{
		Status:      dto.ScanStatusSuccess,
		Message:     "training complete",
		Session:     fresh,
		OrderStatus: dto.OrderStatusOperational,
		Prefixes: &dto.TrainedPrefixes{
			ProductPrefixes: mdl.ProductPrefixes,
			SetPrefixes:     mdl.SetPrefixes,
		},
	}
}

// trainingResp stamps the NEEDS_TRAINING flag on any in-training reply.
func (s *scanService) trainingResp(resp *dto.ScanResponse) *dto.ScanResponse {
	resp.OrderStatus = dto.OrderStatusNeedsTraining
	return resp
}
