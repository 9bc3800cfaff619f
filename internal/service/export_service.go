package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"markline/backend/internal/repository"
	"markline/backend/internal/state"
)

// ExportService renders Excel reports for the admin console: the full
// aggregation tree of an order and the correction-mode accounting.
// Buffers are returned with a suggested filename; the handler sets the
// download headers.
type ExportService interface {
	ExportAggregations(ctx context.Context, orderID uint) (*bytes.Buffer, string, error)
	ExportCorrection(ctx context.Context, orderID uint) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	store  state.Store
	logger *zap.Logger
}

// NewExportService creates the ExportService.
func NewExportService(repo *repository.Repository, store state.Store, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, store: store, logger: logger}
}

func (s *exportService) ExportAggregations(ctx context.Context, orderID uint) (*bytes.Buffer, string, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		return nil, "", err
	}
	rows, err := s.repo.Aggregation.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	passes, err := s.repo.Pass.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	passNames := make(map[uint]string, len(passes))
	for _, p := range passes {
		label := fmt.Sprintf("pass %d", p.ID)
		if p.Name != nil && *p.Name != "" {
			label = *p.Name
		}
		passNames[p.ID] = label
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Aggregations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []string{"Parent code", "Parent type", "Child code", "Child type", "Pass", "Session", "Created"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		values := []interface{}{
			row.ParentCode,
			string(row.ParentType),
			row.ChildCode,
			string(row.ChildType),
			passNames[row.PassID],
			row.SessionID,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("write aggregation report failed", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, "", err
	}
	return buf, fmt.Sprintf("order_%d_aggregations.xlsx", orderID), nil
}

func (s *exportService) ExportCorrection(ctx context.Context, orderID uint) (*bytes.Buffer, string, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		return nil, "", err
	}
	remaining, ok, errored, err := s.store.CorrectionSets(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Correction"
	f.SetSheetName(f.GetSheetName(0), sheet)

	columns := []struct {
		title string
		codes []string
	}{
		{"Awaiting recheck", remaining},
		{"Rechecked OK", ok},
		{"Confirmed erroneous", errored},
	}
	for col, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, c.title)
		for row, code := range c.codes {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, code)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("write correction report failed", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, "", err
	}
	return buf, fmt.Sprintf("order_%d_correction.xlsx", orderID), nil
}
