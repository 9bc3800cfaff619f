package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"markline/backend/internal/model"
	"markline/backend/internal/repository"
)

func setupExportService() (ExportService, *testRepos, *memStore) {
	repos := newTestRepos()
	store := newMemStore()
	svc := NewExportService(repos.toRepository(), store, zap.NewNop())
	return svc, repos, store
}

func TestExport_Aggregations(t *testing.T) {
	svc, repos, _ := setupExportService()
	ctx := context.Background()
	order := seedOrder(repos, []string{"set", "box"}, nil)

	_ = repos.aggregation.InsertBatch(ctx, &repository.AggregationBatch{
		OrderID:    order.ID,
		PassID:     2,
		SessionID:  10,
		ParentCode: setCode(1),
		ParentType: model.LevelSet,
		Children:   []string{productCode(1), productCode(2)},
		ChildType:  model.LevelProduct,
	})

	buf, filename, err := svc.ExportAggregations(ctx, order.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if filename == "" {
		t.Error("filename missing")
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("report is not a readable workbook: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue("Aggregations", "A1"); got != "Parent code" {
		t.Errorf("unexpected header cell: %q", got)
	}
	if got, _ := f.GetCellValue("Aggregations", "A2"); got != setCode(1) {
		t.Errorf("unexpected parent cell: %q", got)
	}
	if got, _ := f.GetCellValue("Aggregations", "C3"); got != productCode(2) {
		t.Errorf("unexpected child cell: %q", got)
	}
}

func TestExport_Aggregations_OrderNotFound(t *testing.T) {
	svc, _, _ := setupExportService()

	_, _, err := svc.ExportAggregations(context.Background(), 404)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestExport_Correction(t *testing.T) {
	svc, repos, store := setupExportService()
	ctx := context.Background()
	order := seedOrder(repos, []string{"set", "box"}, nil)

	_ = store.ReplaceSetsToCheck(ctx, order.ID, []string{setCode(1), setCode(2)})
	_ = store.ConfirmErrorSet(ctx, order.ID, 2, setCode(1))
	_ = store.AddScannedOK(ctx, order.ID, setCode(9))

	buf, _, err := svc.ExportCorrection(ctx, order.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("report is not a readable workbook: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue("Correction", "A2"); got != setCode(2) {
		t.Errorf("unexpected awaiting cell: %q", got)
	}
	if got, _ := f.GetCellValue("Correction", "B2"); got != setCode(9) {
		t.Errorf("unexpected ok cell: %q", got)
	}
	if got, _ := f.GetCellValue("Correction", "C2"); got != setCode(1) {
		t.Errorf("unexpected errored cell: %q", got)
	}
}
