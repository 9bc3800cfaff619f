package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"markline/backend/internal/model"
)

// Batch-insert uniqueness violations, re-checked inside the insert
// transaction so two racing completions resolve to at most one winner.
var (
	ErrDuplicateChild  = errors.New("code already nested elsewhere in this order")
	ErrDuplicateParent = errors.New("package already registered in this order")
)

// AggregationBatch is one completed unit heading for durable storage.
type AggregationBatch struct {
	OrderID    uint
	PassID     uint
	SessionID  uint
	ParentCode string
	ParentType model.Level
	Children   []string
	ChildType  model.Level
}

// AggregationRepository is the durable aggregation-store interface.
type AggregationRepository interface {
	// InsertBatch writes every parent→child row of a completed unit
	// all-or-nothing, re-verifying child and parent uniqueness in the
	// same transaction.
	InsertBatch(ctx context.Context, batch *AggregationBatch) error
	ExistsAsChild(ctx context.Context, orderID uint, code string) (bool, error)
	ExistsAsParent(ctx context.Context, orderID uint, code string) (bool, error)
	// UndoLastByPass removes every row of the latest package the pass
	// registered for the order. Returns the removed parent code and row
	// count; ("", 0) when the pass has nothing to undo.
	UndoLastByPass(ctx context.Context, orderID, passID uint) (string, int64, error)
	// DeleteByParent removes one registered package by parent code
	// (admin undo). Returns the number of rows removed.
	DeleteByParent(ctx context.Context, orderID uint, parentCode string) (int64, error)
	ListByOrder(ctx context.Context, orderID uint) ([]model.Aggregation, error)
}

type aggregationRepo struct {
	db *gorm.DB
}

// NewAggregationRepo creates the GORM AggregationRepository.
func NewAggregationRepo(db *gorm.DB) AggregationRepository {
	return &aggregationRepo{db: db}
}

func (r *aggregationRepo) InsertBatch(ctx context.Context, batch *AggregationBatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// parent_code spans N rows, so it cannot carry a unique index;
		// an advisory lock keyed on (parent, order) serializes racing
		// completions of the same parent instead. Released at commit.
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtextextended(?, ?))",
			batch.ParentCode, int64(batch.OrderID),
		).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&model.Aggregation{}).
			Where("order_id = ? AND parent_code = ?", batch.OrderID, batch.ParentCode).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateParent
		}

		if err := tx.Model(&model.Aggregation{}).
			Where("order_id = ? AND child_code IN ?", batch.OrderID, batch.Children).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateChild
		}

		rows := make([]model.Aggregation, 0, len(batch.Children))
		for _, child := range batch.Children {
			rows = append(rows, model.Aggregation{
				OrderID:    batch.OrderID,
				PassID:     batch.PassID,
				SessionID:  batch.SessionID,
				ChildCode:  child,
				ChildType:  batch.ChildType,
				ParentCode: batch.ParentCode,
				ParentType: batch.ParentType,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			// the unique (order_id, child_code) index backs the race
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateChild
			}
			return err
		}
		return nil
	})
}

func (r *aggregationRepo) ExistsAsChild(ctx context.Context, orderID uint, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Aggregation{}).
		Where("order_id = ? AND child_code = ?", orderID, code).
		Count(&n).Error
	return n > 0, err
}

func (r *aggregationRepo) ExistsAsParent(ctx context.Context, orderID uint, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Aggregation{}).
		Where("order_id = ? AND parent_code = ?", orderID, code).
		Count(&n).Error
	return n > 0, err
}

func (r *aggregationRepo) UndoLastByPass(ctx context.Context, orderID, passID uint) (string, int64, error) {
	var parent string
	var removed int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last model.Aggregation
		err := tx.Where("order_id = ? AND pass_id = ?", orderID, passID).
			Order("id DESC").
			First(&last).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // nothing to undo
		}
		if err != nil {
			return err
		}

		res := tx.Where("order_id = ? AND parent_code = ?", orderID, last.ParentCode).
			Delete(&model.Aggregation{})
		if res.Error != nil {
			return res.Error
		}
		parent = last.ParentCode
		removed = res.RowsAffected
		return nil
	})

	return parent, removed, err
}

func (r *aggregationRepo) DeleteByParent(ctx context.Context, orderID uint, parentCode string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("order_id = ? AND parent_code = ?", orderID, parentCode).
		Delete(&model.Aggregation{})
	return res.RowsAffected, res.Error
}

func (r *aggregationRepo) ListByOrder(ctx context.Context, orderID uint) ([]model.Aggregation, error) {
	var rows []model.Aggregation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
