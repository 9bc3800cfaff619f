package repository

import (
	"context"

	"gorm.io/gorm"

	"markline/backend/internal/model"
)

// PassRepository is the pass (badge) data-access interface.
type PassRepository interface {
	BatchCreate(ctx context.Context, passes []*model.Pass) error
	GetByID(ctx context.Context, id uint) (*model.Pass, error)
	GetByToken(ctx context.Context, token string) (*model.Pass, error)
	ListByOrder(ctx context.Context, orderID uint) ([]model.Pass, error)
	Senior(ctx context.Context, orderID uint) (*model.Pass, error)
}

type passRepo struct {
	db *gorm.DB
}

// NewPassRepo creates the GORM PassRepository.
func NewPassRepo(db *gorm.DB) PassRepository {
	return &passRepo{db: db}
}

func (r *passRepo) BatchCreate(ctx context.Context, passes []*model.Pass) error {
	return r.db.WithContext(ctx).Create(passes).Error
}

func (r *passRepo) GetByID(ctx context.Context, id uint) (*model.Pass, error) {
	var pass model.Pass
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (r *passRepo) GetByToken(ctx context.Context, token string) (*model.Pass, error) {
	var pass model.Pass
	err := r.db.WithContext(ctx).
		Where("access_token = ? AND active", token).
		First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (r *passRepo) ListByOrder(ctx context.Context, orderID uint) ([]model.Pass, error) {
	var passes []model.Pass
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&passes).Error
	if err != nil {
		return nil, err
	}
	return passes, nil
}

// Senior returns the shift-senior pass: the lowest id under the order.
func (r *passRepo) Senior(ctx context.Context, orderID uint) (*model.Pass, error) {
	var pass model.Pass
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND active", orderID).
		Order("id ASC").
		First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}
