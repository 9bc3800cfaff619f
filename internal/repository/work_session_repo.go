package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"markline/backend/internal/model"
)

// WorkSessionRepository is the work-session data-access interface.
type WorkSessionRepository interface {
	Create(ctx context.Context, session *model.WorkSession) error
	GetByID(ctx context.Context, id uint) (*model.WorkSession, error)
	Finish(ctx context.Context, id uint, endedAt time.Time) error
}

type workSessionRepo struct {
	db *gorm.DB
}

// NewWorkSessionRepo creates the GORM WorkSessionRepository.
func NewWorkSessionRepo(db *gorm.DB) WorkSessionRepository {
	return &workSessionRepo{db: db}
}

func (r *workSessionRepo) Create(ctx context.Context, session *model.WorkSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *workSessionRepo) GetByID(ctx context.Context, id uint) (*model.WorkSession, error) {
	var session model.WorkSession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *workSessionRepo) Finish(ctx context.Context, id uint, endedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.WorkSession{}).
		Where("id = ? AND ended_at IS NULL", id).
		Update("ended_at", endedAt).Error
}
