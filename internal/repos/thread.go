package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type ThreadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, thread *types.Thread) (*types.Thread, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Thread, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Thread, error)
	ListBySpace(ctx context.Context, tx *gorm.DB, spaceID uuid.UUID, limit int) ([]*types.Thread, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: baseLog.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(ctx context.Context, tx *gorm.DB, thread *types.Thread) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *threadRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var thread types.Thread
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&thread).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_message_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Thread
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *threadRepo) ListBySpace(ctx context.Context, tx *gorm.DB, spaceID uuid.UUID, limit int) ([]*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("space_id = ?", spaceID).
		Order("last_message_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Thread
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *threadRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Thread{}).
		Where("id = ?", id).
		Updates(fields).Error
}
