package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/types"
)

// CheckpointRepo is the raw append-only row access for the checkpoint log.
// No update or delete methods exist on purpose; retention is a storage
// policy, not part of this contract.
type CheckpointRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cp *types.Checkpoint) (*types.Checkpoint, error)
	LatestByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.Checkpoint, error)
	ListByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*types.Checkpoint, error)
}

type checkpointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCheckpointRepo(db *gorm.DB, baseLog *logger.Logger) CheckpointRepo {
	return &checkpointRepo{db: db, log: baseLog.With("repo", "CheckpointRepo")}
}

func (r *checkpointRepo) Create(ctx context.Context, tx *gorm.DB, cp *types.Checkpoint) (*types.Checkpoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(cp).Error; err != nil {
		return nil, err
	}
	return cp, nil
}

func (r *checkpointRepo) LatestByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.Checkpoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cp types.Checkpoint
	err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("seq DESC").
		Limit(1).
		First(&cp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cp, nil
}

func (r *checkpointRepo) ListByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*types.Checkpoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("seq DESC")
	if beforeSeq != nil {
		q = q.Where("seq < ?", *beforeSeq)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Checkpoint
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
