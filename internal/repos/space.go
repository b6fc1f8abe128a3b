package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type SpaceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, space *types.Space) (*types.Space, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Space, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Space, error)
}

type spaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpaceRepo(db *gorm.DB, baseLog *logger.Logger) SpaceRepo {
	return &spaceRepo{db: db, log: baseLog.With("repo", "SpaceRepo")}
}

func (r *spaceRepo) Create(ctx context.Context, tx *gorm.DB, space *types.Space) (*types.Space, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if space.ID == uuid.Nil {
		space.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(space).Error; err != nil {
		return nil, err
	}
	return space, nil
}

func (r *spaceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Space, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var space types.Space
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&space).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &space, nil
}

func (r *spaceRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Space, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Space
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
