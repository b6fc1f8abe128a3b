package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type PetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pet *types.Pet) (*types.Pet, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Pet, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	// DecayAll drops happiness and energy by the given amounts across all
	// pets, clamped at zero. Used by the periodic decay job.
	DecayAll(ctx context.Context, tx *gorm.DB, happiness, energy int) error
}

type petRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPetRepo(db *gorm.DB, baseLog *logger.Logger) PetRepo {
	return &petRepo{db: db, log: baseLog.With("repo", "PetRepo")}
}

func (r *petRepo) Create(ctx context.Context, tx *gorm.DB, pet *types.Pet) (*types.Pet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(pet).Error; err != nil {
		return nil, err
	}
	return pet, nil
}

func (r *petRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Pet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var pet types.Pet
	err := transaction.WithContext(ctx).Where("user_id = ?", userID).First(&pet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &pet, nil
}

func (r *petRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Pet{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *petRepo) DecayAll(ctx context.Context, tx *gorm.DB, happiness, energy int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Pet{}).
		Where("deleted_at IS NULL").
		Updates(map[string]any{
			"happiness_level": gorm.Expr("CASE WHEN happiness_level > ? THEN happiness_level - ? ELSE 0 END", happiness, happiness),
			"energy_level":    gorm.Expr("CASE WHEN energy_level > ? THEN energy_level - ? ELSE 0 END", energy, energy),
		}).Error
}
