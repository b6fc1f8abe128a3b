package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

const (
	petFeedCost      = 5
	petFeedEnergy    = 20
	petPlayCost      = 3
	petPlayHappiness = 15
	petStatMax       = 100

	petDecayHappiness = 2
	petDecayEnergy    = 3
)

type PetService interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.Pet, error)
	Feed(ctx context.Context, userID uuid.UUID) (*types.Pet, error)
	Play(ctx context.Context, userID uuid.UUID) (*types.Pet, error)
	Decay(ctx context.Context) error
}

type petService struct {
	db    *gorm.DB
	log   *logger.Logger
	pets  repos.PetRepo
	users repos.UserRepo
}

func NewPetService(db *gorm.DB, baseLog *logger.Logger, petRepo repos.PetRepo, userRepo repos.UserRepo) PetService {
	return &petService{
		db:    db,
		log:   baseLog.With("service", "PetService"),
		pets:  petRepo,
		users: userRepo,
	}
}

func (s *petService) Get(ctx context.Context, userID uuid.UUID) (*types.Pet, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	pet, err := s.pets.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, fmt.Errorf("pet for user %s: %w", userID, apperrors.ErrNotFound)
	}
	return pet, nil
}

func (s *petService) Feed(ctx context.Context, userID uuid.UUID) (*types.Pet, error) {
	return s.spendOnPet(ctx, userID, petFeedCost, func(pet *types.Pet) {
		pet.EnergyLevel = clampStat(pet.EnergyLevel + petFeedEnergy)
	})
}

func (s *petService) Play(ctx context.Context, userID uuid.UUID) (*types.Pet, error) {
	return s.spendOnPet(ctx, userID, petPlayCost, func(pet *types.Pet) {
		pet.HappinessLevel = clampStat(pet.HappinessLevel + petPlayHappiness)
	})
}

func (s *petService) spendOnPet(ctx context.Context, userID uuid.UUID, cost int, apply func(*types.Pet)) (*types.Pet, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	var pet *types.Pet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		}
		if user.Coins < cost {
			return fmt.Errorf("need %d coins, have %d: %w", cost, user.Coins, apperrors.ErrInvalidArgument)
		}
		pet, err = s.pets.GetByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if pet == nil {
			return fmt.Errorf("pet for user %s: %w", userID, apperrors.ErrNotFound)
		}
		apply(pet)
		if err := s.users.UpdateFields(ctx, tx, userID, map[string]any{
			"coins": gorm.Expr("coins - ?", cost),
		}); err != nil {
			return err
		}
		return s.pets.UpdateFields(ctx, tx, pet.ID, map[string]any{
			"happiness_level": pet.HappinessLevel,
			"energy_level":    pet.EnergyLevel,
		})
	})
	if err != nil {
		return nil, err
	}
	return pet, nil
}

// Decay is invoked by the periodic job. It lowers every pet's stats by a
// fixed step, never below zero.
func (s *petService) Decay(ctx context.Context) error {
	return s.pets.DecayAll(ctx, nil, petDecayHappiness, petDecayEnergy)
}

func clampStat(v int) int {
	if v > petStatMax {
		return petStatMax
	}
	if v < 0 {
		return 0
	}
	return v
}
