package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type SpaceService interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*types.Space, error)
	Get(ctx context.Context, userID, spaceID uuid.UUID) (*types.Space, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Space, error)
}

type spaceService struct {
	db     *gorm.DB
	log    *logger.Logger
	spaces repos.SpaceRepo
}

func NewSpaceService(db *gorm.DB, baseLog *logger.Logger, spaceRepo repos.SpaceRepo) SpaceService {
	return &spaceService{
		db:     db,
		log:    baseLog.With("service", "SpaceService"),
		spaces: spaceRepo,
	}
}

func (s *spaceService) Create(ctx context.Context, userID uuid.UUID, name string) (*types.Space, error) {
	name = strings.TrimSpace(name)
	if userID == uuid.Nil || name == "" {
		return nil, fmt.Errorf("missing user id or space name: %w", apperrors.ErrInvalidArgument)
	}
	space := &types.Space{UserID: userID, Name: name}
	if _, err := s.spaces.Create(ctx, nil, space); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("space %q already exists: %w", name, apperrors.ErrInvalidArgument)
		}
		return nil, err
	}
	return space, nil
}

func (s *spaceService) Get(ctx context.Context, userID, spaceID uuid.UUID) (*types.Space, error) {
	space, err := s.spaces.GetByID(ctx, nil, spaceID)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, fmt.Errorf("space %s: %w", spaceID, apperrors.ErrNotFound)
	}
	if space.UserID != userID {
		return nil, fmt.Errorf("space %s does not belong to user: %w", spaceID, apperrors.ErrUnauthorized)
	}
	return space, nil
}

func (s *spaceService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Space, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	return s.spaces.ListByUser(ctx, nil, userID)
}
