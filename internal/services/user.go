package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/requestdata"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	AddCoins(ctx context.Context, userID uuid.UUID, amount int) error
	BumpStreak(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	db    *gorm.DB
	log   *logger.Logger
	users repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:    db,
		log:   baseLog.With("service", "UserService"),
		users: userRepo,
	}
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context: %w", apperrors.ErrUnauthorized)
	}
	user, err := s.users.GetByID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", rd.UserID, apperrors.ErrNotFound)
	}
	return user, nil
}

func (s *userService) AddCoins(ctx context.Context, userID uuid.UUID, amount int) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	return s.users.UpdateFields(ctx, nil, userID, map[string]any{
		"coins": gorm.Expr("coins + ?", amount),
	})
}

func (s *userService) BumpStreak(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	return s.users.UpdateFields(ctx, nil, userID, map[string]any{
		"streak": gorm.Expr("streak + 1"),
	})
}
