package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/requestdata"
)

func newTestAuthService(t *testing.T) (AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	svc := NewAuthService(
		db, log,
		repos.NewUserRepo(db, log),
		repos.NewPetRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret",
		15*time.Minute,
		24*time.Hour,
	)
	return svc, db
}

func TestRegisterLoginRoundtrip(t *testing.T) {
	svc, db := newTestAuthService(t)
	ctx := context.Background()

	user, access, refresh, err := svc.RegisterUser(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	// Registration also creates the starter pet.
	pet, err := repos.NewPetRepo(db, testLogger(t)).GetByUserID(ctx, nil, user.ID)
	require.NoError(t, err)
	require.NotNil(t, pet)
	assert.Equal(t, "Aivy", pet.Name)

	logged, _, _, err := svc.LoginUser(ctx, "Ada@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	authCtx, err := svc.SetContextFromToken(ctx, access)
	require.NoError(t, err)
	rd := requestdata.GetRequestData(authCtx)
	require.NotNil(t, rd)
	assert.Equal(t, user.ID, rd.UserID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, _, err := svc.RegisterUser(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.RegisterUser(ctx, "Eve", "ada@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, _, err := svc.RegisterUser(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.LoginUser(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, refresh, err := svc.RegisterUser(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, newRefresh, err := svc.RefreshUser(ctx, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, newRefresh)

	// The old token is dead after rotation.
	_, _, err = svc.RefreshUser(ctx, refresh)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t)
	_, err := svc.SetContextFromToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
