package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type petFixture struct {
	svc   PetService
	users repos.UserRepo
	pets  repos.PetRepo
}

func newPetFixture(t *testing.T) *petFixture {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	users := repos.NewUserRepo(db, log)
	pets := repos.NewPetRepo(db, log)
	return &petFixture{
		svc:   NewPetService(db, log, pets, users),
		users: users,
		pets:  pets,
	}
}

func (f *petFixture) seedUser(t *testing.T, coins int) uuid.UUID {
	t.Helper()
	user := &types.User{
		Name:     "Ada",
		Email:    uuid.New().String() + "@example.com",
		Password: "irrelevant",
		Coins:    coins,
	}
	_, err := f.users.Create(context.Background(), nil, user)
	require.NoError(t, err)
	_, err = f.pets.Create(context.Background(), nil, &types.Pet{
		UserID:         user.ID,
		Name:           "Aivy",
		Color:          "blue",
		HappinessLevel: 40,
		EnergyLevel:    50,
	})
	require.NoError(t, err)
	return user.ID
}

func TestFeedSpendsCoinsAndRaisesEnergy(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()
	userID := f.seedUser(t, 10)

	pet, err := f.svc.Feed(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 70, pet.EnergyLevel)

	user, err := f.users.GetByID(ctx, nil, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, user.Coins)
}

func TestFeedInsufficientCoins(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()
	userID := f.seedUser(t, 2)

	_, err := f.svc.Feed(ctx, userID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	// Nothing was spent or changed.
	user, err := f.users.GetByID(ctx, nil, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Coins)
	pet, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50, pet.EnergyLevel)
}

func TestPlayClampsHappiness(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()
	userID := f.seedUser(t, 100)

	var pet *types.Pet
	var err error
	for i := 0; i < 5; i++ {
		pet, err = f.svc.Play(ctx, userID)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, pet.HappinessLevel)
}

func TestDecayLowersStatsNotBelowZero(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()
	userID := f.seedUser(t, 0)

	for i := 0; i < 30; i++ {
		require.NoError(t, f.svc.Decay(ctx))
	}

	pet, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, pet.HappinessLevel)
	assert.Equal(t, 0, pet.EnergyLevel)
}

func TestGetPetNotFound(t *testing.T) {
	f := newPetFixture(t)
	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
