package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"manpower/internal/model"
	"manpower/internal/testutil"
)

func seedUsers(t *testing.T, repo UserRepository) map[string]*model.User {
	t.Helper()
	now := time.Now().UTC()
	users := map[string]*model.User{
		"zoe":   {Username: "zoe", Name: "Zoe", PasswordHash: "x", Role: model.RoleEngineer, CreatedAt: now.Add(-3 * time.Hour)},
		"adam":  {Username: "adam", Name: "Adam", PasswordHash: "x", Role: model.RoleEngineer, CreatedAt: now.Add(-2 * time.Hour)},
		"maria": {Username: "maria", Name: "Maria", PasswordHash: "x", Role: model.RoleManager, CreatedAt: now.Add(-time.Hour)},
	}
	for _, u := range users {
		require.NoError(t, repo.Create(context.Background(), u))
	}
	return users
}

func TestUserRepository_Lookups(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	users := seedUsers(t, repo)

	byName, err := repo.FindByUsername(ctx, "adam")
	require.NoError(t, err)
	assert.Equal(t, users["adam"].ID, byName.ID)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	engineers, err := repo.FindEngineersByIDs(ctx, []string{users["adam"].ID, users["maria"].ID, "ghost"})
	require.NoError(t, err)
	require.Len(t, engineers, 1)
	assert.Equal(t, "adam", engineers[0].Username)

	some, err := repo.FindByIDs(ctx, []string{users["zoe"].ID, users["maria"].ID})
	require.NoError(t, err)
	assert.Len(t, some, 2)

	none, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepository_Ordering(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	seedUsers(t, repo)

	engineers, err := repo.ListByRole(ctx, model.RoleEngineer)
	require.NoError(t, err)
	require.Len(t, engineers, 2)
	assert.Equal(t, "Adam", engineers[0].Name)
	assert.Equal(t, "Zoe", engineers[1].Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "maria", all[0].Username)

	first, err := repo.FindFirstByRole(ctx, model.RoleEngineer)
	require.NoError(t, err)
	assert.Equal(t, "zoe", first.Username)

	_, err = repo.FindFirstByRole(ctx, model.RoleAdmin)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UniqueUsername(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	seedUsers(t, repo)

	err := repo.Create(ctx, &model.User{Username: "adam", Name: "Other Adam", PasswordHash: "x", Role: model.RoleEngineer})
	assert.Error(t, err)
}

func TestUserRepository_PasswordAndDelete(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	users := seedUsers(t, repo)
	id := users["zoe"].ID

	require.NoError(t, repo.UpdatePassword(ctx, id, "new-hash"))
	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "h"), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), gorm.ErrRecordNotFound)
}
