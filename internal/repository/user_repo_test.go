package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/repository"
)

func TestBumpActivityIncrements(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	ids := seedUsers(t, dbase, 2)

	require.NoError(t, repo.BumpActivity(ctx, ids, 1))
	require.NoError(t, repo.BumpActivity(ctx, []string{ids[0]}, 5))

	a, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 6, a.ActivityScore)
	assert.Equal(t, 1, b.ActivityScore)

	// empty input is a no-op, not an error
	assert.NoError(t, repo.BumpActivity(ctx, nil, 1))
}

func TestSetProfileScore(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)
	ids := seedUsers(t, dbase, 1)

	require.NoError(t, repo.SetProfileScore(ctx, ids[0], 72))

	user, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 72, user.ProfileScore)
}

// discoverUser inserts a candidate with the fields discovery filters on.
func discoverUser(t *testing.T, dbase *gorm.DB, email string, age int, gender string, profileScore int) string {
	t.Helper()
	dob := time.Now().AddDate(-age, 0, -1)
	user := db.User{
		Email:        email,
		PasswordHash: "x",
		Name:         email,
		DateOfBirth:  &dob,
		Gender:       gender,
		City:         "London",
		ProfileScore: profileScore,
		Active:       true,
	}
	require.NoError(t, dbase.Create(&user).Error)
	return user.ID
}

func TestDiscoverFiltersAndRanks(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	me := discoverUser(t, dbase, "me@test.com", 30, "male", 50)
	low := discoverUser(t, dbase, "low@test.com", 25, "female", 10)
	high := discoverUser(t, dbase, "high@test.com", 28, "female", 90)
	tooOld := discoverUser(t, dbase, "old@test.com", 60, "female", 99)
	excluded := discoverUser(t, dbase, "ex@test.com", 27, "female", 80)

	now := time.Now()
	users, total, err := repo.Discover(ctx, repository.DiscoverParams{
		ExcludedIDs: []string{me, excluded},
		MinDOB:      now.AddDate(-36, 0, 0),
		MaxDOB:      now.AddDate(-18, 0, 0),
		Page:        1,
		Limit:       10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)

	// profile score decides the order
	assert.Equal(t, high, users[0].ID)
	assert.Equal(t, low, users[1].ID)

	for _, u := range users {
		assert.NotEqual(t, tooOld, u.ID)
		assert.NotEqual(t, excluded, u.ID)
	}
}

func TestDiscoverBoostRanksFirst(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	me := discoverUser(t, dbase, "me@test.com", 30, "male", 50)
	plain := discoverUser(t, dbase, "plain@test.com", 25, "female", 90)
	boosted := discoverUser(t, dbase, "boosted@test.com", 26, "female", 10)

	boost := db.Boost{UserID: boosted, EndsAt: time.Now().Add(30 * time.Minute)}
	require.NoError(t, dbase.Create(&boost).Error)

	now := time.Now()
	users, _, err := repo.Discover(ctx, repository.DiscoverParams{
		ExcludedIDs: []string{me},
		MinDOB:      now.AddDate(-36, 0, 0),
		MaxDOB:      now.AddDate(-18, 0, 0),
		Page:        1,
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, users, 2)

	// active boost beats a higher profile score
	assert.Equal(t, boosted, users[0].ID)
	assert.Equal(t, plain, users[1].ID)
}

func TestDiscoverExpiredBoostIgnored(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	me := discoverUser(t, dbase, "me@test.com", 30, "male", 50)
	plain := discoverUser(t, dbase, "plain@test.com", 25, "female", 90)
	expired := discoverUser(t, dbase, "expired@test.com", 26, "female", 10)

	boost := db.Boost{UserID: expired, EndsAt: time.Now().Add(-time.Minute)}
	require.NoError(t, dbase.Create(&boost).Error)

	now := time.Now()
	users, _, err := repo.Discover(ctx, repository.DiscoverParams{
		ExcludedIDs: []string{me},
		MinDOB:      now.AddDate(-36, 0, 0),
		MaxDOB:      now.AddDate(-18, 0, 0),
		Page:        1,
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, plain, users[0].ID)
}
