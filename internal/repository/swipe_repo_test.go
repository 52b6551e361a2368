package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/repository"
)

// setup in-memory DB. TranslateError must be on: the repositories rely on
// gorm.ErrDuplicatedKey for uniqueness violations.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// seedUsers inserts n bare users and returns their ids.
func seedUsers(t *testing.T, database *gorm.DB, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		user := db.User{
			Email:        fmt.Sprintf("u%d@test.com", i),
			PasswordHash: "x",
			Name:         fmt.Sprintf("User %d", i),
			Active:       true,
		}
		require.NoError(t, database.Create(&user).Error)
		ids = append(ids, user.ID)
	}
	return ids
}

func TestCreateSwipeIsInsertOnly(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)
	ids := seedUsers(t, dbase, 2)

	_, err := repo.Create(ctx, ids[0], ids[1], db.SwipeKindLike)
	assert.NoError(t, err)

	// second verdict on the same ordered pair is rejected, not overwritten
	_, err = repo.Create(ctx, ids[0], ids[1], db.SwipeKindDislike)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	swipe, err := repo.Get(ctx, ids[0], ids[1])
	require.NoError(t, err)
	require.NotNil(t, swipe)
	assert.Equal(t, db.SwipeKindLike, swipe.Kind)
}

func TestGetReturnsNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)
	ids := seedUsers(t, dbase, 2)

	swipe, err := repo.Get(ctx, ids[0], ids[1])
	assert.NoError(t, err)
	assert.Nil(t, swipe)
}

func TestSwipedTargetIDs(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)
	ids := seedUsers(t, dbase, 3)

	_, _ = repo.Create(ctx, ids[0], ids[1], db.SwipeKindLike)
	_, _ = repo.Create(ctx, ids[0], ids[2], db.SwipeKindDislike)

	targets, err := repo.SwipedTargetIDs(ctx, ids[0])
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{ids[1], ids[2]}, targets)
}

func TestGetLikersExcludesSwipedBack(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)
	ids := seedUsers(t, dbase, 4)
	target := ids[3]

	// all three liked the target
	_, _ = repo.Create(ctx, ids[0], target, db.SwipeKindLike)
	_, _ = repo.Create(ctx, ids[1], target, db.SwipeKindLike)
	_, _ = repo.Create(ctx, ids[2], target, db.SwipeKindLike)
	// target swiped back on ids[1] (dislike) and ids[2] (like) → both excluded
	_, _ = repo.Create(ctx, target, ids[1], db.SwipeKindDislike)
	_, _ = repo.Create(ctx, target, ids[2], db.SwipeKindLike)

	likers, next, err := repo.GetLikers(ctx, target, nil, 10)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, ids[0], likers[0].ActorID)
	assert.Nil(t, next)
}

func TestGetLikersPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)
	ids := seedUsers(t, dbase, 6)
	target := ids[5]

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		swipe := db.Swipe{
			ActorID:   ids[i],
			TargetID:  target,
			Kind:      db.SwipeKindLike,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, dbase.Create(&swipe).Error)
	}

	page1, token, err := repo.GetLikers(ctx, target, nil, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.NotNil(t, token)
	// newest first
	assert.Equal(t, ids[4], page1[0].ActorID)

	page2, token2, err := repo.GetLikers(ctx, target, token, 3)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Nil(t, token2)

	// no overlap between pages
	seen := map[string]bool{}
	for _, s := range append(page1, page2...) {
		assert.False(t, seen[s.ActorID])
		seen[s.ActorID] = true
	}
}

func TestCountLikers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)
	ids := seedUsers(t, dbase, 3)
	target := ids[2]

	_, _ = repo.Create(ctx, ids[0], target, db.SwipeKindLike)
	_, _ = repo.Create(ctx, ids[1], target, db.SwipeKindLike)
	_, _ = repo.Create(ctx, target, ids[1], db.SwipeKindDislike)

	count, err := repo.CountLikers(ctx, target)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
