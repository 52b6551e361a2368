package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/repository"
)

func TestCreateMatchCanonicalizesPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)
	ids := seedUsers(t, dbase, 2)

	match, err := repo.Create(ctx, ids[1], ids[0])
	require.NoError(t, err)

	one, two := db.CanonicalPair(ids[0], ids[1])
	assert.Equal(t, one, match.UserOneID)
	assert.Equal(t, two, match.UserTwoID)

	// the reversed pair keys the same row
	_, err = repo.Create(ctx, ids[0], ids[1])
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestGetByPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)
	ids := seedUsers(t, dbase, 3)

	created, err := repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)

	found, err := repo.GetByPair(ctx, ids[1], ids[0])
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	none, err := repo.GetByPair(ctx, ids[0], ids[2])
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)
	ids := seedUsers(t, dbase, 4)

	_, err := repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)
	_, err = repo.Create(ctx, ids[0], ids[2])
	require.NoError(t, err)
	_, err = repo.Create(ctx, ids[2], ids[3])
	require.NoError(t, err)

	matches, total, err := repo.ListForUser(ctx, ids[0], 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, matches, 2)
}

func TestMatchedUserIDs(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)
	ids := seedUsers(t, dbase, 3)

	_, err := repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)
	_, err = repo.Create(ctx, ids[2], ids[0])
	require.NoError(t, err)

	matched, err := repo.MatchedUserIDs(ctx, ids[0])
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{ids[1], ids[2]}, matched)
}
