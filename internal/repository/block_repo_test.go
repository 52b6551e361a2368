package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhq/ember-api/internal/repository"
)

func TestBlockExistsEitherDirection(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewBlockRepository(dbase)
	ids := seedUsers(t, dbase, 2)

	_, err := repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, exists)

	// symmetric lookup
	exists, err = repo.Exists(ctx, ids[1], ids[0])
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBlockDelete(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewBlockRepository(dbase)
	ids := seedUsers(t, dbase, 2)

	existed, err := repo.Delete(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)

	existed, err = repo.Delete(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestRelatedUserIDs(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewBlockRepository(dbase)
	ids := seedUsers(t, dbase, 3)

	_, err := repo.Create(ctx, ids[0], ids[1]) // I blocked them
	require.NoError(t, err)
	_, err = repo.Create(ctx, ids[2], ids[0]) // they blocked me
	require.NoError(t, err)

	related, err := repo.RelatedUserIDs(ctx, ids[0])
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{ids[1], ids[2]}, related)
}
