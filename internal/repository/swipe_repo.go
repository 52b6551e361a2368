package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/dislikes between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// WithTx returns a repository bound to the given transaction handle so the
// swipe/match workflow can run its statements atomically.
func (r *SwipeRepository) WithTx(tx *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: tx}
}

// Create inserts a swipe for actor -> target. Swipes are insert-only: a second
// swipe on the same ordered pair violates the composite primary key and
// surfaces as gorm.ErrDuplicatedKey, which callers translate to Conflict.
func (r *SwipeRepository) Create(ctx context.Context, actorID, targetID, kind string) (db.Swipe, error) {
	swipe := db.Swipe{
		ActorID:  actorID,
		TargetID: targetID,
		Kind:     kind,
	}
	err := r.db.WithContext(ctx).Create(&swipe).Error
	return swipe, err
}

// Get returns the swipe for the ordered pair, or nil when none exists.
func (r *SwipeRepository) Get(ctx context.Context, actorID, targetID string) (*db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&swipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// SwipedTargetIDs returns every user the actor has any swipe toward.
// Discovery uses this as an exclusion input.
func (r *SwipeRepository) SwipedTargetIDs(ctx context.Context, actorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &ids).Error
	return ids, err
}

// GetLikers returns users who liked the target and have not been swiped back
// in either direction.
//
// Behavior:
//   - Only swipes where target_id = X and kind = LIKE are considered.
//   - Excludes likers the target already swiped on (any kind).
//   - Ordered by created_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *SwipeRepository) GetLikers(
	ctx context.Context,
	targetID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.kind = ?", targetID, db.SwipeKindLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
			)`, targetID).
		Order("s.created_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ActorID != "" && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikers returns how many users liked the target and have not been swiped
// back. Used in conjunction with the Redis counter (DB is fallback).
func (r *SwipeRepository) CountLikers(ctx context.Context, targetID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.kind = ?", targetID, db.SwipeKindLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
			)`, targetID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
