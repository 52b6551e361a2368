package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// Create inserts the match row for the canonicalized pair. The unique index on
// (user_one_id, user_two_id) is the sole arbiter of concurrent symmetric
// inserts; the loser receives gorm.ErrDuplicatedKey, which the swipe workflow
// treats as "already matched", not as a failure.
func (r *MatchRepository) Create(ctx context.Context, userA, userB string) (db.Match, error) {
	one, two := db.CanonicalPair(userA, userB)
	match := db.Match{UserOneID: one, UserTwoID: two}
	err := r.db.WithContext(ctx).Create(&match).Error
	return match, err
}

// GetByID returns a match or gorm.ErrRecordNotFound.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Preload("Conversation").
		Where("id = ?", id).
		First(&match).Error
	return match, err
}

// GetByPair returns the match for an unordered user pair, or nil when the two
// users are not matched.
func (r *MatchRepository) GetByPair(ctx context.Context, userA, userB string) (*db.Match, error) {
	one, two := db.CanonicalPair(userA, userB)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_one_id = ? AND user_two_id = ?", one, two).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListForUser returns the user's matches newest first, with their lazily
// created conversations preloaded, plus the total for pagination.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string, page, limit int) ([]db.Match, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_one_id = ? OR user_two_id = ?", userID, userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var matches []db.Match
	err := base.
		Preload("Conversation").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&matches).Error
	return matches, total, err
}

// MatchedUserIDs returns every user sharing a match with userID.
// Discovery uses this as an exclusion input.
func (r *MatchRepository) MatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_one_id = ? OR user_two_id = ?", userID, userID).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.UserOneID == userID {
			ids = append(ids, m.UserTwoID)
		} else {
			ids = append(ids, m.UserOneID)
		}
	}
	return ids, nil
}
