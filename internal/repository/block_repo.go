package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/db"
)

// BlockRepository provides data access methods for the Block model.
type BlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new repository bound to the given DB connection.
func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create inserts a block record. A repeat block violates the composite
// primary key and surfaces as gorm.ErrDuplicatedKey.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID string) (db.Block, error) {
	block := db.Block{BlockerID: blockerID, BlockedID: blockedID}
	err := r.db.WithContext(ctx).Create(&block).Error
	return block, err
}

// Delete removes a block record and reports whether one existed.
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.Block{})
	return res.RowsAffected > 0, res.Error
}

// Exists reports whether a block exists in either direction between two users.
func (r *BlockRepository) Exists(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}

// RelatedUserIDs returns every user in a block relation with userID, in either
// direction. Discovery uses this as an exclusion input.
func (r *BlockRepository) RelatedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var blocks []db.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		} else {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}
