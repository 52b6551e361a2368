package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberhq/ember-api/internal/db"
)

// UserRepository provides data access methods for the User model, including
// the discovery feed query and the activity counter.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// GetByID returns a user or gorm.ErrRecordNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, err
}

// GetByEmail returns a user or gorm.ErrRecordNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, err
}

// GetProfile loads a user with ordered photos and prompts.
func (r *UserRepository) GetProfile(ctx context.Context, id string) (db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Preload("Photos", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Prompts").
		Where("id = ?", id).
		First(&user).Error
	return user, err
}

// Create inserts a user. A duplicate email violates the unique index and
// surfaces as gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// BumpActivity monotonically increases the activity counters of the given
// users. Always an increment expression, never an absolute overwrite.
func (r *UserRepository) BumpActivity(ctx context.Context, userIDs []string, amount int) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id IN ?", userIDs).
		UpdateColumn("activity_score", gorm.Expr("activity_score + ?", amount)).Error
}

// SetProfileScore stores the freshly recomputed completion score. Called
// inside the same transaction as the mutation that invalidated it.
func (r *UserRepository) SetProfileScore(ctx context.Context, userID string, score int) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("profile_score", score).Error
}

// DiscoverParams narrows the discovery candidate set.
type DiscoverParams struct {
	ExcludedIDs  []string // always contains at least the requester
	MinDOB       time.Time
	MaxDOB       time.Time
	Gender       string
	DatingIntent string
	City         string
	State        string
	Page         int
	Limit        int
}

// Discover returns the ranked candidate page plus the total candidate count.
// Ranking: active-boost holders first, then profile score, activity score and
// recency, all descending.
func (r *UserRepository) Discover(ctx context.Context, p DiscoverParams) ([]db.User, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("active = ?", true).
		Where("id NOT IN ?", p.ExcludedIDs).
		Where("date_of_birth IS NOT NULL AND date_of_birth BETWEEN ? AND ?", p.MinDOB, p.MaxDOB)

	if p.Gender != "" {
		base = base.Where("gender = ?", p.Gender)
	}
	if p.DatingIntent != "" {
		base = base.Where("dating_intent = ?", p.DatingIntent)
	}
	if p.City != "" {
		base = base.Where("city = ?", p.City)
	}
	if p.State != "" {
		base = base.Where("state = ?", p.State)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []db.User
	err := base.
		Preload("Photos", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Prompts").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN EXISTS (SELECT 1 FROM boosts b WHERE b.user_id = users.id AND b.ends_at > ?) THEN 0 ELSE 1 END, profile_score DESC, activity_score DESC, created_at DESC",
			Vars: []interface{}{time.Now()},
		}}).
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Find(&users).Error
	return users, total, err
}
