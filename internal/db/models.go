package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Swipe kinds.
const (
	SwipeKindLike    = "LIKE"
	SwipeKindDislike = "DISLIKE"
)

// User roles.
const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

// Subscription tiers.
const (
	TierFree    = "FREE"
	TierPremium = "PREMIUM"
)

// Report statuses.
const (
	ReportStatusPending   = "PENDING"
	ReportStatusReviewed  = "REVIEWED"
	ReportStatusResolved  = "RESOLVED"
	ReportStatusDismissed = "DISMISSED"
)

// User table. ProfileScore is derived (recomputed on every profile mutation),
// ActivityScore is an increment-only engagement counter.
type User struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	Email            string     `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	Name             string     `gorm:"size:80;not null" json:"name"`
	Bio              string     `gorm:"size:500" json:"bio"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
	Gender           string     `gorm:"size:32" json:"gender"`
	GenderPreference string     `gorm:"size:32" json:"genderPreference"`
	DatingIntent     string     `gorm:"size:32" json:"datingIntent"`
	City             string     `gorm:"size:100" json:"city"`
	State            string     `gorm:"size:100" json:"state"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	ProfileScore     int        `gorm:"not null;default:0" json:"profileScore"`
	ActivityScore    int        `gorm:"not null;default:0" json:"activityScore"`
	Role             string     `gorm:"size:16;not null;default:USER" json:"role"`
	SubscriptionTier string     `gorm:"size:16;not null;default:FREE" json:"subscriptionTier"`
	Active           bool       `gorm:"default:true" json:"active"`
	LastLoginAt      time.Time  `json:"lastLoginAt"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Photos  []UserPhoto `gorm:"foreignKey:UserID" json:"photos,omitempty"`
	Prompts []Prompt    `gorm:"foreignKey:UserID" json:"prompts,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Swipe records an actor's one-way LIKE/DISLIKE verdict on a target.
//
// Composite PK: (ActorID, TargetID)
//   - At most one row per ordered pair. Rows are insert-only; a duplicate
//     insert surfaces as a uniqueness violation, never an overwrite.
//
// Index idx_target_kind_created_actor(target_id, kind, created_at DESC, actor_id)
// serves the "who liked me" listings with cursor pagination.
type Swipe struct {
	ActorID   string    `gorm:"primaryKey;size:36" json:"actorId"`
	TargetID  string    `gorm:"primaryKey;size:36;index:idx_target_kind_created_actor,priority:1" json:"targetId"`
	Kind      string    `gorm:"size:8;not null;index:idx_target_kind_created_actor,priority:2" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_target_kind_created_actor,priority:3,sort:desc" json:"createdAt"`
}

// Match is the mutual-LIKE record for an unordered user pair. The pair is
// canonicalized (UserOneID < UserTwoID) and protected by a unique index so
// concurrent opposite-direction swipes can create at most one row.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserOneID string    `gorm:"size:36;not null;uniqueIndex:idx_match_pair,priority:1" json:"userOneId"`
	UserTwoID string    `gorm:"size:36;not null;uniqueIndex:idx_match_pair,priority:2" json:"userTwoId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Conversation *Conversation `gorm:"foreignKey:MatchID" json:"conversation,omitempty"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// CanonicalPair orders two user ids so (A,B) and (B,A) key the same match row.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Conversation is created lazily on top of a match. UpdatedAt tracks last
// message activity.
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MatchID   string    `gorm:"size:36;not null;uniqueIndex" json:"matchId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Message is append-only; ReadAt is the only mutable field (null -> timestamp,
// set once by the reader).
type Message struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string     `gorm:"size:36;not null;index" json:"conversationId"`
	SenderID       string     `gorm:"size:36;not null" json:"senderId"`
	Content        string     `gorm:"size:2000;not null" json:"content"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Block suppresses messaging and discovery visibility in both directions.
type Block struct {
	BlockerID string    `gorm:"primaryKey;size:36" json:"blockerId"`
	BlockedID string    `gorm:"primaryKey;size:36" json:"blockedId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// UserPhoto keeps a gapless 0-based ordering per user.
type UserPhoto struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	Position  int       `gorm:"not null" json:"order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (p *UserPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Prompt is a question/answer pair on a profile, max 3 per user.
type Prompt struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	Question  string    `gorm:"size:120;not null" json:"question"`
	Answer    string    `gorm:"size:300;not null" json:"answer"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Report is a moderation complaint reviewed by moderators/admins.
type Report struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ReporterID string    `gorm:"size:36;not null;index" json:"reporterId"`
	ReportedID string    `gorm:"size:36;not null;index" json:"reportedId"`
	Reason     string    `gorm:"size:500;not null" json:"reason"`
	Status     string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Boost ranks its holder first in discovery until EndsAt. One row per user:
// a new purchase re-arms the row instead of inserting a second one.
type Boost struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex" json:"userId"`
	EndsAt    time.Time `gorm:"not null;index" json:"endsAt"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (b *Boost) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
