package premium

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/middleware"
	"github.com/emberhq/ember-api/internal/repository"
	"github.com/emberhq/ember-api/internal/respond"
	"github.com/emberhq/ember-api/internal/utils/pagination"
	"github.com/emberhq/ember-api/internal/utils/score"
)

// boostDuration is how long a purchased boost ranks its holder first in
// discovery.
const boostDuration = 30 * time.Minute

// Service exposes the premium-only surface: the who-liked-me listings and
// discovery boosts.
type Service struct {
	appCtx *app.AppContext
	swipes *repository.SwipeRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		swipes: repository.NewSwipeRepository(appCtx.DB),
	}
}

type likersQuery struct {
	Limit     int    `form:"limit,default=20" binding:"min=1,max=50"`
	PageToken string `form:"pageToken"`
}

type likerView struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Age     *int      `json:"age"`
	Photo   string    `json:"photo,omitempty"`
	LikedAt time.Time `json:"likedAt"`
}

// WhoLikedMe handles GET /premium/who-liked-me: likers the caller has not
// swiped back on, newest first, cursor-paginated.
func (s *Service) WhoLikedMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var q likersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Err(c, apperrors.BadRequest("invalid pagination"))
		return
	}

	var token *string
	if q.PageToken != "" {
		if _, err := pagination.Decode(q.PageToken); err != nil {
			respond.Err(c, apperrors.BadRequest("invalid page token"))
			return
		}
		token = &q.PageToken
	}

	ctx := c.Request.Context()
	swipes, nextToken, err := s.swipes.GetLikers(ctx, user.ID, token, q.Limit)
	if err != nil {
		respond.Err(c, err)
		return
	}

	likerIDs := make([]string, 0, len(swipes))
	for _, sw := range swipes {
		likerIDs = append(likerIDs, sw.ActorID)
	}

	likersByID := map[string]db.User{}
	if len(likerIDs) > 0 {
		var likers []db.User
		err = s.appCtx.DB.WithContext(ctx).
			Preload("Photos", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
			Where("id IN ?", likerIDs).
			Find(&likers).Error
		if err != nil {
			respond.Err(c, err)
			return
		}
		for _, u := range likers {
			likersByID[u.ID] = u
		}
	}

	views := make([]likerView, 0, len(swipes))
	for _, sw := range swipes {
		liker := likersByID[sw.ActorID]
		view := likerView{ID: liker.ID, Name: liker.Name, LikedAt: sw.CreatedAt}
		if liker.DateOfBirth != nil {
			age := score.Age(*liker.DateOfBirth)
			view.Age = &age
		}
		if len(liker.Photos) > 0 {
			view.Photo = liker.Photos[0].URL
		}
		views = append(views, view)
	}

	respond.Success(c, http.StatusOK, gin.H{
		"likers":        views,
		"nextPageToken": nextToken,
	})
}

// WhoLikedMeCount handles GET /premium/who-liked-me/count. Redis counter
// first, DB count on miss (result written back with a TTL).
func (s *Service) WhoLikedMeCount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	ctx := c.Request.Context()
	count, hit, err := s.appCtx.RedisCache.GetLikeCount(ctx, user.ID)
	if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user", user.ID, "err", err)
	}
	if !hit {
		count, err = s.swipes.CountLikers(ctx, user.ID)
		if err != nil {
			respond.Err(c, err)
			return
		}
		if err := s.appCtx.RedisCache.UpdateLikeCount(ctx, user.ID, count); err != nil {
			s.appCtx.Logger.Warn("like count cache write failed", "user", user.ID, "err", err)
		}
	}

	respond.Success(c, http.StatusOK, gin.H{"count": count})
}

// Boost handles POST /premium/boost. A second purchase while a boost is
// still running is rejected rather than stacked.
//
// There is one boost row per user. The first purchase inserts it; every later
// purchase hits the unique user_id index and falls through to a conditional
// re-arm that only fires once the previous boost has run out. The constraint
// decides concurrent purchases, not a read-then-act check.
func (s *Service) Boost(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	ctx := c.Request.Context()
	now := time.Now()

	boost := db.Boost{UserID: user.ID, EndsAt: now.Add(boostDuration)}
	err := s.appCtx.DB.WithContext(ctx).Create(&boost).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		res := s.appCtx.DB.WithContext(ctx).
			Model(&db.Boost{}).
			Where("user_id = ? AND ends_at <= ?", user.ID, now).
			UpdateColumn("ends_at", now.Add(boostDuration))
		if res.Error != nil {
			respond.Err(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			respond.Err(c, apperrors.Conflict("you already have an active boost"))
			return
		}
		err = s.appCtx.DB.WithContext(ctx).
			Where("user_id = ?", user.ID).
			First(&boost).Error
	}
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusCreated, boost)
}
