package swipe

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/middleware"
	"github.com/emberhq/ember-api/internal/repository"
	"github.com/emberhq/ember-api/internal/respond"
)

// Service implements the swipe/match workflow: recording a directional
// interest, detecting a mutual like and creating the match exactly once.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	matches *repository.MatchRepository
}

// NewService creates the swipe service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

type putSwipeRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required,uuid"`
	Type         string `json:"type" binding:"required,oneof=LIKE DISLIKE"`
}

// PutSwipe handles POST /swipe.
//
// The whole workflow runs in one transaction:
//  1. Insert the swipe. The composite PK rejects a repeat swipe on the same
//     ordered pair; the violation maps to Conflict and nothing is recorded.
//  2. On LIKE, look up the reverse swipe; reverse LIKE means a mutual match.
//  3. Insert the canonical-pair match. The unique pair index arbitrates the
//     concurrent mutual-swipe race: a duplicate-key loss here is treated as a
//     successful match, never an error.
//  4. Bump both users' activity counters.
func (s *Service) PutSwipe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req putSwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("targetUserId must be a uuid and type must be LIKE or DISLIKE"))
		return
	}

	if req.TargetUserID == user.ID {
		respond.Err(c, apperrors.BadRequest("cannot swipe on yourself"))
		return
	}

	ctx := c.Request.Context()

	if _, err := s.users.GetByID(ctx, req.TargetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Err(c, apperrors.NotFound("target user not found"))
			return
		}
		respond.Err(c, err)
		return
	}

	var (
		swipe   db.Swipe
		matched bool
	)
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		swipe, txErr = s.swipes.WithTx(tx).Create(ctx, user.ID, req.TargetUserID, req.Type)
		if txErr != nil {
			return txErr
		}

		if req.Type == db.SwipeKindLike {
			reverse, txErr := s.swipes.WithTx(tx).Get(ctx, req.TargetUserID, user.ID)
			if txErr != nil {
				return txErr
			}
			if reverse != nil && reverse.Kind == db.SwipeKindLike {
				if _, txErr = s.matches.WithTx(tx).Create(ctx, user.ID, req.TargetUserID); txErr != nil {
					if !errors.Is(txErr, gorm.ErrDuplicatedKey) {
						return txErr
					}
					// lost the symmetric-insert race: the match row already
					// exists, which is still a match
				}
				matched = true
			}
		}

		return s.users.WithTx(tx).BumpActivity(ctx, []string{user.ID, req.TargetUserID}, 1)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respond.Err(c, apperrors.Conflict("you have already interacted with this user"))
			return
		}
		respond.Err(c, err)
		return
	}

	// best-effort counter for the premium who-liked-me count
	if req.Type == db.SwipeKindLike {
		if err := s.appCtx.RedisCache.BumpLikeCount(ctx, req.TargetUserID); err != nil {
			s.appCtx.Logger.Warn("like counter update failed", "target", req.TargetUserID, "err", err)
		}
	}

	s.appCtx.Logger.Debug("swipe recorded",
		"actor", user.ID, "target", req.TargetUserID, "kind", req.Type, "matched", matched)

	respond.Success(c, http.StatusOK, gin.H{
		"swipe": swipe,
		"match": matched,
	})
}
