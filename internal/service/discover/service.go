package discover

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/middleware"
	"github.com/emberhq/ember-api/internal/repository"
	"github.com/emberhq/ember-api/internal/respond"
	"github.com/emberhq/ember-api/internal/utils/score"
)

const (
	defaultMinAge = 18
	defaultMaxAge = 35
)

// Service builds the discovery feed: the candidate set minus self, everyone
// already swiped, matched users and block relations, filtered by the request
// and ranked by boost, profile score, activity and recency.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	matches *repository.MatchRepository
	blocks  *repository.BlockRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
		blocks:  repository.NewBlockRepository(appCtx.DB),
	}
}

type discoverQuery struct {
	MinAge       int    `form:"minAge" binding:"omitempty,min=18,max=100"`
	MaxAge       int    `form:"maxAge" binding:"omitempty,min=18,max=100"`
	Gender       string `form:"gender" binding:"omitempty,max=32"`
	DatingIntent string `form:"datingIntent" binding:"omitempty,max=32"`
	City         string `form:"city" binding:"omitempty,max=100"`
	State        string `form:"state" binding:"omitempty,max=100"`
	Page         int    `form:"page,default=1" binding:"min=1"`
	Limit        int    `form:"limit,default=20" binding:"min=1,max=50"`
}

type profileView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Age           int            `json:"age"`
	Bio           string         `json:"bio"`
	Gender        string         `json:"gender"`
	DatingIntent  string         `json:"datingIntent"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	ProfileScore  int            `json:"profileScore"`
	ActivityScore int            `json:"activityScore"`
	Photos        []db.UserPhoto `json:"photos"`
	Prompts       []db.Prompt    `json:"prompts"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// GetProfiles handles GET /discover.
func (s *Service) GetProfiles(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var q discoverQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Err(c, apperrors.BadRequest("invalid discovery filters"))
		return
	}
	if q.MinAge == 0 {
		q.MinAge = defaultMinAge
	}
	if q.MaxAge == 0 {
		q.MaxAge = defaultMaxAge
	}
	if q.MinAge > q.MaxAge {
		respond.Err(c, apperrors.BadRequest("minAge must be less than or equal to maxAge"))
		return
	}

	ctx := c.Request.Context()

	swiped, err := s.swipes.SwipedTargetIDs(ctx, user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	matched, err := s.matches.MatchedUserIDs(ctx, user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	blocked, err := s.blocks.RelatedUserIDs(ctx, user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}

	// Users who liked the requester stay eligible; only the requester's own
	// swipes, existing matches and blocks are excluded.
	excluded := dedupe(user.ID, swiped, matched, blocked)

	now := time.Now()
	candidates, total, err := s.users.Discover(ctx, repository.DiscoverParams{
		ExcludedIDs:  excluded,
		MinDOB:       now.AddDate(-(q.MaxAge + 1), 0, 0), // oldest allowed DOB
		MaxDOB:       now.AddDate(-q.MinAge, 0, 0),       // youngest allowed DOB
		Gender:       q.Gender,
		DatingIntent: q.DatingIntent,
		City:         q.City,
		State:        q.State,
		Page:         q.Page,
		Limit:        q.Limit,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	profiles := make([]profileView, 0, len(candidates))
	for _, u := range candidates {
		age := 0
		if u.DateOfBirth != nil {
			age = score.Age(*u.DateOfBirth)
		}
		profiles = append(profiles, profileView{
			ID:            u.ID,
			Name:          u.Name,
			Age:           age,
			Bio:           u.Bio,
			Gender:        u.Gender,
			DatingIntent:  u.DatingIntent,
			City:          u.City,
			State:         u.State,
			ProfileScore:  u.ProfileScore,
			ActivityScore: u.ActivityScore,
			Photos:        u.Photos,
			Prompts:       u.Prompts,
			CreatedAt:     u.CreatedAt,
		})
	}

	respond.Success(c, http.StatusOK, respond.NewPage(profiles, q.Page, q.Limit, total))
}

func dedupe(self string, lists ...[]string) []string {
	seen := map[string]struct{}{self: {}}
	out := []string{self}
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
