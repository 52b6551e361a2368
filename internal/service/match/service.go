package match

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
	"github.com/emberhq/ember-api/internal/utils/score"
)

// Service lists a user's matches and lazily creates conversations on top of
// them.
type Service struct {
	appCtx  *app.AppContext
	matches *repository.MatchRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

type listQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=50"`
}

type otherUserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Age   *int   `json:"age"`
	Photo string `json:"photo,omitempty"`
}

type matchView struct {
	MatchID        string        `json:"matchId"`
	ConversationID string        `json:"conversationId,omitempty"`
	MatchedAt      time.Time     `json:"matchedAt"`
	LastMessageAt  *time.Time    `json:"lastMessageAt,omitempty"`
	OtherUser      otherUserView `json:"otherUser"`
}

// ListMatches handles GET /matches.
func (s *Service) ListMatches(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Err(c, apperrors.BadRequest("invalid pagination"))
		return
	}

	ctx := c.Request.Context()
	matches, total, err := s.matches.ListForUser(ctx, user.ID, q.Page, q.Limit)
	if err != nil {
		respond.Err(c, err)
		return
	}

	otherIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		otherIDs = append(otherIDs, otherUserID(m, user.ID))
	}

	othersByID := map[string]db.User{}
	if len(otherIDs) > 0 {
		var others []db.User
		err = s.appCtx.DB.WithContext(ctx).
			Preload("Photos", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
			Where("id IN ?", otherIDs).
			Find(&others).Error
		if err != nil {
			respond.Err(c, err)
			return
		}
		for _, u := range others {
			othersByID[u.ID] = u
		}
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		other := othersByID[otherUserID(m, user.ID)]

		view := matchView{
			MatchID:   m.ID,
			MatchedAt: m.CreatedAt,
			OtherUser: otherUserView{ID: other.ID, Name: other.Name},
		}
		if other.DateOfBirth != nil {
			age := score.Age(*other.DateOfBirth)
			view.OtherUser.Age = &age
		}
		if len(other.Photos) > 0 {
			view.OtherUser.Photo = other.Photos[0].URL // primary photo
		}
		if m.Conversation != nil {
			view.ConversationID = m.Conversation.ID
			last := m.Conversation.UpdatedAt
			view.LastMessageAt = &last
		}
		views = append(views, view)
	}

	respond.Success(c, http.StatusOK, respond.NewPage(views, q.Page, q.Limit, total))
}

// OpenConversation handles POST /matches/:matchId/conversation: the lazy
// get-or-create for a match's conversation. Concurrent creation is
// deduplicated by the unique match_id index.
func (s *Service) OpenConversation(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	ctx := c.Request.Context()
	matchID := c.Param("matchId")

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Err(c, apperrors.NotFound("match not found"))
			return
		}
		respond.Err(c, err)
		return
	}
	if m.UserOneID != user.ID && m.UserTwoID != user.ID {
		respond.Err(c, apperrors.Forbidden("you are not part of this match"))
		return
	}

	if m.Conversation != nil {
		respond.Success(c, http.StatusOK, m.Conversation)
		return
	}

	conv := db.Conversation{MatchID: m.ID}
	if err := s.appCtx.DB.WithContext(ctx).Create(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a concurrent create; return the existing row
			var existing db.Conversation
			if err := s.appCtx.DB.WithContext(ctx).
				Where("match_id = ?", m.ID).
				First(&existing).Error; err != nil {
				respond.Err(c, err)
				return
			}
			respond.Success(c, http.StatusOK, existing)
			return
		}
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusCreated, conv)
}

func otherUserID(m db.Match, userID string) string {
	if m.UserOneID == userID {
		return m.UserTwoID
	}
	return m.UserOneID
}
