package chat

import (
	"context"
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
)

// Service implements messaging between matched users. Every operation is
// gated on the caller being a participant of the conversation's match with no
// block in either direction.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	blocks *repository.BlockRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		blocks: repository.NewBlockRepository(appCtx.DB),
	}
}

// gate resolves the conversation and enforces the participant and block
// rules. Returns the other participant's id.
func (s *Service) gate(ctx context.Context, userID, conversationID string) (db.Conversation, string, error) {
	var conv db.Conversation
	err := s.appCtx.DB.WithContext(ctx).Where("id = ?", conversationID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conv, "", apperrors.NotFound("conversation not found")
	}
	if err != nil {
		return conv, "", err
	}

	var match db.Match
	if err := s.appCtx.DB.WithContext(ctx).Where("id = ?", conv.MatchID).First(&match).Error; err != nil {
		return conv, "", err
	}

	var otherID string
	switch userID {
	case match.UserOneID:
		otherID = match.UserTwoID
	case match.UserTwoID:
		otherID = match.UserOneID
	default:
		return conv, "", apperrors.Forbidden("you are not part of this conversation")
	}

	blocked, err := s.blocks.Exists(ctx, userID, otherID)
	if err != nil {
		return conv, "", err
	}
	if blocked {
		return conv, "", apperrors.Forbidden("messaging is unavailable because of a block")
	}

	return conv, otherID, nil
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// SendMessage handles POST /conversations/:conversationId/messages.
func (s *Service) SendMessage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("content is required (max 2000 chars)"))
		return
	}

	ctx := c.Request.Context()
	conv, _, err := s.gate(ctx, user.ID, c.Param("conversationId"))
	if err != nil {
		respond.Err(c, err)
		return
	}

	message := db.Message{
		ConversationID: conv.ID,
		SenderID:       user.ID,
		Content:        req.Content,
	}
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		// reflect the new activity on the conversation
		return tx.Model(&db.Conversation{}).
			Where("id = ?", conv.ID).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	// ranking signal only; losing a bump must not fail the send
	if err := s.users.BumpActivity(ctx, []string{user.ID}, 5); err != nil {
		s.appCtx.Logger.Warn("activity bump failed", "user", user.ID, "err", err)
	}

	respond.Success(c, http.StatusCreated, message)
}

type listQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=50" binding:"min=1,max=100"`
}

// GetMessages handles GET /conversations/:conversationId/messages.
// Oldest messages first.
func (s *Service) GetMessages(c *gin.Context) {
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
	conv, _, err := s.gate(ctx, user.ID, c.Param("conversationId"))
	if err != nil {
		respond.Err(c, err)
		return
	}

	var total int64
	if err := s.appCtx.DB.WithContext(ctx).
		Model(&db.Message{}).
		Where("conversation_id = ?", conv.ID).
		Count(&total).Error; err != nil {
		respond.Err(c, err)
		return
	}

	var messages []db.Message
	err = s.appCtx.DB.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&messages).Error
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, respond.NewPage(messages, q.Page, q.Limit, total))
}

// MarkRead handles POST /conversations/:conversationId/read: sets the read
// timestamp on the other participant's unread messages (null -> now, once).
func (s *Service) MarkRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	ctx := c.Request.Context()
	conv, _, err := s.gate(ctx, user.ID, c.Param("conversationId"))
	if err != nil {
		respond.Err(c, err)
		return
	}

	err = s.appCtx.DB.WithContext(ctx).
		Model(&db.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conv.ID, user.ID).
		UpdateColumn("read_at", time.Now()).Error
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, gin.H{"message": "messages marked as read"})
}
