package moderation

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

// Service handles blocks and reports. Blocking is idempotent from the
// caller's point of view; reports land in a moderator review queue.
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

type blockRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

// Block handles POST /blocks.
func (s *Service) Block(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("userId is required and must be a valid uuid"))
		return
	}
	if req.UserID == user.ID {
		respond.Err(c, apperrors.BadRequest("you cannot block yourself"))
		return
	}

	ctx := c.Request.Context()
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Err(c, apperrors.NotFound("user not found"))
			return
		}
		respond.Err(c, err)
		return
	}

	block, err := s.blocks.Create(ctx, user.ID, req.UserID)
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		respond.Err(c, err)
		return
	}
	// repeat blocks are a no-op, not an error

	respond.Success(c, http.StatusCreated, block)
}

// Unblock handles DELETE /blocks/:userId.
func (s *Service) Unblock(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	existed, err := s.blocks.Delete(c.Request.Context(), user.ID, c.Param("userId"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	if !existed {
		respond.Err(c, apperrors.NotFound("block not found"))
		return
	}

	respond.Success(c, http.StatusOK, gin.H{"message": "block removed"})
}

type reportRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Report handles POST /reports.
func (s *Service) Report(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("userId and reason (max 500 chars) are required"))
		return
	}
	if req.UserID == user.ID {
		respond.Err(c, apperrors.BadRequest("you cannot report yourself"))
		return
	}

	ctx := c.Request.Context()
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Err(c, apperrors.NotFound("user not found"))
			return
		}
		respond.Err(c, err)
		return
	}

	report := db.Report{
		ReporterID: user.ID,
		ReportedID: req.UserID,
		Reason:     req.Reason,
		Status:     db.ReportStatusPending,
	}
	if err := s.appCtx.DB.WithContext(ctx).Create(&report).Error; err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusCreated, report)
}

type reportListQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=50"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING REVIEWED RESOLVED DISMISSED"`
}

// ListReports handles GET /admin/reports (moderators and admins only).
func (s *Service) ListReports(c *gin.Context) {
	var q reportListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Err(c, apperrors.BadRequest("invalid report query"))
		return
	}

	ctx := c.Request.Context()
	query := s.appCtx.DB.WithContext(ctx).Model(&db.Report{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respond.Err(c, err)
		return
	}

	var reports []db.Report
	err := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&reports).Error
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, respond.NewPage(reports, q.Page, q.Limit, total))
}

type reportUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=REVIEWED RESOLVED DISMISSED"`
}

// UpdateReport handles PATCH /admin/reports/:reportId.
func (s *Service) UpdateReport(c *gin.Context) {
	var req reportUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("status must be one of REVIEWED, RESOLVED, DISMISSED"))
		return
	}

	ctx := c.Request.Context()
	var report db.Report
	err := s.appCtx.DB.WithContext(ctx).
		Where("id = ?", c.Param("reportId")).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Err(c, apperrors.NotFound("report not found"))
		return
	}
	if err != nil {
		respond.Err(c, err)
		return
	}

	if err := s.appCtx.DB.WithContext(ctx).
		Model(&report).
		Update("status", req.Status).Error; err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, report)
}
