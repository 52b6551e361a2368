package profile

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

const (
	maxPhotos  = 5
	minPhotos  = 2
	maxPrompts = 3
)

// Service manages the caller's own profile: fields, prompts, photos and the
// derived completion score. Every mutation recomputes and stores the score in
// the same transaction, so reads never see a stale score next to fresh data.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

type meView struct {
	db.User
	Age *int `json:"age"`
}

func newMeView(u db.User) meView {
	view := meView{User: u}
	if u.DateOfBirth != nil {
		age := score.Age(*u.DateOfBirth)
		view.Age = &age
	}
	return view
}

// GetMe handles GET /users/me.
func (s *Service) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	full, err := s.users.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, newMeView(full))
}

type updateProfileRequest struct {
	Name             *string    `json:"name" binding:"omitempty,min=2,max=80"`
	Bio              *string    `json:"bio" binding:"omitempty,max=500"`
	DateOfBirth      *time.Time `json:"dateOfBirth"`
	Gender           *string    `json:"gender" binding:"omitempty,max=32"`
	GenderPreference *string    `json:"genderPreference" binding:"omitempty,max=32"`
	DatingIntent     *string    `json:"datingIntent" binding:"omitempty,max=32"`
	City             *string    `json:"city" binding:"omitempty,max=100"`
	State            *string    `json:"state" binding:"omitempty,max=100"`
	Latitude         *float64   `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude        *float64   `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

func (r *updateProfileRequest) updates() map[string]interface{} {
	m := map[string]interface{}{}
	if r.Name != nil {
		m["name"] = *r.Name
	}
	if r.Bio != nil {
		m["bio"] = *r.Bio
	}
	if r.DateOfBirth != nil {
		m["date_of_birth"] = *r.DateOfBirth
	}
	if r.Gender != nil {
		m["gender"] = *r.Gender
	}
	if r.GenderPreference != nil {
		m["gender_preference"] = *r.GenderPreference
	}
	if r.DatingIntent != nil {
		m["dating_intent"] = *r.DatingIntent
	}
	if r.City != nil {
		m["city"] = *r.City
	}
	if r.State != nil {
		m["state"] = *r.State
	}
	if r.Latitude != nil {
		m["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		m["longitude"] = *r.Longitude
	}
	return m
}

// UpdateProfile handles PATCH /users/me.
func (s *Service) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("invalid profile fields"))
		return
	}
	updates := req.updates()
	if len(updates) == 0 {
		respond.Err(c, apperrors.BadRequest("at least one field is required"))
		return
	}
	if req.DateOfBirth != nil && req.DateOfBirth.After(time.Now()) {
		respond.Err(c, apperrors.BadRequest("date of birth cannot be in the future"))
		return
	}

	ctx := c.Request.Context()
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.User{}).Where("id = ?", user.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		return s.refreshProfileScore(tx, user.ID)
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	full, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.Success(c, http.StatusOK, newMeView(full))
}

type promptRequest struct {
	Question string `json:"question" binding:"required,min=3,max=120"`
	Answer   string `json:"answer" binding:"required,min=3,max=300"`
}

// AddPrompt handles POST /users/me/prompts.
func (s *Service) AddPrompt(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("question (3-120 chars) and answer (3-300 chars) are required"))
		return
	}

	var prompt db.Prompt
	err := s.appCtx.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Prompt{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= maxPrompts {
			return apperrors.BadRequest("you can only have up to 3 prompts")
		}

		prompt = db.Prompt{UserID: user.ID, Question: req.Question, Answer: req.Answer}
		if err := tx.Create(&prompt).Error; err != nil {
			return err
		}
		return s.refreshProfileScore(tx, user.ID)
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusCreated, prompt)
}

type updatePromptRequest struct {
	Question *string `json:"question" binding:"omitempty,min=3,max=120"`
	Answer   *string `json:"answer" binding:"omitempty,min=3,max=300"`
}

// UpdatePrompt handles PATCH /users/me/prompts/:promptId.
func (s *Service) UpdatePrompt(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("invalid prompt fields"))
		return
	}
	updates := map[string]interface{}{}
	if req.Question != nil {
		updates["question"] = *req.Question
	}
	if req.Answer != nil {
		updates["answer"] = *req.Answer
	}
	if len(updates) == 0 {
		respond.Err(c, apperrors.BadRequest("at least one field is required"))
		return
	}

	promptID := c.Param("promptId")
	ctx := c.Request.Context()

	res := s.appCtx.DB.WithContext(ctx).
		Model(&db.Prompt{}).
		Where("id = ? AND user_id = ?", promptID, user.ID).
		Updates(updates)
	if res.Error != nil {
		respond.Err(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respond.Err(c, apperrors.NotFound("prompt not found"))
		return
	}

	var prompt db.Prompt
	if err := s.appCtx.DB.WithContext(ctx).Where("id = ?", promptID).First(&prompt).Error; err != nil {
		respond.Err(c, err)
		return
	}
	respond.Success(c, http.StatusOK, prompt)
}

// DeletePrompt handles DELETE /users/me/prompts/:promptId.
func (s *Service) DeletePrompt(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	promptID := c.Param("promptId")
	err := s.appCtx.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", promptID, user.ID).Delete(&db.Prompt{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("prompt not found")
		}
		return s.refreshProfileScore(tx, user.ID)
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, nil)
}

type addPhotoRequest struct {
	URL   string `json:"url" binding:"required,url,max=512"`
	Order *int   `json:"order" binding:"omitempty,min=0"`
}

// AddPhoto handles POST /users/me/photos. An omitted order appends; a given
// order shifts later photos up to keep the sequence gapless.
func (s *Service) AddPhoto(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req addPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("url is required and order must be >= 0"))
		return
	}

	var photo db.UserPhoto
	err := s.appCtx.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.UserPhoto{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= maxPhotos {
			return apperrors.BadRequest("you can only have up to 5 photos")
		}

		position := int(count) // gapless: append slot equals the current count
		if req.Order != nil && *req.Order < int(count) {
			position = *req.Order
			err := tx.Model(&db.UserPhoto{}).
				Where("user_id = ? AND position >= ?", user.ID, position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
			if err != nil {
				return err
			}
		}

		photo = db.UserPhoto{UserID: user.ID, URL: req.URL, Position: position}
		if err := tx.Create(&photo).Error; err != nil {
			return err
		}
		return s.refreshProfileScore(tx, user.ID)
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusCreated, photo)
}

// DeletePhoto handles DELETE /users/me/photos/:photoId. Profiles keep a
// minimum of two photos; remaining positions are compacted so the sequence
// stays gapless.
func (s *Service) DeletePhoto(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	photoID := c.Param("photoId")
	err := s.appCtx.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var photo db.UserPhoto
		err := tx.Where("id = ? AND user_id = ?", photoID, user.ID).First(&photo).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("photo not found")
		}
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&db.UserPhoto{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count <= minPhotos {
			return apperrors.BadRequest("you must keep at least 2 photos")
		}

		if err := tx.Where("id = ?", photo.ID).Delete(&db.UserPhoto{}).Error; err != nil {
			return err
		}
		err = tx.Model(&db.UserPhoto{}).
			Where("user_id = ? AND position > ?", user.ID, photo.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return err
		}
		return s.refreshProfileScore(tx, user.ID)
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, nil)
}

type reorderPhotosRequest struct {
	Photos []struct {
		ID    string `json:"id" binding:"required,uuid"`
		Order int    `json:"order" binding:"min=0"`
	} `json:"photos" binding:"required,min=1,dive"`
}

// ReorderPhotos handles PUT /users/me/photos/order. The request must cover
// every photo with unique in-bounds positions; the swap is applied in one
// transaction so partial reordering is never visible.
func (s *Service) ReorderPhotos(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Err(c, apperrors.Unauthorized("missing authorization"))
		return
	}

	var req reorderPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("photos must list ids with their new orders"))
		return
	}

	ctx := c.Request.Context()
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []db.UserPhoto
		if err := tx.Where("user_id = ?", user.ID).Find(&current).Error; err != nil {
			return err
		}
		if len(current) != len(req.Photos) {
			return apperrors.BadRequest("provide all current photos to reorder")
		}

		existing := map[string]struct{}{}
		for _, p := range current {
			existing[p.ID] = struct{}{}
		}
		seenIDs := map[string]struct{}{}
		seenOrders := map[int]struct{}{}
		for _, p := range req.Photos {
			if _, ok := existing[p.ID]; !ok {
				return apperrors.BadRequest("photo id mismatch")
			}
			if _, dup := seenIDs[p.ID]; dup {
				return apperrors.BadRequest("photo id mismatch")
			}
			seenIDs[p.ID] = struct{}{}
			if p.Order < 0 || p.Order >= len(current) {
				return apperrors.BadRequest("photo orders must be within bounds")
			}
			if _, dup := seenOrders[p.Order]; dup {
				return apperrors.BadRequest("photo orders must be unique")
			}
			seenOrders[p.Order] = struct{}{}
		}

		for _, p := range req.Photos {
			err := tx.Model(&db.UserPhoto{}).
				Where("id = ? AND user_id = ?", p.ID, user.ID).
				UpdateColumn("position", p.Order).Error
			if err != nil {
				return err
			}
		}
		return s.refreshProfileScore(tx, user.ID)
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	var photos []db.UserPhoto
	if err := s.appCtx.DB.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("position ASC").
		Find(&photos).Error; err != nil {
		respond.Err(c, err)
		return
	}
	respond.Success(c, http.StatusOK, photos)
}

// refreshProfileScore recomputes the completion score from the current state
// inside the caller's transaction.
func (s *Service) refreshProfileScore(tx *gorm.DB, userID string) error {
	var user db.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return err
	}
	var photos []db.UserPhoto
	if err := tx.Where("user_id = ?", userID).Find(&photos).Error; err != nil {
		return err
	}
	var prompts []db.Prompt
	if err := tx.Where("user_id = ?", userID).Find(&prompts).Error; err != nil {
		return err
	}

	return tx.Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("profile_score", score.ProfileCompletion(&user, photos, prompts)).Error
}
