package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/repository"
	"github.com/emberhq/ember-api/internal/respond"
)

const bcryptCost = 12

// Service implements registration and login.
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

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=80"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/register.
func (s *Service) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("email, password (8-72 chars) and name (2-80 chars) are required"))
		return
	}

	ctx := c.Request.Context()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		respond.Err(c, err)
		return
	}

	user := db.User{
		Email:            req.Email,
		PasswordHash:     string(hash),
		Name:             req.Name,
		Role:             db.RoleUser,
		SubscriptionTier: db.TierFree,
		Active:           true,
		LastLoginAt:      time.Now(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respond.Err(c, apperrors.Conflict("email already exists"))
			return
		}
		respond.Err(c, err)
		return
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}

	s.appCtx.Logger.Info("user registered", "user", user.ID)
	respond.Success(c, http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login handles POST /auth/login. All failure modes answer with the same 401
// so the endpoint does not leak which emails exist.
func (s *Service) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Err(c, apperrors.BadRequest("email and password are required"))
		return
	}

	ctx := c.Request.Context()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Err(c, apperrors.Unauthorized("invalid credentials"))
			return
		}
		respond.Err(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respond.Err(c, apperrors.Unauthorized("invalid credentials"))
		return
	}

	if err := s.appCtx.DB.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", user.ID).
		UpdateColumn("last_login_at", time.Now()).Error; err != nil {
		s.appCtx.Logger.Warn("failed to record login time", "user", user.ID, "err", err)
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Success(c, http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Service) signToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.appCtx.Config.JWT.TTL).Unix(),
		"iss":     "ember-api",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.appCtx.Config.JWT.Secret))
}
