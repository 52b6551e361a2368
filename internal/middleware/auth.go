package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/respond"
)

const userContextKey = "authUser"

// AuthUser is the resolved identity attached to authenticated requests.
type AuthUser struct {
	ID               string
	Email            string
	Name             string
	Role             string
	SubscriptionTier string
}

// Auth validates the Bearer token and loads the caller onto the context.
// Every failure mode yields 401 without distinguishing detail.
func Auth(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respond.Err(c, apperrors.Unauthorized("missing authorization"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respond.Err(c, apperrors.Unauthorized("invalid authorization header"))
			return
		}

		userID, err := parseToken(parts[1], appCtx.Config.JWT.Secret)
		if err != nil {
			respond.Err(c, apperrors.Unauthorized("invalid token"))
			return
		}

		var user db.User
		err = appCtx.DB.WithContext(c.Request.Context()).
			Select("id", "email", "name", "role", "subscription_tier").
			Where("id = ?", userID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respond.Err(c, apperrors.Unauthorized("invalid token"))
				return
			}
			respond.Err(c, err)
			return
		}

		c.Set(userContextKey, AuthUser{
			ID:               user.ID,
			Email:            user.Email,
			Name:             user.Name,
			Role:             user.Role,
			SubscriptionTier: user.SubscriptionTier,
		})
		c.Next()
	}
}

func parseToken(token, secret string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("missing user_id claim")
	}
	return userID, nil
}

// CurrentUser returns the authenticated caller set by Auth.
func CurrentUser(c *gin.Context) (AuthUser, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return AuthUser{}, false
	}
	user, ok := v.(AuthUser)
	return user, ok
}

// RequireRoles rejects callers whose role is not in the allowed set.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respond.Err(c, apperrors.Unauthorized("missing authorization"))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		respond.Err(c, apperrors.Forbidden("insufficient role"))
	}
}

// RequirePremium gates endpoints on an active premium subscription.
func RequirePremium() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respond.Err(c, apperrors.Unauthorized("missing authorization"))
			return
		}
		if user.SubscriptionTier != db.TierPremium {
			respond.Err(c, apperrors.Forbidden("premium subscription required"))
			return
		}
		c.Next()
	}
}
