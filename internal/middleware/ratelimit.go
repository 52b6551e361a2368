package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/respond"
)

// RateLimit bounds request frequency per user+action with a fixed-window
// counter in Redis, so the bound holds across server instances. The counter is
// advisory: if Redis is unavailable the request is allowed and the failure
// logged.
func RateLimit(appCtx *app.AppContext, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respond.Err(c, apperrors.Unauthorized("missing authorization"))
			return
		}

		key := appCtx.RedisCache.KeyForRateLimit(user.ID, action)
		count, err := appCtx.RedisCache.Hit(c.Request.Context(), key, window)
		if err != nil {
			appCtx.Logger.Warn("rate limiter unavailable, allowing request", "action", action, "err", err)
			c.Next()
			return
		}

		if count > int64(limit) {
			respond.Err(c, apperrors.TooManyRequests("too many requests, please try again later"))
			return
		}
		c.Next()
	}
}
