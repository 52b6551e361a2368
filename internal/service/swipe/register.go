package swipe

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the swipe service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the swipe service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the swipe endpoint to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	g.POST("/swipe",
		middleware.Auth(r.appCtx),
		middleware.RateLimit(r.appCtx, "swipe", r.appCtx.Config.RateLimit.SwipePerMinute, time.Minute),
		service.PutSwipe,
	)
}
