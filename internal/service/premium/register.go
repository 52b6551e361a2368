package premium

import (
	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the premium service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the premium service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the premium-only endpoints to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	prem := g.Group("/premium", middleware.Auth(r.appCtx), middleware.RequirePremium())
	prem.GET("/who-liked-me", service.WhoLikedMe)
	prem.GET("/who-liked-me/count", service.WhoLikedMeCount)
	prem.POST("/boost", service.Boost)
}
