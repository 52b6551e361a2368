package match

import (
	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the match service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match endpoints to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	matches := g.Group("/matches", middleware.Auth(r.appCtx))
	matches.GET("", service.ListMatches)
	matches.POST("/:matchId/conversation", service.OpenConversation)
}
