package discover

import (
	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the discovery service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery endpoint to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	g.GET("/discover", middleware.Auth(r.appCtx), service.GetProfiles)
}
