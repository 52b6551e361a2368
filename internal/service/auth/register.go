package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
)

// Registrar ties the auth service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the auth service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the auth endpoints to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	auth := g.Group("/auth")
	auth.POST("/register", service.Register)
	auth.POST("/login", service.Login)
}
