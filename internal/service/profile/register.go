package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the profile service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the profile endpoints to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	me := g.Group("/users/me", middleware.Auth(r.appCtx))
	me.GET("", service.GetMe)
	me.PATCH("", service.UpdateProfile)

	me.POST("/prompts", service.AddPrompt)
	me.PATCH("/prompts/:promptId", service.UpdatePrompt)
	me.DELETE("/prompts/:promptId", service.DeletePrompt)

	me.POST("/photos", service.AddPhoto)
	me.DELETE("/photos/:photoId", service.DeletePhoto)
	me.PUT("/photos/order", service.ReorderPhotos)
}
