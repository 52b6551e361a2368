package moderation

import (
	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the moderation service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the moderation service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the block, report and review endpoints to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	authed := g.Group("", middleware.Auth(r.appCtx))
	authed.POST("/blocks", service.Block)
	authed.DELETE("/blocks/:userId", service.Unblock)
	authed.POST("/reports", service.Report)

	admin := authed.Group("/admin", middleware.RequireRoles(db.RoleAdmin, db.RoleModerator))
	admin.GET("/reports", service.ListReports)
	admin.PATCH("/reports/:reportId", service.UpdateReport)
}
