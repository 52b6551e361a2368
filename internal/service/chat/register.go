package chat

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/middleware"
)

// Registrar ties the chat service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the chat service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the messaging endpoints to the router
func (r *Registrar) Register(g *gin.RouterGroup) {
	service := NewService(r.appCtx)

	conversations := g.Group("/conversations", middleware.Auth(r.appCtx))
	conversations.POST("/:conversationId/messages",
		middleware.RateLimit(r.appCtx, "message", r.appCtx.Config.RateLimit.MessagePerMinute, time.Minute),
		service.SendMessage,
	)
	conversations.GET("/:conversationId/messages", service.GetMessages)
	conversations.POST("/:conversationId/read", service.MarkRead)
}
