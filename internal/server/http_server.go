package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/config"
)

// NewEngine builds the gin engine and mounts all provided services under
// /api/v1.
func NewEngine(cfg *config.Config, registrars ...Registrar) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"message": "Dating API Running"}})
	})

	api := engine.Group("/api/v1")
	for _, r := range registrars {
		r.Register(api)
	}

	return engine
}

// StartHTTPServer boots the HTTP server and blocks until it exits.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	engine := NewEngine(cfg, registrars...)

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:        engine,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return srv.ListenAndServe()
}
