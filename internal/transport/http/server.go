// Package http exposes a running session to local views over HTTP: status,
// the message list and the join/leave/send/dismiss actions.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
)

const readHeaderTimeout = 5 * time.Second

// NewServer builds the view bridge server listening on cfg.BridgeAddr.
func NewServer(session Session, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.BridgeAddr,
		Handler:           NewRouter(session, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// NewRouter registers the bridge routes.
func NewRouter(session Session, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	h := NewViewHandlers(session, logger)
	router.GET("/health", healthHandler)

	api := router.Group("/api")
	{
		api.GET("/status", h.Status)
		api.GET("/messages", h.Messages)
		api.POST("/messages", h.Send)
		api.PUT("/room", h.Join)
		api.DELETE("/room", h.Leave)
		api.POST("/error/dismiss", h.DismissError)
	}
	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
