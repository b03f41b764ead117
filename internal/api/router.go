// Package api exposes the script summarizer over HTTP.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"scriptsum/internal/logging"
)

// Options configures the router.
type Options struct {
	Service        ScriptService
	Logger         *slog.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and all /api routes.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	h := NewHandler(opts.Service, log, opts.AllowedOrigins)

	r := gin.New()
	r.Use(recovery(log))
	r.Use(requestID())
	r.Use(accessLog(log))
	r.Use(corsMiddleware(opts.AllowedOrigins))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/sessions", h.CreateSession)

		timed := api.Group("", requestTimeout(opts.RequestTimeout))
		{
			timed.POST("/script", h.SubmitScript)
			timed.GET("/summary", h.GetSummary)
			timed.GET("/summary/ws", h.SummaryWebSocket)
		}
	}
	return r
}
