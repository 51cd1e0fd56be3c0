// Package server exposes the webhook endpoints of both platforms and a health check over
// a single gin engine.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/edgard/nanotipbot/internal/config"
	"github.com/edgard/nanotipbot/internal/logger"
)

const readHeaderTimeout = 10 * time.Second

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerState reports the circuit breaker state of an upstream service.
type BreakerState interface {
	State() string
}

// Routes mounts a group of endpoints.
type Routes interface {
	Routes(g *gin.RouterGroup)
}

// Deps groups what the router serves. Nil platform handlers leave their routes out.
type Deps struct {
	Logger *slog.Logger
	Store  Pinger
	Node   BreakerState

	// Telegram serves /telegram/<TelegramURI>.
	Telegram    http.Handler
	TelegramURI string

	// Twitter is mounted under /twitter.
	Twitter Routes
}

// NewRouter builds the gin engine with request ids, request logging and panic recovery.
func NewRouter(deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("component", "http")

	r := gin.New()
	r.Use(requestid.New(), logger.GinMiddleware(log), gin.Recovery())

	r.GET("/", healthCheck(deps.Store, deps.Node))
	if deps.Telegram != nil {
		r.POST("/telegram/"+deps.TelegramURI, gin.WrapH(deps.Telegram))
	}
	if deps.Twitter != nil {
		deps.Twitter.Routes(r.Group("/twitter"))
	}
	return r
}

// healthCheck fails when the store is unreachable. An open node breaker is reported but
// keeps the status at 200 so the webhooks stay registered while the node recovers.
func healthCheck(store Pinger, node BreakerState) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if node != nil {
			body["node"] = node.State()
		}
		if store != nil {
			if err := store.Ping(c.Request.Context()); err != nil {
				_ = c.Error(err)
				body["status"] = "unavailable"
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// New wraps handler in an http.Server listening on cfg.Addr.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
