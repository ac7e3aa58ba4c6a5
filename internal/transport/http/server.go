package http

import (
	"context"
	stdhttp "net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ticketboard-server/internal/auth"
	"github.com/vovakirdan/ticketboard-server/internal/config"
	"github.com/vovakirdan/ticketboard-server/internal/core"
	"github.com/vovakirdan/ticketboard-server/internal/service/tickets"
)

// Hub is the part of core.Hub the transport layer depends on.
type Hub interface {
	RegisterClient(s core.Session)
	UnregisterClient(s core.Session)
	Assign(ctx context.Context, a core.TicketAssignment) ([]*core.TicketAssignment, error)
	Snapshot(ctx context.Context) ([]*core.TicketAssignment, error)
	Resend(ctx context.Context, s core.Session) error
}

// Desk is the part of tickets.Service the transport layer depends on.
type Desk interface {
	Issue(ctx context.Context) (tickets.Ticket, int)
	Pending() (int, *tickets.Ticket)
	Attend(ctx context.Context, desk string) (core.TicketAssignment, error)
}

// NewServer builds the HTTP server with the WebSocket endpoint and REST routes.
func NewServer(hub Hub, desk Desk, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	api := NewAPIHandlers(hub, desk, logger)

	var jwtConfig *auth.JWTConfig
	if cfg.ProducerSecret != "" {
		jwtConfig = &auth.JWTConfig{
			Secret: []byte(cfg.ProducerSecret),
			Issuer: cfg.ProducerIssuer,
			TTL:    cfg.ProducerTokenTTL,
		}
	}
	producer := ProducerAuthMiddleware(jwtConfig, logger)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/assignments/latest", api.Latest)
		apiGroup.GET("/tickets/pending", api.PendingTickets)

		apiGroup.POST("/assignments", producer, api.Assign)
		apiGroup.POST("/tickets", producer, api.IssueTicket)
		apiGroup.POST("/desks/:desk/attend", producer, api.Attend)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}
