package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/db"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/health"
	"github.com/manawire-project/manawire/internal/session"
	"github.com/manawire-project/manawire/internal/util"
)

// JournalReader is the read side of the packet journal.
type JournalReader interface {
	Recent(limit int, kind string) ([]db.Entry, error)
	TopUnknown(limit int) ([]db.OpcodeCount, error)
}

// Server is the status and control API of a running client.
type Server struct {
	cfg      *config.Config
	eventBus *events.EventBus
	session  *session.Session
	logger   zerolog.Logger

	// Optional dependencies
	journal  JournalReader
	health   *health.Manager
	gatherer prometheus.Gatherer

	hub        *Hub
	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, eventBus *events.EventBus, sess *session.Session) *Server {
	if cfg.Logging.Level == "debug" || cfg.Logging.Level == "trace" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:      cfg,
		eventBus: eventBus,
		session:  sess,
		logger:   util.ComponentLogger("api"),
		hub:      NewHub(),
	}
}

// SetDependencies injects the optional components. Any may be nil.
func (s *Server) SetDependencies(journal JournalReader, healthMgr *health.Manager, gatherer prometheus.Gatherer) {
	s.journal = journal
	s.health = healthMgr
	s.gatherer = gatherer
}

// Handler builds the router. It is exposed for tests.
func (s *Server) Handler() http.Handler {
	if s.router == nil {
		s.router = s.buildRouter()
	}
	return s.router
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.eventBus != nil {
		s.eventBus.SubscribeAll("api.websocket", s.hub.onEvent)
		defer s.eventBus.UnsubscribeAll("api.websocket")
	}

	addr := fmt.Sprintf(":%d", s.cfg.API.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("API server error: %w", err)
	}
	s.logger.Info().Str("addr", addr).Msg("REST API server starting")

	go func() {
		<-ctx.Done()
		s.hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := s.cfg.API.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(NewRateLimiter(s.cfg.API.RateLimitRPS).Middleware())

	api := router.Group("/api")
	{
		api.GET("/ping", s.handlePing)
		api.GET("/status", s.handleGetStatus)
		api.GET("/protocol", s.handleGetProtocol)
		api.GET("/counters", s.handleGetCounters)
		api.GET("/host", s.handleGetHost)
		api.GET("/journal", s.handleGetJournal)
		api.GET("/journal/unknown", s.handleGetTopUnknown)
		api.GET("/events/ws", s.handleEventsWS)
	}

	control := api.Group("/control")
	{
		control.POST("/connect", s.handleConnect)
		control.POST("/disconnect", s.handleDisconnect)
		control.POST("/say", s.handleSay)
	}

	configure := api.Group("/config")
	{
		configure.GET("", s.handleGetConfig)
		configure.PATCH("/server", s.handlePatchServer)
		configure.GET("/limits", s.handleGetLimits)
		configure.PUT("/limits/:type", s.handleSetLimit)
	}

	if s.gatherer != nil && s.cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "manawire API is running"})
	})

	return router
}
