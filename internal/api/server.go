// Package api implements the HTTP debug/introspection API for teracodecd:
// schema listing, encode/decode, reload, health and audit history.
package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/teracodec-project/teracodec/internal/codec"
	"github.com/teracodec-project/teracodec/internal/config"
	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/health"
	"github.com/teracodec-project/teracodec/internal/store"
	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("api")

// Server is the HTTP debug/introspection API for teracodecd.
type Server struct {
	cfg      *config.Config
	eventBus *events.EventBus
	codec    *codec.Codec
	health   *health.Manager
	store    *store.Store // nil when the audit store is disabled

	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates a new API server. store may be nil if the audit log
// is disabled.
func NewServer(cfg *config.Config, eventBus *events.EventBus, c *codec.Codec, h *health.Manager, st *store.Store) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:      cfg,
		eventBus: eventBus,
		codec:    c,
		health:   h,
		store:    st,
	}
}

// Start builds the router and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.router = s.buildRouter()

	apiData := s.cfg.GetAPIData()
	addr := fmt.Sprintf("%s:%d", apiData.BindAddress, apiData.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var tlsConfig *tls.Config
	if apiData.TLSEnabled {
		certFile, keyFile := apiData.TLSCertFile, apiData.TLSKeyFile
		if certFile == "" || keyFile == "" {
			certFile, keyFile = "config/debug-api.crt", "config/debug-api.key"
			if err := util.GenerateSelfSignedCert(certFile, keyFile); err != nil {
				return fmt.Errorf("failed to generate self-signed certificate: %w", err)
			}
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		tlsConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		s.httpServer.TLSConfig = tlsConfig
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug API listen error: %w", err)
	}

	log.Info().Str("addr", addr).Bool("tls", tlsConfig != nil).Msg("debug API server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if tlsConfig != nil {
		err = s.httpServer.Serve(tls.NewListener(ln, tlsConfig))
	} else {
		err = s.httpServer.Serve(ln)
	}

	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("debug API server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := s.cfg.GetAPIData().AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // must be false when AllowOrigins is "*"
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := NewRateLimiter(s.cfg.GetAPIData().RateLimitRPS)
	router.Use(rateLimiter.Middleware())

	api := router.Group("/api")
	{
		api.GET("/schemas", s.handleListSchemas)
		api.GET("/schemas/:name", s.handleGetSchema)
		api.POST("/reload", s.handleReload)
		api.POST("/encode", s.handleEncode)
		api.POST("/decode", s.handleDecode)
		api.GET("/health", s.handleHealth)
		api.GET("/history", s.handleHistory)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}
