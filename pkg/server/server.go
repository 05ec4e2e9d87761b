package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feedwise/feedwise"
	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/scoring"
	"github.com/feedwise/feedwise/pkg/server/handlers"
	"github.com/feedwise/feedwise/pkg/store"
	"github.com/feedwise/feedwise/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	advisor *feedwise.Advisor
	scorer  scoring.Scorer
	store   *store.Store
	server  *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, advisor *feedwise.Advisor, scorer scoring.Scorer, st *store.Store) *Server {
	return &Server{
		config:  cfg,
		advisor: advisor,
		scorer:  scorer,
		store:   st,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router returns the configured gin engine. Setup must have been called.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.scorer, s.store)
	analysisHandler := handlers.NewAnalysisHandler(s.advisor, s.store)
	catalogHandler := handlers.NewCatalogHandler(s.store)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Analysis lifecycle
		analysis := v1.Group("/analysis")
		{
			analysis.POST("", analysisHandler.Start)
			analysis.GET("/:session_id/progress", analysisHandler.Progress)
			analysis.GET("/:session_id/result", analysisHandler.Result)
			analysis.POST("/:session_id/reveal/:code", analysisHandler.Reveal)
		}

		// Catalog routes
		pets := v1.Group("/pets")
		{
			pets.POST("", catalogHandler.CreatePet)
			pets.GET("", catalogHandler.ListPets)
			pets.GET("/:id", catalogHandler.GetPet)
		}
		products := v1.Group("/products")
		{
			products.POST("", catalogHandler.CreateProduct)
			products.GET("", catalogHandler.ListProducts)
		}
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware extracts context information from headers
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyUserID, userID)
		}

		sessionID := c.GetHeader("X-Session-ID")
		if sessionID != "" {
			ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
		}

		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
