// Package api exposes run history, aggregate stats, and the skip list over
// HTTP. The API is read-mostly; the only mutation is managing the skip
// list that protects transactions from retagging.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/storage"
)

// Server wraps the gin engine and its dependencies.
type Server struct {
	router *gin.Engine
	store  storage.Repository
	logger *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(store storage.Repository, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{router: router, store: store, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/runs", s.listRuns)
		v1.GET("/runs/:id", s.getRun)
		v1.GET("/stats", s.stats)
		v1.GET("/skipped", s.listSkipped)
		v1.POST("/skipped", s.markSkipped)
		v1.DELETE("/skipped/:id", s.unskip)
	}
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("API server listening", "addr", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.store.ListRuns(50)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.GetRun(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.store.GetAggregateStats()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listSkipped(c *gin.Context) {
	skipped, err := s.store.ListSkipped()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skipped": skipped})
}

// markSkippedRequest is the POST /skipped payload.
type markSkippedRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Reason        string `json:"reason"`
}

func (s *Server) markSkipped(c *gin.Context) {
	var req markSkippedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.MarkSkipped(req.TransactionID, req.Reason); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction_id": req.TransactionID})
}

func (s *Server) unskip(c *gin.Context) {
	if err := s.store.Unskip(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error("API request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
