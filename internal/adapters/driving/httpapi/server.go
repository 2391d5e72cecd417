// Package httpapi exposes search and question answering over HTTP.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/logger"
)

// Server serves the knowledge-base API.
type Server struct {
	search driving.SearchService
	answer driving.AnswerService
	maint  driving.MaintenanceService
	router *gin.Engine
}

// searchRequest is the POST /api/search body.
type searchRequest struct {
	Query     string  `json:"query" binding:"required"`
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"`
	NoRerank  bool    `json:"no_rerank"`
}

// askRequest is the POST /api/ask body.
type askRequest struct {
	Query          string `json:"query" binding:"required"`
	Model          string `json:"model"`
	IncludeContext bool   `json:"include_context"`
}

// NewServer creates the API server and its routes.
func NewServer(
	search driving.SearchService,
	answer driving.AnswerService,
	maint driving.MaintenanceService,
) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		search: search,
		answer: answer,
		maint:  maint,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())

	s.router.GET("/healthz", s.handleHealthz)
	s.router.POST("/search", s.handleSearch)
	s.router.POST("/ask", s.handleAsk)
	api := s.router.Group("/api")
	{
		api.POST("/search", s.handleSearch)
		api.POST("/ask", s.handleAsk)
	}

	return s
}

// Router returns the underlying handler, used by tests and by Run.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	logger.Info("API listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	results, err := s.search.Search(c.Request.Context(), req.Query, domain.SearchOptions{
		TopK:      req.TopK,
		Threshold: req.Threshold,
		Rerank:    !req.NoRerank,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	answer, err := s.answer.Ask(c.Request.Context(), req.Query, req.Model)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := gin.H{
		"query":  answer.Query,
		"answer": answer.Text,
		"model":  answer.Model,
	}
	if req.IncludeContext {
		resp["context"] = answer.Context
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealthz(c *gin.Context) {
	report, err := s.maint.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"index":  report,
	})
}

// fail maps domain errors to status codes.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrValidation) {
		status = http.StatusBadRequest
	}
	logger.Error("Request failed: %v", err)
	c.JSON(status, gin.H{"error": err.Error()})
}
