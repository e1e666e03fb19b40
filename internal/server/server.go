package server

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ghasreport/internal/config"
	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/history"
	"ghasreport/internal/logging"
	"ghasreport/internal/report"
	"ghasreport/internal/types"
)

// ReportRunner runs one report for one project.
type ReportRunner interface {
	Run(ctx context.Context, projectName string, project config.Project, mode report.Mode) (*types.ProjectReport, error)
}

// Server exposes the report pipeline over HTTP.
type Server struct {
	runner  ReportRunner
	cfg     *config.Config
	history *history.Store
	logger  *logging.Logger
}

// New creates a Server. The history store is optional.
func New(runner ReportRunner, cfg *config.Config, store *history.Store, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.New(false)
	}
	return &Server{runner: runner, cfg: cfg, history: store, logger: logger}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogging(s.logger))
	r.Use(securityHeaders())
	r.Use(compression())
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.GET("/projects", s.handleProjects)
	v1.GET("/projects/:project/reports/:kind", s.handleReport)
	v1.GET("/history", s.handleHistory)

	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) handleProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": s.cfg.ProjectNames()})
}

func (s *Server) handleReport(c *gin.Context) {
	name := c.Param("project")
	project, ok := s.cfg.Projects[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown project"})
		return
	}

	mode, err := report.ParseMode(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := s.runner.Run(c.Request.Context(), name, project, mode)
	if err != nil {
		appErr := apperrors.ToAppError(err)
		status := http.StatusBadGateway
		if appErr.Kind == apperrors.KindUnauthorized {
			// Our credential, not the caller's.
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": appErr.Error(), "kind": appErr.Kind})
		return
	}

	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history not enabled"})
		return
	}
	runs, err := s.history.RecentRuns(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
