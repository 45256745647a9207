// Package server exposes the text-detection service and the blob store over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/export"
	"github.com/joseph-ayodele/doctext/internal/storage"
	"github.com/joseph-ayodele/doctext/internal/textract"
)

const (
	headerRequestID = "X-Request-Id"
	maxUploadBytes  = 64 << 20
)

// JobArchive is the read side of the terminal-job archive.
type JobArchive interface {
	Get(ctx context.Context, jobID string) (entity.JobSummary, error)
	List(ctx context.Context, limit int) ([]entity.JobSummary, error)
}

// Server wires the HTTP routes to the services behind them.
type Server struct {
	textract *textract.Service
	store    storage.Store
	exporter *export.Service
	archive  JobArchive
	probes   map[string]HealthProbe
	logger   *slog.Logger
}

// HealthProbe reports whether a dependency is usable.
type HealthProbe func(ctx context.Context) error

type Option func(*Server)

// WithHealthProbe adds a named dependency check to /healthz.
func WithHealthProbe(name string, probe HealthProbe) Option {
	return func(s *Server) {
		if s.probes == nil {
			s.probes = make(map[string]HealthProbe)
		}
		s.probes[name] = probe
	}
}

// WithJobArchive enables the archived-jobs routes.
func WithJobArchive(a JobArchive) Option {
	return func(s *Server) { s.archive = a }
}

func NewServer(svc *textract.Service, store storage.Store, exporter *export.Service, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	s := &Server{textract: svc, store: store, exporter: exporter, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds a gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestContext())
	s.SetupRoutes(router)
	return router
}

// SetupRoutes configures all API routes
func (s *Server) SetupRoutes(router *gin.Engine) {
	tx := router.Group("/textract")
	tx.POST("/start-document-text-detection", s.startDocumentTextDetection)
	tx.GET("/get-document-text-detection", s.getDocumentTextDetectionQuery)
	tx.POST("/get-document-text-detection", s.getDocumentTextDetectionBody)
	tx.GET("/list-jobs", s.listJobs)
	tx.GET("/archived-jobs", s.listArchivedJobs)
	tx.GET("/archived-jobs/:jobId", s.getArchivedJob)

	s3 := router.Group("/s3")
	s3.HEAD("/object/:bucket/*key", s.headObject)
	s3.GET("/object/:bucket/*key", s.getObject)
	s3.PUT("/object/:bucket/*key", s.putObject)
	s3.DELETE("/object/:bucket/*key", s.deleteObject)
	s3.POST("/head-object", s.headObjectBody)
	s3.POST("/get-object", s.getObjectBody)
	s3.POST("/put-object", s.putObjectForm)
	s3.POST("/delete-object", s.deleteObjectBody)
	s3.POST("/copy-object", s.copyObject)

	router.GET("/healthz", s.healthCheck)
}

// requestContext tags each request with an id and logs its outcome.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))

		c.Next()

		common.LoggerFrom(c.Request.Context(), s.logger).Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// healthCheck handles GET /healthz
func (s *Server) healthCheck(c *gin.Context) {
	checks := make(map[string]string, len(s.probes))
	healthy := true
	for name, probe := range s.probes {
		if err := probe(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
