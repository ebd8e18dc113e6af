// Package server exposes the pipeline over HTTP: upload, listing, duplicate
// resolution, and spreadsheet export.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/export"
	"github.com/gst-automator/invoice-tracker/internal/pipeline"
	"github.com/gst-automator/invoice-tracker/internal/repository"
)

type Server struct {
	entries repository.EntryRepository
	queue   pipeline.Queue
	export  *export.Service
	db      *sql.DB
	cfg     common.ServerConfig
	logger  *slog.Logger
}

func New(
	entries repository.EntryRepository,
	queue pipeline.Queue,
	exportSvc *export.Service,
	db *sql.DB,
	cfg common.ServerConfig,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		entries: entries,
		queue:   queue,
		export:  exportSvc,
		db:      db,
		cfg:     cfg,
		logger:  logger,
	}
}

// Router wires the HTTP surface.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.MaxMultipartMemory = s.cfg.MaxUploadMB << 20

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	{
		api.POST("/invoices", s.uploadInvoice)
		api.GET("/invoices", s.listEntries)
		api.GET("/invoices/:id", s.getEntry)
		api.POST("/invoices/:id/resolve", s.resolveDuplicate)
		api.DELETE("/invoices/:id", s.deleteEntry)
		api.GET("/export", s.exportXLSX)
	}
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

func (s *Server) healthz(c *gin.Context) {
	if err := repository.HealthCheck(c.Request.Context(), s.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
