// Package server exposes scans over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hakim/surfacerecon/internal/config"
	"github.com/hakim/surfacerecon/internal/discovery"
	"github.com/hakim/surfacerecon/internal/jobs"
	"github.com/hakim/surfacerecon/internal/metrics"
	"github.com/hakim/surfacerecon/internal/models"
	"github.com/hakim/surfacerecon/internal/pipeline"
)

// ReportSaver persists finished reports. *storage.Store satisfies it.
type ReportSaver interface {
	SaveReport(r *models.ScanReport) error
}

// ScanRequest is the POST /scan body.
type ScanRequest struct {
	Domain string `json:"domain"`
}

// Server serves the scan API.
type Server struct {
	cfg     config.ServerConfig
	orch    *pipeline.Orchestrator
	jobs    *jobs.Manager
	metrics *metrics.Collector
	saver   ReportSaver
	engine  *gin.Engine
}

// New builds the router. collector and saver may be nil.
func New(ctx context.Context, cfg config.ServerConfig, orch *pipeline.Orchestrator, collector *metrics.Collector, saver ReportSaver) *Server {
	s := &Server{
		cfg:     cfg,
		orch:    orch,
		metrics: collector,
		saver:   saver,
	}

	var hooks jobs.Hooks
	if collector != nil {
		hooks = jobs.Hooks{OnStart: collector.JobStarted, OnDone: collector.JobDone}
	}
	s.jobs = jobs.NewManager(ctx, s.runJob, hooks)

	r := gin.Default()
	r.POST("/scan", s.startHandler)
	r.GET("/scan/:id", s.statusHandler)
	r.GET("/health", s.healthHandler)
	if collector != nil {
		r.GET("/metrics", gin.WrapH(collector.Handler()))
	}
	s.engine = r

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on cfg.Addr until ctx ends, then drains running jobs.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.cfg.Addr,
		Handler:        s.engine,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   0, // sync scans can take minutes
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.jobs.Shutdown(shutdownCtx)
}

func (s *Server) runJob(ctx context.Context, domain string, progress jobs.ProgressFunc) (*models.ScanReport, error) {
	report, err := s.orch.WithProgress(progress).Run(ctx, domain)
	s.save(report)
	return report, err
}

func (s *Server) save(r *models.ScanReport) {
	if s.saver == nil || r == nil {
		return
	}
	if err := s.saver.SaveReport(r); err != nil {
		log.Printf("[server] saving report %s: %v", r.ID, err)
	}
}

func (s *Server) startHandler(ctx *gin.Context) {
	var request ScanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		log.Printf("[startHandler] invalid request: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	domain, err := s.orch.Validate(request.Domain)
	if err != nil {
		log.Printf("[startHandler] rejected domain %q: %v", request.Domain, err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.syncRequested(ctx) {
		log.Printf("[startHandler] running synchronous scan for %s", domain)
		report, err := s.orch.WithProgress(nil).Run(ctx.Request.Context(), domain)
		s.save(report)
		if report == nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Printf("[startHandler] scan for %s ended with: %v", domain, err)
		}
		ctx.JSON(http.StatusOK, report)
		return
	}

	id := s.jobs.Submit(domain)
	log.Printf("[startHandler] scan queued, id=%s", id)
	ctx.JSON(http.StatusAccepted, gin.H{"jobId": id})
}

func (s *Server) syncRequested(ctx *gin.Context) bool {
	if q := ctx.Query("sync"); q != "" {
		sync, err := strconv.ParseBool(q)
		return err == nil && sync
	}
	return s.cfg.Sync
}

func (s *Server) statusHandler(ctx *gin.Context) {
	id := ctx.Param("id")

	job, err := s.jobs.Get(id)
	if errors.Is(err, jobs.ErrNotFound) {
		log.Printf("[statusHandler] job not found id=%s", id)
		ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	ctx.JSON(http.StatusOK, job)
}

func (s *Server) healthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"wordlistSize": discovery.WordlistSize(),
	})
}
