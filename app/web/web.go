// Package web implements the status server: stored run reports over JSON API and manual run triggers
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/jenkins-e2e/app/scenario"
)

//go:generate moq -out mocks/reports.go -pkg mocks -skip-ensure -fmt goimports . Reports

// Reports provides stored run reports
type Reports interface {
	Runs(limit int) ([]scenario.Report, error)
	Run(id string) (scenario.Report, error)
}

// TriggerRequest asks the scheduler for a manual run
type TriggerRequest struct {
	Scenarios []string `json:"scenarios"` // empty for all
}

// Config holds server configuration
type Config struct {
	Reports      Reports
	Trigger      chan<- TriggerRequest // nil disables manual runs
	PasswordHash string                // bcrypt hash for basic auth, empty to disable auth
	Version      string
	TriggerRate  float64 // manual runs per second allowed from one address, 1 if not set
}

// Server represents the web server
type Server struct {
	reports      Reports
	trigger      chan<- TriggerRequest
	passwordHash string
	version      string
	limiter      *limiter.Limiter
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Reports == nil {
		return nil, errors.New("web server initialization failed: reports store is required")
	}
	rate := cfg.TriggerRate
	if rate <= 0 {
		rate = 1
	}
	lmt := tollbooth.NewLimiter(rate, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessage(`{"error":"too many requests"}`).SetMessageContentType("application/json")

	return &Server{
		reports:      cfg.Reports,
		trigger:      cfg.Trigger,
		passwordHash: cfg.PasswordHash,
		version:      cfg.Version,
		limiter:      lmt,
	}, nil
}

// Run starts the web server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("jenkins-e2e", "umputun", s.version),
		rest.Ping,
		rest.SizeLimit(64*1024),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for web api")
		router.Use(s.authMiddleware)
	}

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /runs", s.handleRuns)
		api.HandleFunc("GET /runs/{id}", s.handleRun)
		api.HandleFunc("GET /scenarios", s.handleScenarios)
		if s.trigger != nil {
			api.With(tollbooth.HTTPMiddleware(s.limiter)).HandleFunc("POST /runs", s.handleTrigger)
		}
	})

	return router
}
