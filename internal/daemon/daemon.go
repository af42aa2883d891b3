package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homesolution/homesolution/internal/api"
	"github.com/homesolution/homesolution/internal/app/journal"
	"github.com/homesolution/homesolution/internal/app/registry"
	"github.com/homesolution/homesolution/internal/health"
	"github.com/homesolution/homesolution/internal/infra/sqlite"
)

// Daemon is the core HomeSolution runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB       // nil when the journal is disabled
	Journal  *journal.Service // nil when the journal is disabled
	Registry *registry.Service
	Server   *api.Server
	Health   *health.Checker

	version string
	logFile io.Closer
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg, version)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Daemon{Config: cfg, version: version}

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		d.logFile = f
	}

	// Cost journal
	var recorder registry.Recorder
	if cfg.Journal.Enabled {
		db, err := sqlite.Open(cfg.Journal.Dir)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		d.DB = db
		d.Journal = journal.NewService(db)
		recorder = d.Journal
		if err := db.SetMeta("last_start", time.Now().UTC().Format(time.RFC3339)); err != nil {
			log.Printf("[daemon] WARNING: record start time: %v", err)
		}
	}

	d.Registry = registry.New(registry.Options{
		Journal: recorder,
		Debug:   cfg.Logging.Level == "debug",
	})

	// Health checker
	checks := []health.Check{health.AssignmentCheck(d.Registry)}
	if d.DB != nil {
		checks = append(checks, health.JournalCheck(d.DB), health.DataDirCheck(cfg.Journal.Dir))
	}
	d.Health = health.NewChecker(cfg.HealthInterval(), checks...)

	// API server
	srv := api.NewServer(d.Registry, version)
	srv.SetHealth(d.Health)
	srv.SetCORSOrigins(corsOrigins(cfg.API.CORSOrigins))
	if d.Journal != nil {
		srv.SetJournal(d.Journal)
	}
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	if cfg.Logging.Level == "debug" {
		srv.EnableRequestLog()
	}
	d.Server = srv

	return d, nil
}

// corsOrigins maps the "*" wildcard to an unrestricted server.
func corsOrigins(origins []string) []string {
	for _, o := range origins {
		if o == "*" {
			return nil
		}
	}
	return origins
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			log.Printf("[daemon] shutting down")
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("HomeSolution %s serving on http://%s\n", d.version, addr)
	if d.Journal != nil {
		fmt.Printf("  Journal: %s\n", d.Config.Journal.Dir)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logFile != nil {
		_ = d.logFile.Close()
	}
}
