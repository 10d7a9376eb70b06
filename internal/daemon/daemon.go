package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lingopal/lingopal/internal/api"
	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/domain"
	"github.com/lingopal/lingopal/internal/health"
	"github.com/lingopal/lingopal/internal/infra/sqlite"
)

// Daemon is the core lingopal runtime. It wires together all services.
type Daemon struct {
	Config     Config
	DB         *sqlite.DB
	Engagement *engagement.Service
	Server     *api.Server
	Health     *health.Checker
	log        *zap.Logger
	cancel     context.CancelFunc
}

// NewWithConfig creates a Daemon with the given configuration, storing
// state under dir.
func NewWithConfig(ctx context.Context, cfg Config, dir string, log *zap.Logger) (*Daemon, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Open SQLite
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Engagement engine
	svc, err := engagement.New(ctx, db, domain.SystemClock{}, log, cfg.Engagement())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("start engagement: %w", err)
	}

	// Health checks over the store, state dir and pet
	checker := health.NewChecker(db, dir, func() domain.PetState {
		return svc.Snapshot().Pet
	}, log)
	checker.Add(health.Check{
		Name: "persistence",
		CheckFn: func(context.Context) error {
			if !svc.Persisting() {
				return errors.New("stored progress failed to load; changes are not being saved")
			}
			return nil
		},
	})

	// Initialize API server
	srv := api.NewServer(svc, log)
	srv.SetHealth(checker)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:     cfg,
		DB:         db,
		Engagement: svc,
		Server:     srv,
		Health:     checker,
		log:        log.Named("daemon"),
	}, nil
}

// ErrDaemonRunning is returned when a one-shot command would share the state
// store with a live server.
var ErrDaemonRunning = errors.New("lingopal serve is running")

// Running reports whether something is listening on the configured API
// address, and returns the address probed.
func Running(cfg Config) (string, bool) {
	host := cfg.API.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, strconv.Itoa(cfg.API.Port))
	conn, err := net.DialTimeout("tcp", addr, 300*time.Millisecond)
	if err != nil {
		return addr, false
	}
	_ = conn.Close()
	return addr, true
}

// shutdownGrace bounds how long in-flight requests get after a stop signal.
const shutdownGrace = 10 * time.Second

// Serve starts the HTTP server and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, d.cancel = context.WithCancel(ctx)

	addr := net.JoinHostPort(d.Config.API.Host, strconv.Itoa(d.Config.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go d.Health.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		d.log.Info("serving",
			zap.String("addr", "http://"+addr),
			zap.Bool("metrics", d.Config.Telemetry.Prometheus))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		d.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Engagement != nil {
		d.Engagement.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
