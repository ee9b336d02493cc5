package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/preflight"
	"scribe/internal/transcriptcache"
	"scribe/internal/transcription"
)

// Daemon serves the transcription API and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	cache   *transcriptcache.Store
	svc     *transcription.Service
	version string

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents server runtime information.
type Status struct {
	Running       bool
	PID           int
	LockFilePath  string
	CacheEnabled  bool
	CachePath     string
	CacheEntries  int
	Active        int64
	MaxConcurrent int
	Dependencies  []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, cache *transcriptcache.Store, svc *transcription.Service, logger *slog.Logger, version string) (*Daemon, error) {
	if cfg == nil || cache == nil || svc == nil {
		return nil, errors.New("daemon requires config, cache, and transcription service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		cache:    cache,
		svc:      svc,
		version:  version,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("server already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another scribe server is already using %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("scribe server started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.addr()),
		logging.Bool("cache_enabled", d.cache.Enabled()),
		logging.Int("max_concurrent", d.svc.MaxConcurrent()),
	)
	return nil
}

// Stop stops serving and releases the instance lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no server is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("scribe server stopped")
}

// Close stops the server and closes the cache.
func (d *Daemon) Close() error {
	d.Stop()
	return d.cache.Close()
}

// Addr returns the bound listener address, empty when not serving.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current server status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		LockFilePath:  d.lockPath,
		CacheEnabled:  d.cache.Enabled(),
		CachePath:     d.cache.Path(),
		Active:        d.svc.Active(),
		MaxConcurrent: d.svc.MaxConcurrent(),
		Dependencies:  preflight.RunAll(d.cfg),
	}
	if count, err := d.cache.Count(ctx); err == nil {
		status.CacheEntries = count
	} else {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "cache count failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status reports zero cache entries"),
		)
	}
	return status
}
