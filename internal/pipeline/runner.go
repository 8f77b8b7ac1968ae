package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"prankweb-sync/internal/config"
	"prankweb-sync/internal/logging"
	"prankweb-sync/internal/registry"
	"prankweb-sync/internal/services/pdb"
	"prankweb-sync/internal/services/prankweb"
)

// ErrStrictAbort marks a per-entry conversion failure that strict mode
// escalated into a whole-run abort.
var ErrStrictAbort = errors.New("strict mode abort")

// Runner owns the registry for the duration of one synchronization run.
type Runner struct {
	cfg        *config.Config
	store      *registry.Store
	logger     *slog.Logger
	discovery  pdb.Discoverer
	prediction prankweb.Service
	now        func() time.Time
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner constructs a pipeline runner.
func NewRunner(cfg *config.Config, store *registry.Store, logger *slog.Logger, discovery pdb.Discoverer, prediction prankweb.Service, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		cfg:        cfg,
		store:      store,
		logger:     logger,
		discovery:  discovery,
		prediction: prediction,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes one full synchronization: discovery, polling, conversion,
// each followed by a registry checkpoint. The from date is the discovery
// watermark; it is persisted after the polling phase regardless of how many
// records discovery returned. Conversion failures abort the run only in
// strict mode; an unexpected conversion error is logged after the registry
// has been saved and is not surfaced to the caller.
func (r *Runner) Run(ctx context.Context, from string) error {
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire registry lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("registry at %s is locked by another run", r.cfg.Paths.DataDir)
	}
	defer lock.Unlock()

	r.logger.Info("fetching pdb records", logging.String("from", from))
	if err := r.discover(ctx, from); err != nil {
		return err
	}
	if err := r.store.Save(); err != nil {
		return err
	}

	r.logger.Info("synchronizing with prankweb server")
	pollErr := r.poll(ctx)
	r.store.SetLastSynchronization(from)
	if err := r.store.Save(); err != nil {
		return err
	}
	if pollErr != nil {
		return pollErr
	}

	r.logger.Info("downloading results from prankweb server")
	convertErr := r.convert(ctx)
	if err := r.store.Save(); err != nil {
		return err
	}
	if convertErr != nil {
		if errors.Is(convertErr, ErrStrictAbort) || errors.Is(convertErr, context.Canceled) {
			return convertErr
		}
		// State is already saved; an unexpected conversion error ends the
		// run without being surfaced.
		r.logger.Error("can't prepare funpdbe files", logging.Error(convertErr))
		return nil
	}

	r.logger.Info("all done")
	return nil
}
