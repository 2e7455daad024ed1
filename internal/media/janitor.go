package media

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Deleter removes assets from the media host.
type Deleter interface {
	Delete(ctx context.Context, publicID string) error
}

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// Janitor deletes replaced or orphaned assets in the background. Failures are logged
// and never reach the request that scheduled the deletion.
type Janitor struct {
	deleter Deleter
	logger  *slog.Logger
	timeout time.Duration

	jobs chan string
	// ctx is cancelled when Shutdown starts; work carries in-flight deletions and is
	// cancelled once draining finishes or the shutdown deadline passes.
	ctx    context.Context
	cancel context.CancelFunc
	work   context.Context
	abort  context.CancelFunc

	// mu guards closed so no Enqueue sends on jobs after it is closed.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

var errJanitorClosed = errors.New("media janitor closed")

// NewJanitor starts a worker pool that deletes assets through deleter.
func NewJanitor(deleter Deleter, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	work, abort := context.WithCancel(context.Background())

	j := &Janitor{
		deleter: deleter,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		work:    work,
		abort:   abort,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules deletion of the asset. Blank ids are ignored.
func (j *Janitor) Enqueue(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return errJanitorClosed
	default:
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return errJanitorClosed
	case j.jobs <- publicID:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish. When ctx
// expires first, in-flight deletions are cancelled.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		// Cancelling first releases any Enqueue blocked on a full queue, which frees the lock.
		j.cancel()
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		j.abort()
		return ctx.Err()
	case <-done:
		j.abort()
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for publicID := range j.jobs {
		j.handle(publicID)
	}
}

func (j *Janitor) handle(publicID string) {
	if j.deleter == nil {
		j.logger.Error("media janitor missing deleter", "publicId", publicID)
		return
	}

	ctx, cancel := context.WithTimeout(j.work, j.timeout)
	defer cancel()

	if err := j.deleter.Delete(ctx, publicID); err != nil {
		j.logger.Error("media cleanup failed", "publicId", publicID, "error", err)
		return
	}
	j.logger.Debug("media asset deleted", "publicId", publicID)
}
