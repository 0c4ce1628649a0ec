package service

import (
	"context"
	"sync"
	"time"

	"github.com/sifan077/PowerBio/internal/app/cache"
	"github.com/sifan077/PowerBio/internal/app/model"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
)

const defaultApplyTimeout = 5 * time.Second

// ClickScheduler queues a click-count update. Schedule never blocks on I/O and
// never fails the caller; problems end up in the log.
type ClickScheduler interface {
	Schedule(task model.ClickCountTask)
}

// ClickIncrementer is the slice of the directory the counter worker needs.
type ClickIncrementer interface {
	IncrementClicks(ctx context.Context, id string) (int64, error)
}

// ClickApplier executes one update: a relative +1 on the directory row, then
// invalidation of the cached snapshot so the next redirect rereads the count.
type ClickApplier struct {
	links   ClickIncrementer
	cache   *cache.LinkCache
	logger  *zap.Logger
	timeout time.Duration
}

func NewClickApplier(links ClickIncrementer, linkCache *cache.LinkCache, logger *zap.Logger) *ClickApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickApplier{
		links:   links,
		cache:   linkCache,
		logger:  logger,
		timeout: defaultApplyTimeout,
	}
}

// Apply runs the task. A failed increment is logged and returned; the cache is
// left alone in that case.
func (a *ClickApplier) Apply(ctx context.Context, task model.ClickCountTask) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	clicks, err := a.links.IncrementClicks(ctx, task.LinkID)
	if err != nil {
		metrics.ClickUpdatesTotal.WithLabelValues("failed").Inc()
		a.logger.Error("failed to increment short link clicks",
			zap.String("link_id", task.LinkID),
			zap.String("code", task.Code),
			zap.Error(err),
		)
		return err
	}

	if a.cache != nil {
		a.cache.Delete(ctx, task.Code)
	}

	metrics.ClickUpdatesTotal.WithLabelValues("ok").Inc()
	a.logger.Debug("short link click counted",
		zap.String("link_id", task.LinkID),
		zap.String("code", task.Code),
		zap.Int64("clicks", clicks),
	)
	return nil
}

// LocalClickQueue runs updates on a fixed pool of goroutines. When the buffer
// is full the task is dropped and counted rather than blocking the redirect.
type LocalClickQueue struct {
	applier *ClickApplier
	logger  *zap.Logger
	tasks   chan model.ClickCountTask
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewLocalClickQueue starts workers goroutines reading from a buffer of size buffer.
func NewLocalClickQueue(applier *ClickApplier, workers, buffer int, logger *zap.Logger) *LocalClickQueue {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &LocalClickQueue{
		applier: applier,
		logger:  logger,
		tasks:   make(chan model.ClickCountTask, buffer),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work()
	}
	return q
}

func (q *LocalClickQueue) Schedule(task model.ClickCountTask) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(task, "queue closed")
		return
	}
	select {
	case q.tasks <- task:
	default:
		q.drop(task, "queue full")
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *LocalClickQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *LocalClickQueue) work() {
	defer q.wg.Done()
	for task := range q.tasks {
		// Apply logs its own failures; updates are not retried.
		_ = q.applier.Apply(context.Background(), task)
	}
}

func (q *LocalClickQueue) drop(task model.ClickCountTask, reason string) {
	metrics.ClickUpdatesTotal.WithLabelValues("dropped").Inc()
	q.logger.Warn("dropping click count update",
		zap.String("reason", reason),
		zap.String("link_id", task.LinkID),
		zap.String("code", task.Code),
	)
}
