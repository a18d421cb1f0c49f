package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediahub/internal/logging"
	"mediahub/internal/metrics"
	"mediahub/internal/services"
)

// Task is one unit of pool work. The context is cancelled on Shutdown.
type Task func(ctx context.Context)

// Pool runs tasks on at most maxWorkers goroutines. It keeps no idle
// workers: a worker that waits longer than idle for work exits.
type Pool struct {
	maxWorkers int
	idle       time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	queue   []Task
	workers int
	waiting int
	closed  bool
	wake    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool bound to ctx.
func NewPool(ctx context.Context, maxWorkers int, idle time.Duration, logger *slog.Logger, m *metrics.Metrics) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if idle <= 0 {
		idle = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		maxWorkers: maxWorkers,
		idle:       idle,
		logger:     logging.NewComponentLogger(logger, "enrichment-pool"),
		metrics:    m,
		wake:       make(chan struct{}, maxWorkers),
		ctx:        runCtx,
		cancel:     cancel,
	}
}

// Submit queues task. It returns false once the pool is shut down.
func (p *Pool) Submit(task Task) bool {
	if task == nil {
		return false
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, task)
	p.metrics.EnrichmentQueued(1)
	spawn := p.waiting == 0 && p.workers < p.maxWorkers
	if spawn {
		p.workers++
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if spawn {
		p.metrics.EnrichmentWorkers(1)
		go p.work()
		return true
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return true
}

// Workers returns the number of live workers.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Shutdown drops queued tasks, cancels running ones and waits for every
// worker to return.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	dropped := len(p.queue)
	p.queue = nil
	p.mu.Unlock()

	p.metrics.EnrichmentQueued(-dropped)
	p.cancel()
	p.wg.Wait()
	if dropped > 0 {
		p.logger.Info("enrichment pool stopped", logging.Int("dropped_tasks", dropped))
	}
}

func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) > 0 {
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.metrics.EnrichmentQueued(-1)
		return task, true
	}
	p.waiting++
	return nil, false
}

// retire decides whether a worker that was waiting for work exits.
func (p *Pool) retire(timedOut bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiting--
	if p.closed || (timedOut && len(p.queue) == 0) {
		p.workers--
		return true
	}
	return false
}

func (p *Pool) work() {
	defer p.wg.Done()
	defer p.metrics.EnrichmentWorkers(-1)

	timer := time.NewTimer(p.idle)
	defer timer.Stop()
	for {
		task, ok := p.next()
		if ok {
			p.run(task)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.idle)

		timedOut := false
		select {
		case <-p.ctx.Done():
			p.mu.Lock()
			p.waiting--
			p.workers--
			p.mu.Unlock()
			return
		case <-p.wake:
		case <-timer.C:
			timedOut = true
		}
		if p.retire(timedOut) {
			return
		}
	}
}

func (p *Pool) run(task Task) {
	if p.ctx.Err() != nil {
		return
	}
	jobID := uuid.NewString()
	ctx := services.WithJobID(p.ctx, jobID)
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "enrichment task panicked", "enrichment_panic",
				logging.Any("panic", r),
				logging.String(logging.FieldImpact, "metadata for this file was not updated"),
			)
		}
	}()
	task(ctx)
}
