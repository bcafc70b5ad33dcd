package engine

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lazypower/companion/internal/config"
)

type task struct {
	name string
	fn   func(ctx context.Context)
}

// Pool runs fire-and-forget background tasks on a fixed set of workers.
// A task that panics is logged and does not take down its worker.
//
// Every task runs under the configured timeout, and Submit drops a task
// when the queue is full. Insight extraction is therefore best-effort: under
// load or with a slow model some turns are never learned from.
type Pool struct {
	tasks   chan task
	timeout time.Duration
	logger  *log.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts cfg.Count workers over a queue of cfg.Queue tasks.
func NewPool(cfg config.WorkerConfig, logger *log.Logger) *Pool {
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	if cfg.Queue < 0 {
		cfg.Queue = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	p := &Pool{
		tasks:   make(chan task, cfg.Queue),
		timeout: cfg.Timeout,
		logger:  logger,
	}
	p.wg.Add(cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		go p.work()
	}
	return p
}

// Submit queues fn without blocking. It returns false when the task was
// dropped because the queue is full or the pool is closed.
func (p *Pool) Submit(name string, fn func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("task dropped, pool closed", "task", name)
		return false
	}
	select {
	case p.tasks <- task{name: name, fn: fn}:
		return true
	default:
		p.logger.Warn("task dropped, queue full", "task", name)
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool) run(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "task", t.name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	t.fn(ctx)
	p.logger.Debug("task done", "task", t.name, "took", time.Since(start))
}
