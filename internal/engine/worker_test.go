package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lazypower/companion/internal/config"
	"github.com/lazypower/companion/internal/logging"
)

func TestPoolRunsAndDrains(t *testing.T) {
	p := NewPool(config.WorkerConfig{Count: 2, Queue: 16}, logging.Discard())

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		assert.True(t, p.Submit("count", func(ctx context.Context) { n.Add(1) }))
	}
	p.Close()
	assert.EqualValues(t, 10, n.Load())
}

func TestPoolSurvivesPanic(t *testing.T) {
	p := NewPool(config.WorkerConfig{Count: 1, Queue: 4}, logging.Discard())

	var ran atomic.Bool
	p.Submit("boom", func(ctx context.Context) { panic("boom") })
	p.Submit("after", func(ctx context.Context) { ran.Store(true) })
	p.Close()

	assert.True(t, ran.Load(), "worker should keep running after a panic")
}

func TestPoolDropsWhenFull(t *testing.T) {
	p := NewPool(config.WorkerConfig{Count: 1, Queue: 1}, logging.Discard())

	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, p.Submit("block", func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	assert.True(t, p.Submit("queued", func(ctx context.Context) {}))
	assert.False(t, p.Submit("dropped", func(ctx context.Context) {}))

	close(release)
	p.Close()
}

func TestPoolClosedRejects(t *testing.T) {
	p := NewPool(config.WorkerConfig{Count: 1, Queue: 1}, logging.Discard())
	p.Close()
	p.Close() // idempotent

	assert.False(t, p.Submit("late", func(ctx context.Context) {}))
}

func TestPoolTaskTimeout(t *testing.T) {
	p := NewPool(config.WorkerConfig{Count: 1, Queue: 1, Timeout: 20 * time.Millisecond}, logging.Discard())

	var err atomic.Value
	p.Submit("slow", func(ctx context.Context) {
		<-ctx.Done()
		err.Store(ctx.Err())
	})
	p.Close()
	assert.ErrorIs(t, err.Load().(error), context.DeadlineExceeded)
}
