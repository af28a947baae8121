// Package lifecycle runs subsystem startup and shutdown hooks and reports
// whether the process is ready for traffic.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrShutdownIncomplete is returned when shutdown hooks outlive the caller's deadline.
var ErrShutdownIncomplete = errors.New("shutdown hooks did not finish")

// ReadinessChecker reports whether a subsystem can serve requests.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator owns the process context. Startup hooks run as soon as they
// are registered; shutdown hooks are expected to block on Context().Done().
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup

	started     chan struct{}
	startedOnce sync.Once

	mu       sync.RWMutex
	checkers []ReadinessChecker
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		started: make(chan struct{}),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine.
func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

// OnShutdown runs fn in its own goroutine; Shutdown waits for it.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Watch adds subsystems whose readiness gates Ready. Nil checkers are ignored.
func (c *Coordinator) Watch(checkers ...ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rc := range checkers {
		if rc != nil {
			c.checkers = append(c.checkers, rc)
		}
	}
}

// Started is closed once WaitForStartup has observed every startup hook return.
func (c *Coordinator) Started() <-chan struct{} {
	return c.started
}

// Ready reports whether startup finished and every watched subsystem is ready.
func (c *Coordinator) Ready() bool {
	select {
	case <-c.started:
	default:
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rc := range c.checkers {
		if !rc.Ready() {
			return false
		}
	}
	return true
}

// WaitForStartup blocks until the startup hooks registered so far return.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.startedOnce.Do(func() { close(c.started) })
}

// Shutdown cancels Context and waits for the shutdown hooks until ctx ends.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrShutdownIncomplete, ctx.Err())
	}
}
