package wizard

import (
	"context"
	"sync"
	"time"
)

const DefaultAutoSaveInterval = 30 * time.Second

// AutoSaver calls Controller.AutoSave on a fixed interval. It does not coordinate with manual
// saves, and Stop waits for an in-flight save to finish instead of cancelling it.
type AutoSaver struct {
	c        *Controller
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func NewAutoSaver(c *Controller, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}
	return &AutoSaver{c: c, interval: interval}
}

// Start launches the timer loop. Calling Start on a running saver is a no-op.
// Saves run with ctx; the loop also ends when ctx is done.
func (a *AutoSaver) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.loop(ctx, a.stop, a.done)
}

// Stop ends the loop and blocks until it has exited.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stop)
	done := a.done
	a.mu.Unlock()
	<-done
}

func (a *AutoSaver) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(a.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			a.c.AutoSave(ctx)
		}
	}
}
