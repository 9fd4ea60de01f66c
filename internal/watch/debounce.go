package watch

import (
	"context"
	"sync"
	"time"
)

// Debouncer delays fire until no Trigger happened for the configured delay.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fire  func()
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// Trigger restarts the delay.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Stop cancels a pending fire.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Worker runs rebuilds one at a time. Requests that arrive while a rebuild
// is running collapse into a single follow-up run.
type Worker struct {
	run func(ctx context.Context)
	req chan struct{}
}

// NewWorker creates a Worker calling run for every coalesced request.
func NewWorker(run func(ctx context.Context)) *Worker {
	return &Worker{run: run, req: make(chan struct{}, 1)}
}

// Request asks for a rebuild without blocking.
func (w *Worker) Request() {
	select {
	case w.req <- struct{}{}:
	default:
	}
}

// Run processes requests until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.req:
			if ctx.Err() != nil {
				return
			}
			w.run(ctx)
		}
	}
}
