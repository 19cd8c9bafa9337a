// Package debounce collapses bursts of calls into a single trailing call.
package debounce

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Cancel after the callback has fired is
// a no-op.
type Handle interface {
	Cancel()
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
}

// RealScheduler schedules on the runtime timer heap.
type RealScheduler struct{}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() { h.t.Stop() }

// Schedule implements Scheduler.
func (RealScheduler) Schedule(delay time.Duration, fn func()) Handle {
	return timerHandle{t: time.AfterFunc(delay, fn)}
}

// Debouncer runs only the last function passed to Call within a quiet window.
// Earlier pending calls are cancelled; a callback that already fired its timer
// but lost the race to a newer Call is discarded by sequence number.
type Debouncer struct {
	delay     time.Duration
	scheduler Scheduler

	mu      sync.Mutex
	seq     uint64
	pending Handle
}

// New returns a Debouncer. A nil scheduler means RealScheduler.
func New(delay time.Duration, scheduler Scheduler) *Debouncer {
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	return &Debouncer{delay: delay, scheduler: scheduler}
}

// Call (re)arms the timer with fn.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}
	d.seq++
	seq := d.seq
	d.pending = d.scheduler.Schedule(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
	d.seq++
}

// Delay reports the quiet window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
