// Package debounce provides a trailing-edge debounce primitive
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays delivery of a rapidly-changing value until it has
// stopped changing for the full delay window. Only the last value of a
// burst is delivered. A zero delay still defers delivery off the calling
// goroutine, never firing synchronously
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending T
	waiting bool
	stopped bool
}

// New builds a Debouncer that delivers settled values to fn
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if fn == nil {
		panic("debounce: nil delivery func")
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Set schedules v for delivery after the delay, cancelling any value still
// waiting from an earlier Set
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = v
	d.waiting = true
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// fire delivers the pending value unless it was already flushed or the
// debouncer was stopped
func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if d.stopped || !d.waiting {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.waiting = false
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}

// Flush delivers any pending value immediately instead of waiting out the
// delay. No-op when nothing is pending
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.waiting {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	v := d.pending
	d.waiting = false
	d.mu.Unlock()
	d.fn(v)
}

// Stop cancels any pending delivery and prevents all future ones.
// Safe to call more than once
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.waiting = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
