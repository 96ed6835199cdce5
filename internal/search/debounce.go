// Package search buffers query keystrokes and commits the latest one after
// a quiet period.
package search

import (
	"sync"
	"time"
)

const DefaultQuietPeriod = 300 * time.Millisecond

// Debouncer is a single-slot delayed commit: each Update re-arms the timer
// and overwrites the pending query, so only the last query of a burst is
// committed, once, a quiet period after the burst ends.
type Debouncer struct {
	quiet  time.Duration
	commit func(query string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	gen     uint64
	armed   bool
	stopped bool
}

// New returns a Debouncer that calls commit with the committed query. The
// commit callback runs on the timer goroutine for debounced commits and on
// the caller's goroutine for Clear.
func New(quiet time.Duration, commit func(query string)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet, commit: commit}
}

// Update records the latest query and restarts the quiet-period timer.
// Each update starts a fresh timer tagged with a generation, so a stale
// timer that already fired and is waiting on the lock cannot commit an
// update it was not armed for.
func (d *Debouncer) Update(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = query
	d.armed = true
	d.gen++
	g := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.onTimer(g) })
}

func (d *Debouncer) onTimer(g uint64) {
	d.mu.Lock()
	// A Clear or Stop that raced the timer firing has already disarmed us;
	// a newer Update superseded this timer's generation.
	if d.stopped || !d.armed || g != d.gen {
		d.mu.Unlock()
		return
	}
	d.armed = false
	query := d.pending
	d.mu.Unlock()
	d.commit(query)
}

// Clear cancels any pending commit and commits the empty query immediately,
// bypassing the quiet period.
func (d *Debouncer) Clear() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.cancelLocked()
	d.pending = ""
	d.mu.Unlock()
	d.commit("")
}

// Stop cancels any pending commit without committing. Stopping twice is
// fine; a stopped Debouncer ignores further updates.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
