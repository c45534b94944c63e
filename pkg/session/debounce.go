package session

import "time"

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Implementations decide which goroutine runs f; a
// session expects it on the same event loop that delivers its edits.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// LoopScheduler schedules with the runtime timer and hands fired callbacks to
// Post, which should queue them on the session's event loop.
type LoopScheduler struct {
	Post func(func())
}

func (s LoopScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { s.Post(f) })
}

// Debouncer runs the latest triggered callback once no new trigger has
// arrived for its delay.
type Debouncer struct {
	sched Scheduler
	delay time.Duration
	timer Timer
	seq   uint64
}

func NewDebouncer(sched Scheduler, delay time.Duration) *Debouncer {
	return &Debouncer{sched: sched, delay: delay}
}

// Trigger schedules f, cancelling any callback still pending.
func (d *Debouncer) Trigger(f func()) {
	d.Cancel()
	seq := d.seq
	d.timer = d.sched.AfterFunc(d.delay, func() {
		// a callback posted before a later Trigger must not run
		if seq != d.seq {
			return
		}
		d.timer = nil
		f()
	})
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a callback is waiting to run.
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}
