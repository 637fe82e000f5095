package detector

import (
	"sync"
	"time"
)

// defaultDebounce is the window mutations are batched over before a rescan.
const defaultDebounce = 250 * time.Millisecond

// Rescanner debounces mutation notifications into full-document rescans.
// A new notification resets the pending timer (cancelling the scheduled
// rescan, never an in-progress one), and an in-flight guard keeps two scans
// from overlapping: a notification arriving mid-scan reschedules instead.
//
// Full rescans rather than incremental diffs: form counts are tens, not
// thousands, and the processed markers make re-entry cheap.
type Rescanner struct {
	mu       sync.Mutex
	window   time.Duration
	timer    *time.Timer
	inFlight bool
	pending  bool
	stopped  bool
	scan     func()
}

// NewRescanner wraps scan in a debounced scheduler. window <= 0 uses the
// default.
func NewRescanner(window time.Duration, scan func()) *Rescanner {
	if window <= 0 {
		window = defaultDebounce
	}
	return &Rescanner{window: window, scan: scan}
}

// Notify records a mutation. The rescan fires once the window elapses with
// no further notifications.
func (r *Rescanner) Notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.window, r.run)
}

// Stop cancels any pending rescan. In-progress scans finish.
func (r *Rescanner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Rescanner) run() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	if r.inFlight {
		// A scan is running; remember to go again when it finishes.
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	for {
		r.scan()

		r.mu.Lock()
		if !r.pending || r.stopped {
			r.inFlight = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}
