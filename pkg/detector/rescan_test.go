package detector

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRescannerCoalescesBursts(t *testing.T) {
	var scans atomic.Int32
	r := NewRescanner(20*time.Millisecond, func() {
		scans.Add(1)
	})
	defer r.Stop()

	// A burst of notifications inside one window yields a single scan.
	for i := 0; i < 5; i++ {
		r.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for scans.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Allow the window to fully drain before counting.
	time.Sleep(50 * time.Millisecond)

	if got := scans.Load(); got != 1 {
		t.Errorf("scans = %d, want 1", got)
	}
}

func TestRescannerRunsAgainAfterQuietPeriod(t *testing.T) {
	var scans atomic.Int32
	r := NewRescanner(10*time.Millisecond, func() {
		scans.Add(1)
	})
	defer r.Stop()

	r.Notify()
	time.Sleep(50 * time.Millisecond)
	r.Notify()
	time.Sleep(50 * time.Millisecond)

	if got := scans.Load(); got != 2 {
		t.Errorf("scans = %d, want 2", got)
	}
}

func TestRescannerStopCancelsPending(t *testing.T) {
	var scans atomic.Int32
	r := NewRescanner(20*time.Millisecond, func() {
		scans.Add(1)
	})

	r.Notify()
	r.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := scans.Load(); got != 0 {
		t.Errorf("scan fired after Stop, scans = %d", got)
	}

	// Notifications after Stop are ignored.
	r.Notify()
	time.Sleep(60 * time.Millisecond)
	if got := scans.Load(); got != 0 {
		t.Errorf("stopped rescanner scanned, scans = %d", got)
	}
}

func TestRescannerNotifyDuringScanReschedules(t *testing.T) {
	var scans atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	r := NewRescanner(5*time.Millisecond, func() {
		if scans.Add(1) == 1 {
			close(started)
			<-release
		}
	})
	defer r.Stop()

	r.Notify()
	<-started

	// Mid-scan notification: once the window elapses it must not overlap,
	// but it must run after the current scan finishes.
	r.Notify()
	time.Sleep(20 * time.Millisecond)
	if got := scans.Load(); got != 1 {
		t.Fatalf("scan overlapped an in-flight scan, scans = %d", got)
	}
	close(release)

	deadline := time.Now().Add(time.Second)
	for scans.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := scans.Load(); got != 2 {
		t.Errorf("pending rescan never ran, scans = %d", got)
	}
}
