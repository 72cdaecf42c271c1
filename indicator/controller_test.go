package indicator

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recording captures the sequence of indicator calls.
type recording struct {
	mu    sync.Mutex
	calls []string
}

func (r *recording) add(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recording) Ready()                  { r.add("ready") }
func (r *recording) Scanning()               { r.add("scanning") }
func (r *recording) Welcome()                { r.add("welcome") }
func (r *recording) Farewell()               { r.add("farewell") }
func (r *recording) Error()                  { r.add("error") }
func (r *recording) Remaining(ratio float64) { r.add("remaining") }
func (r *recording) ConnectionLost()         { r.add("lost") }
func (r *recording) Shutdown()               { r.add("shutdown") }
func (r *recording) Release() error          { return nil }

// waitFor polls until the recorded calls end with want.
func (r *recording) waitFor(t *testing.T, want ...string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		calls := append([]string(nil), r.calls...)
		r.mu.Unlock()
		if len(calls) >= len(want) {
			tail := calls[len(calls)-len(want):]
			match := true
			for i := range want {
				if tail[i] != want[i] {
					match = false
					break
				}
			}
			if match {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Fatalf("calls = %v; want tail %v", r.calls, want)
}

func startController(t *testing.T, cfg Config) (*Controller, *recording, context.CancelFunc) {
	t.Helper()
	rec := &recording{}
	c := NewController(rec, cfg)
	c.hold = 0
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)
	rec.waitFor(t, "ready")
	return c, rec, cancel
}

func TestScanToWelcome(t *testing.T) {
	c, rec, _ := startController(t, Config{Welcome: true})

	c.TagScanned()
	rec.waitFor(t, "scanning")
	c.Resolved(true)
	rec.waitFor(t, "scanning", "welcome", "ready")
}

func TestUnknownTagShowsError(t *testing.T) {
	c, rec, _ := startController(t, Config{Welcome: true})

	c.TagScanned()
	c.Resolved(false)
	rec.waitFor(t, "scanning", "error", "ready")
}

func TestWelcomeToggleOff(t *testing.T) {
	c, rec, _ := startController(t, Config{Welcome: false})

	c.TagScanned()
	c.Resolved(true)
	// No welcome frame: straight back to ready.
	rec.waitFor(t, "scanning", "ready")
}

func TestFarewellPulse(t *testing.T) {
	c, rec, _ := startController(t, Config{Farewell: true})

	c.TagRemoved()
	rec.waitFor(t, "farewell", "ready")
}

func TestFarewellToggleOff(t *testing.T) {
	c, rec, _ := startController(t, Config{Farewell: false})

	c.TagRemoved()
	rec.waitFor(t, "ready", "ready")
}

func TestReaderUnavailableVisual(t *testing.T) {
	c, rec, _ := startController(t, Config{})

	c.ReaderStatus(false)
	rec.waitFor(t, "lost")
	c.ReaderStatus(true)
	rec.waitFor(t, "lost", "ready")
}

func TestRemainingGatedByToggleAndAvailability(t *testing.T) {
	c, rec, _ := startController(t, Config{Remaining: true})

	c.Progress(0.5)
	rec.waitFor(t, "remaining")

	c.ReaderStatus(false)
	rec.waitFor(t, "lost")
	c.Progress(0.25) // suppressed while unavailable
	c.ReaderStatus(true)
	rec.waitFor(t, "lost", "ready")

	off, recOff, _ := startController(t, Config{Remaining: false})
	off.Progress(0.5)
	off.TagScanned() // marker event to prove the progress was skipped
	recOff.waitFor(t, "ready", "scanning")
}

func TestShutdownBlanks(t *testing.T) {
	_, rec, cancel := startController(t, Config{})
	cancel()
	rec.waitFor(t, "shutdown")
}
