// Package presence turns raw read attempts into debounced scan and
// removal events. The Monitor owns the reader transport exclusively:
// nothing else in the process may touch the hardware.
package presence

import (
	"context"
	"log"
	"sync"
	"time"

	"tagtone/reader"
)

// Config holds poll-loop tuning. Zero values select the defaults.
type Config struct {
	PollIntervalMS  int `yaml:"poll_interval_ms"` // default 100
	FaultThreshold  int `yaml:"fault_threshold"`  // faults before a reset, default 5
	AbsentThreshold int `yaml:"absent_threshold"` // misses before removal, default 3
	ResetRetries    int `yaml:"reset_retries"`    // resets before unavailable, default 3
}

func (c Config) withDefaults() Config {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 100
	}
	if c.FaultThreshold <= 0 {
		c.FaultThreshold = 5
	}
	if c.AbsentThreshold <= 0 {
		c.AbsentThreshold = 3
	}
	if c.ResetRetries <= 0 {
		c.ResetRetries = 3
	}
	return c
}

// Events holds the callbacks the Monitor fires from its poll goroutine.
// Handlers must not block; downstream consumers hand off to their own
// workers.
type Events struct {
	OnScan         func(tag string)
	OnRemove       func(tag string)
	OnReaderStatus func(available bool)
}

// Scan is a snapshot of the most recent tag detection.
type Scan struct {
	Tag string
	At  time.Time
}

// Monitor drives the reader poll loop and owns all presence and
// reader-health state.
type Monitor struct {
	transport reader.Transport
	cfg       Config
	events    Events

	// Poll-loop state. Only the tick path touches these.
	current     string // "" when idle
	presentAt   time.Time
	lastSeenAt  time.Time
	absentTicks int
	faults      int // consecutive hardware faults since last reset/success
	resetTries  int // consecutive resets without a successful read
	lastResetAt time.Time

	// Snapshots readable from other goroutines.
	mu        sync.Mutex
	lastScan  *Scan
	available bool
}

// New creates a Monitor. The transport must not be used by any other
// caller afterwards.
func New(t reader.Transport, cfg Config, events Events) *Monitor {
	return &Monitor{
		transport: t,
		cfg:       cfg.withDefaults(),
		events:    events,
		available: true,
	}
}

// Run polls until the context is cancelled. The current tick always
// completes before Run returns.
func (m *Monitor) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.PollIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, time.Now())
		}
	}
}

// tick performs one poll cycle: a single read attempt, fault
// accounting, and the presence transitions.
func (m *Monitor) tick(ctx context.Context, now time.Time) {
	tag, present, err := m.transport.ReadTag(ctx)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		m.fault(ctx, now, err)
		// A faulted read says nothing about the tag, but counting it
		// as a miss keeps a dead reader from pinning a stale Present
		// state forever.
		m.miss(now)
		return
	}

	m.faults = 0
	m.resetTries = 0
	m.setAvailable(true)

	if present {
		m.hit(tag, now)
	} else {
		m.miss(now)
	}
}

func (m *Monitor) fault(ctx context.Context, now time.Time, err error) {
	m.faults++
	log.Printf("Reader fault (%d/%d): %v", m.faults, m.cfg.FaultThreshold, err)
	if m.faults < m.cfg.FaultThreshold {
		return
	}

	// Threshold reached: force a hardware reset. The counter clears
	// regardless of the reset outcome so faults re-accumulate from
	// scratch against the freshly reset device.
	m.faults = 0
	m.lastResetAt = now
	m.resetTries++
	if rerr := m.transport.Reset(ctx); rerr != nil {
		log.Printf("Reader reset failed: %v", rerr)
	} else {
		log.Printf("Reader reset issued")
	}

	// Self-healing never gives up: past the retry budget the reader is
	// reported unavailable but polling continues, in case the hardware
	// is reseated.
	if m.resetTries >= m.cfg.ResetRetries {
		m.setAvailable(false)
	}
}

// hit handles a successful read of tag at now. Scan events are strictly
// edge-triggered: repeats of the current tag emit nothing.
func (m *Monitor) hit(tag string, now time.Time) {
	m.absentTicks = 0
	m.lastSeenAt = now

	if m.current == tag {
		return
	}

	m.current = tag
	m.presentAt = now

	m.mu.Lock()
	m.lastScan = &Scan{Tag: tag, At: now}
	m.mu.Unlock()

	if m.events.OnScan != nil {
		m.events.OnScan(tag)
	}
}

// miss handles a tick with no tag. Removal is debounced: the Present
// state survives short gaps from a momentarily misaligned tag.
func (m *Monitor) miss(now time.Time) {
	if m.current == "" {
		return
	}
	m.absentTicks++
	if m.absentTicks < m.cfg.AbsentThreshold {
		return
	}

	tag := m.current
	m.current = ""
	m.absentTicks = 0
	if m.events.OnRemove != nil {
		m.events.OnRemove(tag)
	}
}

func (m *Monitor) setAvailable(v bool) {
	m.mu.Lock()
	changed := m.available != v
	m.available = v
	m.mu.Unlock()

	if changed && m.events.OnReaderStatus != nil {
		m.events.OnReaderStatus(v)
	}
}

// LastScan returns the most recent scan, if any.
func (m *Monitor) LastScan() (Scan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastScan == nil {
		return Scan{}, false
	}
	return *m.lastScan, true
}

// Available reports whether the reader is currently considered healthy.
func (m *Monitor) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}
