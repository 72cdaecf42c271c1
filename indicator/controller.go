package indicator

import (
	"context"
	"time"
)

const defaultHold = 600 * time.Millisecond

type eventKind int

const (
	evScanned eventKind = iota
	evResolved
	evRemoved
	evReaderStatus
	evProgress
)

type event struct {
	kind  eventKind
	ok    bool
	avail bool
	ratio float64
}

// Controller runs the visual state machine on its own goroutine:
// Idle -> Scanning -> (Welcome | Error) -> Idle, with a Farewell pulse
// on removal. Producers enqueue without blocking, so a slow animation
// frame never delays tag polling or dispatch.
type Controller struct {
	ind    Indicator
	cfg    Config
	events chan event
	hold   time.Duration

	available bool // worker-owned
}

// NewController wraps ind. The feature toggles in cfg gate the
// welcome, farewell and remaining effects independently.
func NewController(ind Indicator, cfg Config) *Controller {
	return &Controller{
		ind:       ind,
		cfg:       cfg,
		events:    make(chan event, 16),
		hold:      defaultHold,
		available: true,
	}
}

// TagScanned signals immediate scan feedback.
func (c *Controller) TagScanned() { c.send(event{kind: evScanned}) }

// Resolved signals the outcome of mapping resolution: welcome when the
// tag was known, error otherwise.
func (c *Controller) Resolved(ok bool) { c.send(event{kind: evResolved, ok: ok}) }

// TagRemoved signals a tag removal.
func (c *Controller) TagRemoved() { c.send(event{kind: evRemoved}) }

// ReaderStatus signals reader availability changes.
func (c *Controller) ReaderStatus(avail bool) { c.send(event{kind: evReaderStatus, avail: avail}) }

// Progress updates the remaining-playback ring fill.
func (c *Controller) Progress(ratio float64) { c.send(event{kind: evProgress, ratio: ratio}) }

func (c *Controller) send(e event) {
	select {
	case c.events <- e:
	default:
		// Queue full: stale visuals are better than a blocked producer.
	}
}

// Run consumes events until the context is cancelled, then blanks the
// indicator.
func (c *Controller) Run(ctx context.Context) {
	c.idle()
	for {
		select {
		case <-ctx.Done():
			c.ind.Shutdown()
			return
		case e := <-c.events:
			c.apply(ctx, e)
		}
	}
}

func (c *Controller) apply(ctx context.Context, e event) {
	switch e.kind {
	case evScanned:
		c.ind.Scanning()

	case evResolved:
		if e.ok {
			if c.cfg.Welcome {
				c.ind.Welcome()
				c.wait(ctx)
			}
		} else {
			c.ind.Error()
			c.wait(ctx)
		}
		c.idle()

	case evRemoved:
		if c.cfg.Farewell {
			c.ind.Farewell()
			c.wait(ctx)
		}
		c.idle()

	case evReaderStatus:
		c.available = e.avail
		c.idle()

	case evProgress:
		if c.cfg.Remaining && c.available {
			c.ind.Remaining(e.ratio)
		}
	}
}

func (c *Controller) idle() {
	if c.available {
		c.ind.Ready()
	} else {
		c.ind.ConnectionLost()
	}
}

// wait holds the current visual for its pulse duration, bailing out
// early on shutdown.
func (c *Controller) wait(ctx context.Context) {
	if c.hold <= 0 {
		return
	}
	t := time.NewTimer(c.hold)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
