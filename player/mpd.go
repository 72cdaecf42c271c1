package player

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/fhs/gompd/v2/mpd"
)

// MPD implements Player against an MPD-protocol server (mpd itself, or
// Mopidy's MPD frontend). The connection is re-dialed on demand after
// any protocol error, so a restarted backend heals transparently.
type MPD struct {
	addr     string
	password string

	mu     sync.Mutex
	client *mpd.Client
}

// NewMPD dials the configured server once to fail fast on bad config,
// then keeps the connection for reuse.
func NewMPD(cfg Config) (*MPD, error) {
	port := cfg.Port
	if port == 0 {
		port = 6600
	}
	p := &MPD{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		password: cfg.Password,
	}
	if _, err := p.conn(); err != nil {
		return nil, fmt.Errorf("connect mpd %s: %w", p.addr, err)
	}
	return p, nil
}

// conn returns a live client, dialing if needed. Callers hold no lock.
func (p *MPD) conn() (*mpd.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		if err := p.client.Ping(); err == nil {
			return p.client, nil
		}
		p.client.Close()
		p.client = nil
	}

	var c *mpd.Client
	var err error
	if p.password != "" {
		c, err = mpd.DialAuthenticated("tcp", p.addr, p.password)
	} else {
		c, err = mpd.Dial("tcp", p.addr)
	}
	if err != nil {
		return nil, err
	}
	p.client = c
	return c, nil
}

// drop discards the cached connection after a failed command so the
// next call re-dials.
func (p *MPD) drop() {
	p.mu.Lock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	p.mu.Unlock()
}

// Play clears the queue, adds uri and starts playback.
func (p *MPD) Play(uri string) error {
	c, err := p.conn()
	if err != nil {
		return fmt.Errorf("mpd play: %w", err)
	}
	if err := c.Clear(); err != nil {
		p.drop()
		return fmt.Errorf("mpd clear: %w", err)
	}
	if err := c.Add(uri); err != nil {
		p.drop()
		return fmt.Errorf("mpd add %s: %w", uri, err)
	}
	if err := c.Play(-1); err != nil {
		p.drop()
		return fmt.Errorf("mpd play %s: %w", uri, err)
	}
	return nil
}

// TogglePlayPause pauses when playing, otherwise starts playing.
func (p *MPD) TogglePlayPause() error {
	c, err := p.conn()
	if err != nil {
		return fmt.Errorf("mpd toggle: %w", err)
	}
	status, err := c.Status()
	if err != nil {
		p.drop()
		return fmt.Errorf("mpd status: %w", err)
	}
	if status["state"] == "play" {
		err = c.Pause(true)
	} else {
		err = c.Play(-1)
	}
	if err != nil {
		p.drop()
		return fmt.Errorf("mpd toggle: %w", err)
	}
	return nil
}

// Stop stops playback.
func (p *MPD) Stop() error {
	c, err := p.conn()
	if err != nil {
		return fmt.Errorf("mpd stop: %w", err)
	}
	if err := c.Stop(); err != nil {
		p.drop()
		return fmt.Errorf("mpd stop: %w", err)
	}
	return nil
}

// Progress reports how far the current track has played, and whether
// anything is playing at all. Used for the LED remaining indicator.
func (p *MPD) Progress() (float64, bool) {
	c, err := p.conn()
	if err != nil {
		return 0, false
	}
	status, err := c.Status()
	if err != nil {
		p.drop()
		return 0, false
	}
	if status["state"] != "play" {
		return 0, false
	}
	elapsed, err1 := strconv.ParseFloat(status["elapsed"], 64)
	duration, err2 := strconv.ParseFloat(status["duration"], 64)
	if err1 != nil || err2 != nil || duration <= 0 {
		return 0, false
	}
	ratio := elapsed / duration
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}

// Close shuts down the backend connection.
func (p *MPD) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}
