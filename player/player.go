// Package player is the boundary to the host media engine. The core
// only ever asks it to start, toggle or stop playback; queue semantics
// belong to the backend.
package player

import (
	"fmt"
	"log"
)

// Player is the outbound playback contract.
type Player interface {
	// Play replaces the current queue with uri and starts playback.
	Play(uri string) error

	// TogglePlayPause toggles play/pause of the current state.
	TogglePlayPause() error

	// Stop stops playback.
	Stop() error

	// Close releases the backend connection.
	Close() error
}

// Config holds playback backend settings.
type Config struct {
	Type     string `yaml:"type"`     // "mpd"; empty disables playback
	Host     string `yaml:"host"`     // e.g. "localhost"
	Port     int    `yaml:"port"`     // default 6600
	Password string `yaml:"password"` // optional
}

// New creates a Player. With no backend configured it returns a Noop,
// so the rest of the daemon keeps working on a box without a player.
func New(cfg Config) (Player, error) {
	switch cfg.Type {
	case "mpd":
		return NewMPD(cfg)
	case "":
		log.Println("Playback disabled (no backend configured)")
		return &Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown player type %q", cfg.Type)
	}
}

// Noop implements Player and logs what it would have done.
type Noop struct{}

// Play implements Player.Play.
func (n *Noop) Play(uri string) error {
	log.Printf("Player (noop): play %s", uri)
	return nil
}

// TogglePlayPause implements Player.TogglePlayPause.
func (n *Noop) TogglePlayPause() error {
	log.Println("Player (noop): toggle play/pause")
	return nil
}

// Stop implements Player.Stop.
func (n *Noop) Stop() error {
	log.Println("Player (noop): stop")
	return nil
}

// Close implements Player.Close.
func (n *Noop) Close() error { return nil }
