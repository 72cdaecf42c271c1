package main

import (
	"tagtone/indicator"
	"tagtone/mqtt"
	"tagtone/player"
	"tagtone/presence"
	"tagtone/reader"
	"tagtone/store"
	"tagtone/web"
)

// Config is the main configuration structure for tagtone.
type Config struct {
	// Reader transport configuration
	Reader reader.Config `yaml:"reader"`

	// Poll loop and debounce tuning
	Presence presence.Config `yaml:"presence"`

	// Mapping store location
	Store store.Config `yaml:"store"`

	// Playback backend
	Player player.Config `yaml:"player"`

	// LED indicator configuration
	Indicator indicator.Config `yaml:"indicator"`

	// HTTP API settings
	Web web.Config `yaml:"web"`

	// MQTT status plane
	MQTT mqtt.Config `yaml:"mqtt"`

	// Audio cues
	Sounds SoundsConfig `yaml:"sounds"`

	// Named pipe for injecting simulated events (debug)
	EventPipe string `yaml:"event_pipe"`

	// General settings
	ClientID   string `yaml:"client_id"`
	EventQueue int    `yaml:"event_queue"` // per-subscriber queue size
}

// SoundsConfig holds optional audio cue URIs played through the
// playback backend.
type SoundsConfig struct {
	Welcome  string `yaml:"welcome"`  // played once at startup
	Farewell string `yaml:"farewell"` // played at shutdown
	Detected string `yaml:"detected"` // played when an unmapped tag is scanned
}
