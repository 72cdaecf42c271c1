package reader

import (
	"context"
	"errors"
	"fmt"
)

// ErrHardware indicates the bus or device did not respond within the
// attempt budget. It is distinct from "no tag in range", which is not
// an error at all.
var ErrHardware = errors.New("reader hardware fault")

// Transport is the interface for all tag reader implementations.
// ReadTag performs exactly one read attempt: it must return quickly
// whether or not a tag is in range, and must not retry internally.
// Recovery policy belongs to the caller, not the transport.
type Transport interface {
	// ReadTag attempts a single read. present is false when no tag is
	// in range. Errors wrapping ErrHardware mean the device itself is
	// not responding.
	ReadTag(ctx context.Context) (tag string, present bool, err error)

	// Reset re-initializes the bus and device, toggling the physical
	// reset line where one is wired.
	Reset(ctx context.Context) error

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type      string `yaml:"type"`       // "serial", "keyboard", "stub"
	Device    string `yaml:"device"`     // e.g. "/dev/serial0", "/dev/input/event0"
	Baud      int    `yaml:"baud"`       // baud rate for serial devices
	ResetChip string `yaml:"reset_chip"` // gpio chip for the reset line, e.g. "gpiochip0"
	ResetPin  int    `yaml:"reset_pin"`  // reset line offset (BCM numbering)
	TimeoutMS int    `yaml:"timeout_ms"` // per-attempt deadline
}

// New creates a Transport based on the provided configuration.
func New(cfg Config) (Transport, error) {
	switch cfg.Type {
	case "serial", "":
		return NewSerial(cfg)
	case "keyboard":
		return NewKeyboard(cfg)
	case "stub":
		return NewStub(), nil
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}
