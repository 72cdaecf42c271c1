// Package indicator drives the status LEDs: an addressable ring via an
// external neopixel helper, an optional discrete status LED, or both.
package indicator

// Indicator is the interface for status indicator implementations.
// Calls are fire-and-forget; implementations must not block for longer
// than one animation frame.
type Indicator interface {
	// Ready shows the idle/ready state.
	Ready()

	// Scanning shows immediate feedback that a tag was detected.
	Scanning()

	// Welcome runs the greeting animation for a recognized tag.
	Welcome()

	// Farewell runs the removal animation.
	Farewell()

	// Error flags an unknown tag or a failed dispatch.
	Error()

	// Remaining renders playback progress as a ring fill, ratio in [0,1].
	Remaining(ratio float64)

	// ConnectionLost shows the reader-unavailable state.
	ConnectionLost()

	// Shutdown blanks everything before the process exits.
	Shutdown()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`

	// GPIO status LED (empty chip = not configured)
	StatusChip string `yaml:"status_chip"`
	StatusPin  int    `yaml:"status_pin"`

	// Feature toggles
	Welcome   bool `yaml:"welcome"`
	Farewell  bool `yaml:"farewell"`
	Remaining bool `yaml:"remaining"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi when more than one device is configured, and a Noop
// when none is.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	if cfg.StatusChip != "" {
		gpio, err := NewGPIO(cfg.StatusChip, cfg.StatusPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	if len(indicators) == 0 {
		return &Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return &Multi{indicators: indicators}, nil
}
