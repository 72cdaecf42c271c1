package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO implements Indicator with a single discrete status LED: lit
// when the system is ready, dark when the reader is unavailable or the
// process is down. The ring animations have no discrete equivalent and
// map to the nearest steady state.
type GPIO struct {
	line *gpiocdev.Line
}

// NewGPIO requests the status LED line as an output, initially off.
func NewGPIO(chip string, pin int) (*GPIO, error) {
	ln, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request status led %s:%d: %w", chip, pin, err)
	}
	return &GPIO{line: ln}, nil
}

// Ready implements Indicator.Ready.
func (g *GPIO) Ready() { g.set(1) }

// Scanning implements Indicator.Scanning.
func (g *GPIO) Scanning() { g.set(1) }

// Welcome implements Indicator.Welcome.
func (g *GPIO) Welcome() { g.set(1) }

// Farewell implements Indicator.Farewell.
func (g *GPIO) Farewell() { g.set(1) }

// Error implements Indicator.Error.
func (g *GPIO) Error() { g.set(1) }

// Remaining implements Indicator.Remaining.
func (g *GPIO) Remaining(ratio float64) {}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() { g.set(0) }

// Shutdown implements Indicator.Shutdown.
func (g *GPIO) Shutdown() { g.set(0) }

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	if g.line == nil {
		return nil
	}
	g.set(0)
	err := g.line.Close()
	g.line = nil
	return err
}

func (g *GPIO) set(v int) {
	if g.line != nil {
		g.line.SetValue(v)
	}
}
