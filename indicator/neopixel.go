package indicator

import (
	"fmt"
	"os"
)

// Neopixel command strings for the external neopixel helper tool.
const (
	neoReady     = "@3 !150000 003200"
	neoScanning  = "@1 !50000 0020ff"
	neoWelcome   = "@4 !60000 00ff00"
	neoFarewell  = "@5 !60000 00ff00"
	neoError     = "@2 !10000 ff0000"
	neoLost      = "@2 !150000 101000"
	neoOff       = "@0 000000"
	neoRemaining = "@6 !0 ffffff %02x" // fill level 0..16
)

// Neopixel implements Indicator using an external neopixel helper via
// named pipe. The helper owns the strip and its timing, so a slow
// animation never blocks this process.
type Neopixel struct {
	pipe       *os.File
	idleString string
}

// NewNeopixel opens the helper's named pipe.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return &Neopixel{pipe: f, idleString: neoReady}, nil
}

// Ready implements Indicator.Ready.
func (n *Neopixel) Ready() {
	n.idleString = neoReady
	n.write(neoReady)
}

// Scanning implements Indicator.Scanning.
func (n *Neopixel) Scanning() {
	n.write(neoScanning)
}

// Welcome implements Indicator.Welcome.
func (n *Neopixel) Welcome() {
	n.write(neoWelcome)
}

// Farewell implements Indicator.Farewell.
func (n *Neopixel) Farewell() {
	n.write(neoFarewell)
}

// Error implements Indicator.Error.
func (n *Neopixel) Error() {
	n.write(neoError)
}

// Remaining implements Indicator.Remaining.
func (n *Neopixel) Remaining(ratio float64) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	n.write(fmt.Sprintf(neoRemaining, int(ratio*16+0.5)))
}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Neopixel) ConnectionLost() {
	n.idleString = neoLost
	n.write(neoLost)
}

// Shutdown implements Indicator.Shutdown.
func (n *Neopixel) Shutdown() {
	n.write(neoOff)
}

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	if n.pipe == nil {
		return nil
	}
	err := n.pipe.Close()
	n.pipe = nil
	return err
}

func (n *Neopixel) write(s string) {
	if n.pipe != nil {
		n.pipe.Write([]byte(s + "\n"))
	}
}
