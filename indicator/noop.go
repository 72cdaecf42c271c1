package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

// Ready implements Indicator.Ready.
func (n *Noop) Ready() {}

// Scanning implements Indicator.Scanning.
func (n *Noop) Scanning() {}

// Welcome implements Indicator.Welcome.
func (n *Noop) Welcome() {}

// Farewell implements Indicator.Farewell.
func (n *Noop) Farewell() {}

// Error implements Indicator.Error.
func (n *Noop) Error() {}

// Remaining implements Indicator.Remaining.
func (n *Noop) Remaining(ratio float64) {}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Noop) ConnectionLost() {}

// Shutdown implements Indicator.Shutdown.
func (n *Noop) Shutdown() {}

// Release implements Indicator.Release.
func (n *Noop) Release() error {
	return nil
}
