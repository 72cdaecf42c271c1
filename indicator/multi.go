package indicator

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// Ready implements Indicator.Ready.
func (m *Multi) Ready() {
	for _, ind := range m.indicators {
		ind.Ready()
	}
}

// Scanning implements Indicator.Scanning.
func (m *Multi) Scanning() {
	for _, ind := range m.indicators {
		ind.Scanning()
	}
}

// Welcome implements Indicator.Welcome.
func (m *Multi) Welcome() {
	for _, ind := range m.indicators {
		ind.Welcome()
	}
}

// Farewell implements Indicator.Farewell.
func (m *Multi) Farewell() {
	for _, ind := range m.indicators {
		ind.Farewell()
	}
}

// Error implements Indicator.Error.
func (m *Multi) Error() {
	for _, ind := range m.indicators {
		ind.Error()
	}
}

// Remaining implements Indicator.Remaining.
func (m *Multi) Remaining(ratio float64) {
	for _, ind := range m.indicators {
		ind.Remaining(ratio)
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() {
	for _, ind := range m.indicators {
		ind.Shutdown()
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var lastErr error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
