package reader

import (
	"context"
	"sync"
)

// Result is one scripted outcome for the Stub transport.
type Result struct {
	Tag     string
	Present bool
	Err     error
}

// Stub implements Transport without hardware. With no script loaded it
// always reports "no tag", which makes it usable for bench runs of the
// whole daemon; tests script it read by read.
type Stub struct {
	mu      sync.Mutex
	script  []Result
	resets  int
	closed  bool
	ResetErr error // returned by Reset when non-nil
}

// NewStub creates an empty Stub.
func NewStub() *Stub {
	return &Stub{}
}

// Queue appends scripted read outcomes.
func (s *Stub) Queue(results ...Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, results...)
}

// ReadTag pops the next scripted outcome, or reports absence when the
// script is exhausted.
func (s *Stub) ReadTag(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return "", false, nil
	}
	r := s.script[0]
	s.script = s.script[1:]
	return r.Tag, r.Present, r.Err
}

// Reset counts invocations and returns ResetErr.
func (s *Stub) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return s.ResetErr
}

// Resets reports how many times Reset was called.
func (s *Stub) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Close marks the stub closed.
func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
