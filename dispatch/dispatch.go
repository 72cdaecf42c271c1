// Package dispatch resolves scanned tags against the mapping store and
// drives the playback backend. The hand-off is asynchronous: the poll
// loop enqueues and moves on, so a slow or wedged backend can never
// stall tag polling.
package dispatch

import (
	"context"
	"errors"
	"log"

	"tagtone/player"
	"tagtone/store"
)

// Hooks are fired from the dispatch worker as a scan is resolved.
// Resolution hooks fire before the backend call, so status feedback
// does not wait on the player.
type Hooks struct {
	OnResolved func(tag string, action store.Action)
	OnUnknown  func(tag string)
	OnError    func(tag string, err error)
}

// Dispatcher consumes scan events and executes mapped actions.
type Dispatcher struct {
	store  *store.Store
	player player.Player
	hooks  Hooks
	jobs   chan string
	done   chan struct{}
}

// New creates a Dispatcher. Run must be started for scans to be
// processed.
func New(st *store.Store, pl player.Player, hooks Hooks) *Dispatcher {
	return &Dispatcher{
		store:  st,
		player: pl,
		hooks:  hooks,
		jobs:   make(chan string, 8),
		done:   make(chan struct{}),
	}
}

// HandleScan enqueues a scanned tag without blocking. Scans are
// edge-triggered upstream, so the queue filling up means the backend
// has been wedged for a while; dropping is the right call then.
func (d *Dispatcher) HandleScan(tag string) {
	select {
	case d.jobs <- tag:
	default:
		log.Printf("Dispatch queue full, dropping scan of %s", tag)
	}
}

// Run services the queue until the context is cancelled, then drains
// whatever is already queued and closes Done.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case tag := <-d.jobs:
					d.handle(tag)
				default:
					return
				}
			}
		case tag := <-d.jobs:
			d.handle(tag)
		}
	}
}

// Done is closed once Run has exited. Shutdown waits on it with a
// timeout rather than indefinitely.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) handle(tag string) {
	m, err := d.store.Get(tag)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("No mapping for tag %s", tag)
		if d.hooks.OnUnknown != nil {
			d.hooks.OnUnknown(tag)
		}
		return
	}
	if err != nil {
		log.Printf("Mapping lookup for %s: %v", tag, err)
		if d.hooks.OnError != nil {
			d.hooks.OnError(tag, err)
		}
		return
	}

	if d.hooks.OnResolved != nil {
		d.hooks.OnResolved(tag, m.Action)
	}

	if err := d.invoke(m.Action); err != nil {
		// Backend failures are logged and surfaced as status; they
		// never propagate back into reader state.
		log.Printf("Dispatch %s for tag %s: %v", m.Action, tag, err)
		if d.hooks.OnError != nil {
			d.hooks.OnError(tag, err)
		}
	}
}

func (d *Dispatcher) invoke(a store.Action) error {
	switch a.Kind {
	case store.ActionToggle:
		return d.player.TogglePlayPause()
	case store.ActionStop:
		return d.player.Stop()
	default:
		return d.player.Play(a.URI)
	}
}
