package store

import (
	"encoding/json"
	"fmt"
)

// ActionKind enumerates what a mapped tag does.
type ActionKind int

const (
	// ActionPlay loads and plays the mapping's URI.
	ActionPlay ActionKind = iota
	// ActionToggle toggles play/pause of whatever is current.
	ActionToggle
	// ActionStop stops playback.
	ActionStop
)

// Control action strings in the persisted form.
const (
	rawToggle = "TOGGLE_PLAY"
	rawStop   = "STOP"
)

// Action is the decoded form of a mapping's action string. The string
// form is parsed exactly once, at the store boundary; everything
// downstream switches on Kind.
type Action struct {
	Kind ActionKind
	URI  string // set only for ActionPlay
}

// DecodeAction parses the persisted action string. Anything that is
// not a known control action is treated as a URI to play.
func DecodeAction(s string) Action {
	switch s {
	case rawToggle:
		return Action{Kind: ActionToggle}
	case rawStop:
		return Action{Kind: ActionStop}
	default:
		return Action{Kind: ActionPlay, URI: s}
	}
}

// Encode returns the persisted string form.
func (a Action) Encode() string {
	switch a.Kind {
	case ActionToggle:
		return rawToggle
	case ActionStop:
		return rawStop
	default:
		return a.URI
	}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionToggle:
		return "toggle"
	case ActionStop:
		return "stop"
	default:
		return fmt.Sprintf("play %s", a.URI)
	}
}

// MarshalJSON encodes the action as its persisted string form.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Encode())
}

// UnmarshalJSON decodes from the persisted string form.
func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode action: %w", err)
	}
	*a = DecodeAction(s)
	return nil
}
