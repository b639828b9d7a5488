package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// ButtonKey identifies a media button independently of which backend
// (evdev, GPIO, desktop hotkey, IPC) produced the event.
type ButtonKey int

const (
	// ButtonUnknown is any key the daemon does not handle. The zero value, so
	// a malformed or empty event classifies as unhandled.
	ButtonUnknown ButtonKey = iota

	// ButtonPrimary is play/pause, including the hook switch on single-button
	// headsets. It is the only key with double-click behavior.
	ButtonPrimary

	ButtonNext
	ButtonPrevious
)

func (k ButtonKey) String() string {
	switch k {
	case ButtonPrimary:
		return "primary"
	case ButtonNext:
		return "next"
	case ButtonPrevious:
		return "previous"
	default:
		return "unknown"
	}
}

func (k ButtonKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ButtonKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseButtonKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// parseButtonKey parses the button names used in config files, IPC payloads
// and buttonctl arguments.
func parseButtonKey(s string) (ButtonKey, error) {
	switch s {
	case "primary", "play_pause":
		return ButtonPrimary, nil
	case "next":
		return ButtonNext, nil
	case "previous":
		return ButtonPrevious, nil
	case "unknown":
		return ButtonUnknown, nil
	default:
		return ButtonUnknown, fmt.Errorf("unknown button key: %q", s)
	}
}

// Transition is the press/release half of a button gesture.
type Transition int

const (
	TransitionPress Transition = iota
	TransitionRelease
)

func (t Transition) String() string {
	if t == TransitionRelease {
		return "release"
	}
	return "press"
}

func (t Transition) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Transition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "press":
		*t = TransitionPress
	case "release":
		*t = TransitionRelease
	default:
		return fmt.Errorf("unknown transition: %q", s)
	}
	return nil
}

// ButtonEvent is a single button transition as seen by an input source.
//
// At should carry a monotonic reading (time.Now at capture) so double-click
// intervals survive wall-clock adjustments. It is not serialized; events
// arriving over IPC are stamped on receipt, and outbound broadcasts carry
// their timestamp in the broadcast envelope.
type ButtonEvent struct {
	Key        ButtonKey  `json:"key"`
	Transition Transition `json:"transition"`
	At         time.Time  `json:"-"`
}

func (ButtonEvent) eventMarker() {}

// buttonFromKeyCode maps a Linux input keycode to a ButtonKey.
// ButtonUnknown means the daemon does not handle the key.
func buttonFromKeyCode(code uint16) ButtonKey {
	switch code {
	case KEY_PLAYPAUSE, KEY_MEDIA, KEY_PLAYCD, KEY_PAUSECD:
		return ButtonPrimary
	case KEY_NEXTSONG:
		return ButtonNext
	case KEY_PREVIOUSSONG:
		return ButtonPrevious
	default:
		return ButtonUnknown
	}
}
