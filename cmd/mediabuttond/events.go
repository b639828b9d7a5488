package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Event Types
// ============================================================================
// Events are the daemon loop's only input. Input backends (evdev, GPIO,
// desktop hotkeys), the IPC server, the call hook and the player observation
// loop all produce Events; the central loop consumes them and applies policy.
// ============================================================================

// Event is the marker interface for everything the daemon loop consumes.
type Event interface {
	eventMarker()
}

// PreferenceChanged signals that the controls preference may have changed and
// should be re-read. Sent on SIGHUP and by IPC clients after editing the
// config file.
type PreferenceChanged struct{}

func (PreferenceChanged) eventMarker() {}

// CallStateChanged reports a telephony transition from a call hook.
type CallStateChanged struct {
	InCall bool `json:"in_call"`
}

func (CallStateChanged) eventMarker() {}

// CommandDispatched reports that a button event was classified into a player
// command. Emitted for observers (websocket, MQTT); ignored on input.
type CommandDispatched struct {
	Command string `json:"command"`
}

func (CommandDispatched) eventMarker() {}

// PlayerStateObserved is emitted after a successful player call that returned
// a playback state ("playing", "paused", "stopped").
type PlayerStateObserved struct {
	State string    `json:"state"`
	At    time.Time `json:"-"`
}

func (PlayerStateObserved) eventMarker() {}

// PlayerCommandFailed is emitted when executing a Command against the player fails.
type PlayerCommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (PlayerCommandFailed) eventMarker() {}

// RequestStateSnapshot asks the daemon loop for a coherent state snapshot.
// The reply is delivered through the effects stage so the loop itself never
// blocks on a slow requester.
type RequestStateSnapshot struct {
	Reply chan StatusSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// EventEnvelope wraps events for JSON serialization/deserialization.
// Since Go doesn't have union types, we use a type discriminator.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "button":
		var e ButtonEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ButtonEvent: %w", err)
		}
		return e, nil

	case "preference_changed":
		return PreferenceChanged{}, nil

	case "call_state":
		var e CallStateChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal CallStateChanged: %w", err)
		}
		return e, nil

	case "command":
		var e CommandDispatched
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal CommandDispatched: %w", err)
		}
		return e, nil

	case "player_state":
		var e PlayerStateObserved
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal PlayerStateObserved: %w", err)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	switch e := e.(type) {
	case ButtonEvent:
		env.Type = "button"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ButtonEvent: %w", err)
		}
		env.Data = data

	case PreferenceChanged:
		env.Type = "preference_changed"

	case CallStateChanged:
		env.Type = "call_state"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal CallStateChanged: %w", err)
		}
		env.Data = data

	case CommandDispatched:
		env.Type = "command"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal CommandDispatched: %w", err)
		}
		env.Data = data

	case PlayerStateObserved:
		env.Type = "player_state"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal PlayerStateObserved: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	return json.Marshal(env)
}
