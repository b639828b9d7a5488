package main

import (
	"testing"
)

// TestEventWireFormat_RoundTrip tests that events injected over IPC come back
// as the same concrete types the daemon loop expects.
func TestEventWireFormat_RoundTrip(t *testing.T) {
	events := []Event{
		ButtonEvent{Key: ButtonNext, Transition: TransitionPress},
		CallStateChanged{InCall: true},
		CommandDispatched{Command: "toggle_playback"},
		PreferenceChanged{},
		PlayerStateObserved{State: "paused"},
	}

	for _, ev := range events {
		payload, err := MarshalEvent(ev)
		if err != nil {
			t.Fatalf("%T: marshal failed: %v", ev, err)
		}
		back, err := UnmarshalEvent(payload)
		if err != nil {
			t.Fatalf("%T: unmarshal failed: %v", ev, err)
		}
		if back != ev {
			t.Errorf("expected %#v, got %#v", ev, back)
		}
	}
}

// TestUnmarshalEvent_RejectsUnknownType tests that unknown envelope types are
// an error instead of a silent no-op, so IPC clients get told about typos.
func TestUnmarshalEvent_RejectsUnknownType(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"type":"volume_held","data":{}}`)); err == nil {
		t.Fatal("expected an error for unknown event type, got nil")
	}
	if _, err := UnmarshalEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected an error for malformed payload, got nil")
	}
}

// TestMarshalEvent_InternalEventsHaveNoWireForm tests that loop-internal
// events cannot leak onto IPC or MQTT; the bridges rely on the marshal error
// to filter them.
func TestMarshalEvent_InternalEventsHaveNoWireForm(t *testing.T) {
	internal := []Event{
		PlayerCommandFailed{Command: CmdNextTrack{}, Err: errNoClient{}},
		RequestStateSnapshot{Reply: make(chan StatusSnapshot, 1)},
	}

	for _, ev := range internal {
		if _, err := MarshalEvent(ev); err == nil {
			t.Errorf("%T: expected marshal to fail, got nil error", ev)
		}
	}
}
