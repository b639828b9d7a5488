package main

import (
	"context"
	"testing"
	"time"
)

// TestButtonEventFromInput_KeyMapping tests the evdev keycode -> button mapping
// and the transitions that survive translation.
func TestButtonEventFromInput_KeyMapping(t *testing.T) {
	at := time.Now()

	cases := []struct {
		name      string
		ev        inputEvent
		wantOK    bool
		wantKey   ButtonKey
		wantTrans Transition
	}{
		{"playpause press", inputEvent{Type: EV_KEY, Code: KEY_PLAYPAUSE, Value: evValuePress}, true, ButtonPrimary, TransitionPress},
		{"headset hook press", inputEvent{Type: EV_KEY, Code: KEY_MEDIA, Value: evValuePress}, true, ButtonPrimary, TransitionPress},
		{"playpause release", inputEvent{Type: EV_KEY, Code: KEY_PLAYPAUSE, Value: evValueRelease}, true, ButtonPrimary, TransitionRelease},
		{"next press", inputEvent{Type: EV_KEY, Code: KEY_NEXTSONG, Value: evValuePress}, true, ButtonNext, TransitionPress},
		{"previous press", inputEvent{Type: EV_KEY, Code: KEY_PREVIOUSSONG, Value: evValuePress}, true, ButtonPrevious, TransitionPress},
		{"play press", inputEvent{Type: EV_KEY, Code: KEY_PLAYCD, Value: evValuePress}, true, ButtonPrimary, TransitionPress},
		{"autorepeat dropped", inputEvent{Type: EV_KEY, Code: KEY_PLAYPAUSE, Value: evValueRepeat}, false, 0, 0},
		{"unmapped key dropped", inputEvent{Type: EV_KEY, Code: 115, Value: evValuePress}, false, 0, 0},
		{"non-key event dropped", inputEvent{Type: 0x02, Code: KEY_PLAYPAUSE, Value: evValuePress}, false, 0, 0},
	}

	for _, tc := range cases {
		be, ok := buttonEventFromInput(tc.ev, at)
		if ok != tc.wantOK {
			t.Errorf("%s: expected ok=%v, got %v", tc.name, tc.wantOK, ok)
			continue
		}
		if !ok {
			continue
		}
		if be.Key != tc.wantKey {
			t.Errorf("%s: expected key %v, got %v", tc.name, tc.wantKey, be.Key)
		}
		if be.Transition != tc.wantTrans {
			t.Errorf("%s: expected transition %v, got %v", tc.name, tc.wantTrans, be.Transition)
		}
		if !be.At.Equal(at) {
			t.Errorf("%s: expected event stamped with capture time", tc.name)
		}
	}
}

// TestRunInputTranslator_ForwardsMappedKeys tests that the translator pump
// forwards mapped transitions and swallows everything else.
func TestRunInputTranslator_ForwardsMappedKeys(t *testing.T) {
	raw := make(chan inputEvent, 8)
	readErr := make(chan error, 1)
	events := make(chan Event, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runInputTranslator(ctx, raw, readErr, events, quietLogger())
	}()

	raw <- inputEvent{Type: EV_KEY, Code: KEY_NEXTSONG, Value: evValuePress}
	raw <- inputEvent{Type: EV_KEY, Code: KEY_NEXTSONG, Value: evValueRepeat}
	raw <- inputEvent{Type: EV_KEY, Code: KEY_NEXTSONG, Value: evValueRelease}

	want := []Transition{TransitionPress, TransitionRelease}
	for i, tr := range want {
		select {
		case ev := <-events:
			be, ok := ev.(ButtonEvent)
			if !ok {
				t.Fatalf("event %d: expected ButtonEvent, got %T", i, ev)
			}
			if be.Key != ButtonNext || be.Transition != tr {
				t.Errorf("event %d: expected next %v, got %v %v", i, tr, be.Key, be.Transition)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timeout waiting for event %d", i)
		}
	}

	select {
	case ev := <-events:
		t.Fatalf("expected autorepeat to be dropped, got %v", ev)
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("translator did not stop after context cancellation")
	}
}
