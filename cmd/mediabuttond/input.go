package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"time"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// readInputEvents reads input events from a single device and sends them to a channel
// This runs in a dedicated goroutine and blocks on read operations
func readInputEvents(f *os.File, events chan<- inputEvent, readErr chan<- error) {
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf) // Reusable reader, reset on each iteration

	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			readErr <- err
			return
		}

		reader.Reset(buf) // Reset reader to reuse it
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		events <- ev
	}
}

// buttonEventFromInput translates a raw device event into a ButtonEvent.
//
// Only discrete EV_KEY press/release transitions on mapped media keys
// translate. Autorepeat (value 2) and unmapped keys are dropped here, before
// the daemon loop ever sees them.
func buttonEventFromInput(ev inputEvent, at time.Time) (ButtonEvent, bool) {
	if ev.Type != EV_KEY {
		return ButtonEvent{}, false
	}
	if ev.Value != evValuePress && ev.Value != evValueRelease {
		return ButtonEvent{}, false
	}

	key := buttonFromKeyCode(ev.Code)
	if key == ButtonUnknown {
		return ButtonEvent{}, false
	}

	transition := TransitionPress
	if ev.Value == evValueRelease {
		transition = TransitionRelease
	}

	return ButtonEvent{Key: key, Transition: transition, At: at}, true
}

// runInputTranslator converts raw device events into ButtonEvents for the
// daemon loop. It exits when ctx is canceled or a device reader fails.
func runInputTranslator(ctx context.Context, raw <-chan inputEvent, readErr <-chan error, events chan<- Event, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			logger.Error("input device read failed", "error", err)
			return

		case ev := <-raw:
			be, ok := buttonEventFromInput(ev, time.Now())
			if !ok {
				continue
			}
			logger.Debug("input key event", "key", be.Key.String(), "transition", be.Transition.String())

			select {
			case events <- be:
			case <-ctx.Done():
				return
			}
		}
	}
}
