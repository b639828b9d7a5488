package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.design/x/hotkey"
)

// DisplayServer identifies the windowing system the daemon runs under.
// Desktop hotkeys only work where golang.design/x/hotkey does: Windows, X11
// and macOS. Wayland has no global-shortcut API the library can use.
type DisplayServer int

const (
	DisplayServerUnknown DisplayServer = iota
	DisplayServerWindows
	DisplayServerX11
	DisplayServerWayland
)

func (ds DisplayServer) String() string {
	switch ds {
	case DisplayServerWindows:
		return "Windows"
	case DisplayServerX11:
		return "X11"
	case DisplayServerWayland:
		return "Wayland"
	default:
		return "Unknown"
	}
}

// detectDisplayServer inspects the environment to figure out which windowing
// system is present. macOS reports X11 because the hotkey library treats it
// the same way.
func detectDisplayServer() DisplayServer {
	if runtime.GOOS == "windows" {
		return DisplayServerWindows
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayServerWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return DisplayServerX11
	}
	if runtime.GOOS == "darwin" {
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// boundHotkey is one registered desktop shortcut and the goroutine state that
// forwards its keydown/keyup pairs as button transitions.
type boundHotkey struct {
	hk   *hotkey.Hotkey
	key  ButtonKey
	stop chan struct{}
}

// hotkeyFocus grabs desktop keyboard shortcuts for the media buttons. It
// implements ButtonFocus: Acquire registers every configured binding with the
// display server and Release gives them back, so other applications see the
// shortcuts again the moment button handling is disabled.
//
// Acquire and Release are called from the daemon goroutine only.
type hotkeyFocus struct {
	bindings map[ButtonKey]string
	events   chan<- Event
	logger   *slog.Logger
	bound    []*boundHotkey
}

// NewHotkeyFocus validates the configured bindings and returns a focus
// collaborator that feeds hotkey transitions into events. It fails on
// display servers the hotkey library cannot drive; the caller is expected
// to fall back to running without a focus collaborator.
func NewHotkeyFocus(bindings map[string]string, events chan<- Event, logger *slog.Logger) (*hotkeyFocus, error) {
	ds := detectDisplayServer()
	switch ds {
	case DisplayServerWindows, DisplayServerX11:
	default:
		return nil, fmt.Errorf("desktop hotkeys not available on %s", ds)
	}

	parsed := make(map[ButtonKey]string, len(bindings))
	for name, combo := range bindings {
		key, err := parseButtonKey(name)
		if err != nil {
			return nil, fmt.Errorf("hotkey binding %q: %w", combo, err)
		}
		if key == ButtonUnknown {
			return nil, fmt.Errorf("hotkey binding %q: cannot bind %q", combo, name)
		}
		if _, _, err := parseHotkeyCombo(combo); err != nil {
			return nil, fmt.Errorf("hotkey binding for %s: %w", key, err)
		}
		parsed[key] = combo
	}

	logger.Info("Desktop hotkeys available", "display_server", ds.String(), "bindings", len(parsed))
	return &hotkeyFocus{bindings: parsed, events: events, logger: logger}, nil
}

// Acquire registers all configured shortcuts. On failure it unregisters the
// ones that already took and reports the error; none of the bindings are left
// half held.
func (h *hotkeyFocus) Acquire() error {
	if len(h.bound) > 0 {
		return nil
	}

	for key, combo := range h.bindings {
		mods, hkKey, err := parseHotkeyCombo(combo)
		if err != nil {
			h.unbindAll()
			return fmt.Errorf("parse hotkey %q: %w", combo, err)
		}

		hk := hotkey.New(mods, hkKey)
		if err := hk.Register(); err != nil {
			h.unbindAll()
			return fmt.Errorf("register hotkey %q: %w", combo, err)
		}

		b := &boundHotkey{hk: hk, key: key, stop: make(chan struct{})}
		h.bound = append(h.bound, b)
		go h.forward(b)
		h.logger.Info("Registered desktop hotkey", "button", key.String(), "combo", combo)
	}
	return nil
}

// Release unregisters every held shortcut. Safe to call when nothing is held.
func (h *hotkeyFocus) Release() error {
	if len(h.bound) == 0 {
		return nil
	}
	h.unbindAll()
	h.logger.Info("Released desktop hotkeys")
	return nil
}

func (h *hotkeyFocus) unbindAll() {
	for _, b := range h.bound {
		close(b.stop)
		if err := b.hk.Unregister(); err != nil {
			h.logger.Warn("Failed to unregister hotkey", "button", b.key.String(), "error", err)
		}
	}
	h.bound = nil
}

// forward turns the library's keydown/keyup channels into ButtonEvents. It
// runs until the binding is released.
func (h *hotkeyFocus) forward(b *boundHotkey) {
	for {
		select {
		case <-b.stop:
			return
		case <-b.hk.Keydown():
			h.send(ButtonEvent{Key: b.key, Transition: TransitionPress, At: time.Now()}, b.stop)
		case <-b.hk.Keyup():
			h.send(ButtonEvent{Key: b.key, Transition: TransitionRelease, At: time.Now()}, b.stop)
		}
	}
}

func (h *hotkeyFocus) send(ev ButtonEvent, stop <-chan struct{}) {
	select {
	case h.events <- ev:
	case <-stop:
	}
}
