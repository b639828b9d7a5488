package main

import "log/slog"

// ButtonFocus is an exclusive grab on the media keys that some environments
// offer (a desktop session's hotkey registry, for example). Acquiring it
// routes the keys to this daemon; releasing it hands them back.
//
// The collaborator is optional. A daemon running where no such facility
// exists (headless box, Wayland without the right portal) uses a nil focus
// and the gate degrades to bookkeeping.
type ButtonFocus interface {
	Acquire() error
	Release() error
}

// focusGate keeps the ButtonFocus collaborator in sync with the controls
// preference. It is idempotent: apply only talks to the collaborator on an
// actual transition, so repeated enables cost one Acquire and disabling a
// gate that never registered costs zero Releases.
//
// Acquire/Release are best effort. The recorded state flips on every
// transition even when the call fails; the failure is logged and the daemon
// keeps classifying events from the sources it does have.
type focusGate struct {
	focus      ButtonFocus
	registered bool
	logger     *slog.Logger
}

// apply moves the gate to the requested state.
// Intended to be called only by the daemon goroutine (single-owner).
func (g *focusGate) apply(enabled bool) {
	if enabled == g.registered {
		return
	}
	g.registered = enabled

	if g.focus == nil {
		return
	}
	if enabled {
		if err := g.focus.Acquire(); err != nil {
			g.logger.Warn("button focus acquire failed", "error", err)
		}
		return
	}
	if err := g.focus.Release(); err != nil {
		g.logger.Warn("button focus release failed", "error", err)
	}
}

// held reports whether the gate currently records focus as registered.
func (g *focusGate) held() bool {
	return g.registered
}
