package main

import (
	"log/slog"
	"time"
)

// This file implements the button classification core:
//
//   - Commands: side effects requested by the classifier (player transport commands)
//   - Classifier: turns button transitions into commands, applying the
//     double-click window and the suppression checks
//
// The classifier performs no player I/O. The daemon loop executes Commands
// and feeds observations back as Events. The only collaborators the
// classifier touches are the lazy fetches behind its two flags and the focus
// gate, all best effort.
//
// Everything here is intended to be called only by the daemon goroutine
// (single-owner); there is no internal locking.

// ==============================
// Commands (side effects)
// ==============================

// Command represents an external side effect to be executed by the daemon loop.
// In this codebase, those are primarily player transport commands.
type Command interface {
	commandMarker()
	String() string
}

// CmdTogglePlayback requests the player to toggle between playing and paused.
type CmdTogglePlayback struct{}

func (CmdTogglePlayback) commandMarker() {}
func (CmdTogglePlayback) String() string { return "CmdTogglePlayback()" }

// CmdNextTrack requests the player to advance to the next track.
type CmdNextTrack struct{}

func (CmdNextTrack) commandMarker() {}
func (CmdNextTrack) String() string { return "CmdNextTrack()" }

// CmdPreviousTrack requests the player to return to the previous track.
type CmdPreviousTrack struct{}

func (CmdPreviousTrack) commandMarker() {}
func (CmdPreviousTrack) String() string { return "CmdPreviousTrack()" }

// CmdGetPlayerState requests the player's current playback state.
type CmdGetPlayerState struct{}

func (CmdGetPlayerState) commandMarker() {}
func (CmdGetPlayerState) String() string { return "CmdGetPlayerState()" }

// CmdPublishStateSnapshot delivers a daemon state snapshot to a requester.
type CmdPublishStateSnapshot struct {
	Snapshot StatusSnapshot
	Reply    chan StatusSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (CmdPublishStateSnapshot) String() string { return "CmdPublishStateSnapshot()" }

// ==============================
// Classifier
// ==============================

// Classifier turns media-button transitions into playback commands.
//
// Two cached flags guard classification:
//
//   - controls: the headset-controls preference. When off, every event is
//     reported unhandled so the environment can route the keys elsewhere.
//   - inCall: telephony state. Buttons are ignored during a call so the hook
//     switch can answer the phone instead of pausing music.
//
// Both resolve lazily through fetch closures on first use and are memoized
// (see flagCache). The controls flag also drives the focus gate: enabling
// controls acquires button focus, disabling releases it.
type Classifier struct {
	controls flagCache
	inCall   flagCache
	gate     focusGate

	window           time.Duration
	lastPrimaryPress time.Time

	logger *slog.Logger
}

// NewClassifier builds a classifier.
//
// fetchControls and fetchInCall may be nil; the flags then resolve to their
// fallbacks (controls on, not in a call). focus may be nil where the
// environment offers no media-key grab. window <= 0 selects the default
// double-click window.
func NewClassifier(
	window time.Duration,
	fetchControls func() (bool, error),
	fetchInCall func() (bool, error),
	focus ButtonFocus,
	logger *slog.Logger,
) *Classifier {
	if window <= 0 {
		window = defaultDoubleClickWindowMS * time.Millisecond
	}
	return &Classifier{
		controls: flagCache{fetch: fetchControls, fallback: true},
		inCall:   flagCache{fetch: fetchInCall, fallback: false},
		gate:     focusGate{focus: focus, logger: logger},
		window:   window,
		logger:   logger,
	}
}

// Classify decides what a button event means right now.
//
// The returned Command is nil when the event requires no player action. The
// bool reports whether the event was handled at all: releases of known keys
// are handled without a command, unknown keys are not handled, and nothing
// is handled while a call is active or the controls preference is off.
//
// now is the event's own timestamp (normally ev.At). Every primary press
// updates the double-click reference point, including a press that just
// completed a double click, so a third press inside the window keeps
// advancing tracks.
func (c *Classifier) Classify(ev ButtonEvent, now time.Time) (Command, bool) {
	inCall, err := c.inCall.resolve()
	if err != nil {
		c.logger.Warn("call state fetch failed", "error", err)
	}
	if inCall {
		return nil, false
	}

	enabled, err := c.controls.resolve()
	if err != nil {
		c.logger.Warn("controls preference fetch failed", "error", err)
	}
	if !enabled {
		return nil, false
	}

	switch ev.Key {
	case ButtonPrimary:
		if ev.Transition == TransitionPress {
			var cmd Command = CmdTogglePlayback{}
			if !c.lastPrimaryPress.IsZero() && now.Sub(c.lastPrimaryPress) < c.window {
				cmd = CmdNextTrack{}
			}
			c.lastPrimaryPress = now
			return cmd, true
		}
		return nil, true

	case ButtonNext:
		if ev.Transition == TransitionPress {
			return CmdNextTrack{}, true
		}
		return nil, true

	case ButtonPrevious:
		if ev.Transition == TransitionPress {
			return CmdPreviousTrack{}, true
		}
		return nil, true

	default:
		// Keys the daemon does not own pass through untouched.
		return nil, false
	}
}

// ReloadPreference re-reads the controls preference after something changed
// it: the cached flag is dropped, fetched fresh, and the focus gate moved to
// match. Returns the new value.
func (c *Classifier) ReloadPreference() bool {
	c.controls.invalidate()
	enabled, err := c.controls.resolve()
	if err != nil {
		c.logger.Warn("controls preference fetch failed", "error", err)
	}
	c.gate.apply(enabled)
	return enabled
}

// SetInCall records telephony state pushed by a call hook.
// A pushed value overrides whatever the lazy fetch produced.
func (c *Classifier) SetInCall(inCall bool) {
	c.inCall.set(inCall)
}

// Close releases button focus if held.
func (c *Classifier) Close() {
	c.gate.apply(false)
}

// ClassifierStatus is a point-in-time view of the classifier for status
// reporting. Known is false for a flag that has never been resolved; the
// value alongside it is then the fallback.
type ClassifierStatus struct {
	ControlsEnabled bool `json:"controls_enabled"`
	ControlsKnown   bool `json:"controls_known"`
	InCall          bool `json:"in_call"`
	CallKnown       bool `json:"call_known"`
	FocusHeld       bool `json:"focus_held"`
}

// Status reports the classifier's flags without triggering any fetch.
func (c *Classifier) Status() ClassifierStatus {
	var st ClassifierStatus
	st.ControlsEnabled, st.ControlsKnown = c.controls.value()
	st.InCall, st.CallKnown = c.inCall.value()
	st.FocusHeld = c.gate.held()
	return st
}
