package main

import (
	"runtime"
	"testing"
)

// TestDetectDisplayServer_EnvPriority tests that Wayland wins over X11 when
// both environment variables are present.
func TestDetectDisplayServer_EnvPriority(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("environment detection does not apply on Windows")
	}

	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	t.Setenv("DISPLAY", ":0")
	if ds := detectDisplayServer(); ds != DisplayServerWayland {
		t.Errorf("expected Wayland, got %s", ds)
	}

	t.Setenv("WAYLAND_DISPLAY", "")
	if ds := detectDisplayServer(); ds != DisplayServerX11 {
		t.Errorf("expected X11, got %s", ds)
	}
}

// TestNewHotkeyFocus_UnsupportedDisplayServer tests that construction fails
// cleanly on Wayland so the daemon can fall back to running without a focus
// collaborator.
func TestNewHotkeyFocus_UnsupportedDisplayServer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows always has a hotkey backend")
	}

	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	t.Setenv("DISPLAY", "")

	events := make(chan Event, 1)
	if _, err := NewHotkeyFocus(map[string]string{"primary": "ctrl+alt+p"}, events, quietLogger()); err == nil {
		t.Fatal("expected an error on Wayland, got nil")
	}
}
