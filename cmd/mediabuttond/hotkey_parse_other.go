//go:build !windows && !(linux && cgo)

package main

import (
	"fmt"

	"golang.design/x/hotkey"
)

// parseHotkeyCombo is not implemented on this OS; the daemon targets Linux
// players and Windows desktops.
func parseHotkeyCombo(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	return nil, 0, fmt.Errorf("desktop hotkeys are not supported on this OS")
}
