//go:build windows

package main

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// parseHotkeyCombo converts a combo such as "ctrl+alt+p" into the modifier
// set and key the hotkey library wants. The last part is the key, everything
// before it a modifier. cmd is accepted as an alias for the Windows key.
func parseHotkeyCombo(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.ToLower(combo), "+")

	keyName := parts[len(parts)-1]
	key, ok := hotkeyKeyNames[keyName]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported key: %s", keyName)
	}

	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		switch part {
		case "ctrl":
			mods = append(mods, hotkey.ModCtrl)
		case "alt":
			mods = append(mods, hotkey.ModAlt)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "super", "win", "cmd":
			mods = append(mods, hotkey.ModWin)
		default:
			return nil, 0, fmt.Errorf("unsupported modifier: %s", part)
		}
	}

	return mods, key, nil
}
