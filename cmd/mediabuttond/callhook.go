package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ============================================================================
// Call Hook Integration
// ============================================================================
// Telephony integrations (ModemManager dispatcher scripts, PBX hooks, headset
// bridges) invoke "mediabuttond call-hook" around calls so button presses do
// not disturb the call. The state arrives either as the -state flag or the
// CALL_STATE environment variable; the hook forwards it over IPC and exits.
// ============================================================================

// parseCallState maps the hook argument to the in-call flag.
func parseCallState(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ringing", "offhook", "active", "started", "on", "1", "true":
		return true, nil
	case "idle", "ended", "disconnected", "off", "0", "false":
		return false, nil
	case "":
		return false, fmt.Errorf("call state not provided (use -state or CALL_STATE)")
	default:
		return false, fmt.Errorf("unknown call state: %s", raw)
	}
}

// runCallHook handles call-hook mode.
func runCallHook(socketPath, stateArg string, logger *slog.Logger) error {
	raw := stateArg
	if raw == "" {
		raw = os.Getenv("CALL_STATE")
	}

	inCall, err := parseCallState(raw)
	if err != nil {
		return err
	}

	if err := SendIPCEvent(socketPath, CallStateChanged{InCall: inCall}); err != nil {
		return fmt.Errorf("send IPC event: %w", err)
	}

	logger.Debug("call state sent", "in_call", inCall)
	return nil
}
