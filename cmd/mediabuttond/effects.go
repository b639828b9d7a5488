package main

import (
	"log/slog"
	"time"
)

// runEffect executes a single Command (side effect) against external systems
// (currently the player control socket) and emits an observation Event via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call applyEvent directly; it only emits Events for the daemon loop.
// - The daemon loop is responsible for sequencing: applyEvent -> Commands -> runEffect -> Events -> applyEvent.
func runEffect(
	client PlayerController,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		// No place to report observations/errors; nothing sensible to do.
		return
	}

	// Snapshot delivery needs no player connection.
	if c, ok := cmd.(CmdPublishStateSnapshot); ok {
		deliverSnapshot(c, logger)
		return
	}

	if client == nil {
		onEvent(PlayerCommandFailed{
			Command: cmd,
			Err:     errNoClient{},
			At:      time.Now(),
		})
		return
	}

	now := time.Now()

	switch cmd.(type) {
	case CmdTogglePlayback:
		state, err := client.TogglePlayback()
		if err != nil {
			logger.Error("player TogglePlayback failed", "error", err)
			onEvent(PlayerCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(PlayerStateObserved{State: state, At: now})

	case CmdNextTrack:
		if err := client.NextTrack(); err != nil {
			logger.Error("player NextTrack failed", "error", err)
			onEvent(PlayerCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		// Advancing does not change play/pause state; the poll loop refreshes
		// track details for observers.

	case CmdPreviousTrack:
		if err := client.PreviousTrack(); err != nil {
			logger.Error("player PreviousTrack failed", "error", err)
			onEvent(PlayerCommandFailed{Command: cmd, Err: err, At: now})
			return
		}

	case CmdGetPlayerState:
		st, err := client.State()
		if err != nil {
			logger.Error("player State failed", "error", err)
			onEvent(PlayerCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(PlayerStateObserved{State: st, At: now})

	default:
		// Unknown command: record failure so the loop can react (if desired).
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(PlayerCommandFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// deliverSnapshot hands a daemon-produced snapshot to the requester. The
// channel send lives here so the daemon loop itself never blocks.
func deliverSnapshot(c CmdPublishStateSnapshot, logger *slog.Logger) {
	if c.Reply == nil {
		logger.Warn("state snapshot requested with nil reply channel")
		return
	}

	select {
	case c.Reply <- c.Snapshot:
		// delivered
	default:
		logger.Warn("state snapshot reply channel not ready; dropping snapshot")
	}
}

// errNoClient indicates the daemon was asked to execute a command without a player client.
type errNoClient struct{}

func (errNoClient) Error() string { return "no player client" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
