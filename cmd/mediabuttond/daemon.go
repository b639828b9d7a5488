package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// Design rules enforced here:
//   - applyEvent computes: state changes + commands + observer broadcasts.
//   - The daemon loop is the only place that executes side effects (player calls).
//   - Player responses are turned into Events and fed back into applyEvent.
//   - An explicit event queue and command queue (no nested/re-entrant execution).
//
// The loop goroutine is the single owner of DaemonState and the Classifier;
// every other goroutine talks to it through the events channel.
//
// ============================================================================

// runDaemon is the main daemon loop that:
//   - Receives Events from input backends, IPC and the websocket layer
//   - Applies them to the classifier and daemon state
//   - Executes resulting commands against the player and feeds observations back
//   - Publishes observer-facing events to the broadcast sinks
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
//   - Releases button focus on the way out
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	client PlayerController,
	classifier *Classifier,
	state *DaemonState,
	pollInterval time.Duration,
	sinks []chan<- Event,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}
	defer classifier.Close()

	var tick <-chan time.Time
	if pollInterval > 0 {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Explicit queues:
	// - eventQueue holds events awaiting application
	// - cmdQueue holds commands awaiting execution
	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}
	enqueueCommands := func(cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		cmdQueue = append(cmdQueue, cmds...)
	}

	// publish hands an event to every broadcast sink without ever blocking
	// the loop; a sink that cannot keep up misses events.
	publish := func(ev Event) {
		for _, sink := range sinks {
			select {
			case sink <- ev:
			default:
				logger.Debug("broadcast sink full; dropping event")
			}
		}
	}

	// Apply all queued events, enqueuing any resulting commands.
	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			cmds, out := applyEvent(state, classifier, ev, logger)
			for _, o := range out {
				publish(o)
			}
			enqueueCommands(cmds)
		}
	}

	// Execute all queued commands, enqueuing observation events.
	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(client, cmd, logger, func(obs Event) {
				enqueueEvent(obs)
			})

			// Observations should be applied promptly to keep state coherent.
			flushEvents()
		}
	}

	// Startup: sync the focus gate with the preference and learn the player
	// state so /status has answers before the first button press.
	enabled := classifier.ReloadPreference()
	logger.Info("controls preference loaded", "enabled", enabled)
	enqueueCommands([]Command{CmdGetPlayerState{}})
	flushCommands()

	// Main loop
	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			enqueueEvent(ev)
			flushEvents()
			flushCommands()

		case <-tick:
			enqueueCommands([]Command{CmdGetPlayerState{}})
			flushCommands()
		}
	}
}

// applyEvent applies one event to daemon state and the classifier.
//
// It returns the commands to execute and the observer-facing events to
// publish. The only I/O it can trigger is the classifier's lazy flag fetches
// and the focus gate; player I/O happens later, in runEffect.
func applyEvent(state *DaemonState, c *Classifier, ev Event, logger *slog.Logger) (cmds []Command, out []Event) {
	switch ev := ev.(type) {
	case ButtonEvent:
		// Events arriving over IPC carry no usable timestamp; stamp them on
		// receipt so the double-click window is measured locally.
		if ev.At.IsZero() {
			ev.At = time.Now()
		}

		cmd, handled := c.Classify(ev, ev.At)
		state.SetObservedButton(ev, handled)
		if !handled {
			logger.Debug("button event not handled",
				"key", ev.Key.String(), "transition", ev.Transition.String())
			return nil, nil
		}

		out = append(out, ev)
		if cmd == nil {
			return nil, out
		}

		name := commandName(cmd)
		logger.Info("button classified", "key", ev.Key.String(), "command", name)
		state.SetObservedCommand(name, ev.At)
		out = append(out, CommandDispatched{Command: name})
		return []Command{cmd}, out

	case PreferenceChanged:
		enabled := c.ReloadPreference()
		logger.Info("controls preference reloaded", "enabled", enabled)
		return nil, []Event{ev}

	case CallStateChanged:
		c.SetInCall(ev.InCall)
		logger.Info("call state changed", "in_call", ev.InCall)
		return nil, []Event{ev}

	case PlayerStateObserved:
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		state.SetObservedPlayerState(ev.State, ev.At)
		return nil, []Event{ev}

	case PlayerCommandFailed:
		// Keep state as-is; the effect already logged the failure.
		return nil, nil

	case RequestStateSnapshot:
		return []Command{CmdPublishStateSnapshot{
			Snapshot: state.Snapshot(c.Status()),
			Reply:    ev.Reply,
		}}, nil

	case CommandDispatched:
		// Observer-facing only; nothing to apply.
		return nil, nil

	default:
		// Unknown event type: no-op.
		return nil, nil
	}
}
