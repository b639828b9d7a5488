package main

import "time"

// DaemonState is the top-level, daemon-owned state container.
//
// It caches what the daemon has observed (player state, last dispatched
// command, last button seen) so a coherent snapshot can be published to other
// clients (IPC, websocket, MQTT) without re-querying anything.
//
// All mutation happens on the daemon goroutine (single-owner); snapshots are
// copies and safe to hand out.
type DaemonState struct {
	// Player is the last playback state the player reported.
	Player PlayerObservation

	// LastCmd is the last player command the classifier produced.
	LastCmd CommandObservation

	// LastButton is the last button event the daemon classified.
	LastButton ButtonObservation
}

// PlayerObservation is the cached view of the player's playback state.
type PlayerObservation struct {
	State string    `json:"state"`
	Known bool      `json:"known"`
	At    time.Time `json:"at"`
}

// CommandObservation records the most recent dispatched command.
type CommandObservation struct {
	Command string    `json:"command"`
	Known   bool      `json:"known"`
	At      time.Time `json:"at"`
}

// ButtonObservation records the most recent classified button event.
type ButtonObservation struct {
	Key        ButtonKey  `json:"key"`
	Transition Transition `json:"transition"`
	Handled    bool       `json:"handled"`
	Known      bool       `json:"known"`
	At         time.Time  `json:"at"`
}

// SetObservedPlayerState updates the cached player state.
// Intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetObservedPlayerState(state string, now time.Time) {
	s.Player.State = state
	s.Player.Known = true
	s.Player.At = now
}

// SetObservedCommand records a dispatched command.
// Intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetObservedCommand(cmd string, now time.Time) {
	s.LastCmd.Command = cmd
	s.LastCmd.Known = true
	s.LastCmd.At = now
}

// SetObservedButton records a classified button event.
// Intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetObservedButton(ev ButtonEvent, handled bool) {
	s.LastButton.Key = ev.Key
	s.LastButton.Transition = ev.Transition
	s.LastButton.Handled = handled
	s.LastButton.Known = true
	s.LastButton.At = ev.At
}

// StatusSnapshot is a coherent copy of daemon state plus the classifier's
// flags, safe to hand to other goroutines.
type StatusSnapshot struct {
	Classifier ClassifierStatus   `json:"classifier"`
	Player     PlayerObservation  `json:"player"`
	LastCmd    CommandObservation `json:"last_command"`
	LastButton ButtonObservation  `json:"last_button"`
}

// Snapshot combines the daemon-owned observations with the classifier's view.
// Intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) Snapshot(cs ClassifierStatus) StatusSnapshot {
	return StatusSnapshot{
		Classifier: cs,
		Player:     s.Player,
		LastCmd:    s.LastCmd,
		LastButton: s.LastButton,
	}
}
