package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockPlayerController is a test double for PlayerController
type mockPlayerController struct {
	state         string
	toggleCalls   int
	nextCalls     int
	previousCalls int
	stateCalls    int

	toggleErr error
	nextErr   error
}

func newMockPlayerController(initialState string) *mockPlayerController {
	return &mockPlayerController{state: initialState}
}

func (m *mockPlayerController) TogglePlayback() (string, error) {
	m.toggleCalls++
	if m.toggleErr != nil {
		return "", m.toggleErr
	}
	if m.state == "playing" {
		m.state = "paused"
	} else {
		m.state = "playing"
	}
	return m.state, nil
}

func (m *mockPlayerController) NextTrack() error {
	m.nextCalls++
	return m.nextErr
}

func (m *mockPlayerController) PreviousTrack() error {
	m.previousCalls++
	return nil
}

func (m *mockPlayerController) State() (string, error) {
	m.stateCalls++
	return m.state, nil
}

func (m *mockPlayerController) Close() error {
	return nil
}

// TestApplyEvent_ButtonPress_DispatchesToggle tests the full press -> command ->
// observation cycle against a mock player.
func TestApplyEvent_ButtonPress_DispatchesToggle(t *testing.T) {
	client := newMockPlayerController("paused")
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}
	base := time.Now()

	cmds, out := applyEvent(state, c, press(ButtonPrimary, base), logger)

	// No side effects have run yet
	if client.toggleCalls != 0 {
		t.Fatalf("expected 0 TogglePlayback calls before executing commands, got %d", client.toggleCalls)
	}

	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(CmdTogglePlayback); !ok {
		t.Fatalf("expected CmdTogglePlayback, got %T", cmds[0])
	}
	if len(out) != 2 {
		t.Fatalf("expected button event and command broadcast, got %d events", len(out))
	}

	if !state.LastButton.Known || !state.LastButton.Handled {
		t.Errorf("expected button observation recorded as handled, got %+v", state.LastButton)
	}
	if state.LastCmd.Command != "toggle_playback" {
		t.Errorf("expected last command toggle_playback, got %q", state.LastCmd.Command)
	}

	// Execute the command and feed the observation back
	var obs []Event
	runEffect(client, cmds[0], logger, func(e Event) { obs = append(obs, e) })

	if client.toggleCalls != 1 {
		t.Fatalf("expected 1 TogglePlayback call, got %d", client.toggleCalls)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	po, ok := obs[0].(PlayerStateObserved)
	if !ok {
		t.Fatalf("expected PlayerStateObserved, got %T", obs[0])
	}
	if po.State != "playing" {
		t.Errorf("expected observed state playing, got %q", po.State)
	}

	applyEvent(state, c, po, logger)
	if !state.Player.Known || state.Player.State != "playing" {
		t.Errorf("expected player state playing after observation, got %+v", state.Player)
	}
}

// TestApplyEvent_DoubleClick_DispatchesNext tests that the second press of a
// double click executes NextTrack, not a second toggle.
func TestApplyEvent_DoubleClick_DispatchesNext(t *testing.T) {
	client := newMockPlayerController("playing")
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}
	base := time.Now()

	cmds, _ := applyEvent(state, c, press(ButtonPrimary, base), logger)
	for _, cmd := range cmds {
		runEffect(client, cmd, logger, func(Event) {})
	}

	at := base.Add(100 * time.Millisecond)
	cmds, _ = applyEvent(state, c, press(ButtonPrimary, at), logger)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(CmdNextTrack); !ok {
		t.Fatalf("expected CmdNextTrack, got %T", cmds[0])
	}
	for _, cmd := range cmds {
		runEffect(client, cmd, logger, func(Event) {})
	}

	if client.toggleCalls != 1 {
		t.Errorf("expected 1 TogglePlayback call, got %d", client.toggleCalls)
	}
	if client.nextCalls != 1 {
		t.Errorf("expected 1 NextTrack call, got %d", client.nextCalls)
	}
	if state.LastCmd.Command != "next_track" {
		t.Errorf("expected last command next_track, got %q", state.LastCmd.Command)
	}
}

// TestApplyEvent_CallState_SuppressesButtons tests that a call hook event stops
// button dispatch until the call ends.
func TestApplyEvent_CallState_SuppressesButtons(t *testing.T) {
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}
	base := time.Now()

	_, out := applyEvent(state, c, CallStateChanged{InCall: true}, logger)
	if len(out) != 1 {
		t.Fatalf("expected call state change to be broadcast, got %d events", len(out))
	}

	cmds, out := applyEvent(state, c, press(ButtonPrimary, base), logger)
	if len(cmds) != 0 {
		t.Fatalf("expected no commands during a call, got %d", len(cmds))
	}
	if len(out) != 0 {
		t.Fatalf("expected no broadcasts for a suppressed press, got %d", len(out))
	}
	if state.LastButton.Handled {
		t.Errorf("expected suppressed press recorded as unhandled")
	}

	applyEvent(state, c, CallStateChanged{InCall: false}, logger)
	at := base.Add(time.Second)
	cmds, _ = applyEvent(state, c, press(ButtonPrimary, at), logger)
	if len(cmds) != 1 {
		t.Fatalf("expected dispatch to resume after the call, got %d commands", len(cmds))
	}
}

// TestApplyEvent_PreferenceChanged_DrivesGate tests that preference reloads
// move the focus gate.
func TestApplyEvent_PreferenceChanged_DrivesGate(t *testing.T) {
	enabled := true
	focus := &mockButtonFocus{}
	logger := quietLogger()
	c := NewClassifier(0, func() (bool, error) { return enabled, nil }, nil, focus, logger)
	state := &DaemonState{}

	applyEvent(state, c, PreferenceChanged{}, logger)
	if focus.acquireCalls != 1 {
		t.Fatalf("expected 1 acquire after reload, got %d", focus.acquireCalls)
	}

	enabled = false
	applyEvent(state, c, PreferenceChanged{}, logger)
	if focus.releaseCalls != 1 {
		t.Fatalf("expected 1 release after disabling, got %d", focus.releaseCalls)
	}

	// Buttons are now unhandled.
	cmds, _ := applyEvent(state, c, press(ButtonNext, time.Now()), logger)
	if len(cmds) != 0 {
		t.Errorf("expected no commands with controls disabled, got %d", len(cmds))
	}
}

// TestApplyEvent_StampsUntimedEvents tests that events without a timestamp
// (IPC arrivals) are stamped on receipt.
func TestApplyEvent_StampsUntimedEvents(t *testing.T) {
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}

	applyEvent(state, c, ButtonEvent{Key: ButtonNext, Transition: TransitionPress}, logger)
	if state.LastButton.At.IsZero() {
		t.Errorf("expected stamped timestamp on button observation")
	}
}

// TestApplyEvent_SnapshotRequest tests the snapshot round trip through the
// effects stage.
func TestApplyEvent_SnapshotRequest(t *testing.T) {
	client := newMockPlayerController("playing")
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}
	state.SetObservedPlayerState("playing", time.Now())

	reply := make(chan StatusSnapshot, 1)
	cmds, _ := applyEvent(state, c, RequestStateSnapshot{Reply: reply}, logger)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(CmdPublishStateSnapshot); !ok {
		t.Fatalf("expected CmdPublishStateSnapshot, got %T", cmds[0])
	}

	runEffect(client, cmds[0], logger, func(Event) {})

	select {
	case snap := <-reply:
		if !snap.Player.Known || snap.Player.State != "playing" {
			t.Errorf("expected snapshot with known playing state, got %+v", snap.Player)
		}
	default:
		t.Fatalf("expected snapshot delivered on reply channel")
	}
}

// TestRunEffect_NoClient tests that commands without a player client fail as events.
func TestRunEffect_NoClient(t *testing.T) {
	var got []Event
	runEffect(nil, CmdTogglePlayback{}, quietLogger(), func(e Event) { got = append(got, e) })

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	fail, ok := got[0].(PlayerCommandFailed)
	if !ok {
		t.Fatalf("expected PlayerCommandFailed, got %T", got[0])
	}
	if _, ok := fail.Err.(errNoClient); !ok {
		t.Errorf("expected errNoClient, got %v", fail.Err)
	}
}

// TestRunEffect_ToggleFailure_LeavesStateAlone tests that a failed command
// produces a failure event and that applying it does not fabricate player state.
func TestRunEffect_ToggleFailure_LeavesStateAlone(t *testing.T) {
	client := newMockPlayerController("paused")
	client.toggleErr = errors.New("socket closed")
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}

	var got []Event
	runEffect(client, CmdTogglePlayback{}, logger, func(e Event) { got = append(got, e) })

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	fail, ok := got[0].(PlayerCommandFailed)
	if !ok {
		t.Fatalf("expected PlayerCommandFailed, got %T", got[0])
	}

	applyEvent(state, c, fail, logger)
	if state.Player.Known {
		t.Errorf("expected player state to stay unknown after a failure, got %+v", state.Player)
	}
}

// TestRunDaemon_ButtonFlow tests the daemon loop end to end: press, dispatch,
// observation, snapshot, shutdown.
func TestRunDaemon_ButtonFlow(t *testing.T) {
	client := newMockPlayerController("paused")
	logger := quietLogger()
	c := newTestClassifier()
	state := &DaemonState{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	done := make(chan struct{})
	go func() {
		runDaemon(ctx, events, client, c, state, 0, nil, logger)
		close(done)
	}()

	events <- press(ButtonPrimary, time.Now())

	reply := make(chan StatusSnapshot, 1)
	events <- RequestStateSnapshot{Reply: reply}

	var snap StatusSnapshot
	select {
	case snap = <-reply:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}

	if snap.LastCmd.Command != "toggle_playback" {
		t.Errorf("expected last command toggle_playback, got %q", snap.LastCmd.Command)
	}
	if snap.Player.State != "playing" {
		t.Errorf("expected player state playing, got %q", snap.Player.State)
	}
	if !snap.Classifier.ControlsKnown || !snap.Classifier.ControlsEnabled {
		t.Errorf("expected controls resolved and enabled at startup, got %+v", snap.Classifier)
	}

	close(events)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for daemon shutdown")
	}

	// Startup sync plus one toggle.
	if client.stateCalls != 1 {
		t.Errorf("expected 1 State call, got %d", client.stateCalls)
	}
	if client.toggleCalls != 1 {
		t.Errorf("expected 1 TogglePlayback call, got %d", client.toggleCalls)
	}
}
