package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// ============================================================================
// buttonctl - Command-line IPC Client
// ============================================================================
// This tool sends events to the mediabuttond daemon via IPC.
//
// Usage:
//   buttonctl primary
//   buttonctl next
//   buttonctl press previous
//   buttonctl release primary
//   buttonctl reload
//   buttonctl call on
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/mediabuttond.sock)
// ============================================================================

// Event types (duplicated from main package for standalone binary).
// Keys and transitions travel as strings on the wire.
type Event interface{}

type ButtonEvent struct {
	Key        string `json:"key"`
	Transition string `json:"transition"`
}

type PreferenceChanged struct{}

type CallStateChanged struct {
	InCall bool `json:"in_call"`
}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/mediabuttond.sock"

	// Parse arguments
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Parse command
	var event Event

	switch args[0] {
	case "primary", "next", "previous":
		event = ButtonEvent{Key: args[0], Transition: "press"}

	case "press", "release":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: %s requires a button key\n", args[0])
			os.Exit(1)
		}
		key, err := validateKey(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		event = ButtonEvent{Key: key, Transition: args[0]}

	case "reload":
		event = PreferenceChanged{}

	case "call":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: call requires on or off\n")
			os.Exit(1)
		}
		switch args[1] {
		case "on":
			event = CallStateChanged{InCall: true}
		case "off":
			event = CallStateChanged{InCall: false}
		default:
			fmt.Fprintf(os.Stderr, "error: call state must be on or off, got %q\n", args[1])
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	// Send event
	if err := sendEvent(socketPath, event); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func validateKey(key string) (string, error) {
	switch key {
	case "primary", "next", "previous":
		return key, nil
	case "play_pause":
		return "primary", nil
	default:
		return "", fmt.Errorf("unknown button key: %s (use primary, next or previous)", key)
	}
}

func sendEvent(socketPath string, event Event) error {
	// Connect to socket
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Marshal event
	data, err := marshalEvent(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Send event (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	// Read response
	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// Check response status
	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}

	return nil
}

func marshalEvent(event Event) ([]byte, error) {
	var env EventEnvelope

	switch e := event.(type) {
	case ButtonEvent:
		env.Type = "button"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ButtonEvent: %w", err)
		}
		env.Data = data

	case PreferenceChanged:
		env.Type = "preference_changed"

	case CallStateChanged:
		env.Type = "call_state"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal CallStateChanged: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}

	return json.Marshal(env)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `buttonctl - Control mediabuttond daemon via IPC

Usage:
  buttonctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/mediabuttond.sock)

Commands:
  primary                 Simulate a primary (play/pause) button press
  next                    Simulate a next button press
  previous                Simulate a previous button press
  press <key>             Simulate a button press (primary|next|previous)
  release <key>           Simulate a button release
  reload                  Re-read the controls preference from the config file
  call <on|off>           Set the in-call state
  help, -h, --help        Show this help message

Examples:
  buttonctl primary
  buttonctl primary; buttonctl primary   # double click advances the track
  buttonctl call on
  buttonctl -socket /var/run/mediabuttond.sock next
`)
}
