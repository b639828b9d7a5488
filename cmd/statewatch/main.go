package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// statewatch subscribes to a mediabuttond daemon's websocket feed and prints
// button, command and player-state frames as they happen. Handy for checking
// what a remote actually sends and how the daemon classifies it.

// frame mirrors the daemon's outbound websocket envelope.
type frame struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:3001/ws", "mediabuttond websocket URL")
	)
	flag.Parse()

	// Parse websocket URL
	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	// Connect to websocket
	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	// Set up ping/pong handlers for connection health
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Start ping ticker to keep connection alive
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed: %v", err)
				return
			}
		}
	}()

	// The daemon re-observes player state on every poll; only state changes
	// are worth a line.
	var lastPlayerState string

	// Message reading loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				continue
			}
			handleFrame(message, &lastPlayerState)
		}
	}()

	// Wait for shutdown signal or connection close
	select {
	case <-sigc:
		log.Printf("shutting down...")
		// Clean close
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// handleFrame decodes one envelope and prints a human-readable line for it.
func handleFrame(message []byte, lastPlayerState *string) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	switch f.Type {
	case "button":
		var b struct {
			Key        string `json:"key"`
			Transition string `json:"transition"`
		}
		if err := json.Unmarshal(f.Data, &b); err != nil {
			return
		}
		fmt.Printf("[BUTTON] %s %s\n", b.Key, b.Transition)

	case "command":
		var c struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(f.Data, &c); err != nil {
			return
		}
		fmt.Printf("[COMMAND] %s\n", c.Command)

	case "player_state":
		var p struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return
		}
		if p.State == *lastPlayerState {
			return
		}
		*lastPlayerState = p.State
		fmt.Printf("[PLAYER] %s\n", p.State)

	case "call_state":
		var c struct {
			InCall bool `json:"in_call"`
		}
		if err := json.Unmarshal(f.Data, &c); err != nil {
			return
		}
		status := "ENDED"
		if c.InCall {
			status = "ACTIVE"
		}
		fmt.Printf("[CALL] %s\n", status)

	case "preference_changed":
		fmt.Printf("[PREFERENCE] reloaded\n")

	case "state_init":
		pretty, _ := json.MarshalIndent(json.RawMessage(f.Data), "", "  ")
		fmt.Printf("[INIT]\n%s\n\n", string(pretty))

	default:
		pretty, _ := json.MarshalIndent(json.RawMessage(message), "", "  ")
		fmt.Printf("[FRAME]\n%s\n\n", string(pretty))
	}
}
