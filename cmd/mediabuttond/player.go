package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// commandName is the wire name of a command, shared by the player control
// protocol and outbound broadcasts.
func commandName(cmd Command) string {
	switch cmd.(type) {
	case CmdTogglePlayback:
		return "toggle_playback"
	case CmdNextTrack:
		return "next_track"
	case CmdPreviousTrack:
		return "previous_track"
	case CmdGetPlayerState:
		return "get_state"
	default:
		return ""
	}
}

// PlayerController defines the interface for player transport operations
// This allows for mocking in tests
type PlayerController interface {
	TogglePlayback() (string, error) // returns new playback state
	NextTrack() error
	PreviousTrack() error

	// State queries the current playback state for initial daemon sync and polling
	State() (string, error)

	Close() error
}

// PlayerClient manages the WebSocket control connection to the playback service
type PlayerClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
}

// NewPlayerClient creates a new player client and establishes initial connection
func NewPlayerClient(wsURL string, logger *slog.Logger, readTimeout int) (*PlayerClient, error) {
	// Validate URL
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}

	client := &PlayerClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: time.Duration(readTimeout) * time.Millisecond,
	}

	// Establish initial connection with retry
	if err := client.connectWithRetry(); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes a WebSocket connection to the playback service
func (c *PlayerClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	u, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("invalid ws url: %w", err)
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}

	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		return err
	}

	c.conn = conn
	return nil
}

// connectWithRetry attempts to connect with a short fixed backoff
func (c *PlayerClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		err := c.connect()
		if err == nil {
			c.logger.Info("connected to player", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Warn("connection failed; retrying...", "error", err, "attempt", attempt+1)
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("failed to connect after 10 attempts: %w", lastErr)
}

// ensureConnected checks connection and reconnects if necessary
func (c *PlayerClient) ensureConnected() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Warn("connection lost; reconnecting...")
	return c.connectWithRetry()
}

// sendAndRead sends a command and waits for a response
func (c *PlayerClient) sendAndRead(v any, timeout time.Duration) ([]byte, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("no websocket connection")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn = nil // Mark connection as broken
		return nil, err
	}

	// Set read deadline
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.conn = nil // Mark connection as broken
		return nil, err
	}

	return message, nil
}

// Close closes the WebSocket connection
func (c *PlayerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// TogglePlayback toggles the player between playing and paused and returns
// the resulting playback state.
func (c *PlayerClient) TogglePlayback() (string, error) {
	response, err := c.sendAndRead("toggle_playback", c.readTimeout)
	if err != nil {
		return "", fmt.Errorf("toggle playback: %w", err)
	}

	var resp struct {
		TogglePlayback struct {
			Result string `json:"result"`
			State  string `json:"state"`
		} `json:"toggle_playback"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse toggle_playback response", "error", err)
		return "", err
	}

	c.logger.Debug("toggle_playback", "state", resp.TogglePlayback.State, "result", resp.TogglePlayback.Result)

	return resp.TogglePlayback.State, nil
}

// NextTrack asks the player to advance to the next track.
func (c *PlayerClient) NextTrack() error {
	response, err := c.sendAndRead("next_track", c.readTimeout)
	if err != nil {
		return fmt.Errorf("next track: %w", err)
	}

	var resp struct {
		NextTrack struct {
			Result string `json:"result"`
		} `json:"next_track"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse next_track response", "error", err)
		return nil // Assume success
	}

	c.logger.Debug("next_track", "result", resp.NextTrack.Result)

	return nil
}

// PreviousTrack asks the player to return to the previous track.
func (c *PlayerClient) PreviousTrack() error {
	response, err := c.sendAndRead("previous_track", c.readTimeout)
	if err != nil {
		return fmt.Errorf("previous track: %w", err)
	}

	var resp struct {
		PreviousTrack struct {
			Result string `json:"result"`
		} `json:"previous_track"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse previous_track response", "error", err)
		return nil // Assume success
	}

	c.logger.Debug("previous_track", "result", resp.PreviousTrack.Result)

	return nil
}

// State queries the player for its current playback state ("playing", "paused", "stopped").
func (c *PlayerClient) State() (string, error) {
	response, err := c.sendAndRead("get_state", c.readTimeout)
	if err != nil {
		return "", fmt.Errorf("get state: %w", err)
	}

	var resp struct {
		GetState struct {
			Result string `json:"result"`
			State  string `json:"state"`
		} `json:"get_state"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse get_state response", "error", err)
		return "", err
	}

	c.logger.Debug("get_state", "state", resp.GetState.State, "result", resp.GetState.Result)

	return resp.GetState.State, nil
}
