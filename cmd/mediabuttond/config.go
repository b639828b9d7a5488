package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the mediabuttond daemon.
//
// The config file is the primary configuration surface; flags exist for small
// overrides and for environments where a file is awkward. Defaults and
// validation are centralized here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Input device (evdev) configuration
	Input InputConfig `yaml:"input"`

	// GPIO wired buttons (Raspberry Pi style boxes)
	GPIO GPIOConfig `yaml:"gpio"`

	// Desktop hotkey bindings
	Hotkeys HotkeysConfig `yaml:"hotkeys"`

	// Button classification behavior
	Buttons ButtonsConfig `yaml:"buttons"`

	// Player control connection
	Player PlayerConfig `yaml:"player"`

	// IPC configuration (buttonctl and hook scripts)
	IPC IPCConfig `yaml:"ipc"`

	// HTTP/websocket observer server
	HTTP HTTPConfig `yaml:"http"`

	// MQTT mirroring (disabled unless a broker is set)
	MQTT MQTTConfig `yaml:"mqtt"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty"` // /dev/input/eventN paths to monitor
}

type GPIOConfig struct {
	Chip       string         `yaml:"chip,omitempty"`
	DebounceMS int            `yaml:"debounce_ms,omitempty"`
	Pins       map[string]int `yaml:"pins,omitempty"` // button name -> line offset
}

type HotkeysConfig struct {
	Bindings map[string]string `yaml:"bindings,omitempty"` // button name -> combo, e.g. primary: ctrl+alt+p
}

type ButtonsConfig struct {
	// Enabled is the user preference gating all button handling. The daemon
	// re-reads it from this file when told the preference changed.
	Enabled bool `yaml:"enabled"`

	// DoubleClickMS is the window in which a second primary press counts as
	// a double click.
	DoubleClickMS int `yaml:"double_click_ms"`
}

type PlayerConfig struct {
	WsURL         string `yaml:"ws_url"`
	TimeoutMS     int    `yaml:"timeout_ms"`
	PollIntervalS int    `yaml:"poll_interval_s"` // 0 disables background state polling
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type HTTPConfig struct {
	Port int `yaml:"port"` // 0 disables the HTTP server
}

type MQTTConfig struct {
	Broker      string `yaml:"broker,omitempty"` // e.g. tcp://127.0.0.1:1883
	ClientID    string `yaml:"client_id,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{},
		GPIO: GPIOConfig{
			Chip:       "gpiochip0",
			DebounceMS: defaultGPIODebounceMS,
		},
		Hotkeys: HotkeysConfig{},
		Buttons: ButtonsConfig{
			Enabled:       true,
			DoubleClickMS: defaultDoubleClickWindowMS,
		},
		Player: PlayerConfig{
			WsURL:         "ws://127.0.0.1:8765",
			TimeoutMS:     defaultReadTimeoutMS,
			PollIntervalS: defaultPollIntervalS,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/mediabuttond.sock",
		},
		HTTP: HTTPConfig{
			Port: 3001,
		},
		MQTT: MQTTConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// controlsPreference returns a fetch function for the buttons.enabled
// preference that re-reads the config file on every call. The classifier
// caches the result, so the file is only touched again after a
// PreferenceChanged event invalidates the cache.
func controlsPreference(path string) func() (bool, error) {
	return func() (bool, error) {
		cfg, err := LoadConfigFile(path)
		if err != nil {
			return false, err
		}
		return cfg.Buttons.Enabled, nil
	}
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags pass pointers; each override is only applied if the pointer is
// non-nil. main.go decides which flags exist; keeping the mechanism
// separate avoids conditionals proliferating through the code.
type FlagOverrides struct {
	InputDevice *string

	PlayerWsURL         *string
	PlayerTimeoutMS     *int
	PlayerPollIntervalS *int

	ButtonsEnabled *bool
	DoubleClickMS  *int

	IPCSocketPath *string
	HTTPPort      *int
	MQTTBroker    *string

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is
// ignored. If the pointer is non-nil, the value is applied (even if it is a
// zero value).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}

	if o.PlayerWsURL != nil {
		cfg.Player.WsURL = *o.PlayerWsURL
	}
	if o.PlayerTimeoutMS != nil {
		cfg.Player.TimeoutMS = *o.PlayerTimeoutMS
	}
	if o.PlayerPollIntervalS != nil {
		cfg.Player.PollIntervalS = *o.PlayerPollIntervalS
	}

	if o.ButtonsEnabled != nil {
		cfg.Buttons.Enabled = *o.ButtonsEnabled
	}
	if o.DoubleClickMS != nil {
		cfg.Buttons.DoubleClickMS = *o.DoubleClickMS
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.HTTPPort != nil {
		cfg.HTTP.Port = *o.HTTPPort
	}
	if o.MQTTBroker != nil {
		cfg.MQTT.Broker = *o.MQTTBroker
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}

	// GPIO
	if c.GPIO.DebounceMS < 0 {
		return errors.New("gpio.debounce_ms must be >= 0")
	}
	for name, pin := range c.GPIO.Pins {
		key, err := parseButtonKey(name)
		if err != nil || key == ButtonUnknown {
			return fmt.Errorf("gpio.pins: unknown button name %q", name)
		}
		if pin < 0 {
			return fmt.Errorf("gpio.pins.%s must be >= 0", name)
		}
	}

	// Hotkeys (combos are parsed on registration; names are checked here)
	for name := range c.Hotkeys.Bindings {
		key, err := parseButtonKey(name)
		if err != nil || key == ButtonUnknown {
			return fmt.Errorf("hotkeys.bindings: unknown button name %q", name)
		}
	}

	// Buttons
	if c.Buttons.DoubleClickMS <= 0 {
		return errors.New("buttons.double_click_ms must be > 0")
	}

	// Player
	if c.Player.WsURL == "" {
		return errors.New("player.ws_url must not be empty")
	}
	if c.Player.TimeoutMS <= 0 {
		return errors.New("player.timeout_ms must be > 0")
	}
	if c.Player.PollIntervalS < 0 {
		return errors.New("player.poll_interval_s must be >= 0")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// HTTP
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be between 0 and 65535")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
// This is handy for config values like ipc.socket_path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
