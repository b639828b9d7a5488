package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mediabuttond.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadConfigFile_MergesWithDefaults tests that file values land on top of
// defaults and untouched sections keep their defaults.
func TestLoadConfigFile_MergesWithDefaults(t *testing.T) {
	path := writeConfigFile(t, `
buttons:
  enabled: false
  double_click_ms: 250
player:
  ws_url: ws://10.0.0.5:8765
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Buttons.Enabled {
		t.Error("expected buttons.enabled false")
	}
	if cfg.Buttons.DoubleClickMS != 250 {
		t.Errorf("expected double_click_ms 250, got %d", cfg.Buttons.DoubleClickMS)
	}
	if cfg.Player.WsURL != "ws://10.0.0.5:8765" {
		t.Errorf("expected ws_url from file, got %q", cfg.Player.WsURL)
	}
	if cfg.IPC.SocketPath != "/tmp/mediabuttond.sock" {
		t.Errorf("expected default socket path, got %q", cfg.IPC.SocketPath)
	}
	if cfg.HTTP.Port != 3001 {
		t.Errorf("expected default http port, got %d", cfg.HTTP.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected merged config to validate, got %v", err)
	}
}

// TestLoadConfigFile_RejectsUnknownFields tests that typos in section names
// are caught instead of silently ignored.
func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	path := writeConfigFile(t, "buttonz:\n  enabled: true\n")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected unknown field error, got nil")
	}
}

// TestLoadConfigFile_RejectsTrailingDocument tests that a second YAML
// document after the config is an error.
func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	path := writeConfigFile(t, "buttons:\n  enabled: true\n---\nbuttons:\n  enabled: false\n")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected trailing document error, got nil")
	}
}

// TestControlsPreference_SeesFileEdits tests that the preference fetch reads
// the file fresh on every call, so edits take effect on the next reload.
func TestControlsPreference_SeesFileEdits(t *testing.T) {
	path := writeConfigFile(t, "buttons:\n  enabled: true\n")
	fetch := controlsPreference(path)

	enabled, err := fetch()
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !enabled {
		t.Fatal("expected enabled true")
	}

	if err := os.WriteFile(path, []byte("buttons:\n  enabled: false\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	enabled, err = fetch()
	if err != nil {
		t.Fatalf("fetch after edit failed: %v", err)
	}
	if enabled {
		t.Error("expected enabled false after edit")
	}
}

// TestFlagOverrides_OnlySetPointersApply tests that nil override pointers
// leave the config alone while set pointers replace values.
func TestFlagOverrides_OnlySetPointersApply(t *testing.T) {
	cfg := DefaultConfig()
	port := 8088
	enabled := false
	FlagOverrides{HTTPPort: &port, ButtonsEnabled: &enabled}.Apply(&cfg)

	if cfg.HTTP.Port != 8088 {
		t.Errorf("expected http port 8088, got %d", cfg.HTTP.Port)
	}
	if cfg.Buttons.Enabled {
		t.Error("expected buttons.enabled false")
	}
	if cfg.Player.WsURL != DefaultConfig().Player.WsURL {
		t.Errorf("expected player url untouched, got %q", cfg.Player.WsURL)
	}
}

// TestConfigValidate_CatchesBadValues tests the validation rules for the
// values users most often get wrong.
func TestConfigValidate_CatchesBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero double click window", func(c *Config) { c.Buttons.DoubleClickMS = 0 }},
		{"empty player url", func(c *Config) { c.Player.WsURL = "" }},
		{"unknown gpio button name", func(c *Config) { c.GPIO.Pins = map[string]int{"volume": 4} }},
		{"negative gpio pin", func(c *Config) { c.GPIO.Pins = map[string]int{"next": -1} }},
		{"unknown hotkey button name", func(c *Config) { c.Hotkeys.Bindings = map[string]string{"stop": "ctrl+s"} }},
		{"empty ipc socket", func(c *Config) { c.IPC.SocketPath = "" }},
		{"negative poll interval", func(c *Config) { c.Player.PollIntervalS = -1 }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}

	good := DefaultConfig()
	if err := good.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}
