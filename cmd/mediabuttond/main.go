package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("mediabuttond v%s\n", version)
	fmt.Println("Media button daemon for headless and desktop players")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  mediabuttond [OPTIONS]")
	fmt.Println("  mediabuttond call-hook [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that turns media button presses (Linux input devices, GPIO")
	fmt.Println("  wired buttons, desktop hotkeys, IPC injection) into player commands")
	fmt.Println("  over WebSocket. Single-button remotes get double-click-to-advance,")
	fmt.Println("  and button handling pauses automatically during phone calls.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (flags override file values)")
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Println("        Linux input event device to monitor (e.g. /dev/input/event3)")
	fmt.Println()
	fmt.Println("  -player-ws-url string")
	fmt.Println("        Player websocket URL (default \"ws://127.0.0.1:8765\")")
	fmt.Println()
	fmt.Println("  -player-ws-timeout-ms int")
	fmt.Printf("        Timeout for websocket responses in ms (default %d)\n", defaultReadTimeoutMS)
	fmt.Println()
	fmt.Println("  -poll-interval-s int")
	fmt.Printf("        Player state poll interval in seconds, 0 disables (default %d)\n", defaultPollIntervalS)
	fmt.Println()
	fmt.Println("  -buttons-enabled")
	fmt.Println("        Handle button presses (default true; pins the preference for this run)")
	fmt.Println()
	fmt.Println("  -double-click-ms int")
	fmt.Printf("        Window for a primary double click to mean next track (default %d)\n", defaultDoubleClickWindowMS)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/mediabuttond.sock\")")
	fmt.Println()
	fmt.Println("  -http-port int")
	fmt.Println("        HTTP/websocket observer port, 0 disables (default 3001)")
	fmt.Println()
	fmt.Println("  -mqtt-broker string")
	fmt.Println("        MQTT broker URL, e.g. tcp://127.0.0.1:1883 (empty disables mirroring)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("SUBCOMMANDS:")
	fmt.Println("  call-hook")
	fmt.Println("        Forward a telephony state change to the daemon (reads -state or CALL_STATE)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start daemon with a config file")
	fmt.Println("  mediabuttond -config /etc/mediabuttond.yaml")
	fmt.Println()
	fmt.Println("  # Monitor a bluetooth headset's input device")
	fmt.Println("  mediabuttond -device /dev/input/event3")
	fmt.Println()
	fmt.Println("  # Slower double click for a sticky remote")
	fmt.Println("  mediabuttond -device /dev/input/event3 -double-click-ms 600")
	fmt.Println()
	fmt.Println("  # Suspend buttons while a call rings (from a dispatcher script)")
	fmt.Println("  mediabuttond call-hook -state ringing")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to input devices (run as root or add user to 'input' group)")
	fmt.Println("  - Desktop hotkey bindings need X11 or Windows; Wayland is not supported")
	fmt.Println("  - SIGHUP re-reads the buttons.enabled preference from the config file")
	fmt.Println()
}

func main() {
	// Check for subcommand mode (call hook) first
	if len(os.Args) > 1 && os.Args[1] == "call-hook" {
		runCallHookSubcommand()
		return
	}

	// Check for version flag early (for main command)
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	// Parse command-line flags
	var (
		configPath      = flag.String("config", "", "Path to YAML config file")
		inputDevice     = flag.String("device", "", "Linux input event device to monitor (e.g. /dev/input/event3)")
		playerWsURL     = flag.String("player-ws-url", "ws://127.0.0.1:8765", "Player websocket URL")
		playerWsTimeout = flag.Int("player-ws-timeout-ms", defaultReadTimeoutMS, "Timeout in milliseconds for reading websocket responses")
		pollIntervalS   = flag.Int("poll-interval-s", defaultPollIntervalS, "Player state poll interval in seconds (0 disables)")
		buttonsEnabled  = flag.Bool("buttons-enabled", true, "Handle button presses")
		doubleClickMs   = flag.Int("double-click-ms", defaultDoubleClickWindowMS, "Window for a primary double click to mean next track (milliseconds)")
		ipcSocketPath   = flag.String("ipc-socket", "/tmp/mediabuttond.sock", "Unix domain socket path for IPC")
		httpPort        = flag.Int("http-port", 3001, "HTTP/websocket observer port (0 disables)")
		mqttBroker      = flag.String("mqtt-broker", "", "MQTT broker URL (empty disables mirroring)")
		logLevelStr     = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion     = flag.Bool("version", false, "Print version and exit")
		showHelp        = flag.Bool("help", false, "Print help message")
	)

	// Custom usage function
	flag.Usage = printUsage
	flag.Parse()

	// Handle help and version flags
	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Load config file (if any), then apply explicitly-set flags on top.
	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			overrides.InputDevice = inputDevice
		case "player-ws-url":
			overrides.PlayerWsURL = playerWsURL
		case "player-ws-timeout-ms":
			overrides.PlayerTimeoutMS = playerWsTimeout
		case "poll-interval-s":
			overrides.PlayerPollIntervalS = pollIntervalS
		case "buttons-enabled":
			overrides.ButtonsEnabled = buttonsEnabled
		case "double-click-ms":
			overrides.DoubleClickMS = doubleClickMs
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocketPath
		case "http-port":
			overrides.HTTPPort = httpPort
		case "mqtt-broker":
			overrides.MQTTBroker = mqttBroker
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Parse and validate log level
	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create event channel - central input bus
	events := make(chan Event, 64)

	// Controls preference source. An explicit -buttons-enabled pins the
	// preference for this run; with a config file, reloads re-read the file.
	var fetchControls func() (bool, error)
	switch {
	case overrides.ButtonsEnabled != nil:
		enabled := *overrides.ButtonsEnabled
		fetchControls = func() (bool, error) { return enabled, nil }
	case *configPath != "":
		fetchControls = controlsPreference(*configPath)
	default:
		enabled := cfg.Buttons.Enabled
		fetchControls = func() (bool, error) { return enabled, nil }
	}

	// Desktop hotkeys double as the focus collaborator: acquiring focus
	// registers the bindings, releasing gives the keys back to the desktop.
	var focus ButtonFocus
	if len(cfg.Hotkeys.Bindings) > 0 {
		hf, err := NewHotkeyFocus(cfg.Hotkeys.Bindings, events, logger)
		if err != nil {
			logger.Warn("desktop hotkeys unavailable", "error", err)
		} else {
			focus = hf
		}
	}

	// There is no telephony service to query; call hooks push transitions
	// over IPC, so the in-call fetch stays nil and resolves to "not in a call".
	window := time.Duration(cfg.Buttons.DoubleClickMS) * time.Millisecond
	classifier := NewClassifier(window, fetchControls, nil, focus, logger)

	// Open input devices
	var inputFiles []*os.File
	for _, dev := range cfg.Input.Devices {
		f, err := os.Open(dev)
		if err != nil {
			logger.Error("failed to open input device", "device", dev, "error", err, "tip", "run as root or add user to 'input' group")
			os.Exit(1)
		}
		defer f.Close()
		inputFiles = append(inputFiles, f)
	}
	if len(inputFiles) > 0 {
		raw := make(chan inputEvent, 64)
		readErr := make(chan error, 1)
		go readInputEventsMulti(inputFiles, raw, readErr)
		go runInputTranslator(ctx, raw, readErr, events, logger)
	}

	// GPIO wired buttons
	if len(cfg.GPIO.Pins) > 0 {
		g, err := openGPIOButtons(cfg.GPIO, events, logger)
		if err != nil {
			logger.Error("failed to set up GPIO buttons", "error", err)
			os.Exit(1)
		}
		defer g.Close()
	}

	// Initialize player client
	client, err := NewPlayerClient(cfg.Player.WsURL, logger, cfg.Player.TimeoutMS)
	if err != nil {
		logger.Error("failed to connect to player", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	state := &DaemonState{}

	// Observer plane: websocket hub + HTTP server + MQTT mirror. Each gets
	// its own sink channel so a slow observer never blocks the daemon loop.
	var sinks []chan<- Event
	obs, obsCtx := errgroup.WithContext(ctx)

	if cfg.HTTP.Port > 0 {
		hub := NewHub(logger, HubConfig{})
		wsEvents := make(chan Event, 64)
		sinks = append(sinks, wsEvents)

		obs.Go(func() error {
			hub.Run(obsCtx)
			return nil
		})
		obs.Go(func() error {
			RunBroadcaster(obsCtx, hub, wsEvents, logger)
			return nil
		})
		obs.Go(func() error {
			if err := runHTTPServer(obsCtx, cfg.HTTP.Port, hub, events, logger); err != nil {
				logger.Error("http server error", "error", err)
				return err
			}
			return nil
		})
	}

	if cfg.MQTT.Broker != "" {
		pub, err := NewMQTTPublisher(cfg.MQTT, logger)
		if err != nil {
			logger.Warn("MQTT mirroring disabled", "error", err)
		} else {
			defer pub.Close()
			mqttEvents := make(chan Event, 64)
			sinks = append(sinks, mqttEvents)

			obs.Go(func() error {
				runMQTTBridge(obsCtx, pub, mqttEvents, logger)
				return nil
			})
		}
	}

	// Start IPC server
	if err := runIPCServer(ctx, cfg.IPC.SocketPath, events, logger); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		os.Exit(1)
	}

	// Start daemon brain in a goroutine
	pollInterval := time.Duration(cfg.Player.PollIntervalS) * time.Second
	daemonDone := make(chan struct{})
	go func() {
		defer close(daemonDone)
		runDaemon(ctx, events, client, classifier, state, pollInterval, sinks, logger)
	}()

	logger.Debug("starting mediabuttond", "version", version)
	logger.Debug("configuration",
		"input_devices", cfg.Input.Devices,
		"gpio_pins", len(cfg.GPIO.Pins),
		"hotkey_bindings", len(cfg.Hotkeys.Bindings),
		"buttons_enabled", cfg.Buttons.Enabled,
		"double_click_ms", cfg.Buttons.DoubleClickMS,
		"player_ws_url", cfg.Player.WsURL,
		"player_ws_timeout_ms", cfg.Player.TimeoutMS,
		"poll_interval_s", cfg.Player.PollIntervalS,
		"ipc_socket", cfg.IPC.SocketPath,
		"http_port", cfg.HTTP.Port,
		"mqtt_broker", cfg.MQTT.Broker)
	listenInfo := []any{"ipc", cfg.IPC.SocketPath, "player_ws", cfg.Player.WsURL}
	if len(cfg.Input.Devices) > 0 {
		listenInfo = append(listenInfo, "input_devices", cfg.Input.Devices)
	}
	if cfg.HTTP.Port > 0 {
		listenInfo = append(listenInfo, "http_port", cfg.HTTP.Port)
	}
	if cfg.MQTT.Broker != "" {
		listenInfo = append(listenInfo, "mqtt_broker", cfg.MQTT.Broker)
	}
	logger.Info("listening", listenInfo...)

	// ========================================================================
	// Main loop - signals only
	// ========================================================================
	// The daemon brain (runDaemon) owns all state; input backends feed the
	// events channel directly. main only reacts to signals and to the brain
	// exiting on its own.
	// ========================================================================

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigc:
			if sig == syscall.SIGHUP {
				logger.Info("SIGHUP received; re-reading controls preference")
				select {
				case events <- PreferenceChanged{}:
				default:
					logger.Warn("event queue full; preference reload dropped")
				}
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			cancel()
			<-daemonDone
			obs.Wait()
			return

		case <-daemonDone:
			logger.Error("daemon loop exited unexpectedly")
			cancel()
			obs.Wait()
			return
		}
	}
}

func printCallHookUsage() {
	fmt.Printf("mediabuttond call-hook v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  mediabuttond call-hook [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Telephony hook that tells the mediabuttond daemon about call state")
	fmt.Println("  changes via Unix socket. While a call is active the daemon swallows")
	fmt.Println("  button presses so a pocket click cannot blast music into the call.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -state string")
	fmt.Println("        Call state: ringing|offhook|active|idle|ended (falls back to CALL_STATE)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/mediabuttond.sock\")")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  CALL_STATE - Call state when -state is not given")
	fmt.Println()
	fmt.Println("EXAMPLE:")
	fmt.Println("  Add to a ModemManager dispatcher script:")
	fmt.Println("  /usr/local/bin/mediabuttond call-hook -state ringing")
	fmt.Println()
}

// runCallHookSubcommand handles call-hook subcommand mode
func runCallHookSubcommand() {
	// Create a new flagset for the call-hook subcommand
	fs := flag.NewFlagSet("call-hook", flag.ExitOnError)
	stateArg := fs.String("state", "", "Call state: ringing|offhook|active|idle|ended")
	ipcSocketPath := fs.String("ipc-socket", "/tmp/mediabuttond.sock", "Unix domain socket path for IPC")
	logLevelStr := fs.String("log-level", "info", "Log level: error, warn, info, debug")
	showHelp := fs.Bool("help", false, "Print help message")

	// Custom usage for the call-hook subcommand
	fs.Usage = printCallHookUsage

	// Parse flags (skip "call-hook" subcommand name)
	fs.Parse(os.Args[2:])

	// Handle help flag
	if *showHelp {
		printCallHookUsage()
		return
	}

	// Parse and validate log level
	logLevel, err := parseLogLevel(*logLevelStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(logLevel)

	// Run hook handler (reads flag or environment)
	if err := runCallHook(*ipcSocketPath, *stateArg, logger); err != nil {
		logger.Error("call hook error", "error", err)
		os.Exit(1)
	}
}
