package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_PLAYPAUSE    = 164
	KEY_PREVIOUSSONG = 165
	KEY_NEXTSONG     = 163
	KEY_PLAYCD       = 200
	KEY_PAUSECD      = 201

	// KEY_MEDIA is what most single-button headsets report for the hook switch.
	KEY_MEDIA = 226
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Button classification configuration
const (
	// defaultDoubleClickWindowMS is how long after a primary-button press a second
	// press still counts as a double click (advance instead of toggle).
	defaultDoubleClickWindowMS = 400

	defaultReadTimeoutMS = 500 // Default timeout for reading websocket responses (ms)

	// defaultPollIntervalS is how often the daemon refreshes the player state
	// when polling is enabled (0 disables polling).
	defaultPollIntervalS = 5

	// defaultGPIODebounceMS absorbs contact bounce on directly wired buttons.
	defaultGPIODebounceMS = 10
)
