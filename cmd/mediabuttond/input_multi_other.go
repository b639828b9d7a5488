//go:build !linux

package main

import (
	"fmt"
	"os"
)

// readInputEventsMulti reads from multiple input devices with one goroutine
// per device. Non-Linux platforms have no epoll; with the handful of devices
// a media box carries, blocking readers are fine.
func readInputEventsMulti(files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- fmt.Errorf("no input devices provided")
		return
	}

	// Per-device goroutines report failures on readErr.
	for _, f := range files {
		go readInputEvents(f, events, readErr)
	}
}
