//go:build !linux

package main

import (
	"errors"
	"log/slog"
)

// gpioButtons is not available on non-Linux platforms.
type gpioButtons struct{}

// openGPIOButtons returns an error on non-Linux platforms. GPIO buttons
// require the Linux GPIO character device.
func openGPIOButtons(cfg GPIOConfig, events chan<- Event, logger *slog.Logger) (*gpioButtons, error) {
	return nil, errors.New("gpio buttons not supported on this platform (requires Linux)")
}

// Close is a no-op on non-Linux platforms.
func (g *gpioButtons) Close() error {
	return nil
}
