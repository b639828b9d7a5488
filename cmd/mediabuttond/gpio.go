//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// gpioButtons holds the requested GPIO lines for directly wired media buttons
// (typical on Raspberry Pi based players). Buttons are wired active-low: the
// line is pulled up and the button shorts it to ground, so a falling edge is
// a press and a rising edge is a release.
type gpioButtons struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// openGPIOButtons requests the configured pins and delivers their edges as
// ButtonEvents on the daemon event channel. The returned handle must be
// closed on shutdown to release the lines.
func openGPIOButtons(cfg GPIOConfig, events chan<- Event, logger *slog.Logger) (*gpioButtons, error) {
	chipName := cfg.Chip
	if chipName == "" {
		chipName = "gpiochip0"
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	g := &gpioButtons{chip: chip}
	debounce := time.Duration(cfg.DebounceMS) * time.Millisecond

	for name, pin := range cfg.Pins {
		key, err := parseButtonKey(name)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("gpio pin %d: %w", pin, err)
		}
		if key == ButtonUnknown {
			g.Close()
			return nil, fmt.Errorf("gpio pin %d: cannot bind %q", pin, name)
		}

		handler := func(le gpiocdev.LineEvent) {
			transition := TransitionRelease
			if le.Type == gpiocdev.LineEventFallingEdge {
				transition = TransitionPress
			}
			ev := ButtonEvent{Key: key, Transition: transition, At: time.Now()}
			select {
			case events <- ev:
			default:
				logger.Warn("Dropping GPIO edge; event queue full", "button", key.String())
			}
		}

		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(handler),
		}
		if debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(debounce))
		}

		line, err := chip.RequestLine(pin, opts...)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", name, pin, err)
		}
		g.lines = append(g.lines, line)
		logger.Info("GPIO button bound", "button", key.String(), "chip", chipName, "pin", pin)
	}

	return g, nil
}

// Close releases the requested lines and the chip.
func (g *gpioButtons) Close() error {
	var errs []error
	for _, line := range g.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("gpio close errors: %v", errs)
	}
	return nil
}
