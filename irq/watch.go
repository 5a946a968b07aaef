// Package irq services the ADXL345 interrupt lines through periph.io GPIO edge detection.
package irq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/hepingood/adxl345/accel"
)

// DefaultPoll bounds how long a single edge wait blocks before the context is checked.
const DefaultPoll = 100 * time.Millisecond

// Source is drained every time the pin is asserted. *accel.ADXL345 satisfies it.
type Source interface {
	HandleInterrupt(ctx context.Context) error
}

type WatcherConfig struct {
	Level  accel.ActiveLevel
	Poll   time.Duration
	Logger *slog.Logger
}

type WatcherOption func(*WatcherConfig)

// WithActiveLevel must match the INT_INVERT setting of the chip.
func WithActiveLevel(level accel.ActiveLevel) WatcherOption {
	return func(c *WatcherConfig) {
		c.Level = level
	}
}

func WithPoll(poll time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.Poll = poll
	}
}

func WithLogger(logger *slog.Logger) WatcherOption {
	return func(c *WatcherConfig) {
		c.Logger = logger
	}
}

type Watcher struct {
	pin    gpio.PinIn
	source Source
	cfg    WatcherConfig
}

func NewWatcher(pin gpio.PinIn, source Source, opts ...WatcherOption) *Watcher {
	cfg := WatcherConfig{
		Level:  accel.ActiveHigh,
		Poll:   DefaultPoll,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Watcher{pin: pin, source: source, cfg: cfg}
}

func (w *Watcher) edge() (gpio.Pull, gpio.Edge, gpio.Level) {
	if w.cfg.Level == accel.ActiveLow {
		return gpio.PullUp, gpio.FallingEdge, gpio.Low
	}
	return gpio.PullDown, gpio.RisingEdge, gpio.High
}

// Run blocks until ctx is done. The chip keeps its lines asserted until INT_SOURCE is
// read, so an already asserted pin is serviced before waiting for the first edge.
func (w *Watcher) Run(ctx context.Context) error {
	pull, edge, active := w.edge()
	err := w.pin.In(pull, edge)
	if err != nil {
		return fmt.Errorf("could not configure interrupt pin %s: %w", w.pin, err)
	}
	defer func() {
		if err := w.pin.Halt(); err != nil {
			w.cfg.Logger.Warn("could not halt interrupt pin", "pin", w.pin.Name(), "error", err)
		}
	}()
	w.cfg.Logger.Debug("watching interrupt pin", "pin", w.pin.Name(), "edge", edge.String())
	if w.pin.Read() == active {
		w.service(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !w.pin.WaitForEdge(w.cfg.Poll) {
			continue
		}
		w.service(ctx)
	}
}

func (w *Watcher) service(ctx context.Context) {
	err := w.source.HandleInterrupt(ctx)
	if err != nil {
		w.cfg.Logger.Error("could not service interrupt", "pin", w.pin.Name(), "error", err)
	}
}

// Watch runs a Watcher on pin until ctx is done.
func Watch(ctx context.Context, pin gpio.PinIn, source Source, opts ...WatcherOption) error {
	return NewWatcher(pin, source, opts...).Run(ctx)
}
