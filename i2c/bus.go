package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/hepingood/adxl345"
)

var (
	_ adxl345.I2CBus  = &GenericBus{}
	_ adxl345.TwoWire = &GenericBus{}
)

// GenericBus is a host I2C bus opened through periph.io (e.g. "/dev/i2c-1" or "I2C1").
// The bus is opened by Open and closed by Close.
type GenericBus struct {
	dev string
	mu  sync.Mutex
	bus i2c.BusCloser
}

func NewGenericBus(dev string) *GenericBus {
	return &GenericBus{dev: dev}
}

// WrapBus uses an already opened periph bus. Open becomes a no-op.
func WrapBus(bus i2c.BusCloser) *GenericBus {
	return &GenericBus{dev: bus.String(), bus: bus}
}

func (b *GenericBus) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus != nil {
		return nil
	}
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(b.dev)
	if err != nil {
		return fmt.Errorf("could not open i2c bus: %w", err)
	}
	b.bus = bus
	return nil
}

func (b *GenericBus) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	if err != nil {
		return fmt.Errorf("could not close i2c bus: %w", err)
	}
	return nil
}

func (b *GenericBus) tx(address byte, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return fmt.Errorf("i2c bus %s is not open", b.dev)
	}
	return b.bus.Tx(uint16(address), w, r)
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.tx(address, nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.tx(address, buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

// ReadRegister writes the register pointer and reads buffer with a repeated start.
func (b *GenericBus) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	err := b.tx(address, []byte{reg}, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x from %x: %w", reg, address, err)
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	err := b.tx(address, append([]byte{reg}, buffer...), nil)
	if err != nil {
		return fmt.Errorf("could not write register %#02x to %x: %w", reg, address, err)
	}
	return nil
}
