// Package transport adapts bus libraries to the register level TwoWire and FourWire
// interfaces used by the accel driver.
package transport

import (
	"context"
	"fmt"

	"github.com/hepingood/adxl345"
)

var _ adxl345.TwoWire = &RegisterBus{}

// RegisterBus turns a raw addressable I2C bus into a TwoWire transport.
// A register read is a pointer write followed by a separate read transaction.
type RegisterBus struct {
	bus adxl345.I2CBus
}

func NewRegisterBus(bus adxl345.I2CBus) *RegisterBus {
	return &RegisterBus{bus: bus}
}

func (b *RegisterBus) Open(ctx context.Context) error {
	if opener, ok := b.bus.(adxl345.Opener); ok {
		return opener.Open(ctx)
	}
	return nil
}

// Close releases the underlying bus.
func (b *RegisterBus) Close(ctx context.Context) error {
	if opener, ok := b.bus.(adxl345.Opener); ok {
		return opener.Close(ctx)
	}
	return b.bus.Release(ctx)
}

func (b *RegisterBus) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	err := b.bus.WriteToAddr(ctx, address, []byte{reg})
	if err != nil {
		return fmt.Errorf("could not set register pointer: %w", err)
	}
	err = b.bus.ReadFromAddr(ctx, address, buffer)
	if err != nil {
		return fmt.Errorf("could not read register content: %w", err)
	}
	return nil
}

func (b *RegisterBus) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	err := b.bus.WriteToAddr(ctx, address, append([]byte{reg}, buffer...))
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

// ErrUnavailable is returned by transports the selected adapter cannot provide.
var ErrUnavailable = fmt.Errorf("transport not available on this adapter")

var (
	_ adxl345.TwoWire  = NoTwoWire{}
	_ adxl345.FourWire = NoFourWire{}
)

// NoTwoWire fills the I2C binding on adapters without an I2C bus. Every call fails.
type NoTwoWire struct {
	Adapter string
}

func (n NoTwoWire) Open(context.Context) error  { return n.err() }
func (n NoTwoWire) Close(context.Context) error { return n.err() }

func (n NoTwoWire) ReadRegister(context.Context, byte, byte, []byte) error  { return n.err() }
func (n NoTwoWire) WriteRegister(context.Context, byte, byte, []byte) error { return n.err() }

func (n NoTwoWire) err() error {
	return fmt.Errorf("%s i2c: %w", n.Adapter, ErrUnavailable)
}

// NoFourWire fills the SPI binding on adapters without an SPI port. Every call fails.
type NoFourWire struct {
	Adapter string
}

func (n NoFourWire) Open(context.Context) error  { return n.err() }
func (n NoFourWire) Close(context.Context) error { return n.err() }

func (n NoFourWire) ReadRegister(context.Context, byte, []byte) error  { return n.err() }
func (n NoFourWire) WriteRegister(context.Context, byte, []byte) error { return n.err() }

func (n NoFourWire) err() error {
	return fmt.Errorf("%s spi: %w", n.Adapter, ErrUnavailable)
}
