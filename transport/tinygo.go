package transport

import (
	"context"
	"fmt"

	"tinygo.org/x/drivers"

	"github.com/hepingood/adxl345"
)

var (
	_ adxl345.TwoWire  = &TinyGoI2C{}
	_ adxl345.FourWire = &TinyGoSPI{}
)

// TinyGoI2C drives the chip through a tinygo.org/x/drivers I2C bus.
// Register reads use a single write-then-read transaction with a repeated start.
type TinyGoI2C struct {
	bus drivers.I2C
}

func NewTinyGoI2C(bus drivers.I2C) *TinyGoI2C {
	return &TinyGoI2C{bus: bus}
}

// Open is a no-op: TinyGo buses are configured by the board package.
func (t *TinyGoI2C) Open(ctx context.Context) error  { return nil }
func (t *TinyGoI2C) Close(ctx context.Context) error { return nil }

func (t *TinyGoI2C) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	err := t.bus.Tx(uint16(address), []byte{reg}, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	return nil
}

func (t *TinyGoI2C) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	err := t.bus.Tx(uint16(address), append([]byte{reg}, buffer...), nil)
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

// TinyGoSPI drives the chip through a tinygo.org/x/drivers SPI bus. The chip select
// line is owned by the caller and toggled through Select around every transfer.
type TinyGoSPI struct {
	bus    drivers.SPI
	Select func(active bool)
}

func NewTinyGoSPI(bus drivers.SPI, sel func(active bool)) *TinyGoSPI {
	return &TinyGoSPI{bus: bus, Select: sel}
}

func (t *TinyGoSPI) Open(ctx context.Context) error {
	t.chipSelect(false)
	return nil
}

func (t *TinyGoSPI) Close(ctx context.Context) error {
	t.chipSelect(false)
	return nil
}

func (t *TinyGoSPI) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	tx := make([]byte, len(buffer)+1)
	rx := make([]byte, len(buffer)+1)
	tx[0] = reg
	t.chipSelect(true)
	err := t.bus.Tx(tx, rx)
	t.chipSelect(false)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	copy(buffer, rx[1:])
	return nil
}

func (t *TinyGoSPI) WriteRegister(ctx context.Context, reg byte, buffer []byte) error {
	t.chipSelect(true)
	err := t.bus.Tx(append([]byte{reg}, buffer...), nil)
	t.chipSelect(false)
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

func (t *TinyGoSPI) chipSelect(active bool) {
	if t.Select != nil {
		t.Select(active)
	}
}
