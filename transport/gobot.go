package transport

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/drivers/spi"

	"github.com/hepingood/adxl345"
)

var (
	_ adxl345.TwoWire  = &GobotI2C{}
	_ adxl345.FourWire = &GobotSPI{}
)

// GobotI2C drives the chip through a Gobot I2C connector (e.g. the NanoPi adaptor).
// A generic Gobot driver is started lazily for every address that is used.
type GobotI2C struct {
	adaptor i2c.Connector
	bus     int
	mu      sync.Mutex
	drivers map[byte]*i2c.GenericDriver
}

func NewGobotI2C(adaptor i2c.Connector, bus int) *GobotI2C {
	return &GobotI2C{adaptor: adaptor, bus: bus, drivers: map[byte]*i2c.GenericDriver{}}
}

func (g *GobotI2C) Open(ctx context.Context) error {
	return nil
}

// Close halts every started driver.
func (g *GobotI2C) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var firstErr error
	for address, d := range g.drivers {
		if err := d.Halt(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not halt driver %#02x: %w", address, err)
		}
		delete(g.drivers, address)
	}
	return firstErr
}

func (g *GobotI2C) driver(address byte) (*i2c.GenericDriver, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if d, ok := g.drivers[address]; ok {
		return d, nil
	}
	d := i2c.NewGenericDriver(g.adaptor, "adxl345", int(address), func(c i2c.Config) {
		c.SetBus(g.bus)
	})
	err := d.Start()
	if err != nil {
		return nil, fmt.Errorf("start error: %w", err)
	}
	g.drivers[address] = d
	return d, nil
}

func (g *GobotI2C) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	d, err := g.driver(address)
	if err != nil {
		return err
	}
	err = d.Write([]byte{reg})
	if err != nil {
		return fmt.Errorf("could not set register pointer: %w", err)
	}
	err = d.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	return nil
}

func (g *GobotI2C) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	d, err := g.driver(address)
	if err != nil {
		return err
	}
	if len(buffer) == 1 {
		err = d.WriteByteData(reg, buffer[0])
	} else {
		err = d.Write(append([]byte{reg}, buffer...))
	}
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

// GobotSPI drives the chip through a Gobot SPI driver in mode 3.
type GobotSPI struct {
	*spi.Driver
}

// spiOps is the subset of the Gobot SPI connection used for register access.
type spiOps interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

// NewGobotSPI returns a driver bound to a Gobot SPI adaptor. The ADXL345 needs
// CPOL=1, CPHA=1 and at most 5MHz.
func NewGobotSPI(adaptor spi.Connector, opts ...func(spi.Config)) *GobotSPI {
	d := spi.NewDriver(adaptor, "adxl345", opts...)
	d.SetMode(3)
	if d.GetSpeedOrDefault(0) == 0 || d.GetSpeedOrDefault(0) > 5_000_000 {
		d.SetSpeed(5_000_000)
	}
	return &GobotSPI{Driver: d}
}

func (g *GobotSPI) Open(ctx context.Context) error {
	return g.Driver.Start()
}

func (g *GobotSPI) Close(ctx context.Context) error {
	return g.Driver.Halt()
}

func (g *GobotSPI) ops() (spiOps, error) {
	if g == nil || g.Driver == nil {
		return nil, fmt.Errorf("spi driver not initialized")
	}
	ops, ok := g.Driver.Connection().(spiOps)
	if !ok {
		return nil, fmt.Errorf("spi connection does not support required operations")
	}
	return ops, nil
}

func (g *GobotSPI) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	ops, err := g.ops()
	if err != nil {
		return err
	}
	err = ops.ReadCommandData([]byte{reg}, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	return nil
}

func (g *GobotSPI) WriteRegister(ctx context.Context, reg byte, buffer []byte) error {
	ops, err := g.ops()
	if err != nil {
		return err
	}
	err = ops.WriteBytes(append([]byte{reg}, buffer...))
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}
