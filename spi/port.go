// Package spi exposes a periph.io host SPI port as an ADXL345 four-wire transport.
package spi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/hepingood/adxl345"
)

var _ adxl345.FourWire = &Port{}

// MaxSpeed is the highest SPI clock supported by the ADXL345.
const MaxSpeed = 5 * physic.MegaHertz

// Port talks to the chip in SPI mode 3 (CPOL=1, CPHA=1), 8 bit words.
type Port struct {
	dev   string
	speed physic.Frequency
	mu    sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
}

type PortOption func(*Port)

// WithSpeed sets the clock; values above MaxSpeed are clamped.
func WithSpeed(speed physic.Frequency) PortOption {
	return func(p *Port) {
		p.speed = min(speed, MaxSpeed)
	}
}

// NewPort prepares a port for dev (e.g. "/dev/spidev0.0" or "SPI0.0"). Nothing is opened until Open.
func NewPort(dev string, opts ...PortOption) *Port {
	p := &Port{dev: dev, speed: MaxSpeed}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WrapPort uses an already opened periph port.
func WrapPort(port spi.PortCloser, opts ...PortOption) *Port {
	p := NewPort(port.String(), opts...)
	p.port = port
	return p
}

func (p *Port) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return nil
	}
	if p.port == nil {
		state, err := host.Init()
		if err != nil {
			return fmt.Errorf("could not init host: %w", err)
		}
		for _, driver := range state.Loaded {
			slog.Debug("periph driver loaded", "driver", driver.String())
		}
		port, err := spireg.Open(p.dev)
		if err != nil {
			return fmt.Errorf("could not open spi port: %w", err)
		}
		p.port = port
	}
	conn, err := p.port.Connect(p.speed, spi.Mode3, 8)
	if err != nil {
		return fmt.Errorf("could not connect to spi port %s: %w", p.dev, err)
	}
	p.conn = conn
	return nil
}

func (p *Port) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	p.conn = nil
	if err != nil {
		return fmt.Errorf("could not close spi port: %w", err)
	}
	return nil
}

func (p *Port) tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return fmt.Errorf("spi port %s is not open", p.dev)
	}
	return p.conn.Tx(w, r)
}

// ReadRegister clocks out the address byte followed by len(buffer) dummy bytes.
func (p *Port) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	w := make([]byte, len(buffer)+1)
	r := make([]byte, len(buffer)+1)
	w[0] = reg
	err := p.tx(w, r)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	copy(buffer, r[1:])
	return nil
}

func (p *Port) WriteRegister(ctx context.Context, reg byte, buffer []byte) error {
	err := p.tx(append([]byte{reg}, buffer...), nil)
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}
