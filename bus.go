package adxl345

import (
	"context"
)

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw addressable bus (USB bridges, generic host buses). It does not know about
// register pointers; see transport.NewRegisterBus for the register-level adapter.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Opener is implemented by transports that need explicit setup and teardown.
type Opener interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// TwoWire is a register-level I2C transport. address is the 7-bit device address and reg the
// raw register address; multi-byte transfers rely on the chip's address auto-increment.
type TwoWire interface {
	Opener
	ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error
	WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error
}

// FourWire is a register-level SPI transport. reg is the already encoded address byte
// (read and multi-byte flags included).
type FourWire interface {
	Opener
	ReadRegister(ctx context.Context, reg byte, buffer []byte) error
	WriteRegister(ctx context.Context, reg byte, buffer []byte) error
}
