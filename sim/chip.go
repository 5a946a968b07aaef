// Package sim provides an in-memory ADXL345 register file that can stand in for
// the real chip behind either the two-wire or the four-wire transport.
package sim

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/hepingood/adxl345"
)

const (
	regDevID        = 0x00
	regActTapStatus = 0x2B
	regBwRate       = 0x2C
	regIntSource    = 0x30
	regDataFormat   = 0x31
	regDataX0       = 0x32
	regDataZ1       = 0x37
	regFIFOCtl      = 0x38
	regFIFOStatus   = 0x39

	fifoDepth = 32
)

var ErrNoAck = fmt.Errorf("sim: address not acknowledged")

var (
	_ adxl345.TwoWire  = &TwoWirePort{}
	_ adxl345.FourWire = &FourWirePort{}
)

// Transfer records one register transaction seen by the chip.
type Transfer struct {
	Write  bool
	Reg    byte
	Length int
}

// Chip is a simulated ADXL345. It is safe for concurrent use.
type Chip struct {
	mu        sync.Mutex
	regs      [64]byte
	fifo      [][3]int16
	deflect   [3]int16
	transfers []Transfer
	failures  map[byte]error
	openErr   error
	closeErr  error
	opens     int
	closes    int
}

// New returns a chip in its power-on reset state.
func New() *Chip {
	c := &Chip{failures: map[byte]error{}}
	c.regs[regDevID] = 0xE5
	c.regs[regBwRate] = 0x0A
	c.deflect = [3]int16{120, -120, 180}
	return c
}

// I2C returns a two-wire port that answers on address.
func (c *Chip) I2C(address byte) *TwoWirePort {
	return &TwoWirePort{chip: c, address: address}
}

// SPI returns a four-wire port that decodes the read and multi-byte flags of the address byte.
func (c *Chip) SPI() *FourWirePort {
	return &FourWirePort{chip: c}
}

func (c *Chip) SetDeviceID(id byte) {
	c.Poke(regDevID, id)
}

// SetSample loads the data registers used in bypass mode.
func (c *Chip) SetSample(x, y, z int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for axis, v := range [3]int16{x, y, z} {
		binary.LittleEndian.PutUint16(c.regs[regDataX0+2*axis:], uint16(v))
	}
}

// SetDataBytes loads the six raw data register bytes.
func (c *Chip) SetDataBytes(data [6]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.regs[regDataX0:], data[:])
}

// PushFIFO queues a sample. The oldest entry is dropped once the FIFO is full.
func (c *Chip) PushFIFO(x, y, z int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.fifo) == fifoDepth {
		c.fifo = c.fifo[1:]
	}
	c.fifo = append(c.fifo, [3]int16{x, y, z})
}

func (c *Chip) FIFOLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fifo)
}

// SetSelfTestDeflection sets the raw offset added while DATA_FORMAT.SELF_TEST is set.
func (c *Chip) SetSelfTestDeflection(x, y, z int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deflect = [3]int16{x, y, z}
}

// RaiseInterrupt latches bits in INT_SOURCE until the next read.
func (c *Chip) RaiseInterrupt(mask byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[regIntSource] |= mask
}

func (c *Chip) Register(reg byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[reg&0x3F]
}

// Poke writes a register directly, including read-only ones, without logging a transfer.
func (c *Chip) Poke(reg, value byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[reg&0x3F] = value
}

// Fail makes every transfer starting at reg return err. A nil err clears the failure.
func (c *Chip) Fail(reg byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, reg)
		return
	}
	c.failures[reg] = err
}

func (c *Chip) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *Chip) FailClose(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
}

// Transfers returns a copy of the transfer log.
func (c *Chip) Transfers() []Transfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transfer(nil), c.transfers...)
}

func (c *Chip) ResetTransfers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers = nil
}

func (c *Chip) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

func (c *Chip) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *Chip) open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opens++
	return c.openErr
}

func (c *Chip) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

func (c *Chip) read(reg byte, buf []byte, increment bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers = append(c.transfers, Transfer{Reg: reg, Length: len(buf)})
	if err := c.failures[reg]; err != nil {
		return err
	}
	if reg == regDataX0 && increment && c.regs[regFIFOCtl]>>6 != 0 {
		c.popFIFO(buf)
		return nil
	}
	for i := range buf {
		r := reg
		if increment {
			r = reg + byte(i)
		}
		buf[i] = c.value(r & 0x3F)
	}
	return nil
}

// popFIFO fills buf with whole FIFO entries; entries missing from the queue read as zero.
func (c *Chip) popFIFO(buf []byte) {
	for off := 0; off+6 <= len(buf); off += 6 {
		var entry [3]int16
		if len(c.fifo) > 0 {
			entry = c.fifo[0]
			c.fifo = c.fifo[1:]
		}
		for axis, v := range entry {
			binary.LittleEndian.PutUint16(buf[off+2*axis:], uint16(v))
		}
	}
}

func (c *Chip) value(reg byte) byte {
	switch {
	case reg == regIntSource:
		v := c.regs[reg]
		c.regs[reg] = 0
		return v
	case reg == regFIFOStatus:
		return c.regs[reg]&0x80 | byte(len(c.fifo))
	case reg >= regDataX0 && reg <= regDataZ1 && c.regs[regDataFormat]&0x80 != 0:
		axis := int(reg-regDataX0) / 2
		v := int16(binary.LittleEndian.Uint16(c.regs[regDataX0+2*axis:])) + c.deflect[axis]
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		return b[(reg-regDataX0)%2]
	}
	return c.regs[reg]
}

func (c *Chip) write(reg byte, buf []byte, increment bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers = append(c.transfers, Transfer{Write: true, Reg: reg, Length: len(buf)})
	if err := c.failures[reg]; err != nil {
		return err
	}
	for i, v := range buf {
		r := reg
		if increment {
			r = reg + byte(i)
		}
		r &= 0x3F
		if readOnly(r) {
			continue
		}
		c.regs[r] = v
	}
	return nil
}

func readOnly(reg byte) bool {
	switch {
	case reg == regDevID, reg == regActTapStatus, reg == regIntSource, reg == regFIFOStatus:
		return true
	case reg >= regDataX0 && reg <= regDataZ1:
		return true
	case reg > regDevID && reg < 0x1D:
		return true
	}
	return false
}

// TwoWirePort is the I2C face of a Chip.
type TwoWirePort struct {
	chip    *Chip
	address byte
}

func (p *TwoWirePort) Open(ctx context.Context) error {
	return p.chip.open()
}

func (p *TwoWirePort) Close(ctx context.Context) error {
	return p.chip.close()
}

func (p *TwoWirePort) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	if address != p.address {
		return fmt.Errorf("%w: %#02x", ErrNoAck, address)
	}
	return p.chip.read(reg, buffer, true)
}

func (p *TwoWirePort) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	if address != p.address {
		return fmt.Errorf("%w: %#02x", ErrNoAck, address)
	}
	return p.chip.write(reg, buffer, true)
}

// FourWirePort is the SPI face of a Chip. Without the multi-byte flag every byte
// of a transfer addresses the same register.
type FourWirePort struct {
	chip *Chip
}

func (p *FourWirePort) Open(ctx context.Context) error {
	return p.chip.open()
}

func (p *FourWirePort) Close(ctx context.Context) error {
	return p.chip.close()
}

func (p *FourWirePort) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	if reg&0x80 == 0 {
		return fmt.Errorf("sim: read without read flag: %#02x", reg)
	}
	return p.chip.read(reg&0x3F, buffer, reg&0x40 != 0)
}

func (p *FourWirePort) WriteRegister(ctx context.Context, reg byte, buffer []byte) error {
	if reg&0x80 != 0 {
		return fmt.Errorf("sim: write with read flag: %#02x", reg)
	}
	return p.chip.write(reg&0x3F, buffer, reg&0x40 != 0)
}
