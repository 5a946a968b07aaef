// Package adapter drives USB to I2C bridges that expose an addressable bus.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/hepingood/adxl345"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")

var _ adxl345.I2CBus = &MCP2221{}

// HID report commands.
const (
	cmdStatus      = 0x10
	cmdGetData     = 0x40
	cmdGetGPIO     = 0x51
	cmdI2CWrite    = 0x90
	cmdI2CRead     = 0x91
	cmdGetSRAM     = 0xB0
	cmdSetSRAM     = 0xB1
	reportSize     = 64
	chunkSize      = 60
	statusBusy     = 0x01
	dataNotReady   = 0x41
	dataSizeFailed = 127
)

// device is the part of a HID handle the bridge talks to.
type device interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// MCP2221 is a Microchip USB to I2C/GPIO bridge. Every request opens the HID device,
// writes one 64 byte report and reads the answer.
type MCP2221 struct {
	mx           sync.Mutex
	index        int
	request      []byte
	response     []byte
	responseWait time.Duration
	open         func(index int) (device, error)
	logger       *slog.Logger
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

func (m GPIOMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// GPIODesignation selects the function of a GP pin. GPIOOperation is the only value
// that turns a pin into a plain input usable for interrupt polling.
type GPIODesignation byte

const (
	GPIOOperation    GPIODesignation = 0b00000000
	GPIO1ClockOutput GPIODesignation = 0b00000001
	// GPIO1InterruptDetection latches edges on GP1 into the status report.
	GPIO1InterruptDetection GPIODesignation = 0b00000100
)

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

// GPIOPin is the state of one GP pin.
type GPIOPin struct {
	Mode  GPIOMode `yaml:"mode"`
	Value byte     `yaml:"value"`
}

// GPIOConfig is the SRAM configuration of one GP pin.
type GPIOConfig struct {
	Mode        GPIOMode        `yaml:"mode"`
	Designation GPIODesignation `yaml:"designation"`
}

type MCP2221Option func(*MCP2221)

// WithDeviceIndex selects the bridge when more than one is plugged in.
func WithDeviceIndex(index int) MCP2221Option {
	return func(d *MCP2221) {
		d.index = index
	}
}

func WithLogger(logger *slog.Logger) MCP2221Option {
	return func(d *MCP2221) {
		d.logger = logger
	}
}

func WithResponseWait(wait time.Duration) MCP2221Option {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func NewMCP2221(opts ...MCP2221Option) *MCP2221 {
	d := &MCP2221{
		index:        -1,
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
		open:         openHID,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func openHID(index int) (device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	if index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification: %d bridges found", len(devs))
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > chunkSize {
		return fmt.Errorf("write to %x failed: %d bytes exceed a single report: %w", address, len(buffer), adxl345.ErrInvalidArgument)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWrite
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == statusBusy {
		d.logger.Debug("adapter busy", "address", address)
		return adxl345.ErrBusBusy
	}
	return nil
}

// ReadFromAddr starts an I2C read of len(buffer) bytes and collects the data from the
// bridge in chunks of at most 60 bytes.
func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CRead
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == statusBusy {
		d.logger.Debug("adapter busy", "address", address)
		return adxl345.ErrBusBusy
	}
	for read := 0; read < len(buffer); {
		d.resetBuffers()
		d.request[0] = cmdGetData
		err = d.send(ctx)
		if err != nil {
			return fmt.Errorf("error getting read data from adapter: %w", err)
		}
		if d.response[1] == dataNotReady {
			return fmt.Errorf("error reading the I2C slave data from the I2C engine")
		}
		size := int(d.response[3])
		want := min(len(buffer)-read, chunkSize)
		if size == dataSizeFailed || size != want {
			return fmt.Errorf("invalid data size byte; expected %d, got %d", want, size)
		}
		copy(buffer[read:], d.response[4:4+size])
		read += size
	}
	return nil
}

func (d *MCP2221) SetGPIOParameters(ctx context.Context, params [4]GPIOConfig) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetSRAM
	d.request[1] = 0x01
	for i, p := range params {
		d.request[2+i] = byte(p.Designation) | byte(p.Mode)
	}
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("set GP parameters command write failed: %w", err)
	}
	if d.response[1] == statusBusy {
		return ErrCommandFailed
	}
	return nil
}

// GPIO reads the four GP pins. Pins not configured as GPIO report GPIOModeNoOperation.
func (d *MCP2221) GPIO(ctx context.Context) ([4]GPIOPin, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetGPIO
	var pins [4]GPIOPin
	err := d.send(ctx)
	if err != nil {
		return pins, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	if d.response[1] == statusBusy {
		return pins, ErrCommandFailed
	}
	for i := range pins {
		value, mode := d.response[2+2*i], d.response[3+2*i]
		pins[i] = GPIOPin{Mode: GPIOModeNoOperation, Value: value}
		if mode != byte(GPIOModeNoOperation) {
			pins[i].Mode = GPIOMode(mode << 3)
		}
	}
	return pins, nil
}

func (d *MCP2221) GPIOParameters(ctx context.Context) ([4]GPIOConfig, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetSRAM
	d.request[1] = 0x01
	var params [4]GPIOConfig
	err := d.send(ctx)
	if err != nil {
		return params, fmt.Errorf("get GP parameters command write failed: %w", err)
	}
	if d.response[1] == statusBusy {
		return params, ErrCommandUnsupported
	}
	for i := range params {
		b := d.response[4+i]
		params[i] = GPIOConfig{Mode: GPIOMode(b & gpioModeMask), Designation: GPIODesignation(b & gpioOperationMask)}
	}
	return params, nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// bufferToStatus decodes the I2C section of a status report (bytes 9 to 25).
func bufferToStatus(buffer []byte) *MCP2221Status {
	return &MCP2221Status{
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		ReadPending:            int(buffer[25]),
	}
}

func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

// ReleaseBus cancels the current I2C transfer and frees the bus.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = 0x10
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.open(d.index)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			d.logger.Warn("could not close adapter", "error", err)
		}
	}()
	if d.logger.Enabled(ctx, slog.LevelDebug) {
		d.logger.Debug("sending message to adapter", "report", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.responseWait):
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if d.logger.Enabled(ctx, slog.LevelDebug) {
		d.logger.Debug("read message from adapter", "report", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
