package accel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hepingood/adxl345"
)

// Bindings bundles the collaborators injected into the driver.
// Every field except OnInterrupt is required by Init.
type Bindings struct {
	Logger      *slog.Logger
	IIC         adxl345.TwoWire
	SPI         adxl345.FourWire
	Delay       func(time.Duration)
	OnInterrupt func(Interrupt)
}

func (b Bindings) missing() string {
	switch {
	case b.IIC == nil:
		return "two-wire transport"
	case b.SPI == nil:
		return "four-wire transport"
	case b.Delay == nil:
		return "delay"
	}
	return ""
}

// ADXL345 represents an Analog Devices ADXL345 3-axis accelerometer
// See: https://www.analog.com/media/en/technical-documentation/data-sheets/ADXL345.pdf
//
// Usage: Instantiate with New, pick the bus with WithInterface (and WithAddressPin for I2C),
// then call Init(ctx). The handle is not safe for concurrent use; callers sharing it
// between goroutines must serialize access themselves.
type ADXL345 struct {
	bindings    Bindings
	iface       Interface
	address     Address
	initialized bool
	buf         [maxFIFOSamples * bytesPerSample]byte
}

type Config struct {
	Interface Interface
	Address   Address
}

type ConfigOption func(*Config)

func WithInterface(iface Interface) ConfigOption {
	return func(c *Config) {
		c.Interface = iface
	}
}

func WithAddressPin(address Address) ConfigOption {
	return func(c *Config) {
		c.Address = address
	}
}

// New creates a device handle. It defaults to I2C on the ALT ADDRESS low address (0x53).
// No bus activity happens until Init.
func New(bindings Bindings, opts ...ConfigOption) *ADXL345 {
	config := &Config{
		Interface: InterfaceIIC,
		Address:   AddressAlt0,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &ADXL345{
		bindings: bindings,
		iface:    config.Interface,
		address:  config.Address,
	}
}

// SetInterface selects the bus used by the next Init. It does not touch the bus.
func (d *ADXL345) SetInterface(iface Interface) error {
	if d == nil {
		return adxl345.ErrInvalidHandle
	}
	d.iface = iface
	return nil
}

func (d *ADXL345) Interface() (Interface, error) {
	if d == nil {
		return 0, adxl345.ErrInvalidHandle
	}
	return d.iface, nil
}

// SetAddressPin selects the I2C address strap used by two-wire transfers.
func (d *ADXL345) SetAddressPin(address Address) error {
	if d == nil {
		return adxl345.ErrInvalidHandle
	}
	d.address = address
	return nil
}

func (d *ADXL345) AddressPin() (Address, error) {
	if d == nil {
		return 0, adxl345.ErrInvalidHandle
	}
	return d.address, nil
}

// SetInterruptHandler registers the callback used by HandleInterrupt.
// A nil handler drops asserted interrupts.
func (d *ADXL345) SetInterruptHandler(handler func(Interrupt)) error {
	if d == nil {
		return adxl345.ErrInvalidHandle
	}
	d.bindings.OnInterrupt = handler
	return nil
}

// Initialized reports whether Init succeeded and Deinit has not been called since.
func (d *ADXL345) Initialized() bool {
	return d != nil && d.initialized
}

// Init validates the bindings, opens the selected transport and probes the device identity.
// On identity failure the transport is closed again before returning.
func (d *ADXL345) Init(ctx context.Context) error {
	if d == nil {
		return adxl345.ErrInvalidHandle
	}
	if d.bindings.Logger == nil {
		return fmt.Errorf("%w: logger", adxl345.ErrMissingBinding)
	}
	if name := d.bindings.missing(); name != "" {
		d.bindings.Logger.Error("adxl345: binding is missing", "binding", name)
		return fmt.Errorf("%w: %s", adxl345.ErrMissingBinding, name)
	}
	err := d.transport().Open(ctx)
	if err != nil {
		d.bindings.Logger.Error("adxl345: could not open transport", "interface", d.iface, "error", err)
		return fmt.Errorf("%w: could not open %s transport: %w", adxl345.ErrTransfer, d.iface, err)
	}
	id, err := d.readByte(ctx, regDevID)
	if err != nil {
		d.abandon(ctx)
		return fmt.Errorf("%w: could not read device id: %w", adxl345.ErrIdentityMismatch, err)
	}
	if id != deviceID {
		d.bindings.Logger.Error("adxl345: id is invalid", "expected", fmt.Sprintf("%#02x", deviceID), "got", fmt.Sprintf("%#02x", id))
		d.abandon(ctx)
		return fmt.Errorf("%w: got %#02x", adxl345.ErrIdentityMismatch, id)
	}
	d.initialized = true
	return nil
}

// abandon closes the transport after a failed probe. The close result does not change
// the status returned by Init.
func (d *ADXL345) abandon(ctx context.Context) {
	if err := d.transport().Close(ctx); err != nil {
		d.bindings.Logger.Warn("adxl345: could not close transport", "interface", d.iface, "error", err)
	}
}

// Deinit puts the chip into sleep with measurement off and closes the transport.
func (d *ADXL345) Deinit(ctx context.Context) error {
	if err := d.ready(); err != nil {
		return err
	}
	power, err := d.readByte(ctx, regPowerCtl)
	if err != nil {
		return fmt.Errorf("%w: %w", adxl345.ErrPowerDown, err)
	}
	power &^= 1 << bitMeasure
	power |= 1 << bitSleep
	err = d.writeByte(ctx, regPowerCtl, power)
	if err != nil {
		return fmt.Errorf("%w: %w", adxl345.ErrPowerDown, err)
	}
	err = d.transport().Close(ctx)
	if err != nil {
		d.bindings.Logger.Error("adxl345: could not close transport", "interface", d.iface, "error", err)
		return fmt.Errorf("%w: could not close %s transport: %w", adxl345.ErrTransfer, d.iface, err)
	}
	d.initialized = false
	return nil
}

// SetRegister writes raw bytes starting at reg.
func (d *ADXL345) SetRegister(ctx context.Context, reg byte, buf []byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.writeRegister(ctx, reg, buf)
}

// Register reads len(buf) raw bytes starting at reg.
func (d *ADXL345) Register(ctx context.Context, reg byte, buf []byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.readRegister(ctx, reg, buf)
}

// Info describes the chip and the driver.
type Info struct {
	ChipName         string  `yaml:"chip_name" json:"chip_name"`
	Manufacturer     string  `yaml:"manufacturer" json:"manufacturer"`
	Interface        string  `yaml:"interface" json:"interface"`
	SupplyVoltageMin float32 `yaml:"supply_voltage_min_v" json:"supply_voltage_min_v"`
	SupplyVoltageMax float32 `yaml:"supply_voltage_max_v" json:"supply_voltage_max_v"`
	MaxCurrent       float32 `yaml:"max_current_ma" json:"max_current_ma"`
	TemperatureMin   float32 `yaml:"temperature_min_c" json:"temperature_min_c"`
	TemperatureMax   float32 `yaml:"temperature_max_c" json:"temperature_max_c"`
	DriverVersion    int     `yaml:"driver_version" json:"driver_version"`
}

const DriverVersion = 2000

// ChipInfo returns static chip information. It needs no handle.
func ChipInfo() Info {
	return Info{
		ChipName:         "Analog Devices ADXL345",
		Manufacturer:     "Analog Devices",
		Interface:        "IIC SPI",
		SupplyVoltageMin: 2.0,
		SupplyVoltageMax: 3.6,
		MaxCurrent:       0.14,
		TemperatureMin:   -40.0,
		TemperatureMax:   85.0,
		DriverVersion:    DriverVersion,
	}
}

// EncodeSPIAddress builds the SPI address byte: bit 7 marks a read, bit 6 a multi-byte transfer.
func EncodeSPIAddress(reg byte, read bool, length int) byte {
	address := reg & 0x3F
	if read {
		address |= spiReadFlag
	}
	if length > 1 {
		address |= spiMultiByteFlag
	}
	return address
}

func (d *ADXL345) ready() error {
	if d == nil {
		return adxl345.ErrInvalidHandle
	}
	if !d.initialized {
		return adxl345.ErrNotInitialized
	}
	return nil
}

func (d *ADXL345) transport() adxl345.Opener {
	if d.iface == InterfaceSPI {
		return d.bindings.SPI
	}
	return d.bindings.IIC
}

func (d *ADXL345) readRegister(ctx context.Context, reg byte, buf []byte) error {
	var err error
	if d.iface == InterfaceSPI {
		err = d.bindings.SPI.ReadRegister(ctx, EncodeSPIAddress(reg, true, len(buf)), buf)
	} else {
		err = d.bindings.IIC.ReadRegister(ctx, byte(d.address), reg, buf)
	}
	if err != nil {
		d.bindings.Logger.Error("adxl345: read failed", "interface", d.iface, "register", fmt.Sprintf("%#02x", reg), "error", err)
		return fmt.Errorf("%w: could not read register %#02x: %w", adxl345.ErrTransfer, reg, err)
	}
	return nil
}

func (d *ADXL345) writeRegister(ctx context.Context, reg byte, buf []byte) error {
	var err error
	if d.iface == InterfaceSPI {
		err = d.bindings.SPI.WriteRegister(ctx, EncodeSPIAddress(reg, false, len(buf)), buf)
	} else {
		err = d.bindings.IIC.WriteRegister(ctx, byte(d.address), reg, buf)
	}
	if err != nil {
		d.bindings.Logger.Error("adxl345: write failed", "interface", d.iface, "register", fmt.Sprintf("%#02x", reg), "error", err)
		return fmt.Errorf("%w: could not write register %#02x: %w", adxl345.ErrTransfer, reg, err)
	}
	return nil
}

func (d *ADXL345) readByte(ctx context.Context, reg byte) (byte, error) {
	buf := []byte{0x00}
	if err := d.readRegister(ctx, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *ADXL345) writeByte(ctx context.Context, reg, value byte) error {
	return d.writeRegister(ctx, reg, []byte{value})
}

// update rewrites the bits selected by mask and keeps the rest of the register.
func (d *ADXL345) update(ctx context.Context, reg, mask, value byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	prev, err := d.readByte(ctx, reg)
	if err != nil {
		return err
	}
	return d.writeByte(ctx, reg, prev&^mask|value&mask)
}

func (d *ADXL345) setBit(ctx context.Context, reg, bit byte, on bool) error {
	var value byte
	if on {
		value = 1 << bit
	}
	return d.update(ctx, reg, 1<<bit, value)
}

func (d *ADXL345) field(ctx context.Context, reg, mask byte) (byte, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	value, err := d.readByte(ctx, reg)
	if err != nil {
		return 0, err
	}
	return value & mask, nil
}

func (d *ADXL345) bit(ctx context.Context, reg, bit byte) (bool, error) {
	value, err := d.field(ctx, reg, 1<<bit)
	return value != 0, err
}

func (d *ADXL345) set(ctx context.Context, reg, value byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.writeByte(ctx, reg, value)
}

func (d *ADXL345) get(ctx context.Context, reg byte) (byte, error) {
	return d.field(ctx, reg, 0xFF)
}

// invalid reports a rejected argument. Handle and init guards take precedence.
func (d *ADXL345) invalid(format string, args ...any) error {
	if err := d.ready(); err != nil {
		return err
	}
	err := fmt.Errorf("%w: "+format, append([]any{adxl345.ErrInvalidArgument}, args...)...)
	d.bindings.Logger.Error("adxl345: "+err.Error())
	return err
}
