package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/urfave/cli/v2"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/hepingood/adxl345"
	"github.com/hepingood/adxl345/accel"
	"github.com/hepingood/adxl345/adapter"
	"github.com/hepingood/adxl345/cmd/adxl345/console"
	"github.com/hepingood/adxl345/config"
	"github.com/hepingood/adxl345/i2c"
	"github.com/hepingood/adxl345/sim"
	"github.com/hepingood/adxl345/spi"
	"github.com/hepingood/adxl345/transport"
)

// session owns a device handle and everything needed to release it.
type session struct {
	dev      *accel.ADXL345
	chip     *sim.Chip
	bridge   *adapter.MCP2221
	finalize []func() error
	cancel   context.CancelFunc
}

func interfaceFlag(c *cli.Context) (accel.Interface, error) {
	switch c.String("interface") {
	case "iic", "i2c":
		return accel.InterfaceIIC, nil
	case "spi":
		return accel.InterfaceSPI, nil
	}
	return 0, fmt.Errorf("unknown interface %q", c.String("interface"))
}

func addressFlag(c *cli.Context) (accel.Address, error) {
	switch c.Int("addr-pin") {
	case 0:
		return accel.AddressAlt0, nil
	case 1:
		return accel.AddressAlt1, nil
	}
	return 0, fmt.Errorf("address pin must be 0 or 1, got %d", c.Int("addr-pin"))
}

// bindings builds the transports for the selected adapter. Adapters without one of the
// buses fill the slot with a transport that always fails.
func bindings(c *cli.Context, s *session) (adxl345.TwoWire, adxl345.FourWire, error) {
	name := c.String("adapter")
	switch name {
	case "sim":
		s.chip = sim.New()
		return s.chip.I2C(byte(accel.AddressAlt0)), s.chip.SPI(), nil
	case "mcp2221":
		s.bridge = adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("usb-index")))
		return transport.NewRegisterBus(s.bridge), transport.NoFourWire{Adapter: name}, nil
	case "periph":
		return i2c.NewGenericBus(c.String("device")), spi.NewPort(c.String("spi-port")), nil
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		err := npi.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		s.finalize = append(s.finalize, npi.Finalize)
		iic := transport.NewGobotI2C(npi, c.Int("i2c-bus"))
		four := transport.NewGobotSPI(npi, gobotspi.WithBusNumber(c.Int("spi-bus")))
		return iic, four, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", name)
}

// openSession initializes the device selected by the global flags.
func openSession(c *cli.Context, onInterrupt func(accel.Interrupt)) (*session, error) {
	iface, err := interfaceFlag(c)
	if err != nil {
		return nil, err
	}
	address, err := addressFlag(c)
	if err != nil {
		return nil, err
	}
	s := &session{}
	iic, four, err := bindings(c, s)
	if err != nil {
		return nil, err
	}
	s.dev = accel.New(accel.Bindings{
		Logger:      slog.Default(),
		IIC:         iic,
		SPI:         four,
		Delay:       time.Sleep,
		OnInterrupt: onInterrupt,
	}, accel.WithInterface(iface), accel.WithAddressPin(address))
	err = s.dev.Init(c.Context)
	if err != nil {
		s.release()
		return nil, err
	}
	if s.chip != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.chip.Run(ctx, 10*time.Millisecond, wobble)
	}
	return s, nil
}

// wobble produces a 1g reading on z with a slow sine on x for the simulated chip.
func wobble(seq int) (int16, int16, int16) {
	x := 64 * math.Sin(float64(seq)/16)
	return int16(x), 0, 256
}

func (s *session) Close(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	err := s.dev.Deinit(ctx)
	if err != nil {
		console.Errorf("could not deinit device: %s", console.Red(err))
	}
	s.release()
}

func (s *session) release() {
	for _, f := range s.finalize {
		if err := f(); err != nil {
			slog.Warn("could not finalize adaptor", "error", err)
		}
	}
}

// profile loads --config or falls back to def.
func profile(c *cli.Context, def config.Profile) (config.Profile, error) {
	path := c.String("config")
	if path == "" {
		return def, nil
	}
	return config.Load(path)
}

// irqPin resolves --irq-pin through the periph GPIO registry. An empty name means polling.
func irqPin(c *cli.Context) (gpio.PinIn, error) {
	name := c.String("irq-pin")
	if name == "" {
		return nil, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}
	return pin, nil
}

// exit maps driver errors to exit codes.
func exit(msg string, err error) error {
	code := 1
	switch {
	case errors.Is(err, adxl345.ErrInvalidArgument):
		code = 2
	case errors.Is(err, adxl345.ErrIdentityMismatch), errors.Is(err, adxl345.ErrMissingBinding):
		code = 3
	}
	return console.Exit(code, "%s: %s", msg, console.Red(err))
}
