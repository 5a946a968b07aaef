package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hepingood/adxl345/accel"
	"github.com/hepingood/adxl345/adapter"
	"github.com/hepingood/adxl345/cmd/adxl345/console"
)

var infoCmd = &cli.Command{
	Name:  "info",
	Usage: "show chip and driver information",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yaml", Usage: "print as YAML"},
	},
	Action: func(c *cli.Context) error {
		info := accel.ChipInfo()
		if c.Bool("yaml") {
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			err := enc.Encode(info)
			if err != nil {
				return console.Exit(1, "encoding error: %s", console.Red(err))
			}
			return nil
		}
		console.Printf("chip: %s\n", console.White(info.ChipName))
		console.Printf("manufacturer: %s\n", console.White(info.Manufacturer))
		console.Printf("interface: %s\n", console.White(info.Interface))
		console.Printf("driver version: %s\n", console.White(fmt.Sprintf("%d.%d", info.DriverVersion/1000, info.DriverVersion%1000/100)))
		console.Printf("supply voltage: %.1fV - %.1fV\n", info.SupplyVoltageMin, info.SupplyVoltageMax)
		console.Printf("max current: %.2fmA\n", info.MaxCurrent)
		console.Printf("temperature: %.1fC - %.1fC\n", info.TemperatureMin, info.TemperatureMax)
		return nil
	},
}

// wiring lists the chip pins and what each adapter connects them to.
var wiring = map[string][][2]string{
	"mcp2221": {
		{"SCL", "MCP2221 SCL"},
		{"SDA", "MCP2221 SDA"},
		{"INT1", "MCP2221 GP1 (interrupt detection)"},
	},
	"periph": {
		{"SCL/SCLK", "i2c bus from --device"},
		{"SDA/SDI", "i2c bus from --device or MOSI of --spi-port"},
		{"SDO", "MISO of --spi-port"},
		{"CS", "chip select of --spi-port"},
		{"INT1", "gpio from --irq-pin"},
	},
	"nanopi": {
		{"SCL", "I2C bus from --i2c-bus"},
		{"SDA", "I2C bus from --i2c-bus"},
		{"SCLK/SDI/SDO/CS", "SPI bus from --spi-bus, chip select 0"},
		{"INT1", "gpio from --irq-pin"},
	},
	"sim": {
		{"*", "in-memory register file"},
	},
}

var pinsCmd = &cli.Command{
	Name:  "pins",
	Usage: "show pin connections for the selected adapter",
	Action: func(c *cli.Context) error {
		name := c.String("adapter")
		pins, ok := wiring[name]
		if !ok {
			return console.Exit(2, "unknown adapter %q", name)
		}
		w := tabwriter.NewWriter(console.Output(), 16, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "CHIP PIN\tCONNECTED TO\n")
		for _, p := range pins {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", p[0], p[1])
		}
		_ = w.Flush()
		if name != "mcp2221" {
			return nil
		}
		bridge := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("usb-index")))
		state, err := bridge.GPIO(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		for i, pin := range state {
			console.PInfof(console.PictoPin, "GP%d %s %s", i, pin.Mode, console.Flag(pin.Value != 0))
		}
		return nil
	},
}
