package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hepingood/adxl345/adapter"
	"github.com/hepingood/adxl345/cmd/adxl345/console"
)

var bridgeCmd = &cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 bridge diagnostics",
	Subcommands: []*cli.Command{
		bridgeStatusCmd,
		bridgeReleaseCmd,
		bridgeDetectCmd,
	},
}

func dumpYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

var bridgeStatusCmd = &cli.Command{
	Name:  "status",
	Usage: "print the I2C engine status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("usb-index")))
		status, err := a.Status(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpYAML(status)
	},
}

var bridgeReleaseCmd = &cli.Command{
	Name:  "release",
	Usage: "cancel a stuck I2C transfer and free the bus",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("usb-index")))
		status, err := a.ReleaseBus(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpYAML(status)
	},
}

var bridgeDetectCmd = &cli.Command{
	Name:  "detect",
	Usage: "list attached MCP2221 bridges and their --usb-index",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(adapter.VendorID, adapter.ProductID)
		if len(devices) == 0 {
			console.Warnf("no MCP2221 found")
			return nil
		}
		w := tabwriter.NewWriter(console.Output(), 8, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "INDEX\tPATH\tSERIAL\tPRODUCT\n")
		for i, dev := range devices {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, dev.Path, dev.Serial, dev.Product)
		}
		return w.Flush()
	},
}
