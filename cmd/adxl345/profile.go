package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hepingood/adxl345/cmd/adxl345/console"
	"github.com/hepingood/adxl345/config"
)

var profileCmd = &cli.Command{
	Name:      "profile",
	Usage:     "print a built-in device profile as YAML",
	ArgsUsage: "basic | fifo | int <mask>",
	Action: func(c *cli.Context) error {
		var p config.Profile
		switch c.Args().Get(0) {
		case "", "basic":
			p = config.Basic()
		case "fifo":
			p = config.FIFOProfile()
		case "int":
			mask, err := parseRegister(c.Args().Get(1))
			if err != nil {
				return console.Exit(2, "invalid mask %q", c.Args().Get(1))
			}
			p = config.Interrupt(mask)
		default:
			return console.Exit(2, "unknown profile %q", c.Args().Get(0))
		}
		data, err := p.Marshal()
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}
