package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/hepingood/adxl345/cmd/adxl345/console"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "adxl345"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "ADXL345 accelerometer cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, periph, nanopi or sim",
			Value:   "mcp2221",
		},
		&cli.StringFlag{
			Name:    "interface",
			Aliases: []string{"i"},
			Usage:   "chip interface: iic or spi",
			Value:   "iic",
		},
		&cli.IntFlag{
			Name:  "addr-pin",
			Usage: "level of the ALT ADDRESS pin (0 selects 0x53, 1 selects 0x1D)",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "periph i2c bus name",
			Value: "/dev/i2c-1",
		},
		&cli.StringFlag{
			Name:  "spi-port",
			Usage: "periph spi port name",
			Value: "/dev/spidev0.0",
		},
		&cli.IntFlag{
			Name:  "i2c-bus",
			Usage: "gobot i2c bus number",
			Value: 0,
		},
		&cli.IntFlag{
			Name:  "spi-bus",
			Usage: "gobot spi bus number",
			Value: 0,
		},
		&cli.IntFlag{
			Name:  "usb-index",
			Usage: "MCP2221 index when several bridges are attached",
			Value: -1,
		},
		&cli.StringFlag{
			Name:  "irq-pin",
			Usage: "periph gpio pin wired to INT1; interrupts are polled when empty",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML device profile",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		ctx.Context = console.SetVerbose(ctx.Context, ctx.Bool("verbose"))
		return nil
	}
	app.Commands = cli.Commands{
		infoCmd,
		pinsCmd,
		regCmd,
		readCmd,
		fifoCmd,
		intCmd,
		streamCmd,
		selfTestCmd,
		profileCmd,
		bridgeCmd,
	}
	return app
}

func run() int {
	err := newApp().Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}
