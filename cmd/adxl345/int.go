package main

import (
	"context"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hepingood/adxl345/accel"
	"github.com/hepingood/adxl345/cmd/adxl345/console"
	"github.com/hepingood/adxl345/config"
)

var intCmd = &cli.Command{
	Name:      "int",
	Usage:     "apply the interrupt profile and print events",
	ArgsUsage: "<mask>",
	Description: "mask bit 0 enables taps, bit 1 activity, bit 2 inactivity and bit 3 free fall. " +
		"Events are routed to INT1.",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Value: 5 * time.Second},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(2, "expected 1 argument, got %d", c.NArg())
		}
		mask, err := strconv.ParseUint(c.Args().Get(0), 0, 4)
		if err != nil {
			return console.Exit(2, "invalid mask %q", c.Args().Get(0))
		}
		p, err := profile(c, config.Interrupt(byte(mask)))
		if err != nil {
			return console.Exit(2, "could not load profile: %s", console.Red(err))
		}
		s, err := openSession(c, nil)
		if err != nil {
			return exit("could not init device", err)
		}
		defer s.Close(c.Context)

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("duration"))
		defer cancel()
		counts := map[accel.Interrupt]int{}
		err = s.dev.SetInterruptHandler(func(it accel.Interrupt) {
			switch it {
			case accel.InterruptDataReady, accel.InterruptWatermark, accel.InterruptOverrun:
				return
			}
			counts[it]++
			console.PInfof(console.PictoBell, "irq %s", console.Yellow(it))
		})
		if err != nil {
			return exit("could not set interrupt handler", err)
		}
		err = config.Apply(c.Context, s.dev, p)
		if err != nil {
			return exit("could not configure device", err)
		}
		done, err := pump(ctx, c, s, activeLevel(p))
		if err != nil {
			return console.Exit(1, "could not start interrupt pump: %s", console.Red(err))
		}
		<-done
		console.PInfof(console.PictoCheck, "finish interrupt")
		for _, it := range accel.Interrupts {
			if n := counts[it]; n > 0 {
				console.Printf("%s: %d\n", it, n)
			}
		}
		return nil
	},
}
