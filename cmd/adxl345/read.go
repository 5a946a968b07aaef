package main

import (
	"context"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hepingood/adxl345/accel"
	"github.com/hepingood/adxl345/cmd/adxl345/console"
	"github.com/hepingood/adxl345/config"
	"github.com/hepingood/adxl345/irq"
)

func printSample(ctx context.Context, i int, s accel.Sample) {
	console.Printf("%d: x %s g, y %s g, z %s g\n", i,
		console.White(s.G[0]), console.White(s.G[1]), console.White(s.G[2]))
	if console.IsVerbose(ctx) {
		console.Printf("   raw %d %d %d\n", s.Raw[0], s.Raw[1], s.Raw[2])
	}
}

var readCmd = &cli.Command{
	Name:  "read",
	Usage: "apply the basic profile and poll samples",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "times", Aliases: []string{"n"}, Value: 3},
		&cli.DurationFlag{Name: "interval", Value: time.Second},
		&cli.BoolFlag{Name: "yaml", Usage: "print samples as YAML"},
	},
	Action: func(c *cli.Context) error {
		p, err := profile(c, config.Basic())
		if err != nil {
			return console.Exit(2, "could not load profile: %s", console.Red(err))
		}
		s, err := openSession(c, nil)
		if err != nil {
			return exit("could not init device", err)
		}
		defer s.Close(c.Context)
		err = config.Apply(c.Context, s.dev, p)
		if err != nil {
			return exit("could not configure device", err)
		}
		samples := make([]accel.Sample, 0, c.Int("times"))
		for i := 0; i < c.Int("times"); i++ {
			time.Sleep(c.Duration("interval"))
			sample, err := s.dev.ReadOne(c.Context)
			if err != nil {
				return exit("could not read", err)
			}
			if !c.Bool("yaml") {
				printSample(c.Context, i+1, sample)
			}
			samples = append(samples, sample)
		}
		if c.Bool("yaml") {
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			if err := enc.Encode(samples); err != nil {
				return console.Exit(1, "encoding error: %s", console.Red(err))
			}
		}
		return nil
	},
}

// pump services the interrupt lines until ctx is done, through --irq-pin when set and
// by polling INT_SOURCE otherwise.
func pump(ctx context.Context, c *cli.Context, s *session, level accel.ActiveLevel) (<-chan error, error) {
	pin, err := irqPin(c)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		if pin != nil {
			done <- irq.Watch(ctx, pin, s.dev, irq.WithActiveLevel(level))
			return
		}
		done <- irq.Poll(ctx, s.dev, 10*time.Millisecond, nil)
	}()
	return done, nil
}

func activeLevel(p config.Profile) accel.ActiveLevel {
	if p.Format.ActiveLow {
		return accel.ActiveLow
	}
	return accel.ActiveHigh
}

var fifoCmd = &cli.Command{
	Name:  "fifo",
	Usage: "apply the FIFO profile and drain the FIFO on every watermark interrupt",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "times", Aliases: []string{"n"}, Value: 3, Usage: "watermark events to wait for"},
		&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "maximum wait between events"},
	},
	Action: func(c *cli.Context) error {
		p, err := profile(c, config.FIFOProfile())
		if err != nil {
			return console.Exit(2, "could not load profile: %s", console.Red(err))
		}
		s, err := openSession(c, nil)
		if err != nil {
			return exit("could not init device", err)
		}
		defer s.Close(c.Context)

		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()
		type batch struct {
			n    int
			last accel.Sample
		}
		drained := make(chan batch, 1)
		buf := make([]accel.Sample, 32)
		// The handler runs on the pump goroutine, which is the only one touching the device
		// until the pump stops.
		err = s.dev.SetInterruptHandler(func(it accel.Interrupt) {
			if it != accel.InterruptWatermark {
				return
			}
			n, err := s.dev.Read(ctx, buf)
			if err != nil {
				console.Errorf("fifo read failed: %s", console.Red(err))
				return
			}
			if n == 0 {
				return
			}
			select {
			case drained <- batch{n: n, last: buf[n-1]}:
			default:
			}
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
		defer func() {
			cancel()
			<-done
		}()
		for remaining := c.Int("times"); remaining > 0; remaining-- {
			select {
			case b := <-drained:
				console.PInfof(console.PictoRuler, "fifo read %d: %d samples, last %v g", remaining, b.n, b.last.G)
			case <-time.After(c.Duration("timeout")):
				return console.Exit(1, "fifo read timeout")
			}
		}
		return nil
	},
}
