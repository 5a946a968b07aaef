package main

import (
	"github.com/urfave/cli/v2"

	"github.com/hepingood/adxl345/cmd/adxl345/console"
	"github.com/hepingood/adxl345/config"
)

var selfTestCmd = &cli.Command{
	Name:  "selftest",
	Usage: "run the electrostatic self test and print the per-axis deflection",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "samples", Value: 10, Usage: "samples averaged per phase"},
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
		res, err := s.dev.SelfTest(c.Context, c.Int("samples"))
		if err != nil {
			return exit("self test failed", err)
		}
		axes := []string{"x", "y", "z"}
		for i, axis := range axes {
			console.Printf("%s: off %.3f g, on %.3f g, delta %s g\n", axis, res.Off[i], res.On[i], console.White(res.Delta[i]))
		}
		return nil
	},
}
