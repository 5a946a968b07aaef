package main

import (
	"encoding/hex"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/hepingood/adxl345/cmd/adxl345/console"
)

var regCmd = &cli.Command{
	Name:  "reg",
	Usage: "raw register access",
	Subcommands: []*cli.Command{
		regGetCmd,
		regSetCmd,
	},
}

func parseRegister(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

var regGetCmd = &cli.Command{
	Name:      "get",
	Usage:     "read registers",
	ArgsUsage: "<register> [length]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 || c.NArg() > 2 {
			return console.Exit(2, "expected 1 or 2 arguments, got %d", c.NArg())
		}
		reg, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Exit(2, "could not parse register: %v", err)
		}
		length := 1
		if c.NArg() == 2 {
			length, err = strconv.Atoi(c.Args().Get(1))
			if err != nil || length < 1 || length > 64 {
				return console.Exit(2, "invalid length %q", c.Args().Get(1))
			}
		}
		s, err := openSession(c, nil)
		if err != nil {
			return exit("could not init device", err)
		}
		defer s.Close(c.Context)
		buf := make([]byte, length)
		err = s.dev.Register(c.Context, reg, buf)
		if err != nil {
			return exit("could not read register", err)
		}
		for i, b := range buf {
			console.Printf("%#02x: %s (%08b)\n", int(reg)+i, console.White(hex.EncodeToString([]byte{b})), b)
		}
		return nil
	},
}

var regSetCmd = &cli.Command{
	Name:      "set",
	Usage:     "write registers",
	ArgsUsage: "<register> <hex data>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(2, "expected 2 arguments, got %d", c.NArg())
		}
		reg, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Exit(2, "could not parse register: %v", err)
		}
		data, err := hex.DecodeString(c.Args().Get(1))
		if err != nil || len(data) == 0 {
			return console.Exit(2, "could not decode data %q", c.Args().Get(1))
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("write " + hex.EncodeToString(data) + " to register " + c.Args().Get(0) + "?")
			if err != nil {
				return console.Exit(1, "prompt error: %v", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		s, err := openSession(c, nil)
		if err != nil {
			return exit("could not init device", err)
		}
		defer s.Close(c.Context)
		err = s.dev.SetRegister(c.Context, reg, data)
		if err != nil {
			return exit("could not write register", err)
		}
		console.Printf("wrote %s to %#02x\n", console.White(hex.EncodeToString(data)), reg)
		return nil
	},
}
