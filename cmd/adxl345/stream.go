package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hepingood/adxl345/accel"
	"github.com/hepingood/adxl345/cmd/adxl345/console"
	"github.com/hepingood/adxl345/config"
	"github.com/hepingood/adxl345/stream"
)

var streamCmd = &cli.Command{
	Name:  "stream",
	Usage: "publish FIFO batches to an MQTT broker",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Value: "tcp://localhost:1883"},
		&cli.StringFlag{Name: "topic", Value: "sensors/adxl345"},
		&cli.StringFlag{Name: "name", Usage: "device name carried in every batch", Value: "adxl345"},
		&cli.StringFlag{Name: "codec", Usage: "payload encoding: json or cbor", Value: "json"},
		&cli.DurationFlag{Name: "interval", Value: 100 * time.Millisecond},
		&cli.DurationFlag{Name: "duration", Usage: "stop after this long; 0 runs until interrupted"},
		&cli.BoolFlag{Name: "retained"},
		&cli.StringFlag{Name: "ws", Usage: "also mirror batches to websocket clients on this address, e.g. :8080"},
	},
	Action: func(c *cli.Context) error {
		codec, err := stream.ParseCodec(c.String("codec"))
		if err != nil {
			return console.Exit(2, "%s", console.Red(err))
		}
		def := config.Basic()
		def.FIFO.Mode = accel.ModeStream
		p, err := profile(c, def)
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
		opts := []stream.PublisherOption{
			stream.WithBroker(c.String("broker")),
			stream.WithTopic(c.String("topic")),
			stream.WithDevice(c.String("name")),
			stream.WithRate(p.Format.Rate),
			stream.WithCodec(codec),
			stream.WithInterval(c.Duration("interval")),
			stream.WithRetained(c.Bool("retained")),
		}
		ctx := c.Context
		if d := c.Duration("duration"); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		if addr := c.String("ws"); addr != "" {
			hub := stream.NewHub(slog.Default())
			srv := &http.Server{Addr: addr, Handler: hub, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				err := srv.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("websocket mirror stopped", "addr", addr, "error", err)
				}
			}()
			defer func() {
				hub.Close()
				_ = srv.Close()
			}()
			console.PInfof(console.PictoBell, "mirroring batches on ws://%s", addr)
			opts = append(opts, stream.WithMirror(hub))
		}
		pub := stream.NewPublisher(s.dev, opts...)
		err = pub.Connect(ctx)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer pub.Close()
		err = pub.Run(ctx)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return console.Exit(1, "stream stopped: %s", console.Red(err))
		}
		return nil
	},
}
