// Package stream drains the accelerometer FIFO on a ticker and publishes the samples to MQTT.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/hepingood/adxl345/accel"
)

const maxBatch = 32

var ErrNotConnected = fmt.Errorf("not connected")

// Reader is satisfied by *accel.ADXL345.
type Reader interface {
	Read(ctx context.Context, samples []accel.Sample) (int, error)
}

type PublisherConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Device   string
	Rate     string
	Codec    Codec
	Interval time.Duration
	Retained bool
	Logger   *slog.Logger
	Mirror   Mirror
	client   mqtt.Client
}

type PublisherOption func(*PublisherConfig)

func WithBroker(broker string) PublisherOption {
	return func(c *PublisherConfig) {
		c.Broker = broker
	}
}

func WithTopic(topic string) PublisherOption {
	return func(c *PublisherConfig) {
		c.Topic = topic
	}
}

// WithDevice sets the device name carried in every batch.
func WithDevice(device string) PublisherOption {
	return func(c *PublisherConfig) {
		c.Device = device
	}
}

func WithRate(rate accel.Rate) PublisherOption {
	return func(c *PublisherConfig) {
		c.Rate = rate.String()
	}
}

func WithCodec(codec Codec) PublisherOption {
	return func(c *PublisherConfig) {
		c.Codec = codec
	}
}

func WithInterval(interval time.Duration) PublisherOption {
	return func(c *PublisherConfig) {
		c.Interval = interval
	}
}

func WithRetained(retained bool) PublisherOption {
	return func(c *PublisherConfig) {
		c.Retained = retained
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(c *PublisherConfig) {
		c.Logger = logger
	}
}

// WithMirror copies every published payload to m.
func WithMirror(m Mirror) PublisherOption {
	return func(c *PublisherConfig) {
		c.Mirror = m
	}
}

// WithClient uses an existing MQTT client instead of dialing Broker.
func WithClient(client mqtt.Client) PublisherOption {
	return func(c *PublisherConfig) {
		c.client = client
	}
}

type Publisher struct {
	cfg    PublisherConfig
	reader Reader
	client mqtt.Client
	buf    [maxBatch]accel.Sample
	seq    uint64
}

func NewPublisher(reader Reader, opts ...PublisherOption) *Publisher {
	cfg := PublisherConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "adxl345-" + uuid.NewString(),
		Topic:    "sensors/adxl345",
		Device:   "adxl345",
		Codec:    CodecJSON,
		Interval: 100 * time.Millisecond,
		Logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Publisher{cfg: cfg, reader: reader, client: cfg.client}
}

func (p *Publisher) ClientID() string {
	return p.cfg.ClientID
}

func (p *Publisher) Connect(ctx context.Context) error {
	if p.client != nil && p.client.IsConnected() {
		return nil
	}
	if p.client == nil {
		opts := mqtt.NewClientOptions().
			AddBroker(p.cfg.Broker).
			SetClientID(p.cfg.ClientID)
		p.client = mqtt.NewClient(opts)
	}
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("could not connect to %s: %w", p.cfg.Broker, token.Error())
	}
	p.cfg.Logger.Info("connected to broker", "broker", p.cfg.Broker, "client_id", p.cfg.ClientID)
	return nil
}

func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}

// Publish drains up to 32 samples and publishes them as one batch. An empty FIFO
// publishes nothing and returns 0. The FIFO is left untouched while the client is
// not connected.
func (p *Publisher) Publish(ctx context.Context) (int, error) {
	if p.client == nil || !p.client.IsConnected() {
		return 0, fmt.Errorf("could not publish to %s: %w", p.cfg.Topic, ErrNotConnected)
	}
	n, err := p.reader.Read(ctx, p.buf[:])
	if err != nil {
		return 0, fmt.Errorf("could not read samples: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	p.seq++
	batch := Batch{
		Device:  p.cfg.Device,
		Seq:     p.seq,
		Time:    time.Now().UTC(),
		Rate:    p.cfg.Rate,
		Samples: append([]accel.Sample(nil), p.buf[:n]...),
	}
	payload, err := p.cfg.Codec.Encode(batch)
	if err != nil {
		return 0, fmt.Errorf("could not encode batch: %w", err)
	}
	if token := p.client.Publish(p.cfg.Topic, 0, p.cfg.Retained, payload); token.Wait() && token.Error() != nil {
		return 0, fmt.Errorf("could not publish to %s: %w", p.cfg.Topic, token.Error())
	}
	if p.cfg.Mirror != nil {
		p.cfg.Mirror.Broadcast(p.cfg.Codec, payload)
	}
	return n, nil
}

// Run publishes on every tick until ctx is done. Failed ticks are logged and skipped.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := p.Publish(ctx)
			if err != nil {
				p.cfg.Logger.Error("publish failed", "topic", p.cfg.Topic, "error", err)
				continue
			}
			if n > 0 {
				p.cfg.Logger.Debug("batch published", "topic", p.cfg.Topic, "samples", n, "seq", p.seq)
			}
		}
	}
}
