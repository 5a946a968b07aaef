package config

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hepingood/adxl345"
	"github.com/hepingood/adxl345/accel"
	"github.com/hepingood/adxl345/sim"
)

func newDevice(t *testing.T) (*accel.ADXL345, *sim.Chip) {
	t.Helper()
	chip := sim.New()
	dev := accel.New(accel.Bindings{
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		IIC:    chip.I2C(byte(accel.AddressAlt0)),
		SPI:    chip.SPI(),
		Delay:  func(time.Duration) {},
	})
	require.NoError(t, dev.Init(context.Background()))
	return dev, chip
}

func TestApply_Basic(t *testing.T) {
	dev, chip := newDevice(t)
	require.NoError(t, Apply(context.Background(), dev, Basic()))

	expected := map[byte]byte{
		0x2C: 0x0A, // BW_RATE 100Hz
		0x31: 0x0B, // full resolution, 16g
		0x38: 0x00, // bypass
		0x1D: 48,   // 3g
		0x21: 16,   // 10ms
		0x22: 16,   // 20ms
		0x23: 64,   // 80ms
		0x2A: 0x07,
		0x24: 32,
		0x25: 16,
		0x26: 3,
		0x27: 0xFF,
		0x28: 12,
		0x29: 2,
		0x2E: 0x00,
		0x2F: 0x00,
		0x2D: 0x08, // measure
	}
	for reg, value := range expected {
		assert.Equal(t, value, chip.Register(reg), "register %#02x", reg)
	}
}

func TestApply_FIFO(t *testing.T) {
	dev, chip := newDevice(t)
	require.NoError(t, Apply(context.Background(), dev, FIFOProfile()))
	assert.Equal(t, byte(0x90), chip.Register(0x38))
	assert.Equal(t, byte(0x02), chip.Register(0x2E))
	assert.Equal(t, byte(0x00), chip.Register(0x2F))
}

func TestApply_Interrupt(t *testing.T) {
	dev, chip := newDevice(t)
	p := Interrupt(EventTap | EventFreeFall)
	p.Interrupts = append(p.Interrupts, Route{Interrupt: accel.InterruptActivity, Pin: accel.InterruptPin2})
	require.NoError(t, Apply(context.Background(), dev, p))
	assert.Equal(t, byte(0x74), chip.Register(0x2E))
	assert.Equal(t, byte(0x10), chip.Register(0x2F))
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	dev, chip := newDevice(t)
	chip.Fail(0x31, errors.New("nack"))
	chip.ResetTransfers()

	err := Apply(context.Background(), dev, Basic())
	assert.ErrorIs(t, err, adxl345.ErrTransfer)
	assert.Contains(t, err.Error(), "spi wire")
	for _, tr := range chip.Transfers() {
		assert.NotEqual(t, byte(0x38), tr.Reg, "fifo must not be touched after a failure")
	}
	assert.Zero(t, chip.Register(0x2D)&0x08, "measure must stay off")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	data := []byte(`
format:
  rate: 400Hz
  range: 4g
fifo:
  mode: stream
  watermark: 8
  trigger_pin: INT2
activity:
  coupled: dc
interrupts:
  - interrupt: watermark
    pin: INT2
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, accel.Rate400, p.Format.Rate)
	assert.Equal(t, accel.Range4G, p.Format.Range)
	assert.True(t, p.Format.FullResolution, "defaults are kept")
	assert.Equal(t, accel.ModeStream, p.FIFO.Mode)
	assert.Equal(t, byte(8), p.FIFO.Watermark)
	assert.Equal(t, accel.InterruptPin2, p.FIFO.TriggerPin)
	assert.Equal(t, accel.CoupledDC, p.Activity.Coupled)
	assert.Equal(t, float32(3), p.Tap.ThresholdG)
	assert.Equal(t, []Route{{Interrupt: accel.InterruptWatermark, Pin: accel.InterruptPin2}}, p.Interrupts)
}

func TestParse_Errors(t *testing.T) {
	p := Basic()
	assert.Error(t, Parse([]byte("fifo: {watermark: 40}"), &p))
	assert.Error(t, Parse([]byte("format: {rate: 7Hz}"), &p))
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProfile_MarshalRoundTrip(t *testing.T) {
	data, err := FIFOProfile().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "rate: 100Hz")
	assert.Contains(t, string(data), "mode: stream")

	var p Profile
	require.NoError(t, Parse(data, &p))
	assert.Equal(t, FIFOProfile(), p)
}
