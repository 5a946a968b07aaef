package accel

import (
	"context"
	"encoding/binary"

	"github.com/hepingood/adxl345"
)

// Sample is one x, y, z measurement as read from the data registers and scaled to g.
type Sample struct {
	Raw [3]int16   `json:"raw" cbor:"raw" yaml:"raw"`
	G   [3]float32 `json:"g" cbor:"g" yaml:"g"`
}

// dataFormat is the subset of DATA_FORMAT needed to decode samples.
type dataFormat struct {
	fullResolution bool
	justify        Justify
	rng            Range
}

func parseDataFormat(reg byte) dataFormat {
	f := dataFormat{
		fullResolution: reg&(1<<bitFullResolution) != 0,
		rng:            Range(reg & maskRange),
	}
	if reg&(1<<bitJustify) != 0 {
		f.justify = JustifyLeft
	}
	return f
}

// scale returns the g/LSB factor for the current resolution and range.
func (f dataFormat) scale() float32 {
	if f.fullResolution {
		return 0.004
	}
	switch f.rng {
	case Range2G:
		return 0.0039
	case Range4G:
		return 0.0078
	case Range8G:
		return 0.0156
	default:
		return 0.0312
	}
}

// realign moves left justified data back to the low bits. Bit 7 is kept in place
// and the shift is arithmetic, matching the chip vendor's reference decoding.
func (f dataFormat) realign(raw int16) int16 {
	if f.justify != JustifyLeft {
		return raw
	}
	shift := 16 - 10
	if f.fullResolution {
		shift -= int(f.rng)
	}
	return raw&0x80 | (raw&^0x80)>>shift
}

func (f dataFormat) decode(buf []byte) Sample {
	var s Sample
	for axis := 0; axis < 3; axis++ {
		raw := int16(binary.LittleEndian.Uint16(buf[axis*2:]))
		s.Raw[axis] = f.realign(raw)
		s.G[axis] = float32(s.Raw[axis]) * f.scale()
	}
	return s
}

// Read fills samples with the newest measurements and returns how many were written.
// In bypass mode it returns exactly one sample. In FIFO, stream and trigger modes it
// drains min(len(samples), FIFO entries) samples in one burst; zero when the FIFO is empty.
func (d *ADXL345) Read(ctx context.Context, samples []Sample) (int, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return 0, d.invalid("sample buffer is empty")
	}
	fifo, err := d.readByte(ctx, regFIFOCtl)
	if err != nil {
		return 0, err
	}
	format, err := d.readByte(ctx, regDataFormat)
	if err != nil {
		return 0, err
	}
	n := 1
	if Mode(fifo>>6) != ModeBypass {
		status, err := d.readByte(ctx, regFIFOStatus)
		if err != nil {
			return 0, err
		}
		n = min(len(samples), int(status&maskFIFOEntries), maxFIFOSamples)
		if n == 0 {
			return 0, nil
		}
	}
	buf := d.buf[:n*bytesPerSample]
	if err := d.readRegister(ctx, regDataX0, buf); err != nil {
		return 0, err
	}
	f := parseDataFormat(format)
	for i := 0; i < n; i++ {
		samples[i] = f.decode(buf[i*bytesPerSample:])
	}
	return n, nil
}

// ReadOne reads a single sample.
func (d *ADXL345) ReadOne(ctx context.Context) (Sample, error) {
	var samples [1]Sample
	n, err := d.Read(ctx, samples[:])
	if err != nil {
		return Sample{}, err
	}
	if n == 0 {
		return Sample{}, adxl345.ErrNoData
	}
	return samples[0], nil
}
