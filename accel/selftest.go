package accel

import (
	"context"
	"time"
)

// SelfTestResult holds the averaged output with the self-test force off and on.
type SelfTestResult struct {
	Off   [3]float32 `yaml:"off" json:"off"`
	On    [3]float32 `yaml:"on" json:"on"`
	Delta [3]float32 `yaml:"delta" json:"delta"`
}

// settle is the number of output periods discarded after toggling SELF_TEST.
const settle = 4

// SelfTest runs the datasheet self-test procedure: it averages samples with the
// electrostatic force off, turns SELF_TEST on, waits for the output to settle through
// the delay binding, averages again and turns SELF_TEST off. The device must be
// measuring in bypass mode. SELF_TEST is always switched off before returning.
func (d *ADXL345) SelfTest(ctx context.Context, samples int) (SelfTestResult, error) {
	var result SelfTestResult
	if samples <= 0 {
		return result, d.invalid("self test needs at least one sample, got %d", samples)
	}
	mode, err := d.Mode(ctx)
	if err != nil {
		return result, err
	}
	if mode != ModeBypass {
		return result, d.invalid("self test needs bypass mode, got %s", mode)
	}
	rate, err := d.Rate(ctx)
	if err != nil {
		return result, err
	}
	period := time.Second
	if hz := rate.Hz(); hz > 0 {
		period = time.Duration(float64(time.Second) / hz)
	}
	result.Off, err = d.average(ctx, samples, period)
	if err != nil {
		return result, err
	}
	if err := d.SetSelfTest(ctx, true); err != nil {
		return result, err
	}
	d.bindings.Delay(settle * period)
	result.On, err = d.average(ctx, samples, period)
	if err != nil {
		_ = d.SetSelfTest(ctx, false)
		return result, err
	}
	if err := d.SetSelfTest(ctx, false); err != nil {
		return result, err
	}
	for axis := range result.Delta {
		result.Delta[axis] = result.On[axis] - result.Off[axis]
	}
	return result, nil
}

func (d *ADXL345) average(ctx context.Context, samples int, period time.Duration) ([3]float32, error) {
	var sum [3]float32
	for i := 0; i < samples; i++ {
		if i > 0 {
			d.bindings.Delay(period)
		}
		s, err := d.ReadOne(ctx)
		if err != nil {
			return sum, err
		}
		for axis := range sum {
			sum[axis] += s.G[axis]
		}
	}
	for axis := range sum {
		sum[axis] /= float32(samples)
	}
	return sum, nil
}
