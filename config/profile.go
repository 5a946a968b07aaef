// Package config holds YAML device profiles and programs them into an ADXL345.
package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hepingood/adxl345/accel"
)

type Axes struct {
	X bool `yaml:"x"`
	Y bool `yaml:"y"`
	Z bool `yaml:"z"`
}

type Format struct {
	Rate           accel.Rate  `yaml:"rate"`
	Range          accel.Range `yaml:"range"`
	FullResolution bool        `yaml:"full_resolution"`
	LeftJustify    bool        `yaml:"left_justify"`
	SPI3Wire       bool        `yaml:"spi_3wire"`
	ActiveLow      bool        `yaml:"interrupt_active_low"`
}

type FIFO struct {
	Mode       accel.Mode         `yaml:"mode"`
	Watermark  byte               `yaml:"watermark"`
	TriggerPin accel.InterruptPin `yaml:"trigger_pin"`
}

// Offset is the per axis calibration offset in g.
type Offset struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

type Tap struct {
	ThresholdG float32 `yaml:"threshold_g"`
	DurationUS uint32  `yaml:"duration_us"`
	LatentMS   float32 `yaml:"latent_ms"`
	WindowMS   float32 `yaml:"window_ms"`
	Axes       Axes    `yaml:"axes"`
	Suppress   bool    `yaml:"suppress"`
}

type Activity struct {
	ThresholdG float32       `yaml:"threshold_g"`
	Coupled    accel.Coupled `yaml:"coupled"`
	Axes       Axes          `yaml:"axes"`
}

type Inactivity struct {
	ThresholdG float32       `yaml:"threshold_g"`
	TimeS      byte          `yaml:"time_s"`
	Coupled    accel.Coupled `yaml:"coupled"`
	Axes       Axes          `yaml:"axes"`
}

type FreeFall struct {
	ThresholdG float32 `yaml:"threshold_g"`
	TimeMS     uint16  `yaml:"time_ms"`
}

type Power struct {
	Link           bool                 `yaml:"link"`
	AutoSleep      bool                 `yaml:"auto_sleep"`
	SleepFrequency accel.SleepFrequency `yaml:"sleep_frequency"`
}

// Route enables one interrupt and maps it to a pin.
type Route struct {
	Interrupt accel.Interrupt    `yaml:"interrupt"`
	Pin       accel.InterruptPin `yaml:"pin"`
}

// Profile is a complete device configuration. Interrupts not listed in Interrupts
// are disabled and mapped to INT1.
type Profile struct {
	Format     Format     `yaml:"format"`
	FIFO       FIFO       `yaml:"fifo"`
	Offset     Offset     `yaml:"offset"`
	Tap        Tap        `yaml:"tap"`
	Activity   Activity   `yaml:"activity"`
	Inactivity Inactivity `yaml:"inactivity"`
	FreeFall   FreeFall   `yaml:"free_fall"`
	Power      Power      `yaml:"power"`
	Interrupts []Route    `yaml:"interrupts"`
}

var all = Axes{X: true, Y: true, Z: true}

// Basic is the polling profile: 100Hz, 16g full resolution, bypass mode, no interrupts.
func Basic() Profile {
	return Profile{
		Format: Format{
			Rate:           accel.Rate100,
			Range:          accel.Range16G,
			FullResolution: true,
		},
		FIFO: FIFO{Mode: accel.ModeBypass},
		Tap: Tap{
			ThresholdG: 3,
			DurationUS: 10000,
			LatentMS:   20,
			WindowMS:   80,
			Axes:       all,
		},
		Activity: Activity{
			ThresholdG: 2,
			Coupled:    accel.CoupledAC,
			Axes:       all,
		},
		Inactivity: Inactivity{
			ThresholdG: 1,
			TimeS:      3,
			Coupled:    accel.CoupledAC,
			Axes:       all,
		},
		FreeFall: FreeFall{
			ThresholdG: 0.8,
			TimeMS:     10,
		},
	}
}

// FIFOProfile is the buffered profile: stream mode with a watermark interrupt at 16 samples on INT1.
func FIFOProfile() Profile {
	p := Basic()
	p.FIFO = FIFO{Mode: accel.ModeStream, Watermark: 16}
	p.Interrupts = []Route{{Interrupt: accel.InterruptWatermark, Pin: accel.InterruptPin1}}
	return p
}

// Event mask bits accepted by Interrupt.
const (
	EventTap = 1 << iota
	EventActivity
	EventInactivity
	EventFreeFall
)

// Interrupt is the event profile. mask selects taps (single and double), activity,
// inactivity and free fall; every selected event is routed to INT1.
func Interrupt(mask byte) Profile {
	p := Basic()
	add := func(it accel.Interrupt) {
		p.Interrupts = append(p.Interrupts, Route{Interrupt: it, Pin: accel.InterruptPin1})
	}
	if mask&EventTap != 0 {
		add(accel.InterruptSingleTap)
		add(accel.InterruptDoubleTap)
	}
	if mask&EventActivity != 0 {
		add(accel.InterruptActivity)
	}
	if mask&EventInactivity != 0 {
		add(accel.InterruptInactivity)
	}
	if mask&EventFreeFall != 0 {
		add(accel.InterruptFreeFall)
	}
	return p
}

// Load reads a YAML profile from path on top of the Basic defaults.
func Load(path string) (Profile, error) {
	p := Basic()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("could not read profile: %w", err)
	}
	return p, Parse(data, &p)
}

// Parse decodes YAML into p; fields missing from data keep their current values.
func Parse(data []byte, p *Profile) error {
	err := yaml.Unmarshal(data, p)
	if err != nil {
		return fmt.Errorf("could not parse profile: %w", err)
	}
	if p.FIFO.Watermark > 31 {
		return fmt.Errorf("could not parse profile: watermark %d exceeds 31", p.FIFO.Watermark)
	}
	return nil
}

func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

type step struct {
	name string
	run  func() error
}

// Apply programs p into dev and switches measurement on last. It stops at the first failure.
func Apply(ctx context.Context, dev *accel.ADXL345, p Profile) error {
	wire := accel.SPIWire4
	if p.Format.SPI3Wire {
		wire = accel.SPIWire3
	}
	level := accel.ActiveHigh
	if p.Format.ActiveLow {
		level = accel.ActiveLow
	}
	justify := accel.JustifyRight
	if p.Format.LeftJustify {
		justify = accel.JustifyLeft
	}
	steps := []step{
		{"measure off", func() error { return dev.SetMeasure(ctx, false) }},
		{"rate", func() error { return dev.SetRate(ctx, p.Format.Rate) }},
		{"spi wire", func() error { return dev.SetSPIWire(ctx, wire) }},
		{"interrupt active level", func() error { return dev.SetInterruptActiveLevel(ctx, level) }},
		{"full resolution", func() error { return dev.SetFullResolution(ctx, p.Format.FullResolution) }},
		{"justify", func() error { return dev.SetJustify(ctx, justify) }},
		{"range", func() error { return dev.SetRange(ctx, p.Format.Range) }},
		{"self test", func() error { return dev.SetSelfTest(ctx, false) }},
		{"fifo mode", func() error { return dev.SetMode(ctx, p.FIFO.Mode) }},
		{"trigger pin", func() error { return dev.SetTriggerPin(ctx, p.FIFO.TriggerPin) }},
		{"watermark", func() error { return dev.SetWatermark(ctx, p.FIFO.Watermark) }},
		{"offset", func() error {
			return dev.SetOffset(ctx,
				accel.OffsetToRegister(p.Offset.X),
				accel.OffsetToRegister(p.Offset.Y),
				accel.OffsetToRegister(p.Offset.Z))
		}},
		{"tap threshold", func() error {
			return dev.SetTapThreshold(ctx, accel.TapThresholdToRegister(p.Tap.ThresholdG))
		}},
		{"tap duration", func() error { return dev.SetDuration(ctx, accel.DurationToRegister(p.Tap.DurationUS)) }},
		{"tap latent", func() error { return dev.SetLatent(ctx, accel.LatentToRegister(p.Tap.LatentMS)) }},
		{"tap window", func() error { return dev.SetWindow(ctx, accel.WindowToRegister(p.Tap.WindowMS)) }},
		{"tap x", func() error { return dev.SetTapAxis(ctx, accel.TapAxisX, p.Tap.Axes.X) }},
		{"tap y", func() error { return dev.SetTapAxis(ctx, accel.TapAxisY, p.Tap.Axes.Y) }},
		{"tap z", func() error { return dev.SetTapAxis(ctx, accel.TapAxisZ, p.Tap.Axes.Z) }},
		{"tap suppress", func() error { return dev.SetTapSuppress(ctx, p.Tap.Suppress) }},
		{"action threshold", func() error {
			return dev.SetActionThreshold(ctx, accel.ActionThresholdToRegister(p.Activity.ThresholdG))
		}},
		{"action coupled", func() error { return dev.SetActionCoupled(ctx, p.Activity.Coupled) }},
		{"action x", func() error { return dev.SetActionInaction(ctx, accel.ActionX, p.Activity.Axes.X) }},
		{"action y", func() error { return dev.SetActionInaction(ctx, accel.ActionY, p.Activity.Axes.Y) }},
		{"action z", func() error { return dev.SetActionInaction(ctx, accel.ActionZ, p.Activity.Axes.Z) }},
		{"inaction threshold", func() error {
			return dev.SetInactionThreshold(ctx, accel.InactionThresholdToRegister(p.Inactivity.ThresholdG))
		}},
		{"inaction time", func() error {
			return dev.SetInactionTime(ctx, accel.InactionTimeToRegister(p.Inactivity.TimeS))
		}},
		{"inaction coupled", func() error { return dev.SetInactionCoupled(ctx, p.Inactivity.Coupled) }},
		{"inaction x", func() error { return dev.SetActionInaction(ctx, accel.InactionX, p.Inactivity.Axes.X) }},
		{"inaction y", func() error { return dev.SetActionInaction(ctx, accel.InactionY, p.Inactivity.Axes.Y) }},
		{"inaction z", func() error { return dev.SetActionInaction(ctx, accel.InactionZ, p.Inactivity.Axes.Z) }},
		{"free fall threshold", func() error {
			return dev.SetFreeFallThreshold(ctx, accel.FreeFallThresholdToRegister(p.FreeFall.ThresholdG))
		}},
		{"free fall time", func() error {
			return dev.SetFreeFallTime(ctx, accel.FreeFallTimeToRegister(p.FreeFall.TimeMS))
		}},
		{"interrupts", func() error { return applyInterrupts(ctx, dev, p.Interrupts) }},
		{"link", func() error { return dev.SetLinkActivityInactivity(ctx, p.Power.Link) }},
		{"auto sleep", func() error { return dev.SetAutoSleep(ctx, p.Power.AutoSleep) }},
		{"sleep frequency", func() error { return dev.SetSleepFrequency(ctx, p.Power.SleepFrequency) }},
		{"sleep", func() error { return dev.SetSleep(ctx, false) }},
		{"measure", func() error { return dev.SetMeasure(ctx, true) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return fmt.Errorf("could not set %s: %w", s.name, err)
		}
	}
	return nil
}

func applyInterrupts(ctx context.Context, dev *accel.ADXL345, routes []Route) error {
	pins := map[accel.Interrupt]accel.InterruptPin{}
	for _, r := range routes {
		pins[r.Interrupt] = r.Pin
	}
	for _, it := range accel.Interrupts {
		pin, enabled := pins[it]
		if err := dev.SetInterruptMap(ctx, it, pin); err != nil {
			return err
		}
		if err := dev.SetInterruptEnable(ctx, it, enabled); err != nil {
			return err
		}
	}
	return nil
}
