package accel

import (
	"context"
)

// Register accessors. Values are raw register encodings; see convert.go for unit conversions.
// Bitfield setters read the register, replace only their own bits and write it back.

func (d *ADXL345) SetTapThreshold(ctx context.Context, threshold byte) error {
	return d.set(ctx, regThreshTap, threshold)
}

func (d *ADXL345) TapThreshold(ctx context.Context) (byte, error) {
	return d.get(ctx, regThreshTap)
}

// SetOffset writes the x, y and z offset registers in order and stops at the first failure.
func (d *ADXL345) SetOffset(ctx context.Context, x, y, z int8) error {
	for i, value := range [3]int8{x, y, z} {
		if err := d.set(ctx, regOfsX+byte(i), byte(value)); err != nil {
			return err
		}
	}
	return nil
}

func (d *ADXL345) Offset(ctx context.Context) (x, y, z int8, err error) {
	var values [3]int8
	for i := range values {
		value, err := d.get(ctx, regOfsX+byte(i))
		if err != nil {
			return 0, 0, 0, err
		}
		values[i] = int8(value)
	}
	return values[0], values[1], values[2], nil
}

func (d *ADXL345) SetDuration(ctx context.Context, duration byte) error {
	return d.set(ctx, regDur, duration)
}

func (d *ADXL345) Duration(ctx context.Context) (byte, error) {
	return d.get(ctx, regDur)
}

func (d *ADXL345) SetLatent(ctx context.Context, latent byte) error {
	return d.set(ctx, regLatent, latent)
}

func (d *ADXL345) Latent(ctx context.Context) (byte, error) {
	return d.get(ctx, regLatent)
}

func (d *ADXL345) SetWindow(ctx context.Context, window byte) error {
	return d.set(ctx, regWindow, window)
}

func (d *ADXL345) Window(ctx context.Context) (byte, error) {
	return d.get(ctx, regWindow)
}

func (d *ADXL345) SetActionThreshold(ctx context.Context, threshold byte) error {
	return d.set(ctx, regThreshAct, threshold)
}

func (d *ADXL345) ActionThreshold(ctx context.Context) (byte, error) {
	return d.get(ctx, regThreshAct)
}

func (d *ADXL345) SetInactionThreshold(ctx context.Context, threshold byte) error {
	return d.set(ctx, regThreshInact, threshold)
}

func (d *ADXL345) InactionThreshold(ctx context.Context) (byte, error) {
	return d.get(ctx, regThreshInact)
}

func (d *ADXL345) SetInactionTime(ctx context.Context, seconds byte) error {
	return d.set(ctx, regTimeInact, seconds)
}

func (d *ADXL345) InactionTime(ctx context.Context) (byte, error) {
	return d.get(ctx, regTimeInact)
}

func (d *ADXL345) SetFreeFallThreshold(ctx context.Context, threshold byte) error {
	return d.set(ctx, regThreshFF, threshold)
}

func (d *ADXL345) FreeFallThreshold(ctx context.Context) (byte, error) {
	return d.get(ctx, regThreshFF)
}

func (d *ADXL345) SetFreeFallTime(ctx context.Context, value byte) error {
	return d.set(ctx, regTimeFF, value)
}

func (d *ADXL345) FreeFallTime(ctx context.Context) (byte, error) {
	return d.get(ctx, regTimeFF)
}

// ACT_INACT_CTL

func validActionInaction(t ActionInaction) bool {
	return t <= ActionX && t != 3
}

func (d *ADXL345) SetActionInaction(ctx context.Context, t ActionInaction, enable bool) error {
	if !validActionInaction(t) {
		return d.invalid("action/inaction axis %d", byte(t))
	}
	return d.setBit(ctx, regActInactCtl, byte(t), enable)
}

func (d *ADXL345) ActionInaction(ctx context.Context, t ActionInaction) (bool, error) {
	if !validActionInaction(t) {
		return false, d.invalid("action/inaction axis %d", byte(t))
	}
	return d.bit(ctx, regActInactCtl, byte(t))
}

func (d *ADXL345) SetActionCoupled(ctx context.Context, coupled Coupled) error {
	return d.setBit(ctx, regActInactCtl, bitActionCoupled, coupled == CoupledAC)
}

func (d *ADXL345) ActionCoupled(ctx context.Context) (Coupled, error) {
	ac, err := d.bit(ctx, regActInactCtl, bitActionCoupled)
	return coupledFrom(ac), err
}

func (d *ADXL345) SetInactionCoupled(ctx context.Context, coupled Coupled) error {
	return d.setBit(ctx, regActInactCtl, bitInactionCoupled, coupled == CoupledAC)
}

func (d *ADXL345) InactionCoupled(ctx context.Context) (Coupled, error) {
	ac, err := d.bit(ctx, regActInactCtl, bitInactionCoupled)
	return coupledFrom(ac), err
}

func coupledFrom(ac bool) Coupled {
	if ac {
		return CoupledAC
	}
	return CoupledDC
}

// TAP_AXES

func (d *ADXL345) SetTapAxis(ctx context.Context, axis TapAxis, enable bool) error {
	if axis > TapAxisX {
		return d.invalid("tap axis %d", byte(axis))
	}
	return d.setBit(ctx, regTapAxes, byte(axis), enable)
}

func (d *ADXL345) TapAxis(ctx context.Context, axis TapAxis) (bool, error) {
	if axis > TapAxisX {
		return false, d.invalid("tap axis %d", byte(axis))
	}
	return d.bit(ctx, regTapAxes, byte(axis))
}

func (d *ADXL345) SetTapSuppress(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regTapAxes, bitTapSuppress, enable)
}

func (d *ADXL345) TapSuppress(ctx context.Context) (bool, error) {
	return d.bit(ctx, regTapAxes, bitTapSuppress)
}

// TapStatus reads ACT_TAP_STATUS: the axes involved in the last activity or tap event and the sleep state.
func (d *ADXL345) TapStatus(ctx context.Context) (TapStatus, error) {
	status, err := d.get(ctx, regActTapStatus)
	return TapStatus(status), err
}

// BW_RATE

// SetRate writes the rate code and low power bit. Reserved bits 5-7 are written as zero.
func (d *ADXL345) SetRate(ctx context.Context, rate Rate) error {
	if _, ok := rateNames[rate]; !ok {
		return d.invalid("rate code %#02x", byte(rate))
	}
	return d.set(ctx, regBwRate, byte(rate)&maskRate)
}

func (d *ADXL345) Rate(ctx context.Context) (Rate, error) {
	rate, err := d.field(ctx, regBwRate, maskRate)
	return Rate(rate), err
}

// INT_ENABLE / INT_MAP / INT_SOURCE

func (d *ADXL345) SetInterruptEnable(ctx context.Context, it Interrupt, enable bool) error {
	if it > InterruptDataReady {
		return d.invalid("interrupt %d", byte(it))
	}
	return d.setBit(ctx, regIntEnable, byte(it), enable)
}

func (d *ADXL345) InterruptEnable(ctx context.Context, it Interrupt) (bool, error) {
	if it > InterruptDataReady {
		return false, d.invalid("interrupt %d", byte(it))
	}
	return d.bit(ctx, regIntEnable, byte(it))
}

func (d *ADXL345) SetInterruptMap(ctx context.Context, it Interrupt, pin InterruptPin) error {
	if it > InterruptDataReady {
		return d.invalid("interrupt %d", byte(it))
	}
	return d.setBit(ctx, regIntMap, byte(it), pin == InterruptPin2)
}

func (d *ADXL345) InterruptMap(ctx context.Context, it Interrupt) (InterruptPin, error) {
	if it > InterruptDataReady {
		return InterruptPin1, d.invalid("interrupt %d", byte(it))
	}
	int2, err := d.bit(ctx, regIntMap, byte(it))
	if int2 {
		return InterruptPin2, err
	}
	return InterruptPin1, err
}

// InterruptSource reads INT_SOURCE. The chip clears the event bits on read.
func (d *ADXL345) InterruptSource(ctx context.Context) (byte, error) {
	return d.get(ctx, regIntSource)
}

// DATA_FORMAT

// SetSelfTest applies the self-test electrostatic force.
func (d *ADXL345) SetSelfTest(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regDataFormat, bitSelfTest, enable)
}

func (d *ADXL345) SelfTestEnabled(ctx context.Context) (bool, error) {
	return d.bit(ctx, regDataFormat, bitSelfTest)
}

func (d *ADXL345) SetSPIWire(ctx context.Context, wire SPIWire) error {
	return d.setBit(ctx, regDataFormat, bitSPIWire, wire == SPIWire3)
}

func (d *ADXL345) SPIWire(ctx context.Context) (SPIWire, error) {
	three, err := d.bit(ctx, regDataFormat, bitSPIWire)
	if three {
		return SPIWire3, err
	}
	return SPIWire4, err
}

func (d *ADXL345) SetInterruptActiveLevel(ctx context.Context, level ActiveLevel) error {
	return d.setBit(ctx, regDataFormat, bitIntInvert, level == ActiveLow)
}

func (d *ADXL345) InterruptActiveLevel(ctx context.Context) (ActiveLevel, error) {
	low, err := d.bit(ctx, regDataFormat, bitIntInvert)
	if low {
		return ActiveLow, err
	}
	return ActiveHigh, err
}

func (d *ADXL345) SetFullResolution(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regDataFormat, bitFullResolution, enable)
}

func (d *ADXL345) FullResolution(ctx context.Context) (bool, error) {
	return d.bit(ctx, regDataFormat, bitFullResolution)
}

func (d *ADXL345) SetJustify(ctx context.Context, justify Justify) error {
	return d.setBit(ctx, regDataFormat, bitJustify, justify == JustifyLeft)
}

func (d *ADXL345) Justify(ctx context.Context) (Justify, error) {
	left, err := d.bit(ctx, regDataFormat, bitJustify)
	if left {
		return JustifyLeft, err
	}
	return JustifyRight, err
}

func (d *ADXL345) SetRange(ctx context.Context, r Range) error {
	if r > Range16G {
		return d.invalid("range %d", byte(r))
	}
	return d.update(ctx, regDataFormat, maskRange, byte(r))
}

func (d *ADXL345) Range(ctx context.Context) (Range, error) {
	r, err := d.field(ctx, regDataFormat, maskRange)
	return Range(r), err
}

// FIFO_CTL / FIFO_STATUS

func (d *ADXL345) SetMode(ctx context.Context, mode Mode) error {
	if mode > ModeTrigger {
		return d.invalid("mode %d", byte(mode))
	}
	return d.update(ctx, regFIFOCtl, maskMode, byte(mode)<<6)
}

func (d *ADXL345) Mode(ctx context.Context) (Mode, error) {
	mode, err := d.field(ctx, regFIFOCtl, maskMode)
	return Mode(mode >> 6), err
}

// SetTriggerPin selects the interrupt pin that feeds the trigger event in trigger mode.
func (d *ADXL345) SetTriggerPin(ctx context.Context, pin InterruptPin) error {
	return d.setBit(ctx, regFIFOCtl, bitTriggerPin, pin == InterruptPin2)
}

func (d *ADXL345) TriggerPin(ctx context.Context) (InterruptPin, error) {
	int2, err := d.bit(ctx, regFIFOCtl, bitTriggerPin)
	if int2 {
		return InterruptPin2, err
	}
	return InterruptPin1, err
}

// SetWatermark sets the FIFO sample count that raises the watermark interrupt (0-31).
func (d *ADXL345) SetWatermark(ctx context.Context, level byte) error {
	if level > maskWatermark {
		return d.invalid("watermark %d exceeds %d", level, maskWatermark)
	}
	return d.update(ctx, regFIFOCtl, maskWatermark, level)
}

func (d *ADXL345) Watermark(ctx context.Context) (byte, error) {
	return d.field(ctx, regFIFOCtl, maskWatermark)
}

// WatermarkLevel returns the number of samples currently held in the FIFO.
func (d *ADXL345) WatermarkLevel(ctx context.Context) (byte, error) {
	return d.field(ctx, regFIFOStatus, maskFIFOEntries)
}

func (d *ADXL345) TriggerStatus(ctx context.Context) (TriggerStatus, error) {
	triggered, err := d.bit(ctx, regFIFOStatus, bitTriggered)
	if triggered {
		return Triggered, err
	}
	return NotTriggered, err
}

// POWER_CTL

func (d *ADXL345) SetLinkActivityInactivity(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regPowerCtl, bitLink, enable)
}

func (d *ADXL345) LinkActivityInactivity(ctx context.Context) (bool, error) {
	return d.bit(ctx, regPowerCtl, bitLink)
}

func (d *ADXL345) SetAutoSleep(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regPowerCtl, bitAutoSleep, enable)
}

func (d *ADXL345) AutoSleep(ctx context.Context) (bool, error) {
	return d.bit(ctx, regPowerCtl, bitAutoSleep)
}

func (d *ADXL345) SetMeasure(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regPowerCtl, bitMeasure, enable)
}

func (d *ADXL345) Measure(ctx context.Context) (bool, error) {
	return d.bit(ctx, regPowerCtl, bitMeasure)
}

func (d *ADXL345) SetSleep(ctx context.Context, enable bool) error {
	return d.setBit(ctx, regPowerCtl, bitSleep, enable)
}

func (d *ADXL345) Sleep(ctx context.Context) (bool, error) {
	return d.bit(ctx, regPowerCtl, bitSleep)
}

func (d *ADXL345) SetSleepFrequency(ctx context.Context, frequency SleepFrequency) error {
	if frequency > SleepFrequency1Hz {
		return d.invalid("sleep frequency %d", byte(frequency))
	}
	return d.update(ctx, regPowerCtl, maskSleepFrequency, byte(frequency))
}

func (d *ADXL345) SleepFrequency(ctx context.Context) (SleepFrequency, error) {
	frequency, err := d.field(ctx, regPowerCtl, maskSleepFrequency)
	return SleepFrequency(frequency), err
}
