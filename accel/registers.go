package accel

import (
	"fmt"
	"strings"
)

// ADXL345 register map (datasheet Table 19)
const (
	regDevID         = 0x00
	regThreshTap     = 0x1D
	regOfsX          = 0x1E
	regOfsY          = 0x1F
	regOfsZ          = 0x20
	regDur           = 0x21
	regLatent        = 0x22
	regWindow        = 0x23
	regThreshAct     = 0x24
	regThreshInact   = 0x25
	regTimeInact     = 0x26
	regActInactCtl   = 0x27
	regThreshFF      = 0x28
	regTimeFF        = 0x29
	regTapAxes       = 0x2A
	regActTapStatus  = 0x2B
	regBwRate        = 0x2C
	regPowerCtl      = 0x2D
	regIntEnable     = 0x2E
	regIntMap        = 0x2F
	regIntSource     = 0x30
	regDataFormat    = 0x31
	regDataX0        = 0x32
	regFIFOCtl       = 0x38
	regFIFOStatus    = 0x39
	deviceID         = 0xE5
	maxFIFOSamples   = 32
	bytesPerSample   = 6
	spiReadFlag      = 1 << 7
	spiMultiByteFlag = 1 << 6
)

// bit positions shared by more than one accessor
const (
	bitActionCoupled   = 7
	bitInactionCoupled = 3
	bitTapSuppress     = 3
	bitSelfTest        = 7
	bitSPIWire         = 6
	bitIntInvert       = 5
	bitFullResolution  = 3
	bitJustify         = 2
	bitTriggerPin      = 5
	bitTriggered       = 7
	bitLink            = 5
	bitAutoSleep       = 4
	bitMeasure         = 3
	bitSleep           = 2

	maskRange          = 0x03
	maskRate           = 0x1F
	maskMode           = 0xC0
	maskWatermark      = 0x1F
	maskFIFOEntries    = 0x3F
	maskSleepFrequency = 0x03
)

// Interface selects the physical bus the chip is wired to.
type Interface byte

const (
	InterfaceIIC Interface = 0x00
	InterfaceSPI Interface = 0x01
)

func (i Interface) String() string {
	switch i {
	case InterfaceIIC:
		return "IIC"
	case InterfaceSPI:
		return "SPI"
	default:
		return fmt.Sprintf("Interface(%d)", byte(i))
	}
}

// Address is the 7-bit I2C address selected by the ALT ADDRESS pin strap.
type Address byte

const (
	AddressAlt0 Address = 0x53 // ALT ADDRESS tied low
	AddressAlt1 Address = 0x1D // ALT ADDRESS tied high
)

func (a Address) String() string {
	return fmt.Sprintf("%#02x", byte(a))
}

// TapAxis is the bit index of an axis in TAP_AXES.
type TapAxis byte

const (
	TapAxisZ TapAxis = 0x00
	TapAxisY TapAxis = 0x01
	TapAxisX TapAxis = 0x02
)

func (a TapAxis) String() string {
	switch a {
	case TapAxisX:
		return "x"
	case TapAxisY:
		return "y"
	case TapAxisZ:
		return "z"
	default:
		return fmt.Sprintf("TapAxis(%d)", byte(a))
	}
}

// ActionInaction is the bit index of an axis enable in ACT_INACT_CTL.
type ActionInaction byte

const (
	InactionZ ActionInaction = 0x00
	InactionY ActionInaction = 0x01
	InactionX ActionInaction = 0x02
	ActionZ   ActionInaction = 0x04
	ActionY   ActionInaction = 0x05
	ActionX   ActionInaction = 0x06
)

func (a ActionInaction) String() string {
	switch a {
	case ActionX:
		return "action-x"
	case ActionY:
		return "action-y"
	case ActionZ:
		return "action-z"
	case InactionX:
		return "inaction-x"
	case InactionY:
		return "inaction-y"
	case InactionZ:
		return "inaction-z"
	default:
		return fmt.Sprintf("ActionInaction(%d)", byte(a))
	}
}

// Coupled selects dc or ac coupled activity/inactivity detection.
type Coupled byte

const (
	CoupledDC Coupled = 0x00
	CoupledAC Coupled = 0x01
)

func (c Coupled) String() string {
	if c == CoupledAC {
		return "ac"
	}
	return "dc"
}

func (c Coupled) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coupled) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "ac":
		*c = CoupledAC
	case "dc":
		*c = CoupledDC
	default:
		return fmt.Errorf("unknown coupling %q", string(text))
	}
	return nil
}

// Rate is the BW_RATE code; bit 4 selects reduced power operation.
type Rate byte

const (
	Rate0P1          Rate = 0x00
	Rate0P2          Rate = 0x01
	Rate0P39         Rate = 0x02
	Rate0P78         Rate = 0x03
	Rate1P56         Rate = 0x04
	Rate3P13         Rate = 0x05
	Rate6P25         Rate = 0x06
	Rate12P5         Rate = 0x07
	Rate25           Rate = 0x08
	Rate50           Rate = 0x09
	Rate100          Rate = 0x0A
	Rate200          Rate = 0x0B
	Rate400          Rate = 0x0C
	Rate800          Rate = 0x0D
	Rate1600         Rate = 0x0E
	Rate3200         Rate = 0x0F
	RateLowPower12P5 Rate = 0x17
	RateLowPower25   Rate = 0x18
	RateLowPower50   Rate = 0x19
	RateLowPower100  Rate = 0x1A
	RateLowPower200  Rate = 0x1B
	RateLowPower400  Rate = 0x1C
)

var rateNames = map[Rate]string{
	Rate0P1:          "0.1Hz",
	Rate0P2:          "0.2Hz",
	Rate0P39:         "0.39Hz",
	Rate0P78:         "0.78Hz",
	Rate1P56:         "1.56Hz",
	Rate3P13:         "3.13Hz",
	Rate6P25:         "6.25Hz",
	Rate12P5:         "12.5Hz",
	Rate25:           "25Hz",
	Rate50:           "50Hz",
	Rate100:          "100Hz",
	Rate200:          "200Hz",
	Rate400:          "400Hz",
	Rate800:          "800Hz",
	Rate1600:         "1600Hz",
	Rate3200:         "3200Hz",
	RateLowPower12P5: "12.5Hz-low-power",
	RateLowPower25:   "25Hz-low-power",
	RateLowPower50:   "50Hz-low-power",
	RateLowPower100:  "100Hz-low-power",
	RateLowPower200:  "200Hz-low-power",
	RateLowPower400:  "400Hz-low-power",
}

// Hz returns the output data rate in hertz, or 0 for unknown codes.
func (r Rate) Hz() float64 {
	if _, ok := rateNames[r]; !ok {
		return 0
	}
	if r&0x10 != 0 {
		r &^= 0x10
	}
	return 3200 / float64(uint(1)<<(0x0F-byte(r)))
}

func (r Rate) String() string {
	if name, ok := rateNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rate(%#02x)", byte(r))
}

// MarshalText and UnmarshalText let profiles name rates as in String.
func (r Rate) MarshalText() ([]byte, error) {
	if _, ok := rateNames[r]; !ok {
		return nil, fmt.Errorf("unknown rate code %#02x", byte(r))
	}
	return []byte(r.String()), nil
}

func (r *Rate) UnmarshalText(text []byte) error {
	parsed, err := ParseRate(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRate accepts the names returned by Rate.String (case insensitive).
func ParseRate(s string) (Rate, error) {
	for rate, name := range rateNames {
		if strings.EqualFold(name, s) {
			return rate, nil
		}
	}
	return 0, fmt.Errorf("unknown rate %q", s)
}

// Interrupt is the bit index of an interrupt in INT_ENABLE, INT_MAP and INT_SOURCE.
type Interrupt byte

const (
	InterruptOverrun    Interrupt = 0
	InterruptWatermark  Interrupt = 1
	InterruptFreeFall   Interrupt = 2
	InterruptInactivity Interrupt = 3
	InterruptActivity   Interrupt = 4
	InterruptDoubleTap  Interrupt = 5
	InterruptSingleTap  Interrupt = 6
	InterruptDataReady  Interrupt = 7
)

// Interrupts lists every interrupt in dispatch order (highest bit first).
var Interrupts = [...]Interrupt{
	InterruptDataReady,
	InterruptSingleTap,
	InterruptDoubleTap,
	InterruptActivity,
	InterruptInactivity,
	InterruptFreeFall,
	InterruptWatermark,
	InterruptOverrun,
}

var interruptNames = map[Interrupt]string{
	InterruptDataReady:  "data-ready",
	InterruptSingleTap:  "single-tap",
	InterruptDoubleTap:  "double-tap",
	InterruptActivity:   "activity",
	InterruptInactivity: "inactivity",
	InterruptFreeFall:   "free-fall",
	InterruptWatermark:  "watermark",
	InterruptOverrun:    "overrun",
}

func (i Interrupt) String() string {
	if name, ok := interruptNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Interrupt(%d)", byte(i))
}

func (i Interrupt) MarshalText() ([]byte, error) {
	if _, ok := interruptNames[i]; !ok {
		return nil, fmt.Errorf("unknown interrupt %d", byte(i))
	}
	return []byte(i.String()), nil
}

func (i *Interrupt) UnmarshalText(text []byte) error {
	for it, name := range interruptNames {
		if strings.EqualFold(name, string(text)) {
			*i = it
			return nil
		}
	}
	return fmt.Errorf("unknown interrupt %q", string(text))
}

// InterruptPin routes an interrupt to INT1 or INT2.
type InterruptPin byte

const (
	InterruptPin1 InterruptPin = 0x00
	InterruptPin2 InterruptPin = 0x01
)

func (p InterruptPin) String() string {
	if p == InterruptPin2 {
		return "INT2"
	}
	return "INT1"
}

func (p InterruptPin) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *InterruptPin) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "INT1", "1":
		*p = InterruptPin1
	case "INT2", "2":
		*p = InterruptPin2
	default:
		return fmt.Errorf("unknown interrupt pin %q", string(text))
	}
	return nil
}

// ActiveLevel is the electrical polarity of the interrupt pins.
type ActiveLevel byte

const (
	ActiveHigh ActiveLevel = 0x00
	ActiveLow  ActiveLevel = 0x01
)

func (l ActiveLevel) String() string {
	if l == ActiveLow {
		return "low"
	}
	return "high"
}

// SPIWire selects 4-wire or 3-wire SPI mode.
type SPIWire byte

const (
	SPIWire4 SPIWire = 0x00
	SPIWire3 SPIWire = 0x01
)

func (w SPIWire) String() string {
	if w == SPIWire3 {
		return "3-wire"
	}
	return "4-wire"
}

// Justify selects right (sign extended) or left (MSB) justified samples.
type Justify byte

const (
	JustifyRight Justify = 0x00
	JustifyLeft  Justify = 0x01
)

func (j Justify) String() string {
	if j == JustifyLeft {
		return "left"
	}
	return "right"
}

// Range is the g range code in DATA_FORMAT.
type Range byte

const (
	Range2G  Range = 0x00
	Range4G  Range = 0x01
	Range8G  Range = 0x02
	Range16G Range = 0x03
)

func (r Range) String() string {
	switch r {
	case Range2G:
		return "2g"
	case Range4G:
		return "4g"
	case Range8G:
		return "8g"
	case Range16G:
		return "16g"
	default:
		return fmt.Sprintf("Range(%d)", byte(r))
	}
}

func (r Range) MarshalText() ([]byte, error) {
	if r > Range16G {
		return nil, fmt.Errorf("unknown range code %d", byte(r))
	}
	return []byte(r.String()), nil
}

func (r *Range) UnmarshalText(text []byte) error {
	parsed, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func ParseRange(s string) (Range, error) {
	for r := Range2G; r <= Range16G; r++ {
		if strings.EqualFold(r.String(), s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown range %q", s)
}

// Mode is the FIFO mode in FIFO_CTL.
type Mode byte

const (
	ModeBypass  Mode = 0x00
	ModeFIFO    Mode = 0x01
	ModeStream  Mode = 0x02
	ModeTrigger Mode = 0x03
)

func (m Mode) String() string {
	switch m {
	case ModeBypass:
		return "bypass"
	case ModeFIFO:
		return "fifo"
	case ModeStream:
		return "stream"
	case ModeTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	if m > ModeTrigger {
		return nil, fmt.Errorf("unknown mode code %d", byte(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParseMode(s string) (Mode, error) {
	for m := ModeBypass; m <= ModeTrigger; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// SleepFrequency is the sampling frequency used while in sleep mode.
type SleepFrequency byte

const (
	SleepFrequency8Hz SleepFrequency = 0x00
	SleepFrequency4Hz SleepFrequency = 0x01
	SleepFrequency2Hz SleepFrequency = 0x02
	SleepFrequency1Hz SleepFrequency = 0x03
)

func (f SleepFrequency) String() string {
	return fmt.Sprintf("%dHz", 8>>byte(f&maskSleepFrequency))
}

// TriggerStatus reports whether a trigger event occurred in trigger mode.
type TriggerStatus byte

const (
	NotTriggered TriggerStatus = 0x00
	Triggered    TriggerStatus = 0x01
)

func (s TriggerStatus) String() string {
	if s == Triggered {
		return "triggered"
	}
	return "not-triggered"
}

// TapStatus is the raw ACT_TAP_STATUS register.
type TapStatus byte

func (s TapStatus) ActivityX() bool { return s&(1<<6) != 0 }
func (s TapStatus) ActivityY() bool { return s&(1<<5) != 0 }
func (s TapStatus) ActivityZ() bool { return s&(1<<4) != 0 }
func (s TapStatus) Asleep() bool    { return s&(1<<3) != 0 }
func (s TapStatus) TapX() bool      { return s&(1<<2) != 0 }
func (s TapStatus) TapY() bool      { return s&(1<<1) != 0 }
func (s TapStatus) TapZ() bool      { return s&(1<<0) != 0 }
