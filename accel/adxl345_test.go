package accel

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hepingood/adxl345"
	"github.com/hepingood/adxl345/sim"
)

// MockTwoWire is a testify mock of adxl345.TwoWire
type MockTwoWire struct {
	mock.Mock
}

func (m *MockTwoWire) Open(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTwoWire) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTwoWire) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	args := m.Called(ctx, address, reg, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockTwoWire) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	return m.Called(ctx, address, reg, buffer).Error(0)
}

type fixture struct {
	dev    *ADXL345
	chip   *sim.Chip
	log    *bytes.Buffer
	delays []time.Duration
}

// diagnostics returns the number of log lines emitted so far
func (f *fixture) diagnostics() int {
	return strings.Count(f.log.String(), "\n")
}

func newFixture(t *testing.T, iface Interface) *fixture {
	t.Helper()
	f := &fixture{chip: sim.New(), log: &bytes.Buffer{}}
	f.dev = New(Bindings{
		Logger: slog.New(slog.NewTextHandler(f.log, nil)),
		IIC:    f.chip.I2C(byte(AddressAlt0)),
		SPI:    f.chip.SPI(),
		Delay: func(d time.Duration) {
			f.delays = append(f.delays, d)
		},
	}, WithInterface(iface))
	return f
}

func newInitialized(t *testing.T, iface Interface) *fixture {
	t.Helper()
	f := newFixture(t, iface)
	require.NoError(t, f.dev.Init(context.Background()))
	f.chip.ResetTransfers()
	return f
}

func TestEncodeSPIAddress(t *testing.T) {
	tests := []struct {
		name   string
		read   bool
		length int
		want   byte
	}{
		{name: "single read", read: true, length: 1, want: 0x80 | 0x31},
		{name: "burst read", read: true, length: 6, want: 0xC0 | 0x31},
		{name: "single write", read: false, length: 1, want: 0x31},
		{name: "burst write", read: false, length: 3, want: 0x40 | 0x31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeSPIAddress(0x31, tt.read, tt.length))
		})
	}
}

func TestInit(t *testing.T) {
	for _, iface := range []Interface{InterfaceIIC, InterfaceSPI} {
		t.Run(iface.String(), func(t *testing.T) {
			f := newFixture(t, iface)
			err := f.dev.Init(context.Background())
			require.NoError(t, err)
			assert.True(t, f.dev.Initialized())
			assert.Equal(t, 1, f.chip.Opens())
			assert.Equal(t, []sim.Transfer{{Reg: 0x00, Length: 1}}, f.chip.Transfers())
			assert.Zero(t, f.diagnostics())
		})
	}
}

func TestInit_MissingBindings(t *testing.T) {
	chip := sim.New()
	var log bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&log, nil))
	delay := func(time.Duration) {}

	tests := []struct {
		name     string
		bindings Bindings
		logged   int
	}{
		{name: "logger", bindings: Bindings{IIC: chip.I2C(0x53), SPI: chip.SPI(), Delay: delay}, logged: 0},
		{name: "two-wire", bindings: Bindings{Logger: logger, SPI: chip.SPI(), Delay: delay}, logged: 1},
		{name: "four-wire", bindings: Bindings{Logger: logger, IIC: chip.I2C(0x53), Delay: delay}, logged: 1},
		{name: "delay", bindings: Bindings{Logger: logger, IIC: chip.I2C(0x53), SPI: chip.SPI()}, logged: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.Reset()
			err := New(tt.bindings).Init(context.Background())
			assert.ErrorIs(t, err, adxl345.ErrMissingBinding)
			assert.Equal(t, tt.logged, strings.Count(log.String(), "\n"))
		})
	}
	assert.Zero(t, chip.Opens())
	assert.Empty(t, chip.Transfers())
}

func TestInit_IdentityMismatch(t *testing.T) {
	f := newFixture(t, InterfaceIIC)
	f.chip.SetDeviceID(0x42)

	err := f.dev.Init(context.Background())
	assert.ErrorIs(t, err, adxl345.ErrIdentityMismatch)
	assert.False(t, f.dev.Initialized())
	assert.Equal(t, 1, f.chip.Closes())
	assert.Len(t, f.chip.Transfers(), 1)
	assert.Equal(t, 1, f.diagnostics())
}

func TestInit_IdentityMismatchCloseFailure(t *testing.T) {
	f := newFixture(t, InterfaceIIC)
	f.chip.SetDeviceID(0x42)
	f.chip.FailClose(errors.New("bus held"))

	err := f.dev.Init(context.Background())
	assert.ErrorIs(t, err, adxl345.ErrIdentityMismatch)
	assert.NotErrorIs(t, err, adxl345.ErrTransfer)
	assert.Equal(t, 1, f.chip.Closes())
	assert.Equal(t, 2, f.diagnostics())
	assert.Contains(t, f.log.String(), "level=WARN")
	assert.Contains(t, f.log.String(), "bus held")
}

func TestInit_IdentityMismatchClosesOnce(t *testing.T) {
	bus := new(MockTwoWire)
	bus.On("Open", mock.Anything).Return(nil).Once()
	bus.On("ReadRegister", mock.Anything, byte(0x53), byte(0x00), mock.Anything).Return([]byte{0x00}, nil).Once()
	bus.On("Close", mock.Anything).Return(nil).Once()

	dev := New(Bindings{
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		IIC:    bus,
		SPI:    sim.New().SPI(),
		Delay:  func(time.Duration) {},
	})
	err := dev.Init(context.Background())
	assert.ErrorIs(t, err, adxl345.ErrIdentityMismatch)
	bus.AssertExpectations(t)
	bus.AssertNumberOfCalls(t, "Close", 1)
	bus.AssertNumberOfCalls(t, "WriteRegister", 0)
}

func TestInit_ReadFailure(t *testing.T) {
	f := newFixture(t, InterfaceIIC)
	f.chip.Fail(0x00, errors.New("nack"))

	err := f.dev.Init(context.Background())
	assert.ErrorIs(t, err, adxl345.ErrIdentityMismatch)
	assert.ErrorIs(t, err, adxl345.ErrTransfer)
	assert.Equal(t, 1, f.chip.Closes())
	assert.Equal(t, 1, f.diagnostics())
}

func TestInit_OpenFailure(t *testing.T) {
	f := newFixture(t, InterfaceSPI)
	f.chip.FailOpen(errors.New("no such device"))

	err := f.dev.Init(context.Background())
	assert.ErrorIs(t, err, adxl345.ErrTransfer)
	assert.Empty(t, f.chip.Transfers())
	assert.Zero(t, f.chip.Closes())
}

func TestGuards(t *testing.T) {
	ctx := context.Background()
	calls := map[string]func(d *ADXL345) error{
		"SetTapThreshold": func(d *ADXL345) error { return d.SetTapThreshold(ctx, 1) },
		"Offset": func(d *ADXL345) error {
			_, _, _, err := d.Offset(ctx)
			return err
		},
		"SetRate":  func(d *ADXL345) error { return d.SetRate(ctx, Rate100) },
		"SetRange": func(d *ADXL345) error { return d.SetRange(ctx, Range4G) },
		"SetWatermark": func(d *ADXL345) error {
			return d.SetWatermark(ctx, 99)
		},
		"Read": func(d *ADXL345) error {
			_, err := d.Read(ctx, make([]Sample, 1))
			return err
		},
		"Read empty": func(d *ADXL345) error {
			_, err := d.Read(ctx, nil)
			return err
		},
		"HandleInterrupt": func(d *ADXL345) error { return d.HandleInterrupt(ctx) },
		"Deinit":          func(d *ADXL345) error { return d.Deinit(ctx) },
		"Register":        func(d *ADXL345) error { return d.Register(ctx, 0x00, make([]byte, 1)) },
		"SelfTest": func(d *ADXL345) error {
			_, err := d.SelfTest(ctx, 1)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, InterfaceIIC)
			assert.ErrorIs(t, call(f.dev), adxl345.ErrNotInitialized)
			assert.ErrorIs(t, call(nil), adxl345.ErrInvalidHandle)
			assert.Empty(t, f.chip.Transfers())
			assert.Zero(t, f.chip.Opens())
			assert.Zero(t, f.diagnostics())
		})
	}
}

func TestDeinit(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceIIC)
	require.NoError(t, f.dev.SetMeasure(ctx, true))
	require.NoError(t, f.dev.SetSleepFrequency(ctx, SleepFrequency2Hz))

	require.NoError(t, f.dev.Deinit(ctx))
	power := f.chip.Register(0x2D)
	assert.Zero(t, power&(1<<3), "measure must be off")
	assert.NotZero(t, power&(1<<2), "sleep must be on")
	assert.Equal(t, byte(0x02), power&0x03, "sleep frequency kept")
	assert.Equal(t, 1, f.chip.Closes())
	assert.False(t, f.dev.Initialized())
	assert.ErrorIs(t, f.dev.SetMeasure(ctx, true), adxl345.ErrNotInitialized)
}

func TestDeinit_Failures(t *testing.T) {
	ctx := context.Background()
	t.Run("power down", func(t *testing.T) {
		f := newInitialized(t, InterfaceIIC)
		f.chip.Fail(0x2D, errors.New("bus stuck"))
		err := f.dev.Deinit(ctx)
		assert.ErrorIs(t, err, adxl345.ErrPowerDown)
		assert.ErrorIs(t, err, adxl345.ErrTransfer)
		assert.Zero(t, f.chip.Closes())
		assert.True(t, f.dev.Initialized())
		assert.Equal(t, 1, f.diagnostics())
	})
	t.Run("close", func(t *testing.T) {
		f := newInitialized(t, InterfaceSPI)
		f.chip.FailClose(errors.New("busy"))
		err := f.dev.Deinit(ctx)
		assert.ErrorIs(t, err, adxl345.ErrTransfer)
		assert.NotErrorIs(t, err, adxl345.ErrPowerDown)
		assert.Equal(t, 1, f.chip.Closes())
		assert.Equal(t, 1, f.diagnostics())
	})
}

func TestReadModifyWriteIsolation(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceIIC)
	d := f.dev

	require.NoError(t, d.SetFullResolution(ctx, true))
	require.NoError(t, d.SetJustify(ctx, JustifyLeft))
	require.NoError(t, d.SetInterruptActiveLevel(ctx, ActiveLow))
	require.NoError(t, d.SetRange(ctx, Range8G))
	require.NoError(t, d.SetSPIWire(ctx, SPIWire3))
	require.NoError(t, d.SetRange(ctx, Range2G))
	assert.Equal(t, byte(0b0110_1100), f.chip.Register(0x31))

	full, err := d.FullResolution(ctx)
	require.NoError(t, err)
	assert.True(t, full)
	justify, err := d.Justify(ctx)
	require.NoError(t, err)
	assert.Equal(t, JustifyLeft, justify)

	require.NoError(t, d.SetMode(ctx, ModeStream))
	require.NoError(t, d.SetWatermark(ctx, 16))
	require.NoError(t, d.SetTriggerPin(ctx, InterruptPin2))
	require.NoError(t, d.SetMode(ctx, ModeTrigger))
	assert.Equal(t, byte(0b1111_0000), f.chip.Register(0x38))
	watermark, err := d.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(16), watermark)

	require.NoError(t, d.SetActionInaction(ctx, ActionX, true))
	require.NoError(t, d.SetActionInaction(ctx, InactionZ, true))
	require.NoError(t, d.SetActionCoupled(ctx, CoupledAC))
	require.NoError(t, d.SetActionInaction(ctx, ActionX, false))
	assert.Equal(t, byte(0b1000_0001), f.chip.Register(0x27))
	coupled, err := d.InactionCoupled(ctx)
	require.NoError(t, err)
	assert.Equal(t, CoupledDC, coupled)

	require.NoError(t, d.SetTapAxis(ctx, TapAxisX, true))
	require.NoError(t, d.SetTapSuppress(ctx, true))
	require.NoError(t, d.SetTapAxis(ctx, TapAxisZ, true))
	assert.Equal(t, byte(0b0000_1101), f.chip.Register(0x2A))

	require.NoError(t, d.SetInterruptEnable(ctx, InterruptWatermark, true))
	require.NoError(t, d.SetInterruptEnable(ctx, InterruptDataReady, true))
	require.NoError(t, d.SetInterruptMap(ctx, InterruptWatermark, InterruptPin2))
	require.NoError(t, d.SetInterruptEnable(ctx, InterruptDataReady, false))
	assert.Equal(t, byte(0b0000_0010), f.chip.Register(0x2E))
	pin, err := d.InterruptMap(ctx, InterruptWatermark)
	require.NoError(t, err)
	assert.Equal(t, InterruptPin2, pin)

	require.NoError(t, d.SetLinkActivityInactivity(ctx, true))
	require.NoError(t, d.SetAutoSleep(ctx, true))
	require.NoError(t, d.SetSleepFrequency(ctx, SleepFrequency1Hz))
	require.NoError(t, d.SetMeasure(ctx, true))
	require.NoError(t, d.SetAutoSleep(ctx, false))
	assert.Equal(t, byte(0b0010_1011), f.chip.Register(0x2D))
	assert.Zero(t, f.diagnostics())
}

func TestSetRate_ClearsReservedBits(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceIIC)
	f.chip.Poke(0x2C, 0xE0|byte(Rate100))

	require.NoError(t, f.dev.SetRate(ctx, RateLowPower200))
	assert.Equal(t, byte(0x1B), f.chip.Register(0x2C))
	assert.Equal(t, []sim.Transfer{{Write: true, Reg: 0x2C, Length: 1}}, f.chip.Transfers())
	rate, err := f.dev.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, RateLowPower200, rate)

	assert.ErrorIs(t, f.dev.SetRate(ctx, Rate(0x10)), adxl345.ErrInvalidArgument)
}

func TestInvalidArguments(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceIIC)

	assert.ErrorIs(t, f.dev.SetWatermark(ctx, 32), adxl345.ErrInvalidArgument)
	assert.ErrorIs(t, f.dev.SetRange(ctx, Range(4)), adxl345.ErrInvalidArgument)
	assert.ErrorIs(t, f.dev.SetMode(ctx, Mode(4)), adxl345.ErrInvalidArgument)
	assert.ErrorIs(t, f.dev.SetTapAxis(ctx, TapAxis(3), true), adxl345.ErrInvalidArgument)
	assert.ErrorIs(t, f.dev.SetActionInaction(ctx, ActionInaction(3), true), adxl345.ErrInvalidArgument)
	assert.ErrorIs(t, f.dev.SetInterruptEnable(ctx, Interrupt(8), true), adxl345.ErrInvalidArgument)
	_, err := f.dev.Read(ctx, []Sample{})
	assert.ErrorIs(t, err, adxl345.ErrInvalidArgument)
	assert.Empty(t, f.chip.Transfers())
	assert.Equal(t, 7, f.diagnostics())
}

func TestOffset(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceSPI)

	require.NoError(t, f.dev.SetOffset(ctx, 1, -2, 127))
	x, y, z, err := f.dev.Offset(ctx)
	require.NoError(t, err)
	assert.Equal(t, [3]int8{1, -2, 127}, [3]int8{x, y, z})
	assert.Equal(t, byte(0xFE), f.chip.Register(0x1F))

	f.chip.Fail(0x1F, errors.New("nack"))
	f.chip.ResetTransfers()
	err = f.dev.SetOffset(ctx, 5, 6, 7)
	assert.ErrorIs(t, err, adxl345.ErrTransfer)
	assert.Equal(t, []sim.Transfer{
		{Write: true, Reg: 0x1E, Length: 1},
		{Write: true, Reg: 0x1F, Length: 1},
	}, f.chip.Transfers())
	assert.Equal(t, byte(5), f.chip.Register(0x1E))
	assert.Equal(t, byte(127), f.chip.Register(0x20))
}

func TestDirectRegisters(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceIIC)
	d := f.dev

	pairs := []struct {
		name string
		set  func(byte) error
		get  func() (byte, error)
		reg  byte
	}{
		{"tap threshold", func(v byte) error { return d.SetTapThreshold(ctx, v) }, func() (byte, error) { return d.TapThreshold(ctx) }, 0x1D},
		{"duration", func(v byte) error { return d.SetDuration(ctx, v) }, func() (byte, error) { return d.Duration(ctx) }, 0x21},
		{"latent", func(v byte) error { return d.SetLatent(ctx, v) }, func() (byte, error) { return d.Latent(ctx) }, 0x22},
		{"window", func(v byte) error { return d.SetWindow(ctx, v) }, func() (byte, error) { return d.Window(ctx) }, 0x23},
		{"action threshold", func(v byte) error { return d.SetActionThreshold(ctx, v) }, func() (byte, error) { return d.ActionThreshold(ctx) }, 0x24},
		{"inaction threshold", func(v byte) error { return d.SetInactionThreshold(ctx, v) }, func() (byte, error) { return d.InactionThreshold(ctx) }, 0x25},
		{"inaction time", func(v byte) error { return d.SetInactionTime(ctx, v) }, func() (byte, error) { return d.InactionTime(ctx) }, 0x26},
		{"free fall threshold", func(v byte) error { return d.SetFreeFallThreshold(ctx, v) }, func() (byte, error) { return d.FreeFallThreshold(ctx) }, 0x28},
		{"free fall time", func(v byte) error { return d.SetFreeFallTime(ctx, v) }, func() (byte, error) { return d.FreeFallTime(ctx) }, 0x29},
	}
	for i, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			value := byte(0x40 + i)
			require.NoError(t, p.set(value))
			assert.Equal(t, value, f.chip.Register(p.reg))
			got, err := p.get()
			require.NoError(t, err)
			assert.Equal(t, value, got)
		})
	}
}

func TestStatusRegisters(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceIIC)

	f.chip.Poke(0x2B, 0b0100_1001)
	status, err := f.dev.TapStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.ActivityX())
	assert.True(t, status.Asleep())
	assert.True(t, status.TapZ())
	assert.False(t, status.TapX())

	require.NoError(t, f.dev.SetMode(ctx, ModeTrigger))
	for i := 0; i < 5; i++ {
		f.chip.PushFIFO(1, 2, 3)
	}
	f.chip.Poke(0x39, 0x80)
	level, err := f.dev.WatermarkLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(5), level)
	trigger, err := f.dev.TriggerStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, Triggered, trigger)
}

func TestRawRegisterAccess(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t, InterfaceSPI)

	require.NoError(t, f.dev.SetRegister(ctx, 0x1D, []byte{0x30, 0x01, 0x02}))
	buf := make([]byte, 3)
	require.NoError(t, f.dev.Register(ctx, 0x1D, buf))
	assert.Equal(t, []byte{0x30, 0x01, 0x02}, buf)
}

func TestAddressPin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, InterfaceIIC)
	require.NoError(t, f.dev.SetAddressPin(AddressAlt1))
	pin, err := f.dev.AddressPin()
	require.NoError(t, err)
	assert.Equal(t, AddressAlt1, pin)

	err = f.dev.Init(ctx)
	assert.ErrorIs(t, err, adxl345.ErrIdentityMismatch)
	assert.ErrorIs(t, err, sim.ErrNoAck)

	var nilDev *ADXL345
	assert.ErrorIs(t, nilDev.SetAddressPin(AddressAlt0), adxl345.ErrInvalidHandle)
	assert.ErrorIs(t, nilDev.SetInterface(InterfaceSPI), adxl345.ErrInvalidHandle)
}

func TestChipInfo(t *testing.T) {
	info := ChipInfo()
	assert.Equal(t, "Analog Devices ADXL345", info.ChipName)
	assert.Equal(t, float32(3.6), info.SupplyVoltageMax)
	assert.Equal(t, DriverVersion, info.DriverVersion)
}
