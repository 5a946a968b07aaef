package accel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdConversion(t *testing.T) {
	for _, g := range []float32{0, 0.0625, 0.8, 1, 2, 3, 15.9375} {
		reg := TapThresholdToRegister(g)
		assert.InDelta(t, g, TapThresholdFromRegister(reg), 0.0625, "threshold %v", g)
		assert.Equal(t, reg, ActionThresholdToRegister(g))
		assert.Equal(t, reg, InactionThresholdToRegister(g))
		assert.Equal(t, reg, FreeFallThresholdToRegister(g))
	}
	assert.Equal(t, byte(48), TapThresholdToRegister(3))
	assert.Equal(t, byte(12), FreeFallThresholdToRegister(0.8))
	assert.Equal(t, byte(255), ActionThresholdToRegister(100))
	assert.Equal(t, byte(0), InactionThresholdToRegister(-1))
}

func TestOffsetConversion(t *testing.T) {
	for _, g := range []float32{-1.9, -0.5, 0, 0.5, 1.98} {
		reg := OffsetToRegister(g)
		assert.InDelta(t, g, OffsetFromRegister(reg), 0.0156, "offset %v", g)
	}
	assert.Equal(t, int8(-32), OffsetToRegister(-0.5))
	assert.Equal(t, int8(127), OffsetToRegister(5))
	assert.Equal(t, int8(-128), OffsetToRegister(-5))
}

func TestTimingConversion(t *testing.T) {
	assert.Equal(t, byte(16), DurationToRegister(10000))
	assert.Equal(t, uint32(10000), DurationFromRegister(16))
	assert.Equal(t, byte(1), DurationToRegister(1249), "truncates")
	assert.Equal(t, byte(255), DurationToRegister(1_000_000))

	assert.Equal(t, byte(16), LatentToRegister(20))
	assert.Equal(t, float32(20), LatentFromRegister(16))
	assert.Equal(t, byte(64), WindowToRegister(80))
	assert.Equal(t, float32(80), WindowFromRegister(64))

	assert.Equal(t, byte(2), FreeFallTimeToRegister(10))
	assert.Equal(t, byte(2), FreeFallTimeToRegister(14), "integer division")
	assert.Equal(t, uint16(10), FreeFallTimeFromRegister(2))
	assert.Equal(t, uint16(1275), FreeFallTimeFromRegister(255))
	assert.Equal(t, byte(255), FreeFallTimeToRegister(60000))

	assert.Equal(t, byte(3), InactionTimeToRegister(3))
	assert.Equal(t, byte(3), InactionTimeFromRegister(3))
}

func TestTimingRoundTrip(t *testing.T) {
	for reg := 0; reg <= 255; reg++ {
		b := byte(reg)
		assert.Equal(t, b, DurationToRegister(DurationFromRegister(b)))
		assert.Equal(t, b, FreeFallTimeToRegister(FreeFallTimeFromRegister(b)))
		assert.Equal(t, b, LatentToRegister(LatentFromRegister(b)))
		assert.Equal(t, b, WindowToRegister(WindowFromRegister(b)))
	}
}

func TestEnumText(t *testing.T) {
	r, err := ParseRate("100hz")
	assert.NoError(t, err)
	assert.Equal(t, Rate100, r)
	assert.Equal(t, 12.5, RateLowPower12P5.Hz())
	assert.Equal(t, 3200.0, Rate3200.Hz())

	rng, err := ParseRange("16G")
	assert.NoError(t, err)
	assert.Equal(t, Range16G, rng)

	mode, err := ParseMode("stream")
	assert.NoError(t, err)
	assert.Equal(t, ModeStream, mode)

	_, err = ParseMode("ring")
	assert.Error(t, err)

	var it Interrupt
	assert.NoError(t, it.UnmarshalText([]byte("double-tap")))
	assert.Equal(t, InterruptDoubleTap, it)
	assert.Equal(t, "8Hz", SleepFrequency8Hz.String())
	assert.Equal(t, "1Hz", SleepFrequency1Hz.String())
}
