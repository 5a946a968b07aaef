package accel

// Scale factors from the datasheet register descriptions.
const (
	thresholdScale = 0.0625 // g/LSB
	offsetScale    = 0.0156 // g/LSB
	durationScale  = 625    // us/LSB
	latentScale    = 1.25   // ms/LSB
	freeFallScale  = 5      // ms/LSB
)

// toByte truncates toward zero and clamps to the register range.
func toByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v)
}

func toInt8(v float32) int8 {
	switch {
	case v <= -128:
		return -128
	case v >= 127:
		return 127
	}
	return int8(v)
}

func TapThresholdToRegister(g float32) byte     { return toByte(g / thresholdScale) }
func TapThresholdFromRegister(reg byte) float32 { return float32(reg) * thresholdScale }

func ActionThresholdToRegister(g float32) byte     { return toByte(g / thresholdScale) }
func ActionThresholdFromRegister(reg byte) float32 { return float32(reg) * thresholdScale }

func InactionThresholdToRegister(g float32) byte     { return toByte(g / thresholdScale) }
func InactionThresholdFromRegister(reg byte) float32 { return float32(reg) * thresholdScale }

func FreeFallThresholdToRegister(g float32) byte     { return toByte(g / thresholdScale) }
func FreeFallThresholdFromRegister(reg byte) float32 { return float32(reg) * thresholdScale }

// OffsetToRegister converts an offset in g into the signed two's complement register value.
func OffsetToRegister(g float32) int8 {
	return toInt8(g / offsetScale)
}

func OffsetFromRegister(reg int8) float32 {
	return float32(reg) * offsetScale
}

// DurationToRegister converts the maximum tap duration in microseconds.
func DurationToRegister(us uint32) byte {
	if us/durationScale > 255 {
		return 255
	}
	return byte(us / durationScale)
}

func DurationFromRegister(reg byte) uint32 {
	return uint32(reg) * durationScale
}

// LatentToRegister converts the tap latency in milliseconds.
func LatentToRegister(ms float32) byte    { return toByte(ms / latentScale) }
func LatentFromRegister(reg byte) float32 { return float32(reg) * latentScale }

// WindowToRegister converts the double tap window in milliseconds.
func WindowToRegister(ms float32) byte    { return toByte(ms / latentScale) }
func WindowFromRegister(reg byte) float32 { return float32(reg) * latentScale }

// InactionTimeToRegister is the identity: TIME_INACT counts seconds.
func InactionTimeToRegister(seconds byte) byte { return seconds }
func InactionTimeFromRegister(reg byte) byte   { return reg }

// FreeFallTimeToRegister converts the free-fall time in milliseconds using integer division.
func FreeFallTimeToRegister(ms uint16) byte {
	if ms/freeFallScale > 255 {
		return 255
	}
	return byte(ms / freeFallScale)
}

func FreeFallTimeFromRegister(reg byte) uint16 {
	return uint16(reg) * freeFallScale
}
