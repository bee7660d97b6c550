package types

import "badge-go/x/mathx"

// Parameter maxima, matching the on-badge slider ranges.
const (
	MaxBrightness = 100
	MaxHue        = 360
	MaxSaturation = 100
	MaxSpeed      = 100
)

// LEDSettings is the payload of the retained config/leds message and the
// content of the persisted parameter file.
type LEDSettings struct {
	Effect     int
	Brightness int // 0..100
	Hue        int // 0..360, wraps
	Saturation int // 0..100
	Speed      int // 0..100
}

// DefaultLEDSettings returns the out-of-box parameter values.
func DefaultLEDSettings() LEDSettings {
	return LEDSettings{
		Effect:     0,
		Brightness: 10,
		Hue:        180,
		Saturation: 100,
		Speed:      30,
	}
}

// Clamped returns a copy with every field forced into range. The effect
// index is clamped against numEffects (<=0 means leave it non-negative only).
func (s LEDSettings) Clamped(numEffects int) LEDSettings {
	out := s
	if numEffects > 0 {
		out.Effect = mathx.Clamp(out.Effect, 0, numEffects-1)
	} else if out.Effect < 0 {
		out.Effect = 0
	}
	out.Brightness = mathx.Clamp(out.Brightness, 0, MaxBrightness)
	out.Hue = ((out.Hue % MaxHue) + MaxHue) % MaxHue
	out.Saturation = mathx.Clamp(out.Saturation, 0, MaxSaturation)
	out.Speed = mathx.Clamp(out.Speed, 0, MaxSpeed)
	return out
}
