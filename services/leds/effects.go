package leds

import (
	"image/color"
	"math"

	"badge-go/types"
	"badge-go/x/colorx"
)

// FPS is the ring frame rate.
const FPS = 50

// EffectFn renders one frame in place. st is the effect's opaque state from
// the previous frame (nil on first call or after an effect switch); the
// return value is next frame's state.
type EffectFn func(frame []color.RGBA, st any, s types.LEDSettings) any

type Effect struct {
	Name string
	Fn   EffectFn
}

var effects []Effect

// Built in init: the autocycle entry refers back to the registry.
func init() {
	effects = []Effect{
		{"Off", effectOff},
		{"Rainbow", effectRainbow},
		{"Breathe", effectBreathe},
		{"Comet", effectComet},
		{"Rainbow Comet", effectRainbowComet},
		{"Ping-Pong", effectPingPong},
		{"Dual Hue", effectDualHue},
		{"Aurora", effectAurora},
		{"Spiral Spin", effectSpiralSpin},
		{"Cycle All", effectCycleAll},
	}
}

// Effects returns the effect names in selection order.
func Effects() []string {
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = e.Name
	}
	return names
}

// NumEffects is used to clamp the configured effect index.
func NumEffects() int { return len(effects) }

func brightOf(s types.LEDSettings) float32 { return float32(s.Brightness) / 100 }
func satOf(s types.LEDSettings) float32    { return float32(s.Saturation) / 100 }
func hueOf(s types.LEDSettings) float32    { return float32(s.Hue) }
func speedOf(s types.LEDSettings) float32  { return float32(s.Speed) }

// tailFade is shared by the comet-style effects: faster speed keeps less of
// the tail.
func tailFade(s types.LEDSettings) float32 {
	return 0.5 + float32(types.MaxSpeed-s.Speed)/float32(types.MaxSpeed)*0.4
}

func fadeAll(frame []color.RGBA, k float32) {
	for i := range frame {
		frame[i] = colorx.Scale(frame[i], k)
	}
}

func fmod360(x float32) float32 {
	for x >= 360 {
		x -= 360
	}
	for x < 0 {
		x += 360
	}
	return x
}

// -----------------------------------------------------------------------------
// Effects
// -----------------------------------------------------------------------------

func effectOff(frame []color.RGBA, st any, _ types.LEDSettings) any {
	for i := range frame {
		frame[i] = color.RGBA{A: 255}
	}
	return st
}

// Rainbow running around the circle.
func effectRainbow(frame []color.RGBA, st any, s types.LEDSettings) any {
	pos, _ := st.(float32)
	n := len(frame)
	for i := range frame {
		hue := fmod360(float32(i*360/n) + pos)
		frame[i] = colorx.HSV(hue, satOf(s), brightOf(s))
	}
	return fmod360(pos + speedOf(s)/10)
}

type breatheState struct {
	br  float32
	dir float32
}

// All LEDs smoothly brighten and dim.
func effectBreathe(frame []color.RGBA, st any, s types.LEDSettings) any {
	b, ok := st.(breatheState)
	if !ok {
		b = breatheState{br: 0, dir: 1}
	}
	rgb := colorx.HSV(hueOf(s), satOf(s), b.br*brightOf(s))
	for i := range frame {
		frame[i] = rgb
	}
	b.br += b.dir * speedOf(s) / 1000
	if b.br >= 1 {
		b.br, b.dir = 1, -1
	} else if b.br <= 0 {
		b.br, b.dir = 0, 1
	}
	return b
}

// Single bright dot with fading tail.
func effectComet(frame []color.RGBA, st any, s types.LEDSettings) any {
	pos, _ := st.(float32)
	head := int(pos) % len(frame)
	fadeAll(frame, tailFade(s))
	frame[head] = colorx.HSV(hueOf(s), satOf(s), brightOf(s))
	return wrapPos(pos+speedOf(s)/100, len(frame))
}

// wrapPos keeps a position accumulator inside [0, n). Left unbounded it
// eventually exceeds float32 integer precision and stops advancing.
func wrapPos(pos float32, n int) float32 {
	for pos >= float32(n) {
		pos -= float32(n)
	}
	return pos
}

// wrapPhase keeps a phase accumulator inside [0, period), for the same
// precision reason as wrapPos. period must be a full cycle of every term
// the phase feeds.
func wrapPhase(x, period float32) float32 {
	for x >= period {
		x -= period
	}
	return x
}

type rainbowCometState struct {
	pos float32
	hue float32
}

// A comet whose color cycles through the rainbow; the fading tail keeps the
// past hues.
func effectRainbowComet(frame []color.RGBA, st any, s types.LEDSettings) any {
	rc, _ := st.(rainbowCometState)
	head := int(rc.pos) % len(frame)
	fadeAll(frame, tailFade(s))
	frame[head] = colorx.HSV(rc.hue, satOf(s), brightOf(s))

	rc.pos = wrapPos(rc.pos+speedOf(s)/100, len(frame))
	hueStep := speedOf(s) / 10
	if hueStep < 1 {
		hueStep = 1
	}
	rc.hue = fmod360(rc.hue + hueStep)
	return rc
}

type pingPongState struct {
	pos float32
	dir float32
}

// Two bouncing heads with fading tails.
func effectPingPong(frame []color.RGBA, st any, s types.LEDSettings) any {
	n := len(frame)
	pp, ok := st.(pingPongState)
	if !ok {
		pp = pingPongState{dir: 1}
	}
	fadeAll(frame, tailFade(s))

	speed := speedOf(s) / 100
	if speed < 0.05 {
		speed = 0.05
	}
	pp.pos += pp.dir * speed
	if pp.pos <= 0 {
		pp.pos, pp.dir = 0, 1
	} else if pp.pos >= float32(n-1) {
		pp.pos, pp.dir = float32(n-1), -1
	}

	head1 := int(pp.pos)
	head2 := (n - 1) - head1
	rgb := colorx.HSV(hueOf(s), satOf(s), brightOf(s))
	frame[head1] = rgb
	frame[head2] = rgb
	return pp
}

// Opposite halves blend Hue -> Hue+180, rotating slowly.
func effectDualHue(frame []color.RGBA, st any, s types.LEDSettings) any {
	phase, _ := st.(float32)
	n := len(frame)

	hueA := fmod360(hueOf(s))
	hueB := fmod360(hueA + 180)
	sat := satOf(s)
	v := brightOf(s)

	for i := range frame {
		a := 2*math.Pi*float64(i)/float64(n) + float64(phase)
		m := float32(0.5 * (1 + math.Cos(a))) // 1..0..1 around the circle
		hue := fmod360(hueA*m + hueB*(1-m))
		frame[i] = colorx.HSV(hue, sat, v)
	}
	return wrapPhase(phase+speedOf(s)/400, 2*math.Pi)
}

type auroraState struct {
	p1, p2 float32
}

// Northern-lights style waves in green and purple.
func effectAurora(frame []color.RGBA, st any, s types.LEDSettings) any {
	a, _ := st.(auroraState)
	n := len(frame)

	const hueG, hueP = 130, 280
	sat := satOf(s) * 0.9
	vMax := brightOf(s)

	for i := range frame {
		x := 2 * math.Pi * float64(i) / float64(n)
		w1 := float32(0.5 * (1 + math.Sin(x+float64(a.p1))))
		w2 := float32(0.5 * (1 + math.Sin(2*x-float64(a.p2))))

		mix := 0.6*w1 + 0.4*(1-w2)
		hue := fmod360(hueG*mix + hueP*(1-mix))
		v := float32(0.25+0.75*0.5*(1+math.Sin(x*0.8+float64(a.p2)/2))) * vMax

		frame[i] = colorx.HSV(hue, sat, v)
	}

	sp := speedOf(s) / 200
	if sp < 0.05 {
		sp = 0.05
	}
	// p2 also appears halved, so its full cycle is two turns.
	a.p1 = wrapPhase(a.p1+sp*0.6, 2*math.Pi)
	a.p2 = wrapPhase(a.p2+sp*0.3, 4*math.Pi)
	return a
}

// Rotating brightness wave around the ring, giving a spiral illusion.
func effectSpiralSpin(frame []color.RGBA, st any, s types.LEDSettings) any {
	phase, _ := st.(float32)
	n := len(frame)
	const waves = 2
	const gamma = 1.6

	sat := satOf(s)
	vBase := brightOf(s)
	hue := hueOf(s)

	for i := range frame {
		tt := float64(i)/float64(n)*2*math.Pi*waves + float64(phase)
		b := 0.5 * (1 + math.Sin(tt))
		b = math.Pow(b, gamma) // contrast curve
		frame[i] = colorx.HSV(hue, sat, vBase*float32(b))
	}
	return wrapPhase(phase+speedOf(s)/200, 2*math.Pi)
}

type cycleState struct {
	idx    int
	frames int
	inner  any
}

// Auto-cycle runs each effect for a minute, skipping Off.
func effectCycleAll(frame []color.RGBA, st any, s types.LEDSettings) any {
	c, ok := st.(cycleState)
	if !ok {
		c = cycleState{idx: 1}
	}

	const framesPerEffect = 60 * FPS
	c.frames++
	if c.frames > framesPerEffect {
		c.idx++
		// Wrap past the fixed effects, staying above Off and below this one.
		if c.idx >= len(effects)-1 {
			c.idx = 1
		}
		c.frames = 0
		c.inner = nil
	}

	c.inner = effects[c.idx].Fn(frame, c.inner, s)
	return c
}

type startupState struct {
	head  int
	phase int
}

// startupWipe lights the ring pixel by pixel, then clears it the same way.
// Returns nil when the sequence is complete.
func startupWipe(frame []color.RGBA, st any, s types.LEDSettings) any {
	w, ok := st.(startupState)
	if !ok {
		w = startupState{}
	}

	on := colorx.HSV(hueOf(s), satOf(s), brightOf(s))
	off := color.RGBA{A: 255}
	for i := range frame {
		if (i <= w.head) == (w.phase == 0) {
			frame[i] = on
		} else {
			frame[i] = off
		}
	}

	switch {
	case w.head < len(frame)-1:
		w.head++
		return w
	case w.phase == 0:
		return startupState{head: 0, phase: 1}
	default:
		return nil
	}
}
