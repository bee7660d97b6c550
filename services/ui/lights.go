package ui

import (
	"strconv"

	"badge-go/services/leds"
	"badge-go/types"
	"badge-go/x/mathx"
)

func newLightsScreen(ui *Service) Screen {
	s := &listScreen{
		ui:    ui,
		title: "Lights",
		items: []string{"Effects", "Brightness", "Hue", "Saturation", "Speed"},
	}
	s.onSelect = func(i int) Screen {
		switch i {
		case 0:
			return newEffectsScreen(ui)
		case 1:
			return newParamScreen(ui, paramBrightness)
		case 2:
			return newParamScreen(ui, paramHue)
		case 3:
			return newParamScreen(ui, paramSaturation)
		default:
			return newParamScreen(ui, paramSpeed)
		}
	}
	s.onBack = func() Screen {
		ui.saveSettings()
		return ui.menu()
	}
	return s
}

func newEffectsScreen(ui *Service) Screen {
	s := &listScreen{ui: ui, title: "LED effects", items: leds.Effects()}
	s.index = ui.settings.Effect
	s.onSelect = func(i int) Screen {
		ui.settings.Effect = i
		ui.publishSettings()
		return nil // stay, like picking a radio station
	}
	s.onBack = func() Screen { return newLightsScreen(ui) }
	return s
}

// paramDef describes one adjustable light setting.
type paramDef struct {
	name       string
	max        int
	barFill    bool // fill the bar instead of drawing a knob
	wraparound bool
	get        func(*types.LEDSettings) *int
}

var (
	paramBrightness = paramDef{"Brightness", types.MaxBrightness, true, false,
		func(s *types.LEDSettings) *int { return &s.Brightness }}
	paramHue = paramDef{"Hue", types.MaxHue, false, true,
		func(s *types.LEDSettings) *int { return &s.Hue }}
	paramSaturation = paramDef{"Saturation", types.MaxSaturation, false, false,
		func(s *types.LEDSettings) *int { return &s.Saturation }}
	paramSpeed = paramDef{"Speed", types.MaxSpeed, true, false,
		func(s *types.LEDSettings) *int { return &s.Speed }}
)

// paramScreen is the slider page: a horizontal bar plus the numeric value.
// Next/Prev adjust one step per press or repeat.
type paramScreen struct {
	ui  *Service
	def paramDef
}

func newParamScreen(ui *Service, def paramDef) Screen {
	return &paramScreen{ui: ui, def: def}
}

func (s *paramScreen) Render(c *Canvas) {
	val := *s.def.get(&s.ui.settings)

	const barY, barH = 30, 10
	barW := c.W
	c.Rect(0, barY, barW, barH)

	pos := int16(mathx.MapU16(uint16(val), 0, uint16(s.def.max), 0, uint16(barW-1)))
	if s.def.barFill {
		c.FillRect(0, barY, pos, barH)
	} else {
		c.VLine(pos, barY, barH)
	}

	c.Text(FontMedium, 0, c.H-2, s.def.name+": "+strconv.Itoa(val))
}

func (s *paramScreen) HandleButton(ev types.ButtonEvent) Screen {
	val := s.def.get(&s.ui.settings)
	switch ev.Button {
	case types.ButtonNext:
		if s.def.wraparound || *val < s.def.max {
			*val = (*val + 1) % (s.def.max + 1)
			s.ui.publishSettings()
		}
	case types.ButtonPrev:
		if s.def.wraparound || *val > 0 {
			*val = (*val - 1 + s.def.max + 1) % (s.def.max + 1)
			s.ui.publishSettings()
		}
	case types.ButtonSelect, types.ButtonBack:
		return newLightsScreen(s.ui)
	}
	return s
}
