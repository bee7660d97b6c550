package ui

import "badge-go/types"

// sponsorsScreen cycles through full-screen sponsor logos.
type sponsorsScreen struct {
	ui      *Service
	current int
}

func newSponsorsScreen(ui *Service) Screen {
	return &sponsorsScreen{ui: ui}
}

func (s *sponsorsScreen) Render(c *Canvas) {
	if len(s.ui.cfg.Logos) == 0 {
		c.TextCentered(FontMedium, c.H/2, "No sponsor logos")
		return
	}
	c.Blit(s.ui.cfg.Logos[s.current])
}

func (s *sponsorsScreen) HandleButton(ev types.ButtonEvent) Screen {
	n := len(s.ui.cfg.Logos)
	switch ev.Button {
	case types.ButtonNext:
		if n > 0 {
			s.current = (s.current + 1) % n
		}
	case types.ButtonPrev:
		if n > 0 {
			s.current = (s.current - 1 + n) % n
		}
	case types.ButtonBack:
		return s.ui.menu()
	}
	return s
}
