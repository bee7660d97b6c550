package ui

import "badge-go/types"

func newBadgeScreen(ui *Service) Screen {
	s := &listScreen{ui: ui, title: "Badge setup", items: []string{"Fetch Name", "Code git"}}
	s.onSelect = func(i int) Screen {
		if i == 0 {
			return &fetchNameScreen{ui: ui}
		}
		return &codeRepoScreen{ui: ui}
	}
	s.onBack = func() Screen {
		ui.saveSettings()
		return ui.menu()
	}
	return s
}

// fetchNameScreen shows the device ID and drives the name fetch. The fetch
// itself runs in the names service; this screen just narrates its status
// events.
type fetchNameScreen struct {
	ui *Service
}

func (s *fetchNameScreen) Render(c *Canvas) {
	lh := c.LineHeight(FontSmall)
	y := lh
	c.Text(FontSmall, 0, y, "ID: "+s.ui.identity.DeviceID)

	y += lh + 2
	if msg := s.statusLine(); msg != "" {
		c.Text(FontSmall, 0, y, msg)
		return
	}
	c.Text(FontSmall, 0, y, s.ui.cfg.BadgeURL)
	y += lh + 2
	c.Text(FontSmall, 0, y, ">Fetch name")
}

func (s *fetchNameScreen) statusLine() string {
	switch s.ui.status.Stage {
	case "connecting":
		return "Connecting WiFi..."
	case "fetching":
		return "Fetching name..."
	case "done":
		return "Name: " + s.ui.status.Name
	case "error":
		return "Fetch error: " + s.ui.status.Err
	default:
		return ""
	}
}

func (s *fetchNameScreen) HandleButton(ev types.ButtonEvent) Screen {
	switch ev.Button {
	case types.ButtonSelect:
		s.ui.startFetch()
	case types.ButtonBack:
		s.ui.status = types.NameStatus{}
		return newBadgeScreen(s.ui)
	}
	return s
}

type codeRepoScreen struct {
	ui *Service
}

func (s *codeRepoScreen) Render(c *Canvas) {
	c.Text(FontMedium, 0, c.LineHeight(FontMedium), "Badge code git")
	y := c.LineHeight(FontMedium) + 4 + c.LineHeight(FontSmall)
	for _, line := range c.WrapParagraphs(FontSmall, s.ui.cfg.RepoLine) {
		c.Text(FontSmall, 0, y, line)
		y += c.LineHeight(FontSmall)
	}
}

func (s *codeRepoScreen) HandleButton(ev types.ButtonEvent) Screen {
	switch ev.Button {
	case types.ButtonSelect, types.ButtonBack:
		return newBadgeScreen(s.ui)
	}
	return s
}
