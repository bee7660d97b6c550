package ui

import (
	"badge-go/types"
	"badge-go/x/mathx"
)

// Screen is one page of the interface. HandleButton returns the screen that
// should be active afterwards, usually the receiver.
type Screen interface {
	Render(*Canvas)
	HandleButton(ev types.ButtonEvent) Screen
}

// ticker is implemented by screens that refresh without input. Tick reports
// whether the screen needs a redraw.
type ticker interface {
	Tick(nowMs int64) bool
}

// listScreen is the scrolling title-plus-items page most of the menu tree
// uses. Selection wraps; the visible window follows the cursor.
type listScreen struct {
	ui    *Service
	title string
	items []string

	index  int
	offset int

	onSelect func(i int) Screen
	onBack   func() Screen
}

func (s *listScreen) HandleButton(ev types.ButtonEvent) Screen {
	switch ev.Button {
	case types.ButtonNext:
		s.index = (s.index + 1) % len(s.items)
	case types.ButtonPrev:
		s.index = (s.index - 1 + len(s.items)) % len(s.items)
	case types.ButtonBack:
		if s.onBack != nil {
			return s.onBack()
		}
	case types.ButtonSelect:
		if s.onSelect != nil {
			if next := s.onSelect(s.index); next != nil {
				return next
			}
		}
	}

	rows := s.rows()
	if s.index < s.offset {
		s.offset = s.index
	} else if s.index >= s.offset+rows {
		s.offset = s.index - rows + 1
	}
	return s
}

func (s *listScreen) rows() int {
	lh := int(s.ui.canvas.LineHeight(FontSmall))
	if lh <= 0 {
		return 1
	}
	return mathx.Max((int(s.ui.canvas.H)-20)/lh, 1)
}

func (s *listScreen) Render(c *Canvas) {
	c.Text(FontMedium, 0, c.LineHeight(FontMedium), s.title)

	lh := c.LineHeight(FontSmall)
	rows := s.rows()
	end := mathx.Min(s.offset+rows, len(s.items))
	y := int16(20) + lh
	for i := s.offset; i < end; i++ {
		prefix := " "
		if i == s.index {
			prefix = ">"
		}
		c.Text(FontSmall, 0, y, prefix+s.items[i])
		y += lh
	}
}

// textScreen scrolls wrapped prose one line at a time.
type textScreen struct {
	ui     *Service
	text   string
	lines  []string
	offset int
	onBack func() Screen
}

func (s *textScreen) Render(c *Canvas) {
	if s.lines == nil {
		s.lines = c.WrapParagraphs(FontSmall, s.text)
	}
	lh := c.LineHeight(FontSmall)
	rows := int(c.H / lh)
	end := mathx.Min(s.offset+rows, len(s.lines))
	y := lh
	for i := s.offset; i < end; i++ {
		c.Text(FontSmall, 0, y, s.lines[i])
		y += lh
	}
}

func (s *textScreen) HandleButton(ev types.ButtonEvent) Screen {
	lh := s.ui.canvas.LineHeight(FontSmall)
	rows := int(s.ui.canvas.H / lh)
	switch ev.Button {
	case types.ButtonNext:
		if s.offset+rows < len(s.lines) {
			s.offset++
		}
	case types.ButtonPrev:
		if s.offset > 0 {
			s.offset--
		}
	case types.ButtonBack:
		if s.onBack != nil {
			return s.onBack()
		}
	}
	return s
}

// menuScreen shows one large centered item at a time.
type menuScreen struct {
	ui    *Service
	index int
}

type menuItem struct {
	name string
	open func(ui *Service) Screen
}

func (s *menuScreen) items() []menuItem {
	items := []menuItem{
		{"About", newAboutScreen},
		{"Sponsors", newSponsorsScreen},
		{"Our team", newTeamScreen},
		{"Utils", newUtilsScreen},
		{"Lights", newLightsScreen},
		{"Badge", newBadgeScreen},
	}
	if s.ui.book != nil {
		items = append(items, menuItem{"Reader", newReaderScreen})
	}
	return items
}

func (s *menuScreen) Render(c *Canvas) {
	items := s.items()
	c.TextCentered(FontLarge, c.H/2+c.LineHeight(FontLarge)/3, items[s.index].name)
}

func (s *menuScreen) HandleButton(ev types.ButtonEvent) Screen {
	items := s.items()
	switch ev.Button {
	case types.ButtonNext:
		s.index = (s.index + 1) % len(items)
	case types.ButtonPrev:
		s.index = (s.index - 1 + len(items)) % len(items)
	case types.ButtonSelect:
		return items[s.index].open(s.ui)
	}
	return s
}

func newAboutScreen(ui *Service) Screen {
	return &textScreen{ui: ui, text: aboutText, onBack: ui.menu}
}

func newTeamScreen(ui *Service) Screen {
	return &textScreen{ui: ui, text: teamText, onBack: ui.menu}
}

const aboutText = "BSides is a worldwide infosec event format, organized by the local infosec community in every city it is held. BSides Tallinn is organized by a non-profit core-team, volunteers and sponsors since 2021.\n\n" +
	"One core difference of all BSides events is that the talks on the stage are proposed by anyone and selected by a program committee - professionals representing the organizers, private companies, academia, the state, freelancers.\n\n" +
	"Talks, presentations, demos, proof-of-concepts across a very broad spectrum of infosec topics. All of the content is proposed by community members."

const teamText = "Organizers: Hans, Silvia, Matis, Liisa, Johanna, Martti, Rainer, Kadi\n\n" +
	"Badge: Konstantin\n\n" +
	"Volunteers: Elis, Elle, Kristo, Merli, Hanna, Liam, Sten"
