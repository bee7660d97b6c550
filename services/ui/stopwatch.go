package ui

import (
	"badge-go/types"
	"badge-go/x/timex"
)

func newUtilsScreen(ui *Service) Screen {
	s := &listScreen{ui: ui, title: "Utils", items: []string{"Stopwatch"}}
	s.onSelect = func(i int) Screen { return &stopwatchScreen{ui: ui} }
	s.onBack = ui.menu
	return s
}

// stopwatchScreen counts centiseconds. Select starts and stops, Prev resets
// while stopped, Back leaves. Runs on the service tick while active.
type stopwatchScreen struct {
	ui         *Service
	running    bool
	startMs    int64
	pausedBase int64
	elapsedMs  int64
}

func (s *stopwatchScreen) Tick(nowMs int64) bool {
	return s.running
}

func (s *stopwatchScreen) Render(c *Canvas) {
	if s.running {
		s.elapsedMs = s.pausedBase + timex.NowMs() - s.startMs
	}

	c.Text(FontMedium, 0, c.LineHeight(FontMedium), "Stopwatch")
	c.Text(FontLarge, 0, 40, formatElapsed(s.elapsedMs))
	if s.running {
		c.Text(FontSmall, 0, c.H-2, "SELECT=Stop  BACK=Exit")
	} else {
		c.Text(FontSmall, 0, c.H-2, "SELECT=Start PREV=Reset BACK=Exit")
	}
}

func (s *stopwatchScreen) HandleButton(ev types.ButtonEvent) Screen {
	switch ev.Button {
	case types.ButtonSelect:
		if !s.running {
			s.pausedBase = s.elapsedMs
			s.startMs = timex.NowMs()
			s.running = true
		} else {
			s.elapsedMs = s.pausedBase + timex.NowMs() - s.startMs
			s.running = false
		}
	case types.ButtonPrev:
		if !s.running {
			s.elapsedMs = 0
			s.pausedBase = 0
		}
	case types.ButtonBack:
		return newUtilsScreen(s.ui)
	}
	return s
}

// formatElapsed renders HH:MM:SS.cc.
func formatElapsed(ms int64) string {
	cs := (ms / 10) % 100
	sec := ms / 1000
	h := sec / 3600
	m := (sec / 60) % 60
	s := sec % 60

	buf := []byte("00:00:00.00")
	put2 := func(off int, v int64) {
		buf[off] = byte('0' + v/10%10)
		buf[off+1] = byte('0' + v%10)
	}
	put2(0, h)
	put2(3, m)
	put2(6, s)
	put2(9, cs)
	return string(buf)
}
