// Package ui runs the screen graph on the OLED. It consumes button events,
// publishes light settings as they are adjusted, asks the store to persist
// them when a settings page is left, and falls back to a logo/name splash
// after a few idle seconds on the menu.
package ui

import (
	"context"
	"time"

	"tinygo.org/x/drivers"

	"badge-go/bus"
	"badge-go/format/bookfmt"
	"badge-go/types"
	"badge-go/x/timex"
)

var (
	TopicButtons    = bus.T("input", "button")
	TopicSettings   = bus.T("config", "leds")
	TopicIdentity   = bus.T("identity")
	TopicNameStatus = bus.T("names", "event", "status")
	TopicSave       = bus.T("store", "control", "save")
	TopicFetch      = bus.T("names", "control", "fetch")
)

type Config struct {
	InactivityTimeout time.Duration // default 5s
	LogoPeriod        time.Duration // default 3s
	Tick              time.Duration // default 100ms

	Logo  []byte   // splash bitmap, 1 bit per pixel MSB-first
	Logos [][]byte // sponsor gallery bitmaps
	Book  []byte   // reader content, bookfmt container

	BadgeURL string // shown on the fetch-name screen
	RepoLine string // shown on the code-repo screen
}

func (c *Config) applyDefaults() {
	if c.InactivityTimeout == 0 {
		c.InactivityTimeout = 5 * time.Second
	}
	if c.LogoPeriod == 0 {
		c.LogoPeriod = 3 * time.Second
	}
	if c.Tick == 0 {
		c.Tick = 100 * time.Millisecond
	}
	if c.BadgeURL == "" {
		c.BadgeURL = "badge.bsides.ee"
	}
	if c.RepoLine == "" {
		c.RepoLine = "github.com/ks000/ bsides_badge"
	}
}

type Service struct {
	conn   *bus.Connection
	canvas *Canvas
	cfg    Config

	screen   Screen
	settings types.LEDSettings
	identity types.Identity
	status   types.NameStatus
	book     *bookfmt.Archive

	lastActivityMs int64
	splashing      bool
	showingLogo    bool
	lastToggleMs   int64
}

func New(conn *bus.Connection, display drivers.Displayer, cfg Config) *Service {
	cfg.applyDefaults()
	s := &Service{
		conn:        conn,
		canvas:      NewCanvas(display),
		cfg:         cfg,
		settings:    types.DefaultLEDSettings(),
		showingLogo: true,
	}
	if len(cfg.Book) > 0 {
		book, err := bookfmt.Decode(cfg.Book)
		if err != nil {
			println("Info: ui: book decode:", err.Error())
		} else {
			s.book = book
		}
	}
	s.screen = &menuScreen{ui: s}
	return s
}

func (s *Service) Start(ctx context.Context) {
	buttons := s.conn.Subscribe(TopicButtons)
	settings := s.conn.Subscribe(TopicSettings)
	identity := s.conn.Subscribe(TopicIdentity)
	status := s.conn.Subscribe(TopicNameStatus)
	go s.loop(ctx, buttons, settings, identity, status)
}

func (s *Service) loop(ctx context.Context, buttons, settings, identity, status *bus.Subscription) {
	s.lastActivityMs = timex.NowMs()

	// Boot splash until the first button press.
	s.splashing = true
	s.redrawSplash()

	tick := time.NewTicker(s.cfg.Tick)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conn.Disconnect()
			return

		case msg := <-buttons.Channel():
			ev, ok := msg.Payload.(types.ButtonEvent)
			if !ok || ev.Action == types.ActionRelease {
				continue
			}
			s.lastActivityMs = timex.NowMs()
			s.splashing = false
			s.screen = s.screen.HandleButton(ev)
			s.redraw()

		case msg := <-settings.Channel():
			if ls, ok := msg.Payload.(types.LEDSettings); ok {
				s.settings = ls
			}

		case msg := <-identity.Channel():
			if id, ok := msg.Payload.(types.Identity); ok {
				s.identity = id
			}

		case msg := <-status.Channel():
			if st, ok := msg.Payload.(types.NameStatus); ok {
				s.status = st
				if _, onFetch := s.screen.(*fetchNameScreen); onFetch && !s.splashing {
					s.redraw()
				}
			}

		case <-tick.C:
			s.onTick()
		}
	}
}

func (s *Service) onTick() {
	now := timex.NowMs()

	if !s.splashing {
		if t, ok := s.screen.(ticker); ok && t.Tick(now) {
			s.redraw()
		}
	}

	_, onMenu := s.screen.(*menuScreen)
	idle := now-s.lastActivityMs > s.cfg.InactivityTimeout.Milliseconds()
	if onMenu && idle {
		if !s.splashing {
			s.splashing = true
			s.showingLogo = true
			s.lastToggleMs = now
			s.redrawSplash()
		} else if now-s.lastToggleMs >= s.cfg.LogoPeriod.Milliseconds() {
			s.showingLogo = !s.showingLogo
			s.lastToggleMs = now
			s.redrawSplash()
		}
	}
}

func (s *Service) redraw() {
	s.canvas.Clear()
	s.screen.Render(s.canvas)
	if err := s.canvas.Flush(); err != nil {
		println("Error: ui: display:", err.Error())
	}
}

func (s *Service) redrawSplash() {
	s.canvas.Clear()
	if s.showingLogo || s.identity.Username == "" {
		s.renderLogo(s.canvas)
	} else {
		s.renderUsername(s.canvas)
	}
	if err := s.canvas.Flush(); err != nil {
		println("Error: ui: display:", err.Error())
	}
}

// menu returns to the top-level menu; screens use it as their back target.
func (s *Service) menu() Screen { return &menuScreen{ui: s} }

// publishSettings pushes the working settings to the ring immediately.
func (s *Service) publishSettings() {
	s.conn.Publish(s.conn.NewMessage(TopicSettings, s.settings, true))
}

// saveSettings persists the working settings via the store.
func (s *Service) saveSettings() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(TopicSave, s.settings, false))
	if err != nil {
		println("Info: ui: save:", err.Error())
		return
	}
	if r, ok := reply.Payload.(types.Reply); ok && !r.OK {
		println("Info: ui: save:", r.Detail)
	}
}

// startFetch kicks the name fetch off in the background; status events
// repaint the fetch screen as the stages go by.
func (s *Service) startFetch() {
	conn := s.conn
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		req := conn.NewMessage(TopicFetch, nil, false)
		if _, err := conn.RequestWait(ctx, req); err != nil {
			println("Info: ui: fetch:", err.Error())
		}
	}()
}
