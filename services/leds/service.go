// Package leds drives the 16-pixel ring. It renders one of the selectable
// effects at a fixed frame rate and follows the retained light settings
// published on the bus, so the UI and console change the ring by publishing
// rather than by calling into the renderer.
package leds

import (
	"context"
	"image/color"
	"time"

	"badge-go/bus"
	"badge-go/platform"
	"badge-go/types"
	"badge-go/x/timex"
)

// TopicSettings carries retained types.LEDSettings.
var TopicSettings = bus.T("config", "leds")

type Config struct {
	// FPS overrides the frame rate. Zero means FPS (50).
	FPS uint32
	// Startup plays the wipe sequence before the configured effect.
	Startup bool
}

type Service struct {
	conn  *bus.Connection
	strip platform.Strip
	cfg   Config

	frame    []color.RGBA
	settings types.LEDSettings
	effect   int // index currently rendering, to detect switches
	state    any
	wipe     any
	wiping   bool
}

func New(conn *bus.Connection, strip platform.Strip, pixels int, cfg Config) *Service {
	if cfg.FPS == 0 {
		cfg.FPS = FPS
	}
	s := &Service{
		conn:     conn,
		strip:    strip,
		cfg:      cfg,
		frame:    make([]color.RGBA, pixels),
		settings: types.DefaultLEDSettings(),
		wiping:   cfg.Startup,
	}
	for i := range s.frame {
		s.frame[i] = color.RGBA{A: 255}
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	sub := s.conn.Subscribe(TopicSettings)
	go s.loop(ctx, sub)
}

func (s *Service) loop(ctx context.Context, sub *bus.Subscription) {
	ticker := time.NewTicker(timex.PeriodFromHz(s.cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conn.Unsubscribe(sub)
			return
		case msg := <-sub.Channel():
			if ls, ok := msg.Payload.(types.LEDSettings); ok {
				s.apply(ls)
			}
		case <-ticker.C:
			s.renderFrame()
			if err := s.strip.WriteColors(s.frame); err != nil {
				println("Error: leds: write:", err.Error())
			}
		}
	}
}

func (s *Service) apply(ls types.LEDSettings) {
	// Clamp the sliders but keep an out-of-range effect index as-is; the
	// renderer falls back to Off for indices it does not know.
	ls = ls.Clamped(0)
	if ls.Effect != s.settings.Effect {
		s.state = nil
	}
	s.settings = ls
}

func (s *Service) renderFrame() {
	if s.wiping {
		s.wipe = startupWipe(s.frame, s.wipe, s.settings)
		if s.wipe == nil {
			s.wiping = false
		}
		return
	}

	idx := s.settings.Effect
	if idx < 0 || idx >= len(effects) {
		idx = 0
	}
	if idx != s.effect {
		s.state = nil
		s.effect = idx
	}
	s.state = effects[idx].Fn(s.frame, s.state, s.settings)
}
