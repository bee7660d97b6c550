// Package input turns raw button edges into debounced press/repeat/release
// events on the bus.
package input

import (
	"context"
	"sync/atomic"
	"time"

	"badge-go/bus"
	"badge-go/platform"
	"badge-go/types"
	"badge-go/x/timex"
)

// TopicButton carries types.ButtonEvent payloads.
var TopicButton = bus.T("input", "button")

// Config holds the pacing knobs. Zero values take the badge defaults.
type Config struct {
	Debounce       time.Duration
	RepeatDelay    time.Duration // before auto-repeat starts (Next/Prev only)
	RepeatInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Debounce == 0 {
		c.Debounce = 50 * time.Millisecond
	}
	if c.RepeatDelay == 0 {
		c.RepeatDelay = 500 * time.Millisecond
	}
	if c.RepeatInterval == 0 {
		c.RepeatInterval = 10 * time.Millisecond
	}
}

type isrEvent struct {
	btn   types.ButtonID
	level bool // raw level captured in the ISR
}

type Service struct {
	conn *bus.Connection
	pins map[types.ButtonID]platform.Pin
	cfg  Config

	// Written by ISRs; sends MUST NOT block.
	isrQ  chan isrEvent
	drops uint32

	lastEdge map[types.ButtonID]time.Time
	pressed  map[types.ButtonID]bool
	repeatAt map[types.ButtonID]time.Time
}

func New(conn *bus.Connection, pins map[types.ButtonID]platform.Pin, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		conn:     conn,
		pins:     pins,
		cfg:      cfg,
		isrQ:     make(chan isrEvent, 32),
		lastEdge: map[types.ButtonID]time.Time{},
		pressed:  map[types.ButtonID]bool{},
		repeatAt: map[types.ButtonID]time.Time{},
	}
}

// Start installs the pin IRQs and launches the worker loop.
func (s *Service) Start(ctx context.Context) error {
	for id, pin := range s.pins {
		id, pin := id, pin
		// ISR handler: fast level read + non-blocking channel send.
		handler := func() {
			l := pin.Get()
			select {
			case s.isrQ <- isrEvent{btn: id, level: l}:
			default:
				atomic.AddUint32(&s.drops, 1) // protect ISR path
			}
		}
		if err := pin.SetIRQ(handler); err != nil {
			return err
		}
	}
	go s.loop(ctx)
	return nil
}

// Drops returns the number of ISR events lost to a full queue.
func (s *Service) Drops() uint32 { return atomic.LoadUint32(&s.drops) }

func (s *Service) loop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		// (re)arm timer to the earliest pending repeat.
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if next, ok := s.earliestRepeat(); ok {
			d := time.Until(next)
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
		} else {
			timer.Reset(time.Hour)
		}

		select {
		case <-ctx.Done():
			for _, pin := range s.pins {
				_ = pin.ClearIRQ()
			}
			return

		case ev := <-s.isrQ:
			s.handleEdge(ev)

		case <-timer.C:
			s.fireRepeats()
		}
	}
}

func (s *Service) earliestRepeat() (time.Time, bool) {
	var best time.Time
	found := false
	for _, at := range s.repeatAt {
		if !found || at.Before(best) {
			best = at
			found = true
		}
	}
	return best, found
}

func (s *Service) handleEdge(ev isrEvent) {
	now := time.Now()
	if now.Sub(s.lastEdge[ev.btn]) < s.cfg.Debounce {
		return
	}
	s.lastEdge[ev.btn] = now

	pressed := !ev.level // active low, external pull-ups
	if s.pressed[ev.btn] == pressed {
		return
	}
	s.pressed[ev.btn] = pressed

	if pressed {
		s.publish(ev.btn, types.ActionPress)
		// Only Next/Prev auto-repeat; they drive value sliders.
		if ev.btn == types.ButtonNext || ev.btn == types.ButtonPrev {
			s.repeatAt[ev.btn] = now.Add(s.cfg.RepeatDelay)
		}
	} else {
		delete(s.repeatAt, ev.btn)
		s.publish(ev.btn, types.ActionRelease)
	}
}

func (s *Service) fireRepeats() {
	now := time.Now()
	for btn, at := range s.repeatAt {
		if now.Before(at) {
			continue
		}
		if !s.pressed[btn] {
			delete(s.repeatAt, btn)
			continue
		}
		s.publish(btn, types.ActionRepeat)
		s.repeatAt[btn] = now.Add(s.cfg.RepeatInterval)
	}
}

func (s *Service) publish(btn types.ButtonID, action types.ButtonAction) {
	s.conn.Publish(s.conn.NewMessage(TopicButton, types.ButtonEvent{
		Button: btn,
		Action: action,
		TimeMs: timex.NowMs(),
	}, false))
}
