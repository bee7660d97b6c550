package leds

import (
	"context"
	"testing"
	"time"

	"badge-go/bus"
	"badge-go/platform"
	"badge-go/types"
)

func startService(t *testing.T, cfg Config) (*bus.Connection, *platform.FakeStrip) {
	t.Helper()
	b := bus.NewBus(8)
	strip := &platform.FakeStrip{}

	svc := New(b.NewConnection("leds"), strip, 16, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)

	return b.NewConnection("test"), strip
}

func waitFrames(t *testing.T, strip *platform.FakeStrip, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for strip.FrameCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("only %d frames rendered, wanted %d", strip.FrameCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func countLit(strip *platform.FakeStrip) int {
	lit := 0
	for _, c := range strip.Last() {
		if c.R != 0 || c.G != 0 || c.B != 0 {
			lit++
		}
	}
	return lit
}

func TestDefaultEffectIsOff(t *testing.T) {
	_, strip := startService(t, Config{FPS: 500})
	waitFrames(t, strip, 3)

	if lit := countLit(strip); lit != 0 {
		t.Fatalf("expected dark ring by default, %d pixels lit", lit)
	}
}

func TestSettingsChangeEffect(t *testing.T) {
	conn, strip := startService(t, Config{FPS: 500})
	waitFrames(t, strip, 1)

	s := types.DefaultLEDSettings()
	s.Effect = 1 // Rainbow
	s.Brightness = 100
	conn.Publish(conn.NewMessage(TopicSettings, s, false))

	deadline := time.Now().Add(2 * time.Second)
	for countLit(strip) != 16 {
		if time.Now().After(deadline) {
			t.Fatalf("rainbow never rendered, %d pixels lit", countLit(strip))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRetainedSettingsApplyOnStart(t *testing.T) {
	b := bus.NewBus(8)
	pub := b.NewConnection("test")
	s := types.DefaultLEDSettings()
	s.Effect = 1
	s.Brightness = 100
	pub.Publish(pub.NewMessage(TopicSettings, s, true))

	strip := &platform.FakeStrip{}
	svc := New(b.NewConnection("leds"), strip, 16, Config{FPS: 500})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for countLit(strip) != 16 {
		if time.Now().After(deadline) {
			t.Fatalf("retained settings ignored, %d pixels lit", countLit(strip))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOutOfRangeEffectRendersOff(t *testing.T) {
	conn, strip := startService(t, Config{FPS: 500})
	waitFrames(t, strip, 1)

	s := types.DefaultLEDSettings()
	s.Effect = 99
	s.Brightness = 100
	conn.Publish(conn.NewMessage(TopicSettings, s, false))

	time.Sleep(20 * time.Millisecond)
	before := strip.FrameCount()
	waitFrames(t, strip, before+3)
	if lit := countLit(strip); lit != 0 {
		t.Fatalf("out-of-range effect lit %d pixels", lit)
	}
}

func TestStartupWipeRunsFirst(t *testing.T) {
	_, strip := startService(t, Config{FPS: 500, Startup: true})

	// The wipe must light pixels even though the configured effect is Off.
	deadline := time.Now().Add(2 * time.Second)
	sawLit := false
	for time.Now().Before(deadline) {
		if countLit(strip) > 0 {
			sawLit = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !sawLit {
		t.Fatal("startup wipe never lit the ring")
	}

	// After the wipe the ring settles back to the Off effect.
	waitFrames(t, strip, 40)
	deadline = time.Now().Add(2 * time.Second)
	for countLit(strip) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ring still lit after wipe, %d pixels", countLit(strip))
		}
		time.Sleep(time.Millisecond)
	}
}
