package input

import (
	"context"
	"testing"
	"time"

	"badge-go/bus"
	"badge-go/platform"
	"badge-go/types"
)

func testService(t *testing.T, cfg Config) (*bus.Subscription, map[types.ButtonID]*platform.FakePin, context.CancelFunc) {
	t.Helper()
	b := bus.NewBus(32)
	svcConn := b.NewConnection("input")
	ui := b.NewConnection("test")

	fakes := map[types.ButtonID]*platform.FakePin{
		types.ButtonNext:   platform.NewFakePin(),
		types.ButtonPrev:   platform.NewFakePin(),
		types.ButtonSelect: platform.NewFakePin(),
		types.ButtonBack:   platform.NewFakePin(),
	}
	pins := map[types.ButtonID]platform.Pin{}
	for id, p := range fakes {
		pins[id] = p
	}

	sub := ui.Subscribe(TopicButton)

	ctx, cancel := context.WithCancel(context.Background())
	svc := New(svcConn, pins, cfg)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return sub, fakes, cancel
}

func nextEvent(t *testing.T, sub *bus.Subscription) types.ButtonEvent {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m.Payload.(types.ButtonEvent)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for button event")
		return types.ButtonEvent{}
	}
}

func drainFor(sub *bus.Subscription, d time.Duration) []types.ButtonEvent {
	var out []types.ButtonEvent
	deadline := time.After(d)
	for {
		select {
		case m := <-sub.Channel():
			out = append(out, m.Payload.(types.ButtonEvent))
		case <-deadline:
			return out
		}
	}
}

func TestPressRelease(t *testing.T) {
	sub, pins, cancel := testService(t, Config{Debounce: time.Millisecond})
	defer cancel()

	pins[types.ButtonSelect].SetLevel(false) // press (active low)
	ev := nextEvent(t, sub)
	if ev.Button != types.ButtonSelect || ev.Action != types.ActionPress {
		t.Fatalf("got %v/%v, want select/press", ev.Button, ev.Action)
	}

	time.Sleep(5 * time.Millisecond) // past debounce window
	pins[types.ButtonSelect].SetLevel(true)
	ev = nextEvent(t, sub)
	if ev.Button != types.ButtonSelect || ev.Action != types.ActionRelease {
		t.Fatalf("got %v/%v, want select/release", ev.Button, ev.Action)
	}
}

func TestDebounce_SwallowsBounce(t *testing.T) {
	sub, pins, cancel := testService(t, Config{Debounce: 80 * time.Millisecond})
	defer cancel()

	// Press with contact bounce: edges well inside the debounce window.
	pins[types.ButtonBack].SetLevel(false)
	pins[types.ButtonBack].SetLevel(true)
	pins[types.ButtonBack].SetLevel(false)

	evs := drainFor(sub, 120*time.Millisecond)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1 (bounce swallowed): %+v", len(evs), evs)
	}
	if evs[0].Action != types.ActionPress {
		t.Fatalf("got %v, want press", evs[0].Action)
	}
}

func TestAutoRepeat_NextOnly(t *testing.T) {
	cfg := Config{
		Debounce:       time.Millisecond,
		RepeatDelay:    20 * time.Millisecond,
		RepeatInterval: 10 * time.Millisecond,
	}
	sub, pins, cancel := testService(t, cfg)
	defer cancel()

	pins[types.ButtonNext].SetLevel(false)
	evs := drainFor(sub, 100*time.Millisecond)

	presses, repeats := 0, 0
	for _, ev := range evs {
		if ev.Button != types.ButtonNext {
			t.Fatalf("unexpected button %v", ev.Button)
		}
		switch ev.Action {
		case types.ActionPress:
			presses++
		case types.ActionRepeat:
			repeats++
		}
	}
	if presses != 1 {
		t.Errorf("presses = %d, want 1", presses)
	}
	if repeats < 2 {
		t.Errorf("repeats = %d, want >= 2", repeats)
	}

	// Release stops the repeats.
	pins[types.ButtonNext].SetLevel(true)
	_ = drainFor(sub, 30*time.Millisecond) // swallow release + stragglers
	if late := drainFor(sub, 50*time.Millisecond); len(late) != 0 {
		t.Errorf("got %d events after release, want 0", len(late))
	}
}

func TestNoRepeatForSelect(t *testing.T) {
	cfg := Config{
		Debounce:       time.Millisecond,
		RepeatDelay:    10 * time.Millisecond,
		RepeatInterval: 5 * time.Millisecond,
	}
	sub, pins, cancel := testService(t, cfg)
	defer cancel()

	pins[types.ButtonSelect].SetLevel(false)
	evs := drainFor(sub, 60*time.Millisecond)
	for _, ev := range evs {
		if ev.Action == types.ActionRepeat {
			t.Fatalf("select must not auto-repeat: %+v", evs)
		}
	}
}
