package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"tinygo.org/x/tinyfont"

	"badge-go/bus"
	"badge-go/format/bookfmt"
	"badge-go/platform"
	"badge-go/types"
)

// fixedMeasure gives every glyph a 4px advance so wrap tests are exact.
func fixedMeasure(f tinyfont.Fonter, s string) int16 { return int16(4 * len(s)) }

func press(b types.ButtonID) types.ButtonEvent {
	return types.ButtonEvent{Button: b, Action: types.ActionPress}
}

type fixture struct {
	svc  *Service
	bus  *bus.Bus
	fb   *platform.Framebuffer
	conn *bus.Connection // test-side connection
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	b := bus.NewBus(8)
	fb := platform.NewFramebuffer(128, 64)
	svc := New(b.NewConnection("ui"), fb, cfg)
	svc.canvas.Measure = fixedMeasure
	return &fixture{svc: svc, bus: b, fb: fb, conn: b.NewConnection("test")}
}

// fakeStore accepts every save and records the settings it saw.
func (f *fixture) fakeStore(t *testing.T) *[]types.LEDSettings {
	t.Helper()
	var saved []types.LEDSettings
	conn := f.bus.NewConnection("store")
	sub := conn.Subscribe(TopicSave)
	go func() {
		for msg := range sub.Channel() {
			if ls, ok := msg.Payload.(types.LEDSettings); ok {
				saved = append(saved, ls)
			}
			conn.Reply(msg, types.ReplyOK(nil))
		}
	}()
	return &saved
}

func TestMenuWrapsAndOpensScreens(t *testing.T) {
	f := newFixture(t, Config{})
	menu := f.svc.screen.(*menuScreen)

	names := []string{}
	for _, it := range menu.items() {
		names = append(names, it.name)
	}
	want := []string{"About", "Sponsors", "Our team", "Utils", "Lights", "Badge"}
	if len(names) != len(want) {
		t.Fatalf("menu items %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("menu items %v, want %v", names, want)
		}
	}

	// Prev from the first item wraps to the last.
	menu.HandleButton(press(types.ButtonPrev))
	if menu.index != len(want)-1 {
		t.Fatalf("index %d after wrap", menu.index)
	}

	menu.index = 0
	next := menu.HandleButton(press(types.ButtonSelect))
	if _, ok := next.(*textScreen); !ok {
		t.Fatalf("About opened %T", next)
	}
}

func TestListSelectionScrolls(t *testing.T) {
	f := newFixture(t, Config{})
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	s := &listScreen{ui: f.svc, title: "T", items: items}

	for i := 0; i < len(items)-1; i++ {
		s.HandleButton(press(types.ButtonNext))
	}
	if s.index != len(items)-1 {
		t.Fatalf("index %d", s.index)
	}
	if s.offset > s.index || s.index >= s.offset+s.rows() {
		t.Fatalf("cursor %d outside window [%d,%d)", s.index, s.offset, s.offset+s.rows())
	}

	// Wrap back to the top resets the window.
	s.HandleButton(press(types.ButtonNext))
	if s.index != 0 || s.offset != 0 {
		t.Fatalf("index %d offset %d after wrap", s.index, s.offset)
	}
}

func TestParamAdjustPublishesSettings(t *testing.T) {
	f := newFixture(t, Config{})
	sub := f.conn.Subscribe(TopicSettings)

	hue := newParamScreen(f.svc, paramHue).(*paramScreen)
	f.svc.settings.Hue = types.MaxHue
	hue.HandleButton(press(types.ButtonNext))
	if f.svc.settings.Hue != 0 {
		t.Fatalf("hue %d, expected wraparound to 0", f.svc.settings.Hue)
	}

	select {
	case msg := <-sub.Channel():
		if !msg.Retained {
			t.Fatal("settings message not retained")
		}
		if got := msg.Payload.(types.LEDSettings).Hue; got != 0 {
			t.Fatalf("published hue %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no settings published")
	}

	// Brightness does not wrap: at the ceiling Next is a no-op.
	bright := newParamScreen(f.svc, paramBrightness).(*paramScreen)
	f.svc.settings.Brightness = types.MaxBrightness
	bright.HandleButton(press(types.ButtonNext))
	if f.svc.settings.Brightness != types.MaxBrightness {
		t.Fatalf("brightness %d moved past max", f.svc.settings.Brightness)
	}
}

func TestEffectsSelectionPublishes(t *testing.T) {
	f := newFixture(t, Config{})
	sub := f.conn.Subscribe(TopicSettings)

	s := newEffectsScreen(f.svc).(*listScreen)
	s.HandleButton(press(types.ButtonNext))
	s.HandleButton(press(types.ButtonSelect))

	select {
	case msg := <-sub.Channel():
		if got := msg.Payload.(types.LEDSettings).Effect; got != 1 {
			t.Fatalf("published effect %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no settings published")
	}
}

func TestLeavingLightsSaves(t *testing.T) {
	f := newFixture(t, Config{})
	saved := f.fakeStore(t)

	lights := newLightsScreen(f.svc).(*listScreen)
	f.svc.settings.Speed = 77
	next := lights.HandleButton(press(types.ButtonBack))
	if _, ok := next.(*menuScreen); !ok {
		t.Fatalf("back landed on %T", next)
	}
	if len(*saved) != 1 || (*saved)[0].Speed != 77 {
		t.Fatalf("store saw %v", *saved)
	}
}

func TestStopwatchStartStopReset(t *testing.T) {
	f := newFixture(t, Config{})
	sw := &stopwatchScreen{ui: f.svc}

	sw.HandleButton(press(types.ButtonSelect))
	if !sw.running {
		t.Fatal("not running after start")
	}
	time.Sleep(30 * time.Millisecond)
	sw.HandleButton(press(types.ButtonSelect))
	if sw.running {
		t.Fatal("still running after stop")
	}
	if sw.elapsedMs < 20 {
		t.Fatalf("elapsed %dms", sw.elapsedMs)
	}

	// Reset only works while stopped.
	sw.HandleButton(press(types.ButtonPrev))
	if sw.elapsedMs != 0 {
		t.Fatalf("elapsed %dms after reset", sw.elapsedMs)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00.00"},
		{10, "00:00:00.01"},
		{1000, "00:00:01.00"},
		{61_230, "00:01:01.23"},
		{3_600_000, "01:00:00.00"},
	}
	for _, c := range cases {
		if got := formatElapsed(c.ms); got != c.want {
			t.Fatalf("formatElapsed(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func TestFetchScreenStatusLines(t *testing.T) {
	f := newFixture(t, Config{})
	s := &fetchNameScreen{ui: f.svc}

	f.svc.status = types.NameStatus{Stage: "connecting"}
	if got := s.statusLine(); got != "Connecting WiFi..." {
		t.Fatalf("status %q", got)
	}
	f.svc.status = types.NameStatus{Stage: "done", Name: "Ada"}
	if got := s.statusLine(); got != "Name: Ada" {
		t.Fatalf("status %q", got)
	}
	f.svc.status = types.NameStatus{Stage: "error", Err: "boom"}
	if got := s.statusLine(); !strings.Contains(got, "boom") {
		t.Fatalf("status %q", got)
	}
}

func TestFetchSelectSendsRequest(t *testing.T) {
	f := newFixture(t, Config{})
	fetchConn := f.bus.NewConnection("names")
	sub := fetchConn.Subscribe(TopicFetch)

	s := &fetchNameScreen{ui: f.svc}
	s.HandleButton(press(types.ButtonSelect))

	select {
	case msg := <-sub.Channel():
		fetchConn.Reply(msg, types.ReplyOK("Ada"))
	case <-time.After(time.Second):
		t.Fatal("no fetch request on the bus")
	}
}

func TestWrapParagraphsKeepsBlankLines(t *testing.T) {
	f := newFixture(t, Config{})
	// 4px per char, 128px wide: 32 chars per line.
	lines := f.svc.canvas.WrapParagraphs(FontSmall, "alpha beta\n\ngamma")
	want := []string{"alpha beta", "", "gamma"}
	if len(lines) != len(want) {
		t.Fatalf("lines %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines %q, want %q", lines, want)
		}
	}

	long := strings.Repeat("word ", 20)
	for _, l := range f.svc.canvas.WrapParagraphs(FontSmall, long) {
		if 4*len(l) > 128 {
			t.Fatalf("line %q exceeds width", l)
		}
	}
}

func TestWrapBlockBreaksAndEllipsizes(t *testing.T) {
	f := newFixture(t, Config{})
	c := f.svc.canvas

	// A 40-char word cannot fit in 32 chars; it must break at glyph level.
	longWord := strings.Repeat("x", 40)
	lines := c.WrapBlock(FontLarge, longWord, 128, 4)
	if len(lines) != 2 || len(lines[0]) != 32 {
		t.Fatalf("lines %q", lines)
	}

	// Overflowing maxRows ellipsizes the last visible line.
	many := strings.Repeat("hello ", 40)
	lines = c.WrapBlock(FontLarge, many, 128, 2)
	if len(lines) != 2 || !strings.HasSuffix(lines[1], "...") {
		t.Fatalf("lines %q", lines)
	}
}

func TestReaderInMenuWhenBookPresent(t *testing.T) {
	book, err := bookfmt.Encode(&bookfmt.Archive{
		Info: "test",
		Root: []bookfmt.Node{
			{Name: "Stories", Children: []bookfmt.Node{
				{Name: "One", Text: "once upon a time"},
			}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, Config{Book: book})
	menu := f.svc.screen.(*menuScreen)
	items := menu.items()
	if items[len(items)-1].name != "Reader" {
		t.Fatalf("menu items %v", items)
	}

	// Reader -> Stories -> One -> text.
	reader := newReaderScreen(f.svc).(*listScreen)
	stories := reader.HandleButton(press(types.ButtonSelect)).(*listScreen)
	leaf := stories.HandleButton(press(types.ButtonSelect))
	txt, ok := leaf.(*textScreen)
	if !ok {
		t.Fatalf("leaf is %T", leaf)
	}
	if txt.text != "once upon a time" {
		t.Fatalf("text %q", txt.text)
	}
	if back := txt.HandleButton(press(types.ButtonBack)); back != Screen(stories) {
		t.Fatalf("back landed on %T", back)
	}
}

func TestSplashAfterInactivity(t *testing.T) {
	f := newFixture(t, Config{
		InactivityTimeout: 30 * time.Millisecond,
		LogoPeriod:        20 * time.Millisecond,
		Tick:              5 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.svc.Start(ctx)

	// The boot splash lights pixels without any input.
	deadline := time.Now().Add(2 * time.Second)
	for f.fb.LitCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("splash never drew")
		}
		time.Sleep(time.Millisecond)
	}

	// A button press switches to the menu screen.
	f.conn.Publish(f.conn.NewMessage(TopicButtons, press(types.ButtonNext), false))
	time.Sleep(50 * time.Millisecond)

	// And idling brings the splash back.
	flushes := f.fb.FlushCount()
	deadline = time.Now().Add(2 * time.Second)
	for f.fb.FlushCount() == flushes {
		if time.Now().After(deadline) {
			t.Fatal("idle splash never redrew")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
