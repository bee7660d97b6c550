// Interactive badge self-test. Run it over serial after assembly: it draws a
// test pattern, sweeps the ring, round-trips the flash store and asks for one
// press of every button.
package main

import (
	"context"
	"image/color"
	"time"

	"badge-go/bus"
	"badge-go/platform"
	"badge-go/services/input"
	"badge-go/services/store"
	"badge-go/services/ui"
	"badge-go/types"
	"badge-go/x/colorx"
)

const buttonTimeout = 15 * time.Second

func main() {
	time.Sleep(2 * time.Second)
	println("=== boardtest ===")

	board := platform.New()
	ctx := context.Background()
	b := bus.NewBus(8)

	pass := true
	step := func(name string, ok bool) {
		if ok {
			println("[PASS]", name)
		} else {
			println("[FAIL]", name)
			pass = false
		}
	}

	step("display", testDisplay(board))
	step("ring", testRing(board))
	step("store", testStore(ctx, b, board))
	step("buttons", testButtons(ctx, b, board))

	if pass {
		println("=== boardtest: PASS ===")
	} else {
		println("=== boardtest: FAIL ===")
	}
	for {
		time.Sleep(time.Second)
	}
}

// testDisplay draws an 8px checkerboard so shorted or dead columns stand out.
func testDisplay(board *platform.Board) bool {
	c := ui.NewCanvas(board.Display)
	c.Clear()
	for y := int16(0); y < c.H; y += 8 {
		for x := int16(0); x < c.W; x += 8 {
			if (x/8+y/8)%2 == 0 {
				c.FillRect(x, y, 8, 8)
			}
		}
	}
	return c.Flush() == nil
}

// testRing sweeps a hue around the ring, then clears it.
func testRing(board *platform.Board) bool {
	frame := make([]color.RGBA, board.StripLen)
	for i := range frame {
		for j := range frame {
			frame[j] = color.RGBA{A: 255}
		}
		frame[i] = colorx.HSV(float32(i*360/len(frame)), 1, 0.2)
		if err := board.Strip.WriteColors(frame); err != nil {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
	for j := range frame {
		frame[j] = color.RGBA{A: 255}
	}
	return board.Strip.WriteColors(frame) == nil
}

// testStore saves settings and checks they come back on the retained topic.
func testStore(ctx context.Context, b *bus.Bus, board *platform.Board) bool {
	store.New(b.NewConnection("store"), board.FS, store.Config{}).Start(ctx)

	conn := b.NewConnection("boardtest-store")
	want := types.LEDSettings{Effect: 1, Brightness: 42, Hue: 123, Saturation: 77, Speed: 9}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	reply, err := conn.RequestWait(reqCtx, conn.NewMessage(store.TopicSave, want, false))
	if err != nil {
		println("store: save:", err.Error())
		return false
	}
	if r, ok := reply.Payload.(types.Reply); !ok || !r.OK {
		println("store: save rejected")
		return false
	}

	sub := conn.Subscribe(store.TopicSettings)
	defer conn.Unsubscribe(sub)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if ls, ok := msg.Payload.(types.LEDSettings); ok && ls == want {
				return true
			}
		case <-deadline:
			println("store: settings never came back")
			return false
		}
	}
}

// testButtons waits for one press of every button.
func testButtons(ctx context.Context, b *bus.Bus, board *platform.Board) bool {
	input.New(b.NewConnection("input"), board.Buttons, input.Config{}).Start(ctx)

	conn := b.NewConnection("boardtest-input")
	sub := conn.Subscribe(input.TopicButton)
	defer conn.Unsubscribe(sub)

	waiting := map[types.ButtonID]bool{
		types.ButtonNext:   true,
		types.ButtonPrev:   true,
		types.ButtonSelect: true,
		types.ButtonBack:   true,
	}
	println("press each button once (Next, Prev, Select, Back)")

	deadline := time.After(buttonTimeout)
	for len(waiting) > 0 {
		select {
		case msg := <-sub.Channel():
			ev, ok := msg.Payload.(types.ButtonEvent)
			if !ok || ev.Action != types.ActionPress {
				continue
			}
			if waiting[ev.Button] {
				delete(waiting, ev.Button)
				println("  ", ev.Button.String(), "ok")
			}
		case <-deadline:
			for id := range waiting {
				println("  ", id.String(), "missing")
			}
			return false
		}
	}
	return true
}
