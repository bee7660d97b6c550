package main

import (
	"context"
	"time"

	"badge-go/bus"
	"badge-go/platform"
	"badge-go/services/console"
	"badge-go/services/input"
	"badge-go/services/leds"
	"badge-go/services/names"
	"badge-go/services/store"
	"badge-go/services/ui"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	// Recovery gate: holding Select through reset skips the application so
	// a badge with broken firmware state stays reachable over serial.
	if platform.BootPinHeld() {
		println("Not starting main application")
		for {
			time.Sleep(time.Second)
			println("Heartbeat")
		}
	}

	println("boot")
	board := platform.New()
	ctx := context.Background()
	b := bus.NewBus(8)

	// The store goes first so its retained settings and identity are
	// waiting for everyone else.
	store.New(b.NewConnection("store"), board.FS, store.Config{}).Start(ctx)
	input.New(b.NewConnection("input"), board.Buttons, input.Config{}).Start(ctx)
	leds.New(b.NewConnection("leds"), board.Strip, board.StripLen, leds.Config{Startup: true}).Start(ctx)
	ui.New(b.NewConnection("ui"), board.Display, ui.Config{}).Start(ctx)
	names.New(b.NewConnection("names"), board.Link, board.Dial, names.Config{}).Start(ctx)
	console.New(b.NewConnection("console"), board.Console, console.Config{}).Start(ctx)

	println("Info: badge up")
	select {}
}
