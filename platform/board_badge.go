//go:build tinygo

package platform

import (
	"machine"

	"tinygo.org/x/drivers/netlink"
	"tinygo.org/x/drivers/netlink/probe"
	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/drivers/ws2812"
	"tinygo.org/x/tinyfs/littlefs"

	"badge-go/types"
)

// Badge pinout (ESP32-C3FH4).
const (
	pinSCL = machine.GPIO1
	pinSDA = machine.GPIO0

	pinNeoPixel = machine.GPIO3

	pinBtnNext   = machine.GPIO5
	pinBtnPrev   = machine.GPIO8
	pinBtnSelect = machine.GPIO4
	pinBtnBack   = machine.GPIO9
)

// New wires the real badge hardware.
func New() *Board {
	machine.I2C0.Configure(machine.I2CConfig{
		SCL:       pinSCL,
		SDA:       pinSDA,
		Frequency: 400_000,
	})

	display := ssd1306.NewI2C(machine.I2C0)
	display.Configure(ssd1306.Config{
		Address: 0x3C,
		Width:   OLEDWidth,
		Height:  OLEDHeight,
	})
	display.ClearDisplay()

	neo := pinNeoPixel
	neo.Configure(machine.PinConfig{Mode: machine.PinOutput})
	strip := ws2812.NewWS2812(neo)

	lfs := littlefs.New(machine.Flash)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 512,
		BlockCycles:   100,
	})

	link, _ := probe.Probe()

	return &Board{
		Display:  &display,
		Strip:    strip,
		StripLen: NeoPixelCount,
		Buttons: map[types.ButtonID]Pin{
			types.ButtonNext:   newIRQPin(pinBtnNext),
			types.ButtonPrev:   newIRQPin(pinBtnPrev),
			types.ButtonSelect: newIRQPin(pinBtnSelect),
			types.ButtonBack:   newIRQPin(pinBtnBack),
		},
		FS:      &lfsAdapter{fs: lfs},
		Console: machine.Serial,
		Link:    &netLink{link: link},
		Dial:    NewDialer(),
	}
}

// BootPinHeld reports whether the Select button is held at power-up.
// main.py gates the application on this to leave a recovery path.
func BootPinHeld() bool {
	p := pinBtnSelect
	p.Configure(machine.PinConfig{Mode: machine.PinInput})
	return !p.Get()
}

// -----------------------------------------------------------------------------
// Pin with IRQ
// -----------------------------------------------------------------------------

type irqPin struct {
	pin machine.Pin
}

func newIRQPin(p machine.Pin) *irqPin {
	p.Configure(machine.PinConfig{Mode: machine.PinInput}) // external pull-ups
	return &irqPin{pin: p}
}

func (p *irqPin) Get() bool { return p.pin.Get() }

func (p *irqPin) SetIRQ(handler func()) error {
	return p.pin.SetInterrupt(machine.PinRising|machine.PinFalling, func(machine.Pin) {
		handler()
	})
}

func (p *irqPin) ClearIRQ() error {
	return p.pin.SetInterrupt(0, nil)
}

// -----------------------------------------------------------------------------
// Filesystem adapter
// -----------------------------------------------------------------------------

type lfsAdapter struct {
	fs *littlefs.LFS
}

func (a *lfsAdapter) Mount() error  { return a.fs.Mount() }
func (a *lfsAdapter) Format() error { return a.fs.Format() }

func (a *lfsAdapter) OpenFile(name string, flags int) (File, error) {
	f, err := a.fs.OpenFile(name, flags)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (a *lfsAdapter) Remove(name string) error { return a.fs.Remove(name) }

// -----------------------------------------------------------------------------
// WiFi link
// -----------------------------------------------------------------------------

type netLink struct {
	link netlink.Netlinker
}

func (n *netLink) Connect(ssid, passphrase string) error {
	return n.link.NetConnect(&netlink.ConnectParams{
		Ssid:       ssid,
		Passphrase: passphrase,
	})
}

func (n *netLink) Disconnect() error {
	n.link.NetDisconnect()
	return nil
}
