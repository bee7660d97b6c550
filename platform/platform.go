// Package platform is the hardware seam. Services consume these interfaces;
// board_badge.go binds them to the badge hardware under the tinygo build tag
// and board_host.go provides in-memory stand-ins for host builds and tests.
package platform

import (
	"image/color"
	"io"
	"net"

	"tinygo.org/x/drivers"

	"badge-go/types"
)

// Badge hardware facts.
const (
	OLEDWidth  = 128
	OLEDHeight = 64

	NeoPixelCount = 16
)

// Pin is a raw digital input with IRQ on both edges. Buttons are wired
// active-low with external pull-ups, so Get() == false means pressed.
type Pin interface {
	Get() bool
	SetIRQ(handler func()) error
	ClearIRQ() error
}

// Strip writes one frame to the addressable LED ring.
type Strip interface {
	WriteColors(buf []color.RGBA) error
}

// Console is the serial debug console endpoint.
type Console interface {
	ReadByte() (byte, error)
	Buffered() int
	Write(p []byte) (int, error)
}

// File is an open file on the badge filesystem.
type File interface {
	io.ReadWriteCloser
}

// Filesystem is the subset of the flash filesystem the badge uses.
// Flags for OpenFile are the usual os.O_* values.
type Filesystem interface {
	Mount() error
	Format() error
	OpenFile(name string, flags int) (File, error)
	Remove(name string) error
}

// Link brings the WiFi interface up and down.
type Link interface {
	Connect(ssid, passphrase string) error
	Disconnect() error
}

// DialFunc opens a TCP connection once the link is up.
type DialFunc func(network, address string) (net.Conn, error)

// Board aggregates everything the services need from the hardware.
type Board struct {
	Display  drivers.Displayer
	Strip    Strip
	StripLen int

	Buttons map[types.ButtonID]Pin

	FS      Filesystem
	Console Console

	Link Link
	Dial DialFunc
}
