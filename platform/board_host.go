//go:build !tinygo

package platform

import (
	"errors"
	"image/color"
	"io"
	"net"
	"os"
	"sync"

	"badge-go/types"
)

// New assembles a fully in-memory board for host builds and tests.
func New() *Board {
	fb := NewFramebuffer(OLEDWidth, OLEDHeight)
	strip := &FakeStrip{}
	return &Board{
		Display:  fb,
		Strip:    strip,
		StripLen: NeoPixelCount,
		Buttons: map[types.ButtonID]Pin{
			types.ButtonNext:   NewFakePin(),
			types.ButtonPrev:   NewFakePin(),
			types.ButtonSelect: NewFakePin(),
			types.ButtonBack:   NewFakePin(),
		},
		FS:      NewMemFS(),
		Console: NewFakeConsole(),
		Link:    &FakeLink{},
		Dial: func(network, address string) (net.Conn, error) {
			return nil, errors.New("no network on host board")
		},
	}
}

// BootPinHeld is always false on the host.
func BootPinHeld() bool { return false }

// -----------------------------------------------------------------------------
// Framebuffer displayer
// -----------------------------------------------------------------------------

// Framebuffer implements drivers.Displayer over a plain pixel grid.
type Framebuffer struct {
	W, H    int16
	mu      sync.Mutex
	pix     []bool
	flushes int
}

func NewFramebuffer(w, h int16) *Framebuffer {
	return &Framebuffer{W: w, H: h, pix: make([]bool, int(w)*int(h))}
}

func (f *Framebuffer) Size() (int16, int16) { return f.W, f.H }

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return
	}
	f.mu.Lock()
	f.pix[int(y)*int(f.W)+int(x)] = c.R != 0 || c.G != 0 || c.B != 0
	f.mu.Unlock()
}

func (f *Framebuffer) Display() error {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
	return nil
}

func (f *Framebuffer) ClearBuffer() {
	f.mu.Lock()
	for i := range f.pix {
		f.pix[i] = false
	}
	f.mu.Unlock()
}

// On reports whether a pixel is lit.
func (f *Framebuffer) On(x, y int16) bool {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pix[int(y)*int(f.W)+int(x)]
}

// LitCount returns the number of lit pixels, for coarse render assertions.
func (f *Framebuffer) LitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.pix {
		if p {
			n++
		}
	}
	return n
}

// FlushCount returns how many times Display has been called.
func (f *Framebuffer) FlushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// -----------------------------------------------------------------------------
// LED strip
// -----------------------------------------------------------------------------

// FakeStrip records every frame written to it.
type FakeStrip struct {
	mu     sync.Mutex
	last   []color.RGBA
	Frames int
}

func (s *FakeStrip) WriteColors(buf []color.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], buf...)
	s.Frames++
	return nil
}

// Last returns a copy of the most recent frame.
func (s *FakeStrip) Last() []color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]color.RGBA, len(s.last))
	copy(out, s.last)
	return out
}

func (s *FakeStrip) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Frames
}

// -----------------------------------------------------------------------------
// Input pin
// -----------------------------------------------------------------------------

// FakePin is a programmable input pin. Level defaults to high (released,
// external pull-ups).
type FakePin struct {
	mu      sync.Mutex
	level   bool
	handler func()
}

func NewFakePin() *FakePin { return &FakePin{level: true} }

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *FakePin) SetIRQ(handler func()) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.handler = nil
	p.mu.Unlock()
	return nil
}

// SetLevel drives the pin and fires the IRQ handler like an edge would.
func (p *FakePin) SetLevel(level bool) {
	p.mu.Lock()
	changed := p.level != level
	p.level = level
	h := p.handler
	p.mu.Unlock()
	if changed && h != nil {
		h()
	}
}

// -----------------------------------------------------------------------------
// Filesystem
// -----------------------------------------------------------------------------

// MemFS is an in-memory Filesystem with whole-file semantics.
type MemFS struct {
	mu      sync.Mutex
	files   map[string][]byte
	mounted bool

	// FailWrites makes Close on writable files return an error.
	FailWrites bool
	// FailMounts makes the next N Mount calls fail.
	FailMounts int
}

func NewMemFS() *MemFS { return &MemFS{files: map[string][]byte{}} }

func (m *MemFS) Mount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMounts > 0 {
		m.FailMounts--
		return errors.New("memfs: mount failed")
	}
	m.mounted = true
	return nil
}

func (m *MemFS) Format() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = map[string][]byte{}
	return nil
}

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

func (m *MemFS) OpenFile(name string, flags int) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, exists := m.files[name]
	writable := flags&(os.O_WRONLY|os.O_RDWR) != 0
	if !exists {
		if flags&os.O_CREATE == 0 {
			return nil, os.ErrNotExist
		}
		data = nil
	}
	if flags&os.O_TRUNC != 0 {
		data = nil
	}
	return &memFile{fs: m, name: name, data: append([]byte(nil), data...), writable: writable}, nil
}

type memFile struct {
	fs       *MemFS
	name     string
	data     []byte
	off      int
	writable bool
	wrote    []byte
	dirty    bool
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.off >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.off:])
	f.off += n
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, errors.New("memfs: file not writable")
	}
	f.wrote = append(f.wrote, p...)
	f.dirty = true
	return len(p), nil
}

func (f *memFile) Close() error {
	if !f.dirty {
		return nil
	}
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.fs.FailWrites {
		return errors.New("memfs: write failed")
	}
	f.fs.files[f.name] = f.wrote
	return nil
}

// -----------------------------------------------------------------------------
// Console
// -----------------------------------------------------------------------------

// FakeConsole is a bidirectional in-memory console.
type FakeConsole struct {
	mu  sync.Mutex
	in  []byte
	out []byte
}

func NewFakeConsole() *FakeConsole { return &FakeConsole{} }

func (c *FakeConsole) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.in) == 0 {
		return 0, errors.New("console: no data")
	}
	b := c.in[0]
	c.in = c.in[1:]
	return b, nil
}

func (c *FakeConsole) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.in)
}

func (c *FakeConsole) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, p...)
	return len(p), nil
}

// Feed queues input as if typed on the serial port.
func (c *FakeConsole) Feed(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in = append(c.in, s...)
}

// Output returns everything written so far.
func (c *FakeConsole) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.out)
}

// -----------------------------------------------------------------------------
// WiFi link
// -----------------------------------------------------------------------------

// FakeLink records connect/disconnect calls.
type FakeLink struct {
	mu          sync.Mutex
	Fail        error
	connected   bool
	Connects    int
	Disconnects int
	SSID        string
}

func (l *FakeLink) Connect(ssid, passphrase string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Connects++
	l.SSID = ssid
	if l.Fail != nil {
		return l.Fail
	}
	l.connected = true
	return nil
}

func (l *FakeLink) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Disconnects++
	l.connected = false
	return nil
}

func (l *FakeLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}
