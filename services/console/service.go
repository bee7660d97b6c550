// Package console is the serial debug console: a line-oriented command
// interpreter on the USB serial port. Output goes through a byte ring
// drained by a separate writer goroutine, so a slow or absent host never
// stalls the service loop.
package console

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"badge-go/bus"
	"badge-go/errcode"
	"badge-go/platform"
	"badge-go/types"
	"badge-go/x/ringbuf"
	"badge-go/x/timex"
)

var (
	TopicSettings = bus.T("config", "leds")
	TopicIdentity = bus.T("identity")
	TopicSave     = bus.T("store", "control", "save")
)

const maxLine = 128

type Config struct {
	Poll     time.Duration // serial poll interval, default 10ms
	RingSize int           // output ring size, default 1024, power of two
}

type Service struct {
	conn *bus.Connection
	port platform.Console
	ring *ringbuf.Ring
	cfg  Config

	settings types.LEDSettings
	identity types.Identity
	startMs  int64
	line     []byte
}

func New(conn *bus.Connection, port platform.Console, cfg Config) *Service {
	if cfg.Poll == 0 {
		cfg.Poll = 10 * time.Millisecond
	}
	if cfg.RingSize == 0 {
		cfg.RingSize = 1024
	}
	return &Service{
		conn:     conn,
		port:     port,
		ring:     ringbuf.New(cfg.RingSize),
		cfg:      cfg,
		settings: types.DefaultLEDSettings(),
		startMs:  timex.NowMs(),
	}
}

func (s *Service) Start(ctx context.Context) {
	settings := s.conn.Subscribe(TopicSettings)
	identity := s.conn.Subscribe(TopicIdentity)
	go s.writeLoop(ctx)
	go s.loop(ctx, settings, identity)
}

func (s *Service) loop(ctx context.Context, settings, identity *bus.Subscription) {
	poll := time.NewTicker(s.cfg.Poll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conn.Disconnect()
			return
		case msg := <-settings.Channel():
			if ls, ok := msg.Payload.(types.LEDSettings); ok {
				s.settings = ls
			}
		case msg := <-identity.Channel():
			if id, ok := msg.Payload.(types.Identity); ok {
				s.identity = id
			}
		case <-poll.C:
			s.pump()
		}
	}
}

// pump drains whatever the serial port buffered, executing completed lines.
func (s *Service) pump() {
	for s.port.Buffered() > 0 {
		b, err := s.port.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case '\r', '\n':
			if len(s.line) > 0 {
				s.execute(string(s.line))
				s.line = s.line[:0]
			}
		default:
			if len(s.line) < maxLine {
				s.line = append(s.line, b)
			}
		}
	}
}

func (s *Service) execute(line string) {
	args, err := shlex.Split(line)
	if err != nil {
		s.print("parse error: " + err.Error() + "\r\n")
		return
	}
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "help":
		s.print("commands: help id name led <effect|brightness|hue|sat|speed> <n> save mem uptime\r\n")
	case "id":
		s.print(s.identity.DeviceID + "\r\n")
	case "name":
		if s.identity.Username == "" {
			s.print("(unset)\r\n")
		} else {
			s.print(s.identity.Username + "\r\n")
		}
	case "led":
		s.cmdLED(args[1:])
	case "save":
		s.cmdSave()
	case "mem":
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		s.print("alloc=" + strconv.FormatUint(m.Alloc, 10) +
			" sys=" + strconv.FormatUint(m.Sys, 10) + "\r\n")
	case "uptime":
		up := (timex.NowMs() - s.startMs) / 1000
		s.print(strconv.FormatInt(up, 10) + "s\r\n")
	default:
		s.print(string(errcode.UnknownCommand) + ": " + args[0] + " (try help)\r\n")
	}
}

func (s *Service) cmdLED(args []string) {
	if len(args) != 2 {
		s.print("usage: led <effect|brightness|hue|sat|speed> <n>\r\n")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		s.print(string(errcode.InvalidParams) + ": " + args[1] + "\r\n")
		return
	}

	switch strings.ToLower(args[0]) {
	case "effect":
		s.settings.Effect = n
	case "brightness":
		s.settings.Brightness = n
	case "hue":
		s.settings.Hue = n
	case "sat", "saturation":
		s.settings.Saturation = n
	case "speed":
		s.settings.Speed = n
	default:
		s.print(string(errcode.InvalidParams) + ": " + args[0] + "\r\n")
		return
	}
	s.settings = s.settings.Clamped(0)
	s.conn.Publish(s.conn.NewMessage(TopicSettings, s.settings, true))
	s.print("ok\r\n")
}

func (s *Service) cmdSave() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(TopicSave, s.settings, false))
	if err != nil {
		s.print(string(errcode.Of(err)) + "\r\n")
		return
	}
	if r, ok := reply.Payload.(types.Reply); ok && !r.OK {
		s.print(string(r.Code) + ": " + r.Detail + "\r\n")
		return
	}
	s.print("saved\r\n")
}

// print queues output; when the ring is full the tail is dropped rather
// than blocking the command loop.
func (s *Service) print(out string) {
	s.ring.TryWriteFrom([]byte(out))
}

func (s *Service) writeLoop(ctx context.Context) {
	var buf [64]byte
	for {
		// The readable edge only fires on an empty->non-empty transition, so a
		// writer racing a draining reader can leave bytes behind with no signal
		// pending. Pair the edge with a short back-off and re-check the level.
		select {
		case <-ctx.Done():
			return
		case <-s.ring.Readable():
		case <-time.After(time.Millisecond):
		}
		for {
			n := s.ring.TryReadInto(buf[:])
			if n == 0 {
				break
			}
			if _, err := s.port.Write(buf[:n]); err != nil {
				return
			}
		}
	}
}
