// Package store owns the flash filesystem. It loads the persisted light
// settings and the badge identity at startup, publishes both retained, and
// persists changes on request. Nothing else on the badge touches the
// filesystem directly.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"badge-go/bus"
	"badge-go/errcode"
	"badge-go/platform"
	"badge-go/types"
)

var (
	// TopicSettings carries the retained types.LEDSettings in effect.
	TopicSettings = bus.T("config", "leds")
	// TopicIdentity carries the retained types.Identity.
	TopicIdentity = bus.T("identity")
	// TopicSave asks the store to persist the types.LEDSettings payload.
	TopicSave = bus.T("store", "control", "save")
	// TopicSetName asks the store to persist the string payload as username.
	TopicSetName = bus.T("store", "control", "set_name")
)

const (
	paramsFile = "params.json"
	idFile     = "id.txt"
	nameFile   = "yourname.txt"
)

type Config struct {
	// ReadRandom fills p with random bytes for device ID generation.
	// Nil means crypto/rand.
	ReadRandom func(p []byte) error
}

type Service struct {
	conn *bus.Connection
	fs   platform.Filesystem
	cfg  Config

	mounted  bool
	identity types.Identity
}

func New(conn *bus.Connection, fs platform.Filesystem, cfg Config) *Service {
	if cfg.ReadRandom == nil {
		cfg.ReadRandom = func(p []byte) error {
			_, err := rand.Read(p)
			return err
		}
	}
	return &Service{conn: conn, fs: fs, cfg: cfg}
}

func (s *Service) Start(ctx context.Context) {
	s.mount()

	settings := types.DefaultLEDSettings()
	if s.mounted {
		if ls, err := s.loadParams(); err == nil {
			settings = ls
		} else if !errors.Is(err, os.ErrNotExist) {
			println("Info: store: params load:", err.Error())
		}
		s.identity.DeviceID = s.loadOrCreateID()
		s.identity.Username = s.loadName()
	}
	s.conn.Publish(s.conn.NewMessage(TopicSettings, settings, true))
	s.conn.Publish(s.conn.NewMessage(TopicIdentity, s.identity, true))

	saveSub := s.conn.Subscribe(TopicSave)
	nameSub := s.conn.Subscribe(TopicSetName)
	go s.loop(ctx, saveSub, nameSub)
}

func (s *Service) loop(ctx context.Context, saveSub, nameSub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			s.conn.Disconnect()
			return
		case msg := <-saveSub.Channel():
			s.conn.Reply(msg, s.handleSave(msg))
		case msg := <-nameSub.Channel():
			s.conn.Reply(msg, s.handleSetName(msg))
		}
	}
}

// mount brings the filesystem up, reformatting a corrupted one. A badge that
// cannot mount after a format runs without persistence.
func (s *Service) mount() {
	err := s.fs.Mount()
	if err == nil {
		s.mounted = true
		return
	}
	println("Info: store: mount failed, formatting:", err.Error())
	if err := s.fs.Format(); err != nil {
		println("Error: store: format:", err.Error())
		return
	}
	if err := s.fs.Mount(); err != nil {
		println("Error: store: mount after format:", err.Error())
		return
	}
	s.mounted = true
}

func (s *Service) handleSave(msg *bus.Message) types.Reply {
	ls, ok := msg.Payload.(types.LEDSettings)
	if !ok {
		return types.ReplyErr(errcode.InvalidPayload)
	}
	if !s.mounted {
		return types.ReplyErr(errcode.StoreUnavailable)
	}
	ls = ls.Clamped(0)
	if err := s.saveParams(ls); err != nil {
		return types.ReplyErr(&errcode.E{C: errcode.StoreUnavailable, Op: "store.save", Msg: err.Error(), Err: err})
	}
	s.conn.Publish(s.conn.NewMessage(TopicSettings, ls, true))
	return types.ReplyOK(nil)
}

func (s *Service) handleSetName(msg *bus.Message) types.Reply {
	name, ok := msg.Payload.(string)
	if !ok {
		return types.ReplyErr(errcode.InvalidPayload)
	}
	if !s.mounted {
		return types.ReplyErr(errcode.StoreUnavailable)
	}
	name = strings.TrimSpace(name)
	if err := s.writeFile(nameFile, []byte(name)); err != nil {
		return types.ReplyErr(&errcode.E{C: errcode.StoreUnavailable, Op: "store.set_name", Msg: err.Error(), Err: err})
	}
	s.identity.Username = name
	s.conn.Publish(s.conn.NewMessage(TopicIdentity, s.identity, true))
	return types.ReplyOK(s.identity)
}

// -----------------------------------------------------------------------------
// Files
// -----------------------------------------------------------------------------

func (s *Service) readFile(name string) ([]byte, error) {
	f, err := s.fs.OpenFile(name, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	cerr := f.Close()
	if err != nil {
		return nil, err
	}
	return data, cerr
}

func (s *Service) writeFile(name string, data []byte) error {
	f, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Service) loadName() string {
	data, err := s.readFile(nameFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Service) loadOrCreateID() string {
	if data, err := s.readFile(idFile); err == nil {
		id := strings.ToUpper(strings.TrimSpace(string(data)))
		if isValidHexID(id) {
			return id
		}
	}

	var raw [6]byte
	if err := s.cfg.ReadRandom(raw[:]); err != nil {
		println("Error: store: random:", err.Error())
		return ""
	}
	const hexDigits = "0123456789ABCDEF"
	id := make([]byte, 0, 12)
	for _, b := range raw {
		id = append(id, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	if err := s.writeFile(idFile, id); err != nil {
		println("Error: store: id write:", err.Error())
	}
	return string(id)
}

func isValidHexID(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'F':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Parameter JSON
// -----------------------------------------------------------------------------

// The on-disk format is a flat JSON object keeping the historical key names,
// so a badge upgraded in place keeps its settings.
func (s *Service) saveParams(ls types.LEDSettings) error {
	var b strings.Builder
	b.WriteString(`{"Light_effect": `)
	b.WriteString(strconv.Itoa(ls.Effect))
	b.WriteString(`, "Brightness": `)
	b.WriteString(strconv.Itoa(ls.Brightness))
	b.WriteString(`, "Hue": `)
	b.WriteString(strconv.Itoa(ls.Hue))
	b.WriteString(`, "Saturation": `)
	b.WriteString(strconv.Itoa(ls.Saturation))
	b.WriteString(`, "Speed": `)
	b.WriteString(strconv.Itoa(ls.Speed))
	b.WriteString(`}`)
	return s.writeFile(paramsFile, []byte(b.String()))
}

func (s *Service) loadParams() (types.LEDSettings, error) {
	ls := types.DefaultLEDSettings()
	data, err := s.readFile(paramsFile)
	if err != nil {
		return ls, err
	}
	m, err := decodeParams(data)
	if err != nil {
		return ls, err
	}
	if v, ok := asInt(m["Light_effect"]); ok {
		ls.Effect = v
	}
	if v, ok := asInt(m["Brightness"]); ok {
		ls.Brightness = v
	}
	if v, ok := asInt(m["Hue"]); ok {
		ls.Hue = v
	}
	if v, ok := asInt(m["Saturation"]); ok {
		ls.Saturation = v
	}
	if v, ok := asInt(m["Speed"]); ok {
		ls.Speed = v
	}
	return ls.Clamped(0), nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
