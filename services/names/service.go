// Package names fetches the attendee name registered for this badge. It
// brings the WiFi link up on demand, asks the badge server for the name
// mapped to the device ID, hands the result to the store service and tears
// the link back down. Progress is published so the UI can narrate the fetch.
package names

import (
	"context"
	"io"
	"strings"
	"time"

	"badge-go/bus"
	"badge-go/errcode"
	"badge-go/platform"
	"badge-go/types"
)

var (
	// TopicFetch starts a fetch; request/reply with a types.Reply answer.
	// The payload may carry a device ID string, otherwise the retained
	// identity is used.
	TopicFetch = bus.T("names", "control", "fetch")
	// TopicStatus carries types.NameStatus progress events.
	TopicStatus = bus.T("names", "event", "status")
	// TopicSetName is the store's handler for persisting the fetched name.
	TopicSetName = bus.T("store", "control", "set_name")
	// TopicIdentity is the store's retained identity.
	TopicIdentity = bus.T("identity")
)

type Config struct {
	SSID       string // default "bsides-badge"
	Passphrase string // default "bsidestallinn"
	Host       string // default "badge.bsides.ee"
	Addr       string // default Host:443; the dialer terminates TLS for port 443

	// FetchTimeout bounds the whole connect+fetch sequence. Default 30s.
	FetchTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.SSID == "" {
		c.SSID = "bsides-badge"
	}
	if c.Passphrase == "" {
		c.Passphrase = "bsidestallinn"
	}
	if c.Host == "" {
		c.Host = "badge.bsides.ee"
	}
	if c.Addr == "" {
		c.Addr = c.Host + ":443"
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 30 * time.Second
	}
}

type Service struct {
	conn *bus.Connection
	link platform.Link
	dial platform.DialFunc
	cfg  Config

	deviceID string
}

func New(conn *bus.Connection, link platform.Link, dial platform.DialFunc, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{conn: conn, link: link, dial: dial, cfg: cfg}
}

func (s *Service) Start(ctx context.Context) {
	fetchSub := s.conn.Subscribe(TopicFetch)
	identSub := s.conn.Subscribe(TopicIdentity)
	go s.loop(ctx, fetchSub, identSub)
}

func (s *Service) loop(ctx context.Context, fetchSub, identSub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			s.conn.Disconnect()
			return
		case msg := <-identSub.Channel():
			if id, ok := msg.Payload.(types.Identity); ok {
				s.deviceID = id.DeviceID
			}
		case msg := <-fetchSub.Channel():
			s.drainIdentity(identSub)
			s.conn.Reply(msg, s.handleFetch(ctx, msg))
		}
	}
}

// drainIdentity applies any identity updates already queued, so a fetch
// requested right after boot sees the device ID the store just published.
func (s *Service) drainIdentity(identSub *bus.Subscription) {
	for {
		select {
		case msg := <-identSub.Channel():
			if id, ok := msg.Payload.(types.Identity); ok {
				s.deviceID = id.DeviceID
			}
		default:
			return
		}
	}
}

func (s *Service) handleFetch(ctx context.Context, msg *bus.Message) types.Reply {
	deviceID := s.deviceID
	if id, ok := msg.Payload.(string); ok && id != "" {
		deviceID = id
	}
	if deviceID == "" {
		return types.ReplyErr(errcode.InvalidParams)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	name, err := s.fetch(ctx, deviceID)
	if err != nil {
		s.status(types.NameStatus{Stage: "error", Err: err.Error()})
		return types.ReplyErr(err)
	}

	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(TopicSetName, name, false))
	if err != nil {
		s.status(types.NameStatus{Stage: "error", Err: err.Error()})
		return types.ReplyErr(err)
	}
	if r, ok := reply.Payload.(types.Reply); ok && !r.OK {
		// The name arrived but could not be persisted. Surface the store
		// error; the retained identity still carries the old name.
		s.status(types.NameStatus{Stage: "error", Err: r.Detail})
		return r
	}

	s.status(types.NameStatus{Stage: "done", Name: name})
	return types.ReplyOK(name)
}

func (s *Service) fetch(ctx context.Context, deviceID string) (string, error) {
	s.status(types.NameStatus{Stage: "connecting"})
	if err := s.link.Connect(s.cfg.SSID, s.cfg.Passphrase); err != nil {
		return "", &errcode.E{C: errcode.WiFiUnavailable, Op: "names.connect", Msg: err.Error(), Err: err}
	}
	defer func() {
		if err := s.link.Disconnect(); err != nil {
			println("Info: names: disconnect:", err.Error())
		}
	}()

	s.status(types.NameStatus{Stage: "fetching"})
	body, err := s.get(ctx, "/getname/"+deviceID)
	if err != nil {
		return "", &errcode.E{C: errcode.FetchFailed, Op: "names.get", Msg: err.Error(), Err: err}
	}
	return parseNameResponse(body, deviceID)
}

// get performs a minimal HTTP/1.0 exchange: one request, read to EOF. The
// server closes the connection after the response, so no chunked or
// keep-alive handling is needed.
func (s *Service) get(ctx context.Context, path string) ([]byte, error) {
	conn, err := s.dial("tcp", s.cfg.Addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	req := "GET " + path + " HTTP/1.0\r\nHost: " + s.cfg.Host + "\r\n\r\n"
	if _, err := io.WriteString(conn, req); err != nil {
		return nil, err
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, err
	}
	i := strings.Index(string(resp), "\r\n\r\n")
	if i < 0 {
		return nil, errcode.InvalidResponse
	}
	return resp[i+4:], nil
}

func (s *Service) status(st types.NameStatus) {
	s.conn.Publish(s.conn.NewMessage(TopicStatus, st, false))
}
