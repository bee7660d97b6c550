package platform

import (
	"net"
	"testing"
)

func TestWantsTLS(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"badge.bsides.ee:443", true},
		{"10.0.0.1:443", true},
		{"badge.bsides.ee:80", false},
		{"badge.bsides.ee:8443", false},
		{"badge.bsides.ee", false}, // no port
		{"", false},
	}
	for _, c := range cases {
		if got := wantsTLS(c.addr); got != c.want {
			t.Errorf("wantsTLS(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestNewDialerCleartext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	conn, err := NewDialer()("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}
