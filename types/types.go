package types

import "badge-go/errcode"

// Reply is the generic payload for request/reply exchanges on the bus.
type Reply struct {
	OK     bool
	Code   errcode.Code
	Detail string
	Value  any
}

func ReplyOK(value any) Reply {
	return Reply{OK: true, Code: errcode.OK, Value: value}
}

func ReplyErr(err error) Reply {
	return Reply{Code: errcode.Of(err), Detail: err.Error()}
}

// Identity is published retained on the "identity" topic by the store service.
type Identity struct {
	DeviceID string // 12 uppercase hex chars (6 bytes)
	Username string // empty when unset
}

// NameStatus is published on names/event/status while a fetch is in flight.
type NameStatus struct {
	Stage string // "connecting", "fetching", "done", "error"
	Name  string // set when Stage == "done"
	Err   string // set when Stage == "error"
}
