package store

import (
	"context"
	"os"
	"testing"
	"time"

	"badge-go/bus"
	"badge-go/errcode"
	"badge-go/platform"
	"badge-go/types"
)

func fixedRandom(p []byte) error {
	for i := range p {
		p[i] = byte(0xA0 + i)
	}
	return nil
}

func startStore(t *testing.T, fs *platform.MemFS) *bus.Connection {
	t.Helper()
	b := bus.NewBus(8)
	svc := New(b.NewConnection("store"), fs, Config{ReadRandom: fixedRandom})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)
	return b.NewConnection("test")
}

func waitMsg(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message on", sub.Topic())
		return nil
	}
}

func request(t *testing.T, conn *bus.Connection, topic bus.Topic, payload any) types.Reply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := conn.RequestWait(ctx, conn.NewMessage(topic, payload, false))
	if err != nil {
		t.Fatalf("request on %v: %v", topic, err)
	}
	reply, ok := msg.Payload.(types.Reply)
	if !ok {
		t.Fatalf("reply payload %T on %v", msg.Payload, topic)
	}
	return reply
}

func TestDefaultsPublishedOnEmptyFilesystem(t *testing.T) {
	conn := startStore(t, platform.NewMemFS())

	msg := waitMsg(t, conn.Subscribe(TopicSettings))
	ls := msg.Payload.(types.LEDSettings)
	if ls != types.DefaultLEDSettings() {
		t.Fatalf("expected defaults, got %+v", ls)
	}
}

func TestDeviceIDCreatedAndStable(t *testing.T) {
	fs := platform.NewMemFS()
	conn := startStore(t, fs)

	msg := waitMsg(t, conn.Subscribe(TopicIdentity))
	id := msg.Payload.(types.Identity)
	if id.DeviceID != "A0A1A2A3A4A5" {
		t.Fatalf("device id %q", id.DeviceID)
	}
	if id.Username != "" {
		t.Fatalf("unexpected username %q", id.Username)
	}

	// A second boot on the same filesystem reuses the stored ID even with a
	// different random source.
	b2 := bus.NewBus(8)
	svc := New(b2.NewConnection("store"), fs, Config{ReadRandom: func(p []byte) error {
		for i := range p {
			p[i] = 0xFF
		}
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)

	msg = waitMsg(t, b2.NewConnection("test").Subscribe(TopicIdentity))
	if got := msg.Payload.(types.Identity).DeviceID; got != "A0A1A2A3A4A5" {
		t.Fatalf("second boot device id %q", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := platform.NewMemFS()
	conn := startStore(t, fs)
	waitMsg(t, conn.Subscribe(TopicSettings)) // initial retained defaults

	want := types.LEDSettings{Effect: 3, Brightness: 80, Hue: 200, Saturation: 90, Speed: 55}
	reply := request(t, conn, TopicSave, want)
	if !reply.OK {
		t.Fatalf("save failed: %+v", reply)
	}

	// A fresh service on the same filesystem comes up with the saved values.
	conn2 := startStore(t, fs)
	msg := waitMsg(t, conn2.Subscribe(TopicSettings))
	if got := msg.Payload.(types.LEDSettings); got != want {
		t.Fatalf("reloaded %+v, want %+v", got, want)
	}
}

func TestSaveRepublishesRetainedSettings(t *testing.T) {
	conn := startStore(t, platform.NewMemFS())
	sub := conn.Subscribe(TopicSettings)
	waitMsg(t, sub) // defaults

	want := types.LEDSettings{Effect: 1, Brightness: 50, Hue: 10, Saturation: 100, Speed: 20}
	request(t, conn, TopicSave, want)

	if got := waitMsg(t, sub).Payload.(types.LEDSettings); got != want {
		t.Fatalf("retained settings %+v, want %+v", got, want)
	}
}

func TestSetNameUpdatesIdentity(t *testing.T) {
	fs := platform.NewMemFS()
	conn := startStore(t, fs)
	sub := conn.Subscribe(TopicIdentity)
	waitMsg(t, sub) // initial identity

	reply := request(t, conn, TopicSetName, "  Ada  ")
	if !reply.OK {
		t.Fatalf("set_name failed: %+v", reply)
	}
	id := waitMsg(t, sub).Payload.(types.Identity)
	if id.Username != "Ada" {
		t.Fatalf("username %q", id.Username)
	}

	// Survives a reboot.
	conn2 := startStore(t, fs)
	if got := waitMsg(t, conn2.Subscribe(TopicIdentity)).Payload.(types.Identity); got.Username != "Ada" {
		t.Fatalf("reloaded username %q", got.Username)
	}
}

func TestInvalidPayloadsRejected(t *testing.T) {
	conn := startStore(t, platform.NewMemFS())

	if reply := request(t, conn, TopicSave, "nope"); reply.OK || reply.Code != errcode.InvalidPayload {
		t.Fatalf("save reply %+v", reply)
	}
	if reply := request(t, conn, TopicSetName, 42); reply.OK || reply.Code != errcode.InvalidPayload {
		t.Fatalf("set_name reply %+v", reply)
	}
}

func TestMountFailureFormatsAndRecovers(t *testing.T) {
	fs := platform.NewMemFS()
	fs.FailMounts = 1
	conn := startStore(t, fs)

	reply := request(t, conn, TopicSave, types.DefaultLEDSettings())
	if !reply.OK {
		t.Fatalf("store unusable after format: %+v", reply)
	}
}

func TestWriteFailureSurfacesStoreUnavailable(t *testing.T) {
	fs := platform.NewMemFS()
	conn := startStore(t, fs)
	fs.FailWrites = true

	reply := request(t, conn, TopicSave, types.DefaultLEDSettings())
	if reply.OK || reply.Code != errcode.StoreUnavailable {
		t.Fatalf("save reply %+v", reply)
	}
}

func TestCorruptParamsFallBackToDefaults(t *testing.T) {
	fs := platform.NewMemFS()
	seed := startStore(t, fs)
	waitMsg(t, seed.Subscribe(TopicSettings))
	request(t, seed, TopicSave, types.LEDSettings{Effect: 2, Brightness: 40, Hue: 1, Saturation: 1, Speed: 1})

	// Corrupt the file behind the store's back, then boot a fresh service.
	if err := writeRaw(fs, paramsFile, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	conn := startStore(t, fs)
	got := waitMsg(t, conn.Subscribe(TopicSettings)).Payload.(types.LEDSettings)
	if got != types.DefaultLEDSettings() {
		t.Fatalf("expected defaults after corruption, got %+v", got)
	}
}

func writeRaw(fs *platform.MemFS, name string, data []byte) error {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Close()
}
