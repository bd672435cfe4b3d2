// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package routing

import (
	"crypto/rsa"
	"testing"

	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/internal/logger"
)

// sentMessage records one call to the fake Sender, keyed by which
// subscriber index the destination belongs to (-1 for local, which
// never calls Send since transmit short-circuits first).
type sentMessage struct {
	subIdx int
	event  event.Event
}

type fakeSender struct {
	byPubKey map[*rsa.PublicKey]int
	sent     []sentMessage
}

func newFakeSender(subs []Subscriber) *fakeSender {
	s := &fakeSender{byPubKey: make(map[*rsa.PublicKey]int)}
	for i, sub := range subs {
		if !sub.Destination.Local {
			s.byPubKey[sub.Destination.PubKey] = i
		}
	}
	return s
}

func (s *fakeSender) Send(dest Destination, e event.Event) error {
	idx, ok := s.byPubKey[dest.PubKey]
	if !ok {
		idx = -1
	}
	s.sent = append(s.sent, sentMessage{subIdx: idx, event: e})
	return nil
}

func (s *fakeSender) eventsFor(idx int) []event.Event {
	var out []event.Event
	for _, m := range s.sent {
		if m.subIdx == idx {
			out = append(out, m.event)
		}
	}
	return out
}

type fakeDeviceControl struct {
	grabs, ungrabs int
}

func (f *fakeDeviceControl) GrabAll() error   { f.grabs++; return nil }
func (f *fakeDeviceControl) UngrabAll() error { f.ungrabs++; return nil }

func testLogger() logger.Logger { return logger.NewDefaultLogger(logger.ErrorLevel) }

func zeroClock() float64 { return 0 }

func newTestRouter(subs []Subscriber) (*Router, *fakeSender, *fakeDeviceControl) {
	sender := newFakeSender(subs)
	devices := &fakeDeviceControl{}
	hotkeys := NewHotkeyTable()
	hotkeys.Bind(67, Action{Kind: Next})  // F9
	hotkeys.Bind(88, Action{Kind: Exit})  // F12
	state := NewState(subs)
	return NewRouter(state, hotkeys, sender, devices, zeroClock, testLogger()), sender, devices
}

func TestBasicKeyDeliveredToRemote(t *testing.T) {
	pub := &rsa.PublicKey{}
	subs := []Subscriber{{Name: "A", Destination: RemoteDestination(pub)}}
	r, sender, _ := newTestRouter(subs)

	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Press})
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Release})

	got := sender.eventsFor(0)
	want := []event.Event{
		{Type: event.Key, Code: 30, Value: event.Press},
		{Type: event.Key, Code: 30, Value: event.Release},
	}
	assertEq(t, got, want)
}

func TestSwitchFlushesHeldModifierAndHidesHotkey(t *testing.T) {
	pubA, pubB := &rsa.PublicKey{}, &rsa.PublicKey{}
	subs := []Subscriber{
		{Name: "A", Destination: RemoteDestination(pubA)},
		{Name: "B", Destination: RemoteDestination(pubB)},
	}
	r, sender, _ := newTestRouter(subs)

	r.HandleEvent(event.Event{Type: event.Key, Code: 42, Value: event.Press}) // LeftShift, held
	r.HandleEvent(event.Event{Type: event.Key, Code: 67, Value: event.Press}) // F9 press, suppressed
	exit := r.HandleEvent(event.Event{Type: event.Key, Code: 67, Value: event.Release})
	if exit {
		t.Fatalf("F9 release must not request exit")
	}
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Press})
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Release})

	wantA := []event.Event{
		{Type: event.Key, Code: 42, Value: event.Press},
		{Type: event.Key, Code: 42, Value: event.Release}, // synthesized on switch
	}
	assertEq(t, sender.eventsFor(0), wantA)

	wantB := []event.Event{
		{Type: event.Key, Code: 30, Value: event.Press},
		{Type: event.Key, Code: 30, Value: event.Release},
	}
	assertEq(t, sender.eventsFor(1), wantB)

	for _, m := range sender.sent {
		if m.event.Code == 67 {
			t.Fatalf("hotkey scancode 67 must never be delivered, got %+v", m)
		}
	}
}

func TestExitTeardownFlushesAndUngrabs(t *testing.T) {
	pub := &rsa.PublicKey{}
	subs := []Subscriber{{Name: "A", Destination: RemoteDestination(pub)}}
	r, sender, devices := newTestRouter(subs)
	r.ReevaluateGrab()

	r.HandleEvent(event.Event{Type: event.Key, Code: 42, Value: event.Press})
	exit := r.HandleEvent(event.Event{Type: event.Key, Code: 88, Value: event.Press})
	if exit {
		t.Fatalf("exit hotkey press must be suppressed, not dispatched")
	}
	exit = r.HandleEvent(event.Event{Type: event.Key, Code: 88, Value: event.Release})
	if !exit {
		t.Fatalf("exit hotkey release must request exit")
	}

	want := []event.Event{
		{Type: event.Key, Code: 42, Value: event.Press},
		{Type: event.Key, Code: 42, Value: event.Release},
	}
	assertEq(t, sender.eventsFor(0), want)

	if devices.ungrabs != 1 {
		t.Fatalf("expected exactly one ungrab call, got %d", devices.ungrabs)
	}
}

func TestFlushHeldKeysOnInterrupt(t *testing.T) {
	pub := &rsa.PublicKey{}
	subs := []Subscriber{{Name: "A", Destination: RemoteDestination(pub)}}
	r, sender, _ := newTestRouter(subs)

	r.HandleEvent(event.Event{Type: event.Key, Code: 42, Value: event.Press})
	r.FlushHeldKeys() // simulates the ctx.Done() teardown path, no hotkey involved

	want := []event.Event{
		{Type: event.Key, Code: 42, Value: event.Press},
		{Type: event.Key, Code: 42, Value: event.Release},
	}
	assertEq(t, sender.eventsFor(0), want)

	if len(r.State().Pressed) != 0 {
		t.Fatalf("pressed_keys must be empty after FlushHeldKeys, got %v", r.State().Pressed)
	}
}

func TestLocalDestinationIsSilent(t *testing.T) {
	subs := []Subscriber{{Name: "local", Destination: LocalDestination()}}
	r, sender, _ := newTestRouter(subs)

	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Press})
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Release})
	r.HandleEvent(event.Event{Type: event.RelativeMotion, Code: event.AxisX, Value: 5})

	if len(sender.sent) != 0 {
		t.Fatalf("local destination must emit zero messages, got %v", sender.sent)
	}
}

func TestDuplicatePressDropped(t *testing.T) {
	pub := &rsa.PublicKey{}
	subs := []Subscriber{{Name: "A", Destination: RemoteDestination(pub)}}
	r, sender, _ := newTestRouter(subs)

	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Press})
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Press}) // duplicate, dropped
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Release})
	r.HandleEvent(event.Event{Type: event.Key, Code: 30, Value: event.Press}) // re-press after release, propagates

	want := []event.Event{
		{Type: event.Key, Code: 30, Value: event.Press},
		{Type: event.Key, Code: 30, Value: event.Release},
		{Type: event.Key, Code: 30, Value: event.Press},
	}
	assertEq(t, sender.eventsFor(0), want)
}

func assertEq(t *testing.T, got, want []event.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d events %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
