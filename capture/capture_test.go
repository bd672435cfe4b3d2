// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package capture

import (
	"testing"

	"github.com/AshBuk/kvmcrypt/devdev"
	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/evcodes"
)

func fixedClock() float64 { return 0 }

func relEvent(code uint16, value int32) devdev.RawEvent {
	return devdev.RawEvent{Type: evcodes.EVRel, Code: code, Value: value}
}

func keyEvent(code uint16, value int32) devdev.RawEvent {
	return devdev.RawEvent{Type: evcodes.EVKey, Code: code, Value: value}
}

func TestMotionCoalesce(t *testing.T) {
	n := NewNormalizer()
	batch := []devdev.RawEvent{
		relEvent(evcodes.RelX, 1),
		relEvent(evcodes.RelX, 1),
		relEvent(evcodes.RelX, 1),
		relEvent(evcodes.RelY, -2),
		relEvent(evcodes.RelY, -1),
		relEvent(evcodes.RelX, 2),
	}

	got := n.NormalizeBatch(devdev.KindPointer, batch, fixedClock)

	want := []event.Event{
		{Type: event.RelativeMotion, Code: event.AxisX, Value: 3},
		{Type: event.RelativeMotion, Code: event.AxisY, Value: -3},
		{Type: event.RelativeMotion, Code: event.AxisX, Value: 2},
	}
	assertEvents(t, got, want)
}

func TestDirectionFlipFlush(t *testing.T) {
	n := NewNormalizer()
	batch := []devdev.RawEvent{
		relEvent(evcodes.RelX, 1),
		relEvent(evcodes.RelX, 2),
		relEvent(evcodes.RelX, -1),
	}

	got := n.NormalizeBatch(devdev.KindPointer, batch, fixedClock)

	want := []event.Event{
		{Type: event.RelativeMotion, Code: event.AxisX, Value: 3},
		{Type: event.RelativeMotion, Code: event.AxisX, Value: -1},
	}
	assertEvents(t, got, want)
}

func TestButtonEventFlushesPendingMotion(t *testing.T) {
	n := NewNormalizer()
	batch := []devdev.RawEvent{
		relEvent(evcodes.RelX, 3),
		keyEvent(evcodes.BtnLeft, evcodes.KeyPress),
	}

	got := n.NormalizeBatch(devdev.KindPointer, batch, fixedClock)

	want := []event.Event{
		{Type: event.RelativeMotion, Code: event.AxisX, Value: 3},
		{Type: event.Key, Code: evcodes.BtnLeft, Value: evcodes.KeyPress},
	}
	assertEvents(t, got, want)
}

func TestAccumulatorFlushedAtEndOfBatch(t *testing.T) {
	n := NewNormalizer()
	first := n.NormalizeBatch(devdev.KindPointer, []devdev.RawEvent{relEvent(evcodes.RelX, 2)}, fixedClock)
	if len(first) != 1 {
		t.Fatalf("expected end-of-batch flush to emit one event, got %v", first)
	}

	second := n.NormalizeBatch(devdev.KindPointer, []devdev.RawEvent{relEvent(evcodes.RelX, 5)}, fixedClock)
	want := []event.Event{{Type: event.RelativeMotion, Code: event.AxisX, Value: 5}}
	assertEvents(t, second, want)
}

func TestKeyboardDropsRepeatsAndUnrecognizedCodes(t *testing.T) {
	n := NewNormalizer()
	batch := []devdev.RawEvent{
		keyEvent(30, evcodes.KeyPress),   // 'a', recognized
		keyEvent(30, evcodes.KeyRepeat),  // repeat, dropped
		keyEvent(30, evcodes.KeyRelease), // release, kept
		keyEvent(9999, evcodes.KeyPress), // unrecognized code, dropped
		{Type: evcodes.EVSyn, Code: 0, Value: 0},
	}

	got := n.NormalizeBatch(devdev.KindKeyboard, batch, fixedClock)

	want := []event.Event{
		{Type: event.Key, Code: 30, Value: evcodes.KeyPress},
		{Type: event.Key, Code: 30, Value: evcodes.KeyRelease},
	}
	assertEvents(t, got, want)
}

func TestKeyboardExcludesMouseButtons(t *testing.T) {
	n := NewNormalizer()
	batch := []devdev.RawEvent{keyEvent(evcodes.BtnLeft, evcodes.KeyPress)}

	got := n.NormalizeBatch(devdev.KindKeyboard, batch, fixedClock)

	if len(got) != 0 {
		t.Fatalf("expected mouse button code to be excluded from a keyboard device, got %v", got)
	}
}

func assertEvents(t *testing.T, got, want []event.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d events %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Type != want[i].Type || got[i].Code != want[i].Code || got[i].Value != want[i].Value {
			t.Fatalf("event %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
