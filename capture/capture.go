// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package capture turns a batch of raw device events into the wire
// event.Event records the publisher routes and encrypts (spec.md §4.2).
// It filters out anything that is not a well-formed key or pointer
// event and coalesces runs of same-direction relative motion so a fast
// mouse sweep produces one event per direction-run instead of one
// event per kernel tick.
//
// Grounded on other_examples/9bd911a1_bnema-waymon__internal-input-evdev_capture.go.go,
// which accumulates REL_X/REL_Y deltas before emitting; reworked here
// into a synchronous per-batch flush instead of a wall-clock ticker,
// since the publisher already drains one device's batch per select
// wakeup (spec.md §4.1).
package capture

import (
	"github.com/AshBuk/kvmcrypt/devdev"
	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/evcodes"
	"github.com/AshBuk/kvmcrypt/keytable"
)

// Normalizer holds one device's motion accumulator. The Normalizer is
// long-lived per device, but every NormalizeBatch call ends with a
// final flush, so no pending motion carries from one batch into the
// next.
type Normalizer struct {
	acc accumulator
}

// NewNormalizer returns a Normalizer with an empty accumulator.
func NewNormalizer() *Normalizer {
	return &Normalizer{acc: accumulator{axis: -1}}
}

// Clock returns the current time as used for an event's Time field.
// The publisher passes time.Now's Unix-seconds float; tests pass a
// fixed or counting stub.
type Clock func() float64

// NormalizeBatch converts one device's raw read batch into wire
// events, given the device's classification. Keyboards pass through
// recognized press/release key events only; pointers pass through
// mouse-button key events and coalesced relative motion.
func (n *Normalizer) NormalizeBatch(kind devdev.Kind, batch []devdev.RawEvent, now Clock) []event.Event {
	switch kind {
	case devdev.KindPointer:
		return n.normalizePointer(batch, now)
	case devdev.KindKeyboard:
		return n.normalizeKeyboard(batch, now)
	default:
		return nil
	}
}

func (n *Normalizer) normalizeKeyboard(batch []devdev.RawEvent, now Clock) []event.Event {
	var out []event.Event
	for _, raw := range batch {
		if raw.Type != evcodes.EVKey {
			continue
		}
		if raw.Value != evcodes.KeyPress && raw.Value != evcodes.KeyRelease {
			continue // drop repeats and any other value
		}
		code := int(raw.Code)
		if !keytable.Recognized(code) || keytable.IsMouseButton(code) {
			continue
		}
		out = append(out, event.Event{
			Type:  event.Key,
			Code:  code,
			Value: int(raw.Value),
			Time:  now(),
		})
	}
	return out
}

func (n *Normalizer) normalizePointer(batch []devdev.RawEvent, now Clock) []event.Event {
	var out []event.Event
	emit := func(axis, value int) {
		out = append(out, event.Event{Type: event.RelativeMotion, Code: axis, Value: value, Time: now()})
	}

	for _, raw := range batch {
		switch raw.Type {
		case evcodes.EVRel:
			axis, ok := wireAxis(raw.Code)
			if !ok {
				continue
			}
			n.acc.add(axis, int(raw.Value), emit)
		case evcodes.EVKey:
			code := int(raw.Code)
			if !keytable.IsMouseButton(code) {
				continue
			}
			if raw.Value != evcodes.KeyPress && raw.Value != evcodes.KeyRelease {
				continue
			}
			n.acc.flush(emit)
			out = append(out, event.Event{Type: event.Key, Code: code, Value: int(raw.Value), Time: now()})
		}
	}

	n.acc.flush(emit) // end-of-batch final flush, spec.md §4.2
	return out
}

// wireAxis translates a kernel REL_* code into the compact wire axis
// used by event.Event.Code, dropping anything else (e.g. REL_HWHEEL).
func wireAxis(kernelCode uint16) (axis int, ok bool) {
	switch kernelCode {
	case evcodes.RelX:
		return event.AxisX, true
	case evcodes.RelY:
		return event.AxisY, true
	case evcodes.RelWheel:
		return event.AxisWheel, true
	default:
		return 0, false
	}
}

// accumulator holds at most one axis of pending relative motion at a
// time. A delta on the same axis with a non-disagreeing sign merges
// into the running total; a delta on a different axis, or one whose
// sign disagrees with the pending total, first flushes the pending
// total, then becomes the new pending delta. This reproduces the
// worked coalescing examples exactly: interleaving a different axis,
// or reversing direction on the same axis, both end a run.
type accumulator struct {
	axis  int // -1 when nothing is pending
	value int
}

func (a *accumulator) add(axis, delta int, emit func(axis, value int)) {
	if delta == 0 {
		return
	}
	if a.axis == axis && !signDisagree(a.value, delta) {
		a.value += delta
		return
	}
	a.flush(emit)
	a.axis = axis
	a.value = delta
}

func (a *accumulator) flush(emit func(axis, value int)) {
	if a.axis >= 0 && a.value != 0 {
		emit(a.axis, a.value)
	}
	a.axis = -1
	a.value = 0
}

// signDisagree reports whether a and b have strictly opposite signs.
// Zero never disagrees with anything (spec.md §4.2).
func signDisagree(a, b int) bool {
	return (a > 0 && b < 0) || (a < 0 && b > 0)
}
