// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package routing is the publisher's hotkey engine and routing state
// (spec.md §4.3, §4.4): it tracks which configured destination is
// active, suppresses hotkeys from the outbound stream, flushes
// pressed-key bookkeeping across a destination switch so nothing gets
// stuck, and decides when devices should be grabbed or released.
//
// Grounded on the teacher's hotkeys/manager/manager.go (callback
// registration and dispatch shape) and its hotkeys/utils/parser.go
// (hotkey-name normalization), reworked per spec.md §9 into tagged
// unions (Destination, Action) dispatched by a single switch instead
// of per-binding closures.
package routing

import "crypto/rsa"

// Destination is the tagged union spec.md §9 calls for in place of a
// config dict mutated at runtime: either Local (devices released,
// nothing transmitted) or Remote, carrying the subscriber's public key.
type Destination struct {
	Local  bool
	PubKey *rsa.PublicKey // nil iff Local
}

// LocalDestination returns the local, non-transmitting destination.
func LocalDestination() Destination {
	return Destination{Local: true}
}

// RemoteDestination returns a destination that transmits encrypted for pub.
func RemoteDestination(pub *rsa.PublicKey) Destination {
	return Destination{PubKey: pub}
}

// Subscriber is one configured recipient of the publisher's events.
type Subscriber struct {
	Name        string
	Destination Destination
	// HotkeyCode, when HasHotkey is true, is the scancode that selects
	// this subscriber directly (the per-subscriber "hotkey" field).
	HotkeyCode int
	HasHotkey  bool
}
