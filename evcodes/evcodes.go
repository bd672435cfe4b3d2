// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package evcodes holds the Linux input-event-code constants shared by
// capture and inject. It carries no build tag: unlike
// devdev (which opens real kernel devices and is Linux-only), these are
// just the numeric protocol constants from linux/input-event-codes.h,
// reused here the way the teacher's hotkeys/utils/keys.go reuses raw
// scancodes rather than wrapping them in its own enum.
package evcodes

// Event types (struct input_event.type).
const (
	EVSyn = 0x00
	EVKey = 0x01
	EVRel = 0x02
)

// Relative axes (struct input_event.code when type is EVRel).
const (
	RelX     = 0x00
	RelY     = 0x01
	RelWheel = 0x08
)

// Mouse button scancodes (struct input_event.code when type is EVKey).
const (
	BtnLeft   = 0x110
	BtnRight  = 0x111
	BtnMiddle = 0x112
	BtnSide   = 0x113
	BtnExtra  = 0x114
)

// Key value states (struct input_event.value when type is EVKey).
const (
	KeyRelease = 0
	KeyPress   = 1
	KeyRepeat  = 2
)
