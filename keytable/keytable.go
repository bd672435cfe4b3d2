// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package keytable maps between Linux evdev scancodes and their
// human-readable key names, and resolves whether a scancode belongs to
// the set of codes this module recognizes as valid key events.
//
// Adapted from the teacher repo's hotkeys/utils/keys.go name table,
// trimmed to scancode-only lookups (spec.md §9 standardizes hotkey
// matching on integer scancode, not modifier-combo strings).
package keytable

import "strings"

// byCode is the canonical scancode -> name table. Names are lowercase,
// matching the Linux input-event-codes.h naming convention: KEY_* names
// drop the prefix, BTN_* names keep it as "btn_".
var byCode = map[int]string{
	1:   "esc",
	2:   "1",
	3:   "2",
	4:   "3",
	5:   "4",
	6:   "5",
	7:   "6",
	8:   "7",
	9:   "8",
	10:  "9",
	11:  "0",
	12:  "minus",
	13:  "equal",
	14:  "backspace",
	15:  "tab",
	16:  "q",
	17:  "w",
	18:  "e",
	19:  "r",
	20:  "t",
	21:  "y",
	22:  "u",
	23:  "i",
	24:  "o",
	25:  "p",
	26:  "leftbrace",
	27:  "rightbrace",
	28:  "enter",
	29:  "leftctrl",
	30:  "a",
	31:  "s",
	32:  "d",
	33:  "f",
	34:  "g",
	35:  "h",
	36:  "j",
	37:  "k",
	38:  "l",
	39:  "semicolon",
	40:  "apostrophe",
	41:  "grave",
	42:  "leftshift",
	43:  "backslash",
	44:  "z",
	45:  "x",
	46:  "c",
	47:  "v",
	48:  "b",
	49:  "n",
	50:  "m",
	51:  "comma",
	52:  "dot",
	53:  "slash",
	54:  "rightshift",
	55:  "kpasterisk",
	56:  "leftalt",
	57:  "space",
	58:  "capslock",
	59:  "f1",
	60:  "f2",
	61:  "f3",
	62:  "f4",
	63:  "f5",
	64:  "f6",
	65:  "f7",
	66:  "f8",
	67:  "f9",
	68:  "f10",
	69:  "numlock",
	70:  "scrolllock",
	71:  "kp7",
	72:  "kp8",
	73:  "kp9",
	74:  "kpminus",
	75:  "kp4",
	76:  "kp5",
	77:  "kp6",
	78:  "kpplus",
	79:  "kp1",
	80:  "kp2",
	81:  "kp3",
	82:  "kp0",
	83:  "kpdot",
	87:  "f11",
	88:  "f12",
	97:  "rightctrl",
	100: "rightalt",
	102: "home",
	103: "up",
	104: "pageup",
	105: "left",
	106: "right",
	107: "end",
	108: "down",
	109: "pagedown",
	110: "insert",
	111: "delete",
	125: "leftmeta",
	126: "rightmeta",
	// Mouse buttons share the Linux key-code space (BTN_* constants) and
	// are transmitted as ordinary key events (etype=key): see spec.md §4.2.
	272: "btn_left",
	273: "btn_right",
	274: "btn_middle",
	275: "btn_side",
	276: "btn_extra",
}

var byName map[string]int

func init() {
	byName = make(map[string]int, len(byCode))
	for code, name := range byCode {
		byName[name] = code
	}
}

// Name returns the canonical lowercase name for code, or "" if code is
// not in the recognized key table.
func Name(code int) string {
	return byCode[code]
}

// Code resolves a key name (case-insensitive) to its scancode.
func Code(name string) (int, bool) {
	code, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// Recognized reports whether code belongs to the recognized key table,
// i.e. whether a Key event carrying it is a valid key event.
func Recognized(code int) bool {
	_, ok := byCode[code]
	return ok
}

// IsMouseButton reports whether code is one of the BTN_* mouse-button
// codes rather than a keyboard scancode.
func IsMouseButton(code int) bool {
	switch code {
	case 272, 273, 274, 275, 276:
		return true
	default:
		return false
	}
}
