//go:build linux

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package devdev is the publisher's device layer (spec.md §4.1): it
// enumerates input devices, classifies them as keyboard or pointer,
// opens configured devices by name, and exposes grab/ungrab and batch
// reads. Grounded on the teacher's hotkeys/providers/evdev_provider.go
// (device enumeration + capability classification) and on
// other_examples/9bd911a1_bnema-waymon__internal-input-evdev_capture.go.go
// (the Grab/Release/Read shape of github.com/gvalkov/golang-evdev,
// which both this module and the teacher's go.mod depend on directly).
package devdev

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"
)

// Kind classifies a device for the purposes of the normalizer (spec.md §4.2).
type Kind int

const (
	KindUnknown Kind = iota
	KindKeyboard
	KindPointer
)

// RawEvent is one kernel input_event, as read from a device.
type RawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Device wraps one opened evdev device. grab()/ungrab() are idempotent
// per spec.md §4.1; Grabbed reports the device's own state, the
// aggregate across all devices is tracked by the routing state.
type Device struct {
	dev     *evdev.InputDevice
	Name    string
	Path    string
	Kind    Kind
	grabbed bool
}

// Open opens the device at path and classifies it.
func Open(path string) (*Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device %s: %w", path, err)
	}
	return &Device{
		dev:  dev,
		Name: dev.Name,
		Path: path,
		Kind: classify(dev),
	}, nil
}

// Discovered describes one device found by List, before it is opened
// for capture.
type Discovered struct {
	Path string
	Name string
	Kind Kind
}

// List enumerates every /dev/input/event* device the kernel exposes,
// opening each briefly to read its name and capabilities.
func List() ([]Discovered, error) {
	devices, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}
	out := make([]Discovered, 0, len(devices))
	for _, dev := range devices {
		out = append(out, Discovered{Path: dev.Fn, Name: dev.Name, Kind: classify(dev)})
	}
	return out, nil
}

// classify inspects a device's EV_KEY capabilities to decide whether it
// is a keyboard (has common letter keys) or a pointer (has the primary
// mouse button), mirroring the teacher's isKeyboardDevice helper.
func classify(dev *evdev.InputDevice) Kind {
	commonLetterKeys := map[int]bool{16: true, 30: true, 44: true, 57: true} // q, a, z, space
	hasKeyboardKeys := false
	hasMouseButton := false

	for capType, codes := range dev.Capabilities {
		if capType.Type != evdev.EV_KEY {
			continue
		}
		for _, code := range codes {
			if commonLetterKeys[code.Code] {
				hasKeyboardKeys = true
			}
			if code.Code == evdev.BTN_LEFT {
				hasMouseButton = true
			}
		}
	}

	switch {
	case hasMouseButton:
		return KindPointer
	case hasKeyboardKeys:
		return KindKeyboard
	default:
		return KindUnknown
	}
}

// Grab exclusively acquires the device so the local desktop stops
// receiving its events. Idempotent.
func (d *Device) Grab() error {
	if d.grabbed {
		return nil
	}
	if err := d.dev.Grab(); err != nil {
		return fmt.Errorf("failed to grab device %s (%s): %w", d.Name, d.Path, err)
	}
	d.grabbed = true
	return nil
}

// Ungrab releases exclusive access. Idempotent.
func (d *Device) Ungrab() error {
	if !d.grabbed {
		return nil
	}
	if err := d.dev.Release(); err != nil {
		return fmt.Errorf("failed to release device %s (%s): %w", d.Name, d.Path, err)
	}
	d.grabbed = false
	return nil
}

// Grabbed reports whether this device is currently held exclusively.
func (d *Device) Grabbed() bool {
	return d.grabbed
}

// Fd returns the device's underlying file descriptor, used by the
// publisher's readiness selector (spec.md §4.1, §5).
func (d *Device) Fd() uintptr {
	return d.dev.File.Fd()
}

// Read drains the device's currently pending batch of raw events.
func (d *Device) Read() ([]RawEvent, error) {
	events, err := d.dev.Read()
	if err != nil {
		return nil, err
	}
	out := make([]RawEvent, len(events))
	for i, e := range events {
		out[i] = RawEvent{Type: e.Type, Code: e.Code, Value: e.Value}
	}
	return out, nil
}

// Close releases the device handle. Safe to call after Ungrab.
func (d *Device) Close() error {
	return d.dev.File.Close()
}
