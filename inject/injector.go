// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package inject is the subscriber's synthetic input device (spec.md
// §4.5, §6): it writes decoded events to a kernel-level keyboard+mouse
// the local OS treats as real hardware. bendahl/uinput exposes
// separate Keyboard and Mouse device handles rather than one combined
// device, so Injector composes both behind the single Inject entry
// point the spec's "one synthetic device" requirement calls for.
package inject

import (
	"fmt"

	"github.com/bendahl/uinput"

	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/evcodes"
)

const deviceName = "kvmcrypt-synthetic-input"

// Injector owns the two uinput device handles backing one logical
// synthetic input device.
type Injector struct {
	keyboard uinput.Keyboard
	mouse    uinput.Mouse
}

// New creates and registers both uinput devices.
func New() (*Injector, error) {
	kbd, err := uinput.CreateKeyboard("/dev/uinput", []byte(deviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthetic keyboard: %w", err)
	}
	mouse, err := uinput.CreateMouse("/dev/uinput", []byte(deviceName))
	if err != nil {
		_ = kbd.Close()
		return nil, fmt.Errorf("failed to create synthetic mouse: %w", err)
	}
	return &Injector{keyboard: kbd, mouse: mouse}, nil
}

// Inject writes one decoded event to the synthetic device. A key
// event with an unsupported mouse-button code beyond left/right/
// middle (the only buttons bendahl/uinput's Mouse exposes) is a no-op;
// everything else recognized at decode time is injectable.
func (i *Injector) Inject(e event.Event) error {
	switch e.Type {
	case event.Key:
		return i.injectKey(e)
	case event.RelativeMotion:
		return i.injectMotion(e)
	default:
		return fmt.Errorf("unknown event type %d", e.Type)
	}
}

func (i *Injector) injectKey(e event.Event) error {
	if isMouseButton(e.Code) {
		return i.injectButton(e.Code, e.Value)
	}
	if e.Value == event.Press {
		return i.keyboard.KeyDown(e.Code)
	}
	return i.keyboard.KeyUp(e.Code)
}

func (i *Injector) injectButton(code, value int) error {
	press := value == event.Press
	switch code {
	case evcodes.BtnLeft:
		if press {
			return i.mouse.LeftPress()
		}
		return i.mouse.LeftRelease()
	case evcodes.BtnRight:
		if press {
			return i.mouse.RightPress()
		}
		return i.mouse.RightRelease()
	case evcodes.BtnMiddle:
		if press {
			return i.mouse.MiddlePress()
		}
		return i.mouse.MiddleRelease()
	default:
		return nil // BTN_SIDE/BTN_EXTRA: unsupported by this uinput binding
	}
}

func (i *Injector) injectMotion(e event.Event) error {
	switch e.Code {
	case event.AxisX:
		return moveAxis(e.Value, i.mouse.MoveRight, i.mouse.MoveLeft)
	case event.AxisY:
		return moveAxis(e.Value, i.mouse.MoveDown, i.mouse.MoveUp)
	case event.AxisWheel:
		return i.mouse.Wheel(false, int32(e.Value))
	default:
		return fmt.Errorf("unknown relative-motion axis %d", e.Code)
	}
}

// moveAxis dispatches a signed delta to whichever of uinput's two
// directional methods matches its sign; uinput takes unsigned pixel
// magnitudes per direction rather than one signed delta.
func moveAxis(delta int, positive, negative func(int32) error) error {
	switch {
	case delta > 0:
		return positive(int32(delta))
	case delta < 0:
		return negative(int32(-delta))
	default:
		return nil
	}
}

func isMouseButton(code int) bool {
	switch code {
	case evcodes.BtnLeft, evcodes.BtnRight, evcodes.BtnMiddle, evcodes.BtnSide, evcodes.BtnExtra:
		return true
	default:
		return false
	}
}

// Close releases both underlying device handles.
func (i *Injector) Close() error {
	kbdErr := i.keyboard.Close()
	mouseErr := i.mouse.Close()
	if kbdErr != nil {
		return kbdErr
	}
	return mouseErr
}
