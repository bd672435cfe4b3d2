// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package routing

import (
	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/internal/logger"
)

// Sender transmits one event already destined for dest. The router
// never touches serialization or encryption itself (spec.md §4.4);
// publisher wires a Sender that does both against the transport.
type Sender interface {
	Send(dest Destination, e event.Event) error
}

// DeviceControl is the aggregate grab/ungrab operation the router
// triggers on a destination switch (spec.md §4.3's "re-evaluate grab").
type DeviceControl interface {
	GrabAll() error
	UngrabAll() error
}

// Clock returns the current time for synthesized release events.
type Clock func() float64

// State is the publisher's single-writer routing state (spec.md §3).
// The main loop is the only goroutine that ever touches it.
type State struct {
	Subscribers []Subscriber
	CurrentIdx  int
	Pressed     map[int]bool
	Grabbed     bool
}

// NewState builds routing state starting at subscriber 0, ungrabbed.
func NewState(subscribers []Subscriber) *State {
	return &State{
		Subscribers: subscribers,
		CurrentIdx:  0,
		Pressed:     make(map[int]bool),
	}
}

// Current returns the currently selected subscriber.
func (s *State) Current() Subscriber {
	return s.Subscribers[s.CurrentIdx]
}

// Router is the hotkey engine and routing state machine of spec.md
// §4.3/§4.4, wired to the three externally-owned collaborators
// (sender, device control, clock) per spec.md §9's "thread ambient
// state explicitly" guidance.
type Router struct {
	state   *State
	hotkeys *HotkeyTable
	sender  Sender
	devices DeviceControl
	now     Clock
	log     logger.Logger
}

// NewRouter assembles a router over an already-built routing state and
// hotkey table.
func NewRouter(state *State, hotkeys *HotkeyTable, sender Sender, devices DeviceControl, now Clock, log logger.Logger) *Router {
	return &Router{state: state, hotkeys: hotkeys, sender: sender, devices: devices, now: now, log: log}
}

// State exposes the routing state for inspection (tests, diagnostics).
func (r *Router) State() *State {
	return r.state
}

// HandleEvent processes one normalized event and reports whether the
// exit hotkey was just dispatched. Key events are checked against the
// hotkey table first; everything else, and any key event that is not
// a hotkey, goes to the transmitter.
func (r *Router) HandleEvent(e event.Event) (exit bool) {
	if e.Type == event.Key {
		if action, ok := r.hotkeys.Lookup(e.Code); ok {
			return r.handleHotkey(e, action)
		}
	}
	r.transmit(e)
	return false
}

// handleHotkey implements spec.md §4.3: press is dropped silently,
// release flushes held keys, dispatches the action, then re-evaluates
// grab (except for Exit, which tears down unconditionally).
func (r *Router) handleHotkey(e event.Event, action Action) (exit bool) {
	if e.Value == event.Press {
		return false
	}

	dest := r.state.Current().Destination
	r.flushPressed(dest)

	switch action.Kind {
	case Exit:
		if err := r.devices.UngrabAll(); err != nil {
			r.log.Warning("failed to ungrab devices on exit: %v", err)
		}
		r.state.Grabbed = false
		return true

	case Next:
		r.state.CurrentIdx = (r.state.CurrentIdx + 1) % len(r.state.Subscribers)
		r.ReevaluateGrab()

	case SwitchTo:
		if action.Index < 0 || action.Index >= len(r.state.Subscribers) {
			r.log.Warning("ignoring switch to invalid subscriber index %d", action.Index)
			return false
		}
		r.state.CurrentIdx = action.Index
		r.ReevaluateGrab()
	}
	return false
}

// FlushHeldKeys synthesizes and sends a release for every scancode
// still marked pressed against the currently selected destination,
// without switching destinations itself. The hotkey-driven switch/exit
// paths already flush as part of handleHotkey; this is for the other
// teardown path spec.md §5 names: a user interrupt (SIGINT/SIGTERM)
// must run the same "flush releases, then ungrab" sequence so no key
// is left stuck on the active destination when the process is killed
// out from under the main loop rather than via the exit hotkey.
func (r *Router) FlushHeldKeys() {
	r.flushPressed(r.state.Current().Destination)
}

// flushPressed synthesizes and sends a release for every scancode
// still marked pressed against dest, then clears pressed_keys, so no
// key is left stuck on a destination the user has just left.
func (r *Router) flushPressed(dest Destination) {
	for code, pressed := range r.state.Pressed {
		if !pressed {
			continue
		}
		r.send(dest, event.Event{Type: event.Key, Code: code, Value: event.Release, Time: r.now()})
	}
	r.state.Pressed = make(map[int]bool)
}

// ReevaluateGrab grabs or ungrabs all devices to match whether the
// currently selected destination is local. Called after every
// destination switch, and once at startup (spec.md §4.1, §4.3) so the
// publisher's initial grab state matches whatever subscriber index 0
// resolves to, rather than starting ungrabbed regardless of config.
func (r *Router) ReevaluateGrab() {
	if r.state.Current().Destination.Local {
		if !r.state.Grabbed {
			return
		}
		if err := r.devices.UngrabAll(); err != nil {
			r.log.Warning("failed to ungrab devices: %v", err)
			return
		}
		r.state.Grabbed = false
		return
	}
	if r.state.Grabbed {
		return
	}
	if err := r.devices.GrabAll(); err != nil {
		r.log.Warning("failed to grab devices: %v", err)
		return
	}
	r.state.Grabbed = true
}

// transmit implements spec.md §4.4: silent when local, drops duplicate
// presses, tracks pressed_keys, and hands the event to the sender.
func (r *Router) transmit(e event.Event) {
	dest := r.state.Current().Destination
	if dest.Local {
		return
	}

	if e.Type == event.Key {
		if e.Value == event.Press && r.state.Pressed[e.Code] {
			return // duplicate press, spec.md §4.4
		}
		switch e.Value {
		case event.Press:
			r.state.Pressed[e.Code] = true
		case event.Release:
			delete(r.state.Pressed, e.Code)
		}
	}

	r.send(dest, e)
}

func (r *Router) send(dest Destination, e event.Event) {
	if err := r.sender.Send(dest, e); err != nil {
		r.log.Warning("transport send failed: %v", err)
	}
}
