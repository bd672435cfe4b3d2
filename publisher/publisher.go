// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package publisher assembles the device layer, event normalizer,
// hotkey/routing engine, crypto, and transport into the publisher's
// single-threaded main loop (spec.md §2, §5): block on the readiness
// selector, drain one ready device's batch, run it through
// normalize -> hotkey/routing -> encrypt -> transmit, then wait again.
//
// Grounded on the teacher's internal/app/app.go and shutdown.go for
// the context-driven run/teardown shape, generalized from "stop a
// recording pipeline" to "flush releases, ungrab devices, unregister
// from the poll set" (spec.md §4.3, §5).
package publisher

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/AshBuk/kvmcrypt/capture"
	"github.com/AshBuk/kvmcrypt/config"
	"github.com/AshBuk/kvmcrypt/cryptutil"
	"github.com/AshBuk/kvmcrypt/devdev"
	"github.com/AshBuk/kvmcrypt/internal/logger"
	"github.com/AshBuk/kvmcrypt/keytable"
	"github.com/AshBuk/kvmcrypt/routing"
	"github.com/AshBuk/kvmcrypt/transport"
)

// selectTimeout bounds each readiness-wait so the main loop can notice
// context cancellation promptly without busy-spinning.
const selectTimeout = 200 * time.Millisecond

// Publisher owns every publisher-side component for one run.
type Publisher struct {
	devices     *deviceSet
	normalizers []*capture.Normalizer
	selector    *devdev.Selector
	router      *routing.Router
	hub         *transport.Hub
	log         logger.Logger
}

// New builds a publisher from a validated configuration: it loads
// subscriber public keys, opens configured devices, binds the
// transport, and wires the hotkey/routing engine.
func New(cfg *config.Config, log logger.Logger) (*Publisher, error) {
	subscribers, err := loadSubscribers(cfg.Subscribers)
	if err != nil {
		return nil, err
	}

	opened, err := openConfiguredDevices(cfg.Devices, log)
	if err != nil {
		return nil, err
	}
	devices := &deviceSet{devices: opened}

	normalizers := make([]*capture.Normalizer, len(opened))
	for i := range opened {
		normalizers[i] = capture.NewNormalizer()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Transport.Bind, cfg.Transport.Port)
	hub := transport.NewHub(addr, log)
	if err := hub.Start(); err != nil {
		return nil, err
	}

	hotkeys, err := buildHotkeyTable(cfg.Hotkeys, subscribers)
	if err != nil {
		hub.Close()
		return nil, err
	}

	state := routing.NewState(subscribers)
	sender := newCryptoSender(hub)
	router := routing.NewRouter(state, hotkeys, sender, devices, unixSeconds, log)

	// Seed the initial grab state: subscriber 0 is active from startup,
	// so devices must already be grabbed if it is remote (spec.md §4.1,
	// scenario S1), not only after the first hotkey-driven switch.
	router.ReevaluateGrab()

	// The selector gets its own copy: sharing opened's backing array
	// with deviceSet would make dropDevice's two removals corrupt it.
	selected := append([]*devdev.Device(nil), opened...)

	return &Publisher{
		devices:     devices,
		normalizers: normalizers,
		selector:    devdev.NewSelector(selected),
		router:      router,
		hub:         hub,
		log:         log,
	}, nil
}

func unixSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// loadSubscribers turns configuration entries into routing subscribers,
// parsing each one's public key file if present.
func loadSubscribers(entries []config.SubscriberEntry) ([]routing.Subscriber, error) {
	subs := make([]routing.Subscriber, 0, len(entries))
	for _, e := range entries {
		sub := routing.Subscriber{Name: e.Name}
		if e.Key == "" {
			sub.Destination = routing.LocalDestination()
		} else {
			pub, err := loadPublicKeyFile(e.Key)
			if err != nil {
				return nil, fmt.Errorf("subscriber %q: %w", e.Name, err)
			}
			sub.Destination = routing.RemoteDestination(pub)
		}
		if e.Hotkey != "" {
			code, ok := keytable.Code(e.Hotkey)
			if !ok {
				return nil, fmt.Errorf("subscriber %q: unrecognized hotkey name %q", e.Name, e.Hotkey)
			}
			sub.HotkeyCode = code
			sub.HasHotkey = true
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func buildHotkeyTable(h config.HotkeysConfig, subs []routing.Subscriber) (*routing.HotkeyTable, error) {
	table := routing.NewHotkeyTable()
	for i, sub := range subs {
		if sub.HasHotkey {
			table.Bind(sub.HotkeyCode, routing.Action{Kind: routing.SwitchTo, Index: i})
		}
	}
	if h.Switch != "" {
		code, ok := keytable.Code(h.Switch)
		if !ok {
			return nil, fmt.Errorf("unrecognized switch hotkey name %q", h.Switch)
		}
		table.Bind(code, routing.Action{Kind: routing.Next})
	}
	if h.Exit != "" {
		code, ok := keytable.Code(h.Exit)
		if !ok {
			return nil, fmt.Errorf("unrecognized exit hotkey name %q", h.Exit)
		}
		table.Bind(code, routing.Action{Kind: routing.Exit})
	}
	return table, nil
}

func loadPublicKeyFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file %s: %w", path, err)
	}
	return cryptutil.LoadPublicKeyPEM(data)
}

// Run executes the main loop until the exit hotkey fires, ctx is
// cancelled, or an unrecoverable selector error occurs.
func (p *Publisher) Run(ctx context.Context) error {
	defer p.teardown()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ready, err := p.selector.Wait(selectTimeout)
		if err != nil {
			return fmt.Errorf("readiness selector failed: %w", err)
		}

		// Resolve indices to device pointers up front: a mid-batch drop
		// shifts every later index, but pointer identity stays valid.
		readyDevices := make([]*devdev.Device, len(ready))
		for i, idx := range ready {
			readyDevices[i] = p.devices.devices[idx]
		}

		var failed []*devdev.Device
		for _, dev := range readyDevices {
			idx := p.indexOf(dev)
			if idx < 0 {
				continue // already dropped earlier in this same tick
			}
			batch, err := dev.Read()
			if err != nil {
				p.log.Warning("device %s read failed, dropping from capture: %v", dev.Name, err)
				failed = append(failed, dev)
				continue
			}

			events := p.normalizers[idx].NormalizeBatch(dev.Kind, batch, unixSeconds)
			for _, e := range events {
				if p.router.HandleEvent(e) {
					return nil // exit hotkey dispatched; teardown runs via defer
				}
			}
		}

		for _, dev := range failed {
			if idx := p.indexOf(dev); idx >= 0 {
				p.dropDevice(idx)
			}
		}
	}
}

// indexOf finds dev's current position in the parallel device slices,
// or -1 if it has already been dropped.
func (p *Publisher) indexOf(dev *devdev.Device) int {
	for i, d := range p.devices.devices {
		if d == dev {
			return i
		}
	}
	return -1
}

// dropDevice removes a device that failed a mid-session read from
// every parallel slice and from the selector (spec.md §7).
func (p *Publisher) dropDevice(idx int) {
	p.devices.remove(idx)
	p.normalizers = append(p.normalizers[:idx], p.normalizers[idx+1:]...)
	p.selector.Remove(idx)
}

// teardown flushes any still-held keys against the active destination,
// ungrabs every device, and closes the transport, run unconditionally
// on exit (spec.md §5), including the ctx.Done() path taken on
// SIGINT/SIGTERM, which (unlike the exit hotkey) never ran
// handleHotkey's own flush. A key held at interrupt time would
// otherwise stay pressed on whichever destination was active forever
// (invariant #1).
func (p *Publisher) teardown() {
	p.router.FlushHeldKeys()
	if err := p.devices.UngrabAll(); err != nil {
		p.log.Warning("teardown: failed to ungrab all devices: %v", err)
	}
	for _, d := range p.devices.devices {
		if err := d.Close(); err != nil {
			p.log.Debug("teardown: device close error: %v", err)
		}
	}
	p.hub.Close()
}
