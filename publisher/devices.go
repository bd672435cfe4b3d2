// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package publisher

import (
	"fmt"

	"github.com/AshBuk/kvmcrypt/devdev"
)

// deviceSet is the aggregate grab/ungrab collaborator the router uses
// (routing.DeviceControl), and also the publisher loop's ordered list
// of open devices; the per-device motion normalizers live in a parallel
// slice on Publisher.
type deviceSet struct {
	devices []*devdev.Device
}

// openConfiguredDevices opens every device named in names, matching
// against what the kernel currently enumerates. A device that cannot
// be found or opened is logged and skipped (spec.md §6); it is fatal
// only if none of the configured devices could be opened.
func openConfiguredDevices(names []string, log warner) ([]*devdev.Device, error) {
	discovered, err := devdev.List()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate input devices: %w", err)
	}

	byName := make(map[string]string, len(discovered)) // name -> path
	for _, d := range discovered {
		byName[d.Name] = d.Path
	}

	var opened []*devdev.Device
	for _, name := range names {
		path, ok := byName[name]
		if !ok {
			log.Warning("configured device %q not found, skipping", name)
			continue
		}
		dev, err := devdev.Open(path)
		if err != nil {
			log.Warning("failed to open configured device %q: %v", name, err)
			continue
		}
		opened = append(opened, dev)
	}

	if len(opened) == 0 {
		return nil, fmt.Errorf("none of the configured devices could be opened")
	}
	return opened, nil
}

// warner is the narrow logging surface device setup needs.
type warner interface {
	Warning(format string, args ...interface{})
}

func (s *deviceSet) GrabAll() error {
	for _, d := range s.devices {
		if err := d.Grab(); err != nil {
			return err
		}
	}
	return nil
}

func (s *deviceSet) UngrabAll() error {
	var firstErr error
	for _, d := range s.devices {
		if err := d.Ungrab(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// remove drops the device at idx, keeping it parallel to any other
// per-device slice (normalizers) and to the selector, which must be
// dropped at the same index in the same call.
func (s *deviceSet) remove(idx int) {
	s.devices = append(s.devices[:idx], s.devices[idx+1:]...)
}
