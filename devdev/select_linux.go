//go:build linux

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package devdev

import (
	"time"

	"golang.org/x/sys/unix"
)

// Selector is the readiness multiplexer spec.md §4.1/§5 describe: the
// publisher's main loop blocks on it over every open device handle and
// services one ready device fully before returning to wait again.
type Selector struct {
	devices []*Device
}

// NewSelector builds a selector over devices. The returned indices from
// Wait refer to positions in this same slice.
func NewSelector(devices []*Device) *Selector {
	return &Selector{devices: devices}
}

// Wait blocks until at least one device is readable or timeout elapses,
// returning the indices of ready devices.
func (s *Selector) Wait(timeout time.Duration) ([]int, error) {
	if len(s.devices) == 0 {
		time.Sleep(timeout)
		return nil, nil
	}

	var set unix.FdSet
	maxFd := 0
	for _, d := range s.devices {
		fd := int(d.Fd())
		fdSetBit(&set, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}

	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(maxFd+1, &set, nil, nil, &tv)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	ready := make([]int, 0, n)
	for i, d := range s.devices {
		if fdSetIsSet(&set, int(d.Fd())) {
			ready = append(ready, i)
		}
	}
	return ready, nil
}

// Remove drops a device from the poll set, used when a transient read
// error mid-session requires dropping the device (spec.md §7).
func (s *Selector) Remove(idx int) {
	s.devices = append(s.devices[:idx], s.devices[idx+1:]...)
}

const fdSetWordBits = 64

func fdSetBit(set *unix.FdSet, fd int) {
	set.Bits[fd/fdSetWordBits] |= 1 << uint(fd%fdSetWordBits)
}

func fdSetIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/fdSetWordBits]&(1<<uint(fd%fdSetWordBits)) != 0
}
