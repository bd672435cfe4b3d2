// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package subscriber

import (
	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/internal/logger"
)

// simulateInjector performs everything the subscriber loop does except
// the final write to a synthetic device, for the --simulate CLI flag
// (spec.md §6): useful for testing the decrypt/parse path without root
// or a /dev/uinput node available.
type simulateInjector struct {
	log logger.Logger
}

// NewSimulateInjector returns an Injector that logs what it would have
// injected instead of touching a real device.
func NewSimulateInjector(log logger.Logger) Injector {
	return &simulateInjector{log: log}
}

func (s *simulateInjector) Inject(e event.Event) error {
	s.log.Info("simulate: would inject %+v", e)
	return nil
}
