// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package runtime is the shared graceful-shutdown scaffolding for both
// the publisher and subscriber commands: a cancellable context tied to
// SIGINT/SIGTERM so a user interrupt runs the same teardown path as the
// exit hotkey (spec.md §5).
//
// Grounded on the teacher's internal/app/app.go RuntimeContext
// (context.WithCancel + signal.Notify) and shutdown.go's
// signal-to-cancel goroutine, trimmed to the single cancellable
// context this module's two single-loop processes need.
package runtime

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AshBuk/kvmcrypt/internal/logger"
)

// Context pairs a cancellable context with the logger every component
// is threaded with explicitly (spec.md §9: no ambient singletons).
type Context struct {
	Ctx    context.Context
	Cancel context.CancelFunc
	Logger logger.Logger
}

// New creates a runtime context that cancels on SIGINT or SIGTERM.
func New(log logger.Logger) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal %s, shutting down", sig)
		cancel()
	}()

	return &Context{Ctx: ctx, Cancel: cancel, Logger: log}
}
