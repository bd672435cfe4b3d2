// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AshBuk/kvmcrypt/cryptutil"
	"github.com/AshBuk/kvmcrypt/inject"
	"github.com/AshBuk/kvmcrypt/internal/logger"
	"github.com/AshBuk/kvmcrypt/internal/runtime"
	"github.com/AshBuk/kvmcrypt/subscriber"
	"github.com/AshBuk/kvmcrypt/transport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if opts.verbose && opts.quiet {
		fmt.Fprintln(os.Stderr, "-v and -q are mutually exclusive")
		return 2
	}
	if opts.keyFile == "" {
		fmt.Fprintln(os.Stderr, "-key is required")
		return 2
	}

	log := logger.NewDefaultLogger(logger.LevelFromFlags(opts.verbose, opts.quiet))

	keyData, err := os.ReadFile(opts.keyFile)
	if err != nil {
		log.Error("unreadable private key file %s: %v", opts.keyFile, err)
		return 1
	}
	priv, err := cryptutil.LoadPrivateKeyPEM(keyData)
	if err != nil {
		log.Error("failed to parse private key: %v", err)
		return 1
	}

	client, err := transport.Dial(opts.server)
	if err != nil {
		log.Error("failed to connect to publisher at %s: %v", opts.server, err)
		return 1
	}
	defer client.Close()

	var injector subscriber.Injector
	if opts.simulate {
		injector = subscriber.NewSimulateInjector(log)
	} else {
		real, err := inject.New()
		if err != nil {
			log.Error("failed to create synthetic input device: %v", err)
			return 1
		}
		defer real.Close()
		injector = real
	}

	rt := runtime.New(log)
	sub := subscriber.New(client, priv, injector, log)

	done := make(chan error, 1)
	go func() { done <- sub.Run() }()

	select {
	case <-rt.Ctx.Done():
		log.Info("subscriber shutting down")
		client.Close()
		return 0
	case err := <-done:
		if err != nil {
			log.Error("subscriber exited with error: %v", err)
			return 1
		}
		return 0
	}
}

type options struct {
	server   string
	keyFile  string
	simulate bool
	verbose  bool
	quiet    bool
}

func parseOptions(args []string) (*options, error) {
	opts := &options{server: "localhost:5555"}

	fs := flag.NewFlagSet("kvmcrypt-subscriber", flag.ContinueOnError)
	fs.StringVar(&opts.server, "server", opts.server, "publisher address as host:port")
	fs.StringVar(&opts.keyFile, "key", "", "path to this subscriber's PEM private key")
	fs.BoolVar(&opts.simulate, "simulate", false, "decrypt and log events without injecting them")
	fs.BoolVar(&opts.verbose, "v", false, "verbose (debug) logging")
	fs.BoolVar(&opts.quiet, "q", false, "quiet (warnings and errors only) logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}
