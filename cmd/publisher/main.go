// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AshBuk/kvmcrypt/config"
	"github.com/AshBuk/kvmcrypt/internal/logger"
	"github.com/AshBuk/kvmcrypt/internal/runtime"
	"github.com/AshBuk/kvmcrypt/publisher"
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

	log := logger.NewDefaultLogger(logger.LevelFromFlags(opts.verbose, opts.quiet))

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		log.Error("configuration error: %v", err)
		return 1
	}

	pub, err := publisher.New(cfg, log)
	if err != nil {
		log.Error("failed to start publisher: %v", err)
		return 1
	}

	rt := runtime.New(log)
	log.Info("publisher ready, capturing configured devices")

	if err := pub.Run(rt.Ctx); err != nil {
		log.Error("publisher exited with error: %v", err)
		return 1
	}

	log.Info("publisher shut down cleanly")
	return 0
}

type options struct {
	configFile string
	verbose    bool
	quiet      bool
}

func parseOptions(args []string) (*options, error) {
	opts := &options{configFile: "config.yaml"}

	fs := flag.NewFlagSet("kvmcrypt-publisher", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", opts.configFile, "path to the publisher YAML configuration file")
	fs.BoolVar(&opts.verbose, "v", false, "verbose (debug) logging")
	fs.BoolVar(&opts.quiet, "q", false, "quiet (warnings and errors only) logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}
