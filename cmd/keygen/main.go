// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Command kvmcrypt-keygen generates the RSA-2048 key pair a subscriber
// needs (spec.md §6): the private key stays with the subscriber
// process, the public key's path is what a publisher config's
// subscriber entry points `key` at.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AshBuk/kvmcrypt/cryptutil"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var outDir, name string
	fs := flag.NewFlagSet("kvmcrypt-keygen", flag.ContinueOnError)
	fs.StringVar(&outDir, "out", ".", "directory to write the key pair into")
	fs.StringVar(&name, "name", "subscriber", "base filename for the generated key pair")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	key, err := cryptutil.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key pair: %v\n", err)
		return 1
	}

	privPEM, err := cryptutil.EncodePrivateKeyPEM(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode private key: %v\n", err)
		return 1
	}
	pubPEM, err := cryptutil.EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode public key: %v\n", err)
		return 1
	}

	privPath := filepath.Join(outDir, name+".key")
	pubPath := filepath.Join(outDir, name+".pub")

	if err := os.WriteFile(privPath, privPEM, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write private key: %v\n", err)
		return 1
	}
	if err := os.WriteFile(pubPath, pubPEM, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write public key: %v\n", err)
		return 1
	}

	fmt.Printf("wrote %s and %s\n", privPath, pubPath)
	return 0
}
