// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package subscriber assembles the transport receiver, decryptor, and
// injector into the subscriber's single-threaded main loop (spec.md
// §2, §4.5, §5): block on one transport receive at a time, attempt
// decryption, silently drop what isn't for this subscriber, parse the
// plaintext JSON, and inject.
package subscriber

import (
	"encoding/json"

	"github.com/AshBuk/kvmcrypt/cryptutil"
	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/internal/logger"
	"github.com/AshBuk/kvmcrypt/transport"

	"crypto/rsa"
)

// Injector is the narrow surface subscriber needs from inject.Injector,
// so --simulate can substitute a no-op implementation (spec.md §6).
type Injector interface {
	Inject(e event.Event) error
}

// Subscriber runs the receive/decrypt/inject loop against one private key.
type Subscriber struct {
	client   *transport.Client
	priv     *rsa.PrivateKey
	injector Injector
	log      logger.Logger
}

// New assembles a subscriber over an already-dialed transport client.
func New(client *transport.Client, priv *rsa.PrivateKey, injector Injector, log logger.Logger) *Subscriber {
	return &Subscriber{client: client, priv: priv, injector: injector, log: log}
}

// Run blocks receiving and injecting messages until Receive returns an
// error (for example because the transport was closed); per-message
// failures are logged and never end the loop.
func (s *Subscriber) Run() error {
	for {
		ciphertext, err := s.client.Receive()
		if err != nil {
			return err
		}
		s.handleMessage(ciphertext)
	}
}

// handleMessage implements spec.md §4.5's decrypt/parse/inject chain.
// Every failure short-circuits to a log-and-drop; none of them is
// surfaced as an error to the caller, matching §7's taxonomy.
func (s *Subscriber) handleMessage(ciphertext []byte) {
	plaintext, ok := cryptutil.Decrypt(ciphertext, s.priv)
	if !ok {
		s.log.Debug("dropping message not encrypted for this subscriber")
		return
	}

	var e event.Event
	if err := json.Unmarshal(plaintext, &e); err != nil {
		s.log.Warning("dropping malformed decrypted payload: %v", err)
		return
	}

	if !e.IsValidKey(alwaysTrue) && !e.IsValidPointer() {
		s.log.Warning("dropping decrypted payload with unrecognized shape: %+v", e)
		return
	}

	if err := s.injector.Inject(e); err != nil {
		s.log.Warning("injection failed: %v", err)
	}
}

// alwaysTrue accepts any key code: the subscriber has no notion of
// "recognized key table" beyond what the publisher already filtered;
// it only re-checks that value and etype are well-formed.
func alwaysTrue(int) bool { return true }
