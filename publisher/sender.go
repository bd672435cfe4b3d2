// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/AshBuk/kvmcrypt/cryptutil"
	"github.com/AshBuk/kvmcrypt/event"
	"github.com/AshBuk/kvmcrypt/routing"
	"github.com/AshBuk/kvmcrypt/transport"
)

// cryptoSender implements routing.Sender: it serializes an event to
// the four-field wire JSON, encrypts it for the destination's public
// key with RSA-OAEP-SHA256, and broadcasts the ciphertext to every
// connected subscriber (spec.md §4.4). Only the subscriber holding the
// matching private key will ever decrypt it successfully.
type cryptoSender struct {
	hub *transport.Hub
}

func newCryptoSender(hub *transport.Hub) *cryptoSender {
	return &cryptoSender{hub: hub}
}

func (s *cryptoSender) Send(dest routing.Destination, e event.Event) error {
	if dest.Local {
		return nil
	}
	plaintext, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	ciphertext, err := cryptutil.Encrypt(plaintext, dest.PubKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt event: %w", err)
	}
	s.hub.Broadcast(ciphertext)
	return nil
}
