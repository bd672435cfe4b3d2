// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package cryptutil

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	plaintext := []byte(`{"etype":0,"code":30,"value":1,"time":1.5}`)
	ciphertext, err := Encrypt(plaintext, &key.PublicKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ciphertext) != 256 {
		t.Fatalf("expected a 256-byte RSA-2048 ciphertext, got %d bytes", len(ciphertext))
	}

	got, ok := Decrypt(ciphertext, key)
	if !ok {
		t.Fatalf("Decrypt: expected success, got ok=false")
	}
	if string(got) != string(plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	keyA, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair A: %v", err)
	}
	keyB, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair B: %v", err)
	}

	ciphertext, err := Encrypt([]byte("hello"), &keyA.PublicKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, ok := Decrypt(ciphertext, keyB); ok {
		t.Fatalf("decryption with the wrong private key must fail")
	}
}

func TestKeyPEMRoundTrip(t *testing.T) {
	key, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	privPEM, err := EncodePrivateKeyPEM(key)
	if err != nil {
		t.Fatalf("EncodePrivateKeyPEM: %v", err)
	}
	pubPEM, err := EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicKeyPEM: %v", err)
	}

	loadedPriv, err := LoadPrivateKeyPEM(privPEM)
	if err != nil {
		t.Fatalf("LoadPrivateKeyPEM: %v", err)
	}
	loadedPub, err := LoadPublicKeyPEM(pubPEM)
	if err != nil {
		t.Fatalf("LoadPublicKeyPEM: %v", err)
	}

	if loadedPriv.D.Cmp(key.D) != 0 {
		t.Fatalf("reloaded private key does not match original")
	}
	if loadedPub.E != key.PublicKey.E || loadedPub.N.Cmp(key.PublicKey.N) != 0 {
		t.Fatalf("reloaded public key does not match original")
	}
}

func TestGenerateKeyPairUsesStandardExponent(t *testing.T) {
	key, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if key.PublicKey.E != PublicExponent {
		t.Fatalf("got exponent %d, want %d", key.PublicKey.E, PublicExponent)
	}
	if key.PublicKey.N.BitLen() != KeySize {
		t.Fatalf("got modulus bit length %d, want %d", key.PublicKey.N.BitLen(), KeySize)
	}
}
