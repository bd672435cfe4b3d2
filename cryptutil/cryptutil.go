// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package cryptutil wraps the RSA-OAEP-SHA256 asymmetric encryption used
// to keep each outbound event confidential to exactly one subscriber
// (spec.md §4.4), and the PEM/PKCS#8 key-pair plumbing used to generate
// and load those keys (spec.md §6).
//
// Grounded on original_source/kybonet/crypto.py (RSA-2048, e=65537,
// OAEP with MGF1-SHA256, no label) and on the pack's RSA-OAEP examples
// (other_examples/.../kem/rsa/rsa.go.go), which confirm stdlib
// crypto/rsa + crypto/x509 is this corpus's idiomatic way of doing
// RSA-OAEP — no example repo in the retrieved pack reaches for a
// third-party RSA/OAEP package, so this stays on the standard library.
package cryptutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// KeySize is the RSA modulus size in bits (spec.md §6).
const KeySize = 2048

// PublicExponent is the RSA public exponent (spec.md §6).
const PublicExponent = 65537

// GenerateKeyPair creates a fresh RSA-2048 key pair.
func GenerateKeyPair() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	if key.PublicKey.E != PublicExponent {
		return nil, fmt.Errorf("generated key has unexpected public exponent %d", key.PublicKey.E)
	}
	return key, nil
}

// EncodePrivateKeyPEM serializes a private key as PKCS#8 PEM (no
// passphrase), matching spec.md §6's key format.
func EncodePrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// EncodePublicKeyPEM serializes a public key as SubjectPublicKeyInfo PEM.
func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// LoadPublicKeyPEM parses a SubjectPublicKeyInfo PEM-encoded RSA public key.
func LoadPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key data")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return rsaPub, nil
}

// LoadPrivateKeyPEM parses a PKCS#8 PEM-encoded RSA private key.
func LoadPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key data")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, nil
}

// Encrypt encrypts plaintext for pub using RSA-OAEP-SHA256 with no
// label, matching spec.md §4.4 and the Python original exactly.
func Encrypt(plaintext []byte, pub *rsa.PublicKey) ([]byte, error) {
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("RSA-OAEP encryption failed: %w", err)
	}
	return ciphertext, nil
}

// Decrypt attempts RSA-OAEP-SHA256 decryption of ciphertext with priv.
// A decryption failure is expected, ordinary behavior for a subscriber
// that was not the intended recipient (spec.md §4.5, §9): callers must
// treat ok=false as a silent skip, never as an error condition.
func Decrypt(ciphertext []byte, priv *rsa.PrivateKey) (plaintext []byte, ok bool) {
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, false
	}
	return pt, true
}
