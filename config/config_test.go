// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
subscribers:
  - name: local
devices:
  - "Some Keyboard"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Transport.Port != 5555 {
		t.Errorf("got port %d, want default 5555", cfg.Transport.Port)
	}
	if cfg.Transport.Bind != "0.0.0.0" {
		t.Errorf("got bind %q, want default 0.0.0.0", cfg.Transport.Bind)
	}
}

func TestLoadConfigMissingFileIsFatal(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestValidateRejectsNoSubscribers(t *testing.T) {
	c := &Config{Devices: []string{"kbd"}, Transport: TransportConfig{Port: 5555}}
	if err := Validate(c); err == nil {
		t.Fatalf("expected an error for zero subscribers")
	}
}

func TestValidateRejectsNoDevices(t *testing.T) {
	c := &Config{
		Subscribers: []SubscriberEntry{{Name: "a"}},
		Transport:   TransportConfig{Port: 5555},
	}
	if err := Validate(c); err == nil {
		t.Fatalf("expected an error for zero devices")
	}
}

func TestValidateRejectsDuplicateSubscriberNames(t *testing.T) {
	c := &Config{
		Subscribers: []SubscriberEntry{{Name: "a"}, {Name: "a"}},
		Devices:     []string{"kbd"},
		Transport:   TransportConfig{Port: 5555},
	}
	if err := Validate(c); err == nil {
		t.Fatalf("expected an error for duplicate subscriber names")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := &Config{
		Subscribers: []SubscriberEntry{{Name: "a"}},
		Devices:     []string{"kbd"},
		Transport:   TransportConfig{Port: 70000},
	}
	if err := Validate(c); err == nil {
		t.Fatalf("expected an error for an out-of-range port")
	}
}
