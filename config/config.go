// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package config loads and validates the publisher's YAML configuration
// file (spec.md §6). It owns only the raw, unparsed shape of the file;
// turning a subscriber entry's "key" path into a parsed public key and
// a hotkey name into a scancode is done by the publisher package when
// it builds the routing package's typed records.
package config

// SubscriberEntry is one entry of the "subscribers" list.
type SubscriberEntry struct {
	Name   string `yaml:"name"`
	Key    string `yaml:"key"`    // path to a PEM public key; empty => local destination
	Hotkey string `yaml:"hotkey"` // optional key name bound to select this subscriber
}

// HotkeysConfig binds key names to the built-in switch/exit actions.
type HotkeysConfig struct {
	Switch string `yaml:"switch"`
	Exit   string `yaml:"exit"`
}

// TransportConfig configures the one-to-many transport endpoint.
type TransportConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// LogConfig configures the ambient logger (not part of spec.md's core,
// carried regardless per the ambient-stack rule).
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is the publisher's full configuration file (spec.md §6).
type Config struct {
	Subscribers []SubscriberEntry `yaml:"subscribers"`
	Devices     []string          `yaml:"devices"`
	Hotkeys     HotkeysConfig     `yaml:"hotkeys"`
	Transport   TransportConfig   `yaml:"transport"`
	Log         LogConfig         `yaml:"log"`
}

// SetDefaults seeds the zero-value fields of a freshly parsed Config
// with the module's documented defaults (spec.md §6: default port 5555).
func SetDefaults(c *Config) {
	if c.Transport.Port == 0 {
		c.Transport.Port = 5555
	}
	if c.Transport.Bind == "" {
		c.Transport.Bind = "0.0.0.0"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
