// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package transport

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the subscriber side of the transport: it connects to one
// publisher and receives every message, unfiltered (spec.md §4.5).
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a publisher listening at addr (host:port).
func Dial(addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/events"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to publisher at %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Receive blocks for one ciphertext message at a time; no batching.
func (c *Client) Receive() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetReadDeadline bounds how long Receive may block.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}
