// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package transport delivers flushed metric payloads to a collector.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
)

// UDPSender writes each payload as a single datagram to a fixed collector
// address.
type UDPSender struct {
	addr string

	mu   sync.Mutex // guards conn
	conn net.Conn
}

// NewUDPSender returns a sender for host:port. The socket is opened on the
// first Send.
func NewUDPSender(host string, port int) *UDPSender {
	return &UDPSender{addr: net.JoinHostPort(host, strconv.Itoa(port))}
}

// Addr returns the collector address.
func (s *UDPSender) Addr() string { return s.addr }

// Send writes payload as one datagram.
func (s *UDPSender) Send(ctx context.Context, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "udp", s.addr)
		if err != nil {
			return fmt.Errorf("dial udp %s: %w", s.addr, err)
		}
		s.conn = conn
	}
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("write udp %s: %w", s.addr, err)
	}
	return nil
}

// Close releases the socket. The sender may be used again afterwards.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
