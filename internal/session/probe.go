// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package session

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// defaultRTSPPort is used when the stream URL omits a port.
const defaultRTSPPort = "554"

// ProbeDialer is the default Dialer. It validates reachability at the
// RTSP level: TCP connect, then an OPTIONS exchange. It does not decode
// media; a front end that renders video supplies its own Dialer and
// reuses the manager's fallback logic unchanged.
type ProbeDialer struct {
	// Timeout bounds the dial and the OPTIONS exchange.
	Timeout time.Duration
}

// NewProbeDialer creates a probe dialer with the given per-attempt timeout.
func NewProbeDialer(timeout time.Duration) *ProbeDialer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProbeDialer{Timeout: timeout}
}

// Dial implements Dialer.
func (d *ProbeDialer) Dial(ctx context.Context, s Strategy, onFatal func(error)) (Connection, error) {
	addr, err := rtspAddr(s.URL)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &probeConn{
		conn:    conn,
		url:     s.URL,
		sink:    s.Sink,
		timeout: d.Timeout,
		onFatal: onFatal,
	}, nil
}

// rtspAddr extracts host:port from a stream URL, defaulting the RTSP port.
func rtspAddr(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("stream url %q has no host", raw)
	}

	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), defaultRTSPPort)
	}
	return host, nil
}

// probeConn is a Connection over a raw RTSP control channel.
type probeConn struct {
	conn    net.Conn
	url     string
	sink    string
	timeout time.Duration
	onFatal func(error)
	stopped atomic.Bool
}

// SetReady performs the RTSP OPTIONS exchange as the readiness check.
func (c *probeConn) SetReady() error {
	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	req := fmt.Sprintf("OPTIONS %s RTSP/1.0\r\nCSeq: 1\r\nUser-Agent: camwatch\r\n\r\n", c.url)
	if _, err := c.conn.Write([]byte(req)); err != nil {
		return fmt.Errorf("rtsp options: %w", err)
	}

	line, err := bufio.NewReader(c.conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("rtsp options response: %w", err)
	}
	if !strings.HasPrefix(line, "RTSP/1.0 2") {
		return fmt.Errorf("rtsp options rejected: %s", strings.TrimSpace(line))
	}

	return c.conn.SetDeadline(time.Time{})
}

// SetActive starts the liveness monitor. The probe holds the control
// channel open; when the peer closes it, the session is gone and the
// manager hears about it through onFatal.
func (c *probeConn) SetActive() error {
	go c.monitor()
	return nil
}

func (c *probeConn) monitor() {
	buf := make([]byte, 256)
	for {
		if _, err := c.conn.Read(buf); err != nil {
			if !c.stopped.Load() && c.onFatal != nil {
				c.onFatal(fmt.Errorf("stream connection lost: %w", err))
			}
			return
		}
	}
}

// Stop closes the control channel. Idempotent.
func (c *probeConn) Stop() {
	if c.stopped.Swap(true) {
		return
	}
	c.conn.Close()
}

// DisplaySurface returns no surface: the probe does not decode media.
func (c *probeConn) DisplaySurface() (Surface, bool) {
	return nil, false
}
