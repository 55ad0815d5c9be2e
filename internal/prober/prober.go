// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package prober implements the black-box connectivity check cmd/robotping
// schedules against configured robotd endpoints: a bare TCP connect (and,
// when configured, a TLS handshake), nothing more. It never sends a Name,
// KeyId, or any other protocol frame — it sits one layer below
// internal/session, exercising only the transport robotd listens on.
package prober

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// Target is one endpoint to probe.
type Target struct {
	Name string
	Addr string
	TLS  *tls.Config // nil means plain TCP
}

// Result records the outcome of a single probe.
type Result struct {
	Target  string
	Reached bool
	Latency time.Duration
	Err     error
}

// Probe dials t.Addr with the given timeout, completing a TLS handshake
// when t.TLS is set, and reports whether the endpoint was reachable.
func Probe(t Target, timeout time.Duration) Result {
	start := time.Now()
	dialer := &net.Dialer{Timeout: timeout}

	var conn net.Conn
	var err error
	if t.TLS != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", t.Addr, t.TLS)
	} else {
		conn, err = dialer.Dial("tcp", t.Addr)
	}
	latency := time.Since(start)

	if err != nil {
		return Result{Target: t.Name, Reached: false, Latency: latency, Err: fmt.Errorf("prober: dialing %s: %w", t.Addr, err)}
	}
	conn.Close()
	return Result{Target: t.Name, Reached: true, Latency: latency}
}
