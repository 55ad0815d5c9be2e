// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package integration runs a real robotd instance against
// internal/simulator (and, for protocol-violation scenarios, a raw
// scripted peer) over a loopback TCP socket.
package integration

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/nbremote/robotd/internal/config"
	"github.com/nbremote/robotd/internal/server"
	"github.com/nbremote/robotd/internal/simulator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	cfg := &config.ServerConfig{
		Listen:    ln.Addr().String(),
		RateLimit: config.RateLimitConfig{PerSecond: 1000, Burst: 100},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		server.RunWithListener(ctx, ln, cfg, discardLogger())
		close(done)
	}()

	return ln.Addr().String(), func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not shut down in time")
		}
	}
}

// TestS1SuccessfulLoginImmediateOriginPickup runs the full handshake,
// navigation for a robot that starts at the origin (the two probe moves
// take it off the origin and the navigator brings it back), and secret
// pickup end to end over a real TCP socket.
func TestS1SuccessfulLoginImmediateOriginPickup(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	conn, err := simulator.Dial(addr, nil)
	if err != nil {
		t.Fatalf("simulator.Dial: %v", err)
	}
	defer conn.Close()

	cfg := simulator.Config{
		Name:   "Mnau",
		KeyID:  2,
		X:      0,
		Y:      0,
		Secret: "Tajna zprava",
	}
	if err := simulator.Run(conn, cfg, discardLogger()); err != nil {
		t.Fatalf("simulator.Run: %v", err)
	}
}

// TestS6ObstacleDetour starts the robot two cells east of the origin
// with a single-cell obstacle directly in its path, exercising the
// navigator's 3-move detour over a real socket end to end.
func TestS6ObstacleDetour(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	conn, err := simulator.Dial(addr, nil)
	if err != nil {
		t.Fatalf("simulator.Dial: %v", err)
	}
	defer conn.Close()

	cfg := simulator.Config{
		Name:    "Mnau",
		KeyID:   2,
		X:       2,
		Y:       0,
		Heading: simulator.Right,
		Secret:  "Tajna zprava",
		Obstacles: map[[2]int32]bool{
			{1, 0}: true,
		},
	}
	if err := simulator.Run(conn, cfg, discardLogger()); err != nil {
		t.Fatalf("simulator.Run: %v", err)
	}
}

// TestS5BadRechargeFollowupClosesCleanly replays the literal S5 scenario
// with a raw scripted peer (the simulator has no knob for "reply to
// RECHARGING with garbage"), confirming the server emits LOGIC ERROR and
// closes without ever sending a malformed reply afterward.
func TestS5BadRechargeFollowupClosesCleanly(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer conn.Close()

	write := func(s string) {
		if _, err := conn.Write(append([]byte(s), 0x07, 0x08)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	read := func() string {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var buf []byte
		one := make([]byte, 1)
		for {
			n, err := conn.Read(one)
			if n == 0 || err != nil {
				t.Fatalf("read: %v", err)
			}
			buf = append(buf, one[0])
			if len(buf) >= 2 && buf[len(buf)-2] == 0x07 && buf[len(buf)-1] == 0x08 {
				return string(buf[:len(buf)-2])
			}
		}
	}

	write("Mnau")
	if got := read(); got != "107 KEY REQUEST" {
		t.Fatalf("got %q, want KEY REQUEST", got)
	}

	write("RECHARGING")
	write("1")

	if got := read(); got != "302 LOGIC ERROR" {
		t.Fatalf("got %q, want LOGIC ERROR", got)
	}

	// The server must close without sending anything else.
	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	one := make([]byte, 1)
	if n, err := conn.Read(one); n != 0 || err == nil {
		t.Fatalf("expected the connection to close, got n=%d err=%v", n, err)
	}
}
