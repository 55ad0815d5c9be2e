// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package framing implements a frame reader: byte-at-a-time accumulation
// until the \x07\x08 terminator, under a per-phase length cap and
// per-byte read deadline. It is the only server-side package that
// touches a net.Conn's deadline; the wire codec above it
// (internal/wire) never sees raw sockets.
package framing

import (
	"errors"
	"io"
	"net"
	"time"
)

// bufCap is the hard ceiling on a frame's length, including the
// terminator. No phase cap below may exceed it.
const bufCap = 256

// Outcome classifies a ReadFrame result when it isn't a decoded message.
type Outcome int

const (
	// OK means the frame was read cleanly; a wire.ClientMessage was decoded.
	OK Outcome = iota
	// TooLong means the phase cap was reached before the terminator appeared.
	TooLong
	// TimedOut means a single byte did not arrive within the deadline.
	TimedOut
	// IOError means the underlying stream errored or closed.
	IOError
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case TooLong:
		return "TooLong"
	case TimedOut:
		return "TimedOut"
	case IOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Phase bundles the two per-phase parameters of the cap table: MaxLen
// includes the terminator, Timeout is a per-byte wall-clock deadline.
type Phase struct {
	MaxLen  int
	Timeout time.Duration
}

// Per-phase caps, as shipped.
var (
	PhaseName         = Phase{MaxLen: 20, Timeout: 1 * time.Second}
	PhaseNumericReply = Phase{MaxLen: 12, Timeout: 1 * time.Second}
	PhaseRechargeWait = Phase{MaxLen: 12, Timeout: 5 * time.Second}
	PhasePickup       = Phase{MaxLen: 100, Timeout: 1 * time.Second}
)

// DefaultCaps returns the four-entry phase table as shipped, keyed by
// name. These are the same Phase values config.ServerConfig.SessionConfig
// falls back to when an override is left empty.
func DefaultCaps() map[string]Phase {
	return map[string]Phase{
		"name":     PhaseName,
		"numeric":  PhaseNumericReply,
		"recharge": PhaseRechargeWait,
		"pickup":   PhasePickup,
	}
}

// deadlineConn is the minimal contract this package needs from a
// connection: a per-byte read with an individually settable deadline.
type deadlineConn interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

var _ deadlineConn = (net.Conn)(nil)

// ReadFrame reads bytes one at a time from conn into a fixed internal
// buffer until the last two bytes equal the wire terminator, subject to
// phase.MaxLen (including terminator) and phase.Timeout per byte.
// On success it returns OK and the payload (terminator stripped);
// otherwise it returns the failing Outcome and a nil payload.
func ReadFrame(conn deadlineConn, phase Phase) ([]byte, Outcome, error) {
	if phase.MaxLen > bufCap {
		phase.MaxLen = bufCap
	}

	var buf [bufCap]byte
	n := 0
	one := make([]byte, 1)

	for n < phase.MaxLen {
		if err := conn.SetReadDeadline(time.Now().Add(phase.Timeout)); err != nil {
			return nil, IOError, err
		}

		_, err := io.ReadFull(conn, one)
		if err != nil {
			if isTimeout(err) {
				return nil, TimedOut, err
			}
			return nil, IOError, err
		}

		buf[n] = one[0]
		n++

		if n >= 2 && buf[n-2] == 0x07 && buf[n-1] == 0x08 {
			return append([]byte(nil), buf[:n-2]...), OK, nil
		}
	}

	return nil, TooLong, errors.New("framing: frame exceeded phase cap before terminator")
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
