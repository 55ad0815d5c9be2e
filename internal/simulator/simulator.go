// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package simulator implements the client side of the robot protocol:
// an in-memory grid, a configurable set of single-cell obstacles, and a
// secret string at the origin. It is a conformant peer used to exercise
// robotd end-to-end, sharing nothing with internal/session or
// internal/navigator beyond the wire format and the immutable key
// tables both sides of the handshake already agree on.
package simulator

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nbremote/robotd/internal/keys"
	"github.com/nbremote/robotd/internal/wire"
)

// Heading mirrors internal/navigator.Direction in shape only — the
// simulator deliberately does not import that package, since it plays
// the opposite role in the protocol (the thing being driven, not the
// driver).
type Heading int

const (
	Up Heading = iota
	Down
	Left
	Right
)

// Config parameterizes one simulated robot session.
type Config struct {
	Name    string
	KeyID   int
	X, Y    int32
	Heading Heading
	Secret  string

	// Obstacles is the set of single-cell obstacles a Move into will ram.
	Obstacles map[[2]int32]bool

	// Fault injection, for exercising the protocol's error table end-to-end.
	InjectRecharge bool          // precede the KeyId and Confirm replies with RECHARGING/FULL POWER
	WrongConfirm   bool          // send an off-by-one confirm to force LOGIN FAILED
	OversizeName   bool          // send 20 ASCII bytes with no terminator
	DelayedReply   time.Duration // sleep before each reply after the handshake, to trip server-side timeouts
}

// Dial opens a TCP connection to addr, optionally wrapped in TLS (mTLS
// when tlsCfg carries client certificates, built via internal/pki by
// the caller).
func Dial(addr string, tlsCfg *tls.Config) (net.Conn, error) {
	if tlsCfg != nil {
		return tls.Dial("tcp", addr, tlsCfg)
	}
	return net.Dial("tcp", addr)
}

// Run plays Config's handshake and movement script against conn until
// the server sends Logout, an error terminates the session, or the
// connection closes.
func Run(conn net.Conn, cfg Config, log *slog.Logger) error {
	if cfg.OversizeName {
		if _, err := conn.Write([]byte(strings.Repeat("X", 20))); err != nil {
			return err
		}
		reply, err := readFrame(conn)
		log.Info("oversize name probe", "reply", reply, "error", err)
		return err
	}

	if err := sendFrame(conn, cfg.Name); err != nil {
		return err
	}

	if _, err := readFrame(conn); err != nil { // "107 KEY REQUEST"
		return err
	}

	if err := cfg.maybeInjectRecharge(conn); err != nil {
		return err
	}
	if err := sendFrame(conn, strconv.Itoa(cfg.KeyID)); err != nil {
		return err
	}

	if _, err := readFrame(conn); err != nil { // the server's Confirmation(hash); derived independently below
		return err
	}

	hash := keys.Hash(cfg.Name)
	confirm := hash + keys.Client[cfg.KeyID]
	if cfg.WrongConfirm {
		confirm++
	}

	if err := cfg.maybeInjectRecharge(conn); err != nil {
		return err
	}
	if err := sendFrame(conn, strconv.FormatUint(uint64(confirm), 10)); err != nil {
		return err
	}

	status, err := readFrame(conn)
	if err != nil {
		return err
	}
	if status != "200 OK" {
		log.Info("handshake rejected", "status", status)
		return nil
	}
	log.Info("handshake accepted")

	return cfg.playMovementLoop(conn, log)
}

func (cfg Config) maybeInjectRecharge(conn net.Conn) error {
	if !cfg.InjectRecharge {
		return nil
	}
	if err := sendFrame(conn, "RECHARGING"); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	return sendFrame(conn, "FULL POWER")
}

func (cfg Config) playMovementLoop(conn net.Conn, log *slog.Logger) error {
	x, y, heading := cfg.X, cfg.Y, cfg.Heading
	for {
		cmd, err := readFrame(conn)
		if err != nil {
			return err
		}

		if cfg.DelayedReply > 0 {
			time.Sleep(cfg.DelayedReply)
		}

		switch cmd {
		case "102 MOVE":
			dx, dy := delta(heading)
			nx, ny := x+dx, y+dy
			if cfg.Obstacles[[2]int32{nx, ny}] {
				log.Debug("ram", "x", x, "y", y, "heading", heading)
			} else {
				x, y = nx, ny
			}
			if err := sendFrame(conn, fmt.Sprintf("OK %d %d", x, y)); err != nil {
				return err
			}
		case "103 TURN LEFT":
			heading = turnLeft(heading)
			if err := sendFrame(conn, fmt.Sprintf("OK %d %d", x, y)); err != nil {
				return err
			}
		case "104 TURN RIGHT":
			heading = turnRight(heading)
			if err := sendFrame(conn, fmt.Sprintf("OK %d %d", x, y)); err != nil {
				return err
			}
		case "105 GET MESSAGE":
			if err := sendFrame(conn, cfg.Secret); err != nil {
				return err
			}
		case "106 LOGOUT":
			log.Info("logged out", "x", x, "y", y)
			return nil
		default:
			return fmt.Errorf("simulator: unexpected server command %q", cmd)
		}
	}
}

func delta(h Heading) (dx, dy int32) {
	switch h {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

func turnLeft(h Heading) Heading {
	switch h {
	case Up:
		return Left
	case Left:
		return Down
	case Down:
		return Right
	case Right:
		return Up
	}
	return h
}

func turnRight(h Heading) Heading {
	switch h {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	case Left:
		return Up
	}
	return h
}

// sendFrame writes s terminated by the wire terminator.
func sendFrame(conn net.Conn, s string) error {
	_, err := conn.Write(append([]byte(s), wire.Terminator[0], wire.Terminator[1]))
	return err
}

// readFrame accumulates bytes until the wire terminator, with a generous
// cap and deadline — the simulator is test tooling, not subject to the
// DoS-resistance contract internal/framing enforces on the server side.
func readFrame(conn net.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var buf []byte
	one := make([]byte, 1)
	for len(buf) < 4096 {
		n, err := conn.Read(one)
		if n == 0 || err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("simulator: reading frame: %w", err)
		}
		buf = append(buf, one[0])
		if len(buf) >= 2 && buf[len(buf)-2] == wire.Terminator[0] && buf[len(buf)-1] == wire.Terminator[1] {
			return string(buf[:len(buf)-2]), nil
		}
	}
	return "", errors.New("simulator: frame exceeded internal buffer without a terminator")
}
