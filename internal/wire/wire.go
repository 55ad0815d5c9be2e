// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package wire implements the text wire codec for the robot protocol:
// encoding of server messages and decoding of client replies. Both
// directions are pure functions — no I/O, no state — so the framed
// reader (internal/framing) is the only place that touches a socket.
package wire

import (
	"strconv"
	"strings"
)

// Terminator ends every frame on the wire: BEL, BS.
var Terminator = [2]byte{0x07, 0x08}

// ServerMessageKind enumerates the 12 server→client variants.
type ServerMessageKind int

const (
	Confirmation ServerMessageKind = iota
	Move
	TurnLeft
	TurnRight
	PickUp
	Logout
	KeyRequest
	Ok
	LoginFailed
	SyntaxError
	LogicError
	KeyOutOfRangeError
)

// ServerMessage is a server→client message. Value is only meaningful
// for Kind == Confirmation.
type ServerMessage struct {
	Kind  ServerMessageKind
	Value uint16
}

// Encode renders a ServerMessage as its wire text form followed by the
// 2-byte terminator.
func Encode(msg ServerMessage) []byte {
	var text string
	switch msg.Kind {
	case Confirmation:
		text = strconv.FormatUint(uint64(msg.Value), 10)
	case Move:
		text = "102 MOVE"
	case TurnLeft:
		text = "103 TURN LEFT"
	case TurnRight:
		text = "104 TURN RIGHT"
	case PickUp:
		text = "105 GET MESSAGE"
	case Logout:
		text = "106 LOGOUT"
	case KeyRequest:
		text = "107 KEY REQUEST"
	case Ok:
		text = "200 OK"
	case LoginFailed:
		text = "300 LOGIN FAILED"
	case SyntaxError:
		text = "301 SYNTAX ERROR"
	case LogicError:
		text = "302 LOGIC ERROR"
	case KeyOutOfRangeError:
		text = "303 KEY OUT OF RANGE"
	}

	out := make([]byte, 0, len(text)+2)
	out = append(out, text...)
	out = append(out, Terminator[0], Terminator[1])
	return out
}

// Convenience constructors for the fixed (no-payload) server variants.
func MoveMsg() ServerMessage               { return ServerMessage{Kind: Move} }
func TurnLeftMsg() ServerMessage           { return ServerMessage{Kind: TurnLeft} }
func TurnRightMsg() ServerMessage          { return ServerMessage{Kind: TurnRight} }
func PickUpMsg() ServerMessage             { return ServerMessage{Kind: PickUp} }
func LogoutMsg() ServerMessage             { return ServerMessage{Kind: Logout} }
func KeyRequestMsg() ServerMessage         { return ServerMessage{Kind: KeyRequest} }
func OkMsg() ServerMessage                 { return ServerMessage{Kind: Ok} }
func LoginFailedMsg() ServerMessage        { return ServerMessage{Kind: LoginFailed} }
func SyntaxErrorMsg() ServerMessage        { return ServerMessage{Kind: SyntaxError} }
func LogicErrorMsg() ServerMessage         { return ServerMessage{Kind: LogicError} }
func KeyOutOfRangeErrorMsg() ServerMessage { return ServerMessage{Kind: KeyOutOfRangeError} }
func ConfirmationMsg(v uint16) ServerMessage {
	return ServerMessage{Kind: Confirmation, Value: v}
}

// ClientMessageKind enumerates the decoded client→server forms. The
// wire carries five variants but three of them (Name/KeyId/Confirm)
// collapse to the same textual shapes; the consumer (internal/session)
// disambiguates String/Number by protocol phase.
type ClientMessageKind int

const (
	String ClientMessageKind = iota
	Number
	Position
	Recharging
	FullPower
	Invalid
)

// ClientMessage is a decoded client→server frame payload.
type ClientMessage struct {
	Kind ClientMessageKind
	Text string // valid when Kind == String
	Num  uint32 // valid when Kind == Number
	X, Y int32  // valid when Kind == Position
}

// Decode parses a frame payload (terminator already stripped), trying
// each recognized shape in turn before falling back to a raw string.
func Decode(payload []byte) ClientMessage {
	s := string(payload)

	if s == "RECHARGING" {
		return ClientMessage{Kind: Recharging}
	}
	if s == "FULL POWER" {
		return ClientMessage{Kind: FullPower}
	}
	if !isASCII(payload) {
		return ClientMessage{Kind: Invalid}
	}

	if strings.HasPrefix(s, "OK ") {
		rest := s[3:]
		parts := strings.Split(rest, " ")
		if len(parts) == 2 {
			x, errX := strconv.ParseInt(parts[0], 10, 32)
			y, errY := strconv.ParseInt(parts[1], 10, 32)
			if errX == nil && errY == nil {
				return ClientMessage{Kind: Position, X: int32(x), Y: int32(y)}
			}
		}
		// Malformed position: fall through and return the raw string —
		// a client name may legitimately begin with "OK ".
		return ClientMessage{Kind: String, Text: s}
	}

	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return ClientMessage{Kind: Number, Num: uint32(n)}
	}

	return ClientMessage{Kind: String, Text: s}
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 127 {
			return false
		}
	}
	return true
}
