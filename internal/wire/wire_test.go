package wire

import (
	"bytes"
	"testing"
)

func TestEncodeTextForms(t *testing.T) {
	cases := []struct {
		msg  ServerMessage
		want string
	}{
		{MoveMsg(), "102 MOVE"},
		{TurnLeftMsg(), "103 TURN LEFT"},
		{TurnRightMsg(), "104 TURN RIGHT"},
		{PickUpMsg(), "105 GET MESSAGE"},
		{LogoutMsg(), "106 LOGOUT"},
		{KeyRequestMsg(), "107 KEY REQUEST"},
		{OkMsg(), "200 OK"},
		{LoginFailedMsg(), "300 LOGIN FAILED"},
		{SyntaxErrorMsg(), "301 SYNTAX ERROR"},
		{LogicErrorMsg(), "302 LOGIC ERROR"},
		{KeyOutOfRangeErrorMsg(), "303 KEY OUT OF RANGE"},
		{ConfirmationMsg(43253), "43253"},
		{ConfirmationMsg(0), "0"},
	}
	for _, c := range cases {
		got := Encode(c.msg)
		want := append([]byte(c.want), Terminator[0], Terminator[1])
		if !bytes.Equal(got, want) {
			t.Errorf("Encode(%v) = %q, want %q", c.msg, got, want)
		}
	}
}

func TestEncodeAlwaysEndsInTerminatorOnce(t *testing.T) {
	all := []ServerMessage{
		MoveMsg(), TurnLeftMsg(), TurnRightMsg(), PickUpMsg(), LogoutMsg(),
		KeyRequestMsg(), OkMsg(), LoginFailedMsg(), SyntaxErrorMsg(),
		LogicErrorMsg(), KeyOutOfRangeErrorMsg(), ConfirmationMsg(12345),
	}
	for _, m := range all {
		out := Encode(m)
		if len(out) < 2 || out[len(out)-2] != Terminator[0] || out[len(out)-1] != Terminator[1] {
			t.Errorf("Encode(%v) does not end in terminator: %q", m, out)
		}
		body := out[:len(out)-2]
		if bytes.Contains(body, Terminator[:]) {
			t.Errorf("Encode(%v) body contains an early terminator occurrence: %q", m, out)
		}
	}
}

func TestDecodeRecharging(t *testing.T) {
	m := Decode([]byte("RECHARGING"))
	if m.Kind != Recharging {
		t.Errorf("Kind = %v, want Recharging", m.Kind)
	}
}

func TestDecodeFullPower(t *testing.T) {
	m := Decode([]byte("FULL POWER"))
	if m.Kind != FullPower {
		t.Errorf("Kind = %v, want FullPower", m.Kind)
	}
}

func TestDecodeNonASCIIIsInvalid(t *testing.T) {
	m := Decode([]byte{0xFF, 0x41})
	if m.Kind != Invalid {
		t.Errorf("Kind = %v, want Invalid", m.Kind)
	}
}

func TestDecodePosition(t *testing.T) {
	m := Decode([]byte("OK 12 -7"))
	if m.Kind != Position || m.X != 12 || m.Y != -7 {
		t.Errorf("got %+v, want Position(12,-7)", m)
	}
}

func TestDecodePositionSignTolerantZero(t *testing.T) {
	m := Decode([]byte("OK -0 0"))
	if m.Kind != Position || m.X != 0 || m.Y != 0 {
		t.Errorf("got %+v, want Position(0,0)", m)
	}
}

func TestDecodeMalformedPositionFallsBackToString(t *testing.T) {
	cases := []string{
		"OK notanumber 3",
		"OK 1 2 3",
		"OK 1",
		"OK ",
	}
	for _, payload := range cases {
		m := Decode([]byte(payload))
		if m.Kind != String || m.Text != payload {
			t.Errorf("Decode(%q) = %+v, want String(%q)", payload, m, payload)
		}
	}
}

func TestDecodeNumber(t *testing.T) {
	m := Decode([]byte("38067"))
	if m.Kind != Number || m.Num != 38067 {
		t.Errorf("got %+v, want Number(38067)", m)
	}
}

func TestDecodeNumberRejectsNegative(t *testing.T) {
	m := Decode([]byte("-5"))
	if m.Kind != String || m.Text != "-5" {
		t.Errorf("got %+v, want String(-5) (negative numbers are not the Number variant)", m)
	}
}

func TestDecodeStringFallback(t *testing.T) {
	m := Decode([]byte("Mnau"))
	if m.Kind != String || m.Text != "Mnau" {
		t.Errorf("got %+v, want String(Mnau)", m)
	}
}

func TestDecodeClientNameStartingWithOK(t *testing.T) {
	// A client name that happens to start with "OK " but is not a valid
	// position must be preserved verbatim as a string.
	m := Decode([]byte("OK Computer"))
	if m.Kind != String || m.Text != "OK Computer" {
		t.Errorf("got %+v, want String(\"OK Computer\")", m)
	}
}
