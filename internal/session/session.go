// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package session implementa o protocolo de sessão: o handshake de
// autenticação por checksum simétrico, o interleave de recarga, a
// navegação até a origem e a retirada do segredo, de acordo com o cap
// table de internal/framing e o codec de internal/wire.
//
// Handle é o único ponto de entrada; cada chamada possui exatamente uma
// conexão e nunca compartilha estado com outras sessões.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/nbremote/robotd/internal/framing"
	"github.com/nbremote/robotd/internal/keys"
	"github.com/nbremote/robotd/internal/logging"
	"github.com/nbremote/robotd/internal/navigator"
	"github.com/nbremote/robotd/internal/wire"
)

// Conn é o contrato mínimo que este pacote exige da conexão: leitura com
// deadline individual por byte (internal/framing), escrita e um endereço
// remoto para logging.
type Conn interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

var _ Conn = (net.Conn)(nil)

// Config agrupa os caps de fase usados pela sessão. O zero value de
// Config não é válido; use DefaultConfig.
type Config struct {
	Name     framing.Phase
	Numeric  framing.Phase
	Recharge framing.Phase
	Pickup   framing.Phase

	// SessionLogDir, quando não vazio, faz Handle espelhar cada sessão
	// autenticada em {SessionLogDir}/{robotName}/{sessionID}.log (nível
	// DEBUG), removido ao final de uma sessão bem-sucedida — ver
	// internal/logging.OpenRobotSessionLog.
	SessionLogDir string
}

// DefaultConfig retorna os caps de fase como distribuídos, os mesmos
// publicados por framing.DefaultCaps.
func DefaultConfig() Config {
	return Config{
		Name:     framing.PhaseName,
		Numeric:  framing.PhaseNumericReply,
		Recharge: framing.PhaseRechargeWait,
		Pickup:   framing.PhasePickup,
	}
}

// Handle conduz uma sessão inteira: handshake, navegação, retirada do
// segredo e logout. Todo erro é terminal — a conexão é fechada pelo
// chamador (internal/server) em qualquer caminho de saída. Handle nunca
// faz panic sem recuperação: um delta de navegação inalcançável propaga
// como erro, não como crash do processo (internal/server recupera o
// panic correspondente por goroutine, caso o invariante seja violado).
func Handle(ctx context.Context, conn Conn, logger *slog.Logger, cfg Config) (err error) {
	sessionID := uuid.NewString()
	log := logger.With("session_id", sessionID, "peer", conn.RemoteAddr().String())
	log.Info("session started")

	defer func() {
		if r := recover(); r != nil {
			log.Error("session panicked", "recover", fmt.Sprint(r))
			err = fmt.Errorf("session: internal assertion failed: %v", r)
		}
		if err != nil {
			log.Warn("session ended", "error", err)
		} else {
			log.Info("session ended", "result", "ok")
		}
	}()

	s := &driver{conn: conn, log: log, cfg: cfg}

	name, err := s.authenticate()
	if err != nil {
		return err
	}
	log.Info("authenticated", "name", name)

	robotLog, sErr := logging.OpenRobotSessionLog(log, cfg.SessionLogDir, name, sessionID)
	if sErr != nil {
		log.Warn("session log file unavailable", "error", sErr)
		robotLog = nil
	} else {
		defer robotLog.Close()
		if path := robotLog.Path(); path != "" {
			log.Debug("mirroring session to file", "path", path)
		}
		log = robotLog.Logger
		s.log = robotLog.Logger
	}

	if err := navigator.Run(&mover{d: s}); err != nil {
		return fmt.Errorf("session: navigation failed: %w", err)
	}
	log.Info("reached origin")

	if err := s.pickupAndLogout(); err != nil {
		return err
	}

	if robotLog != nil {
		robotLog.Discard()
	}
	return nil
}

// driver carrega o estado mínimo necessário para conduzir uma sessão:
// a conexão, o logger já enriquecido e os caps de fase em uso.
type driver struct {
	conn Conn
	log  *slog.Logger
	cfg  Config
}

func (s *driver) send(msg wire.ServerMessage) error {
	_, err := s.conn.Write(wire.Encode(msg))
	if err != nil {
		return fmt.Errorf("session: write failed: %w", err)
	}
	return nil
}

// readExpected lê um frame aplicando o interleave de recarga: se o
// frame decodificado for Recharging, aguarda um segundo frame com o
// timeout de recarga e exige FullPower antes de retomar a leitura
// original — sem recursão, um simples loop.
func (s *driver) readExpected(phase framing.Phase) (wire.ClientMessage, error) {
	for {
		payload, outcome, err := framing.ReadFrame(s.conn, phase)
		if err != nil {
			if outcome == framing.TooLong {
				s.send(wire.SyntaxErrorMsg())
			}
			return wire.ClientMessage{}, fmt.Errorf("session: %v: %w", outcome, err)
		}

		msg := wire.Decode(payload)

		if msg.Kind == wire.Recharging {
			rPayload, rOutcome, rErr := framing.ReadFrame(s.conn, s.cfg.Recharge)
			if rErr != nil {
				if rOutcome == framing.TooLong {
					s.send(wire.SyntaxErrorMsg())
				}
				return wire.ClientMessage{}, fmt.Errorf("session: recharge wait: %v: %w", rOutcome, rErr)
			}
			rMsg := wire.Decode(rPayload)
			if rMsg.Kind != wire.FullPower {
				s.send(wire.LogicErrorMsg())
				return wire.ClientMessage{}, errors.New("session: RECHARGING not followed by FULL POWER")
			}
			// Recarga concluída: retoma a espera original pelo mesmo phase.
			continue
		}

		if msg.Kind == wire.FullPower {
			s.send(wire.LogicErrorMsg())
			return wire.ClientMessage{}, errors.New("session: FULL POWER outside a recharge window")
		}

		return msg, nil
	}
}

// authenticate executa os 9 passos do handshake e retorna o nome
// informado pelo cliente em caso de sucesso.
func (s *driver) authenticate() (string, error) {
	// Passo 1: nome — fora do interleave de recarga.
	namePayload, outcome, err := framing.ReadFrame(s.conn, s.cfg.Name)
	if err != nil {
		if outcome == framing.TooLong {
			s.send(wire.SyntaxErrorMsg())
		}
		return "", fmt.Errorf("session: reading name: %v: %w", outcome, err)
	}
	nameMsg := wire.Decode(namePayload)
	if nameMsg.Kind != wire.String {
		s.send(wire.SyntaxErrorMsg())
		return "", fmt.Errorf("session: name did not decode as String (kind=%v)", nameMsg.Kind)
	}
	name := nameMsg.Text

	// Passo 2: solicita o key id.
	if err := s.send(wire.KeyRequestMsg()); err != nil {
		return "", err
	}

	// Passo 3-4: key id.
	keyIDMsg, err := s.readExpected(s.cfg.Numeric)
	if err != nil {
		return "", err
	}
	if keyIDMsg.Kind != wire.Number {
		s.send(wire.SyntaxErrorMsg())
		return "", fmt.Errorf("session: key id did not decode as Number (kind=%v)", keyIDMsg.Kind)
	}
	if keyIDMsg.Num > keys.MaxKeyID {
		s.send(wire.KeyOutOfRangeErrorMsg())
		return "", fmt.Errorf("session: key id %d out of range", keyIDMsg.Num)
	}
	keyID := int(keyIDMsg.Num)

	// Passo 5-6: hash e confirmation.
	hash := keys.Hash(name)
	confirmation, err := keys.Confirmation(hash, keyID)
	if err != nil {
		return "", err
	}
	if err := s.send(wire.ConfirmationMsg(confirmation)); err != nil {
		return "", err
	}

	// Passo 7: confirm do cliente, 32 bits na decodificação, estreitado
	// para 16 bits aqui.
	confirmMsg, err := s.readExpected(s.cfg.Numeric)
	if err != nil {
		return "", err
	}
	if confirmMsg.Kind != wire.Number || confirmMsg.Num > 0xFFFF {
		s.send(wire.SyntaxErrorMsg())
		return "", fmt.Errorf("session: confirm did not decode as a 16-bit Number (kind=%v, num=%d)", confirmMsg.Kind, confirmMsg.Num)
	}

	// Passo 8: verifica o checksum.
	ok, err := keys.Verify(hash, keyID, uint16(confirmMsg.Num))
	if err != nil {
		return "", err
	}
	if !ok {
		s.send(wire.LoginFailedMsg())
		return "", errors.New("session: checksum mismatch")
	}

	// Passo 9.
	if err := s.send(wire.OkMsg()); err != nil {
		return "", err
	}
	return name, nil
}

// pickupAndLogout implementa a retirada do segredo e o logout: após a
// chegada à origem, solicita o segredo, aceita String ou Number,
// e encerra com Logout — sem qualquer banner extra além dessa mensagem.
func (s *driver) pickupAndLogout() error {
	if err := s.send(wire.PickUpMsg()); err != nil {
		return err
	}

	secretMsg, err := s.readExpected(s.cfg.Pickup)
	if err != nil {
		return err
	}
	switch secretMsg.Kind {
	case wire.String:
		s.log.Info("secret retrieved", "secret", secretMsg.Text)
	case wire.Number:
		s.log.Info("secret retrieved", "secret", secretMsg.Num)
	default:
		s.send(wire.SyntaxErrorMsg())
		return fmt.Errorf("session: secret did not decode as String or Number (kind=%v)", secretMsg.Kind)
	}

	return s.send(wire.LogoutMsg())
}

// mover adapta o driver de sessão à interface navigator.Mover: cada
// chamada envia exatamente uma mensagem e aguarda a réplica de posição
// correspondente, preservando a disciplina meio-duplex do protocolo.
type mover struct {
	d *driver
}

func (m *mover) Move() (int32, int32, error)      { return m.request(wire.MoveMsg()) }
func (m *mover) TurnLeft() (int32, int32, error)  { return m.request(wire.TurnLeftMsg()) }
func (m *mover) TurnRight() (int32, int32, error) { return m.request(wire.TurnRightMsg()) }

func (m *mover) request(msg wire.ServerMessage) (int32, int32, error) {
	if err := m.d.send(msg); err != nil {
		return 0, 0, err
	}
	reply, err := m.d.readExpected(m.d.cfg.Numeric)
	if err != nil {
		return 0, 0, err
	}
	if reply.Kind != wire.Position {
		m.d.send(wire.SyntaxErrorMsg())
		return 0, 0, fmt.Errorf("session: expected Position reply to %v, got kind=%v", msg.Kind, reply.Kind)
	}
	return reply.X, reply.Y, nil
}
