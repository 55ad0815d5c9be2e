// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// fanOutHandler despacha cada registro para dois handlers. Usado por
// RobotSessionLog para gravar simultaneamente no logger global do
// processo e no arquivo dedicado de uma sessão de robô.
type fanOutHandler struct {
	primary   slog.Handler
	secondary slog.Handler
}

func (h *fanOutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.secondary.Enabled(ctx, level)
}

func (h *fanOutHandler) Handle(ctx context.Context, r slog.Record) error {
	// Cada handler é checado individualmente: um registro DEBUG pode ir
	// para o arquivo de sessão mesmo quando o handler global aceita
	// apenas INFO ou superior.
	if h.primary.Enabled(ctx, r.Level) {
		if err := h.primary.Handle(ctx, r); err != nil {
			return err
		}
	}
	if h.secondary.Enabled(ctx, r.Level) {
		// Falha ao gravar o arquivo de sessão não deve interromper o log global.
		_ = h.secondary.Handle(ctx, r)
	}
	return nil
}

func (h *fanOutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanOutHandler{
		primary:   h.primary.WithAttrs(attrs),
		secondary: h.secondary.WithAttrs(attrs),
	}
}

func (h *fanOutHandler) WithGroup(name string) slog.Handler {
	return &fanOutHandler{
		primary:   h.primary.WithGroup(name),
		secondary: h.secondary.WithGroup(name),
	}
}

// RobotSessionLog é o espelho em arquivo de uma única sessão de robô
// autenticada, criado sob {sessionLogDir}/{robotName}/{sessionID}.log
// com nível DEBUG. internal/session.Handle abre um RobotSessionLog
// logo após o handshake, sempre fecha o arquivo (defer Close) e só o
// descarta (Discard) quando a sessão termina sem erro — uma sessão que
// falhou fica no disco para inspeção.
type RobotSessionLog struct {
	Logger *slog.Logger

	path string
	file *os.File
}

// OpenRobotSessionLog abre (criando os diretórios necessários) o
// arquivo de espelho de uma sessão de robô e retorna um logger que
// grava tanto nele quanto no baseLogger recebido. Se sessionLogDir for
// vazio, o espelhamento está desligado: retorna um RobotSessionLog cujo
// Logger é o próprio baseLogger e cujo Path() é "".
func OpenRobotSessionLog(baseLogger *slog.Logger, sessionLogDir, robotName, sessionID string) (*RobotSessionLog, error) {
	if sessionLogDir == "" {
		return &RobotSessionLog{Logger: baseLogger}, nil
	}

	robotDir := filepath.Join(sessionLogDir, robotName)
	if err := os.MkdirAll(robotDir, 0755); err != nil {
		return nil, fmt.Errorf("creating session log directory %s: %w", robotDir, err)
	}

	path := filepath.Join(robotDir, sessionID+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening session log file %s: %w", path, err)
	}

	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	combined := &fanOutHandler{primary: baseLogger.Handler(), secondary: fileHandler}

	return &RobotSessionLog{
		Logger: slog.New(combined),
		path:   path,
		file:   f,
	}, nil
}

// Path retorna o caminho do arquivo de espelho (relativo se sessionLogDir
// for relativo), ou "" quando o
// espelhamento está desligado.
func (r *RobotSessionLog) Path() string {
	return r.path
}

// Close fecha o arquivo de espelho. No-op quando o espelhamento está
// desligado.
func (r *RobotSessionLog) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Discard remove o arquivo de espelho do disco. Chamado por
// internal/session.Handle ao final de uma sessão bem-sucedida; no-op
// quando o espelhamento está desligado.
func (r *RobotSessionLog) Discard() error {
	if r.path == "" {
		return nil
	}
	return os.Remove(r.path)
}
