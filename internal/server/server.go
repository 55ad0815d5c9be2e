// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package server implementa o accept loop do robotd.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/nbremote/robotd/internal/config"
	"github.com/nbremote/robotd/internal/pki"
	"github.com/nbremote/robotd/internal/session"
)

// Run inicia o robotd e bloqueia até o context ser cancelado.
func Run(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) error {
	var ln net.Listener
	var err error

	if cfg.TLS != nil {
		tlsCfg, tlsErr := pki.NewMutualTLSConfig(pki.ServerRole, cfg.TLS.CACert, cfg.TLS.ServerCert, cfg.TLS.ServerKey)
		if tlsErr != nil {
			return fmt.Errorf("configuring TLS: %w", tlsErr)
		}
		ln, err = tls.Listen("tcp", cfg.Listen, tlsCfg)
	} else {
		ln, err = net.Listen("tcp", cfg.Listen)
	}
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Listen, err)
	}

	return RunWithListener(ctx, ln, cfg, logger)
}

// RunWithListener inicia o server com um listener já existente (usado em
// testes de integração, que preferem um *net.TCPListener efêmero).
func RunWithListener(ctx context.Context, ln net.Listener, cfg *config.ServerConfig, logger *slog.Logger) error {
	defer ln.Close()

	logger.Info("server listening", "address", ln.Addr().String())

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)
	sessionCfg := cfg.SessionConfig()

	// Goroutine para fechar o listener quando o context for cancelado.
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		ln.Close()
	}()

	consecutiveErrors := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			// Context cancelado enquanto aguardava o token de rate limit.
			select {
			case <-ctx.Done():
				logger.Info("server shutdown complete")
				return nil
			default:
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				logger.Info("server shutdown complete")
				return nil
			default:
				consecutiveErrors++
				logger.Error("accepting connection", "error", err, "consecutive_errors", consecutiveErrors)
				if consecutiveErrors > 5 {
					delay := time.Duration(consecutiveErrors) * 100 * time.Millisecond
					if delay > 5*time.Second {
						delay = 5 * time.Second
					}
					time.Sleep(delay)
				}
				continue
			}
		}

		consecutiveErrors = 0
		go handleConnection(ctx, conn, sessionCfg, logger)
	}
}

// handleConnection executa uma sessão isolada e recupera de um panic para
// que um robô mal-comportado (ou uma violação de invariante interna) não
// derrube o processo inteiro — apenas esta goroutine, por session.Handle,
// já converte panics de navegação em erro; esta recuperação extra cobre
// qualquer outro panic inesperado no caminho de conexão.
func handleConnection(ctx context.Context, conn net.Conn, cfg session.Config, logger *slog.Logger) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection handler panicked", "recover", fmt.Sprint(r), "peer", conn.RemoteAddr().String())
		}
	}()

	if err := session.Handle(ctx, conn, logger, cfg); err != nil {
		logger.Debug("session handler returned", "error", err, "peer", conn.RemoteAddr().String())
	}
}
