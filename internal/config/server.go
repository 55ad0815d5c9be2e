// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package config carrega e valida a configuração YAML do robotd.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nbremote/robotd/internal/framing"
	"github.com/nbremote/robotd/internal/session"
)

// ServerConfig representa a configuração completa do robotd.
type ServerConfig struct {
	Listen    string          `yaml:"listen"`
	TLS       *TLSServer      `yaml:"tls"`
	Phases    PhaseOverrides  `yaml:"phases"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingInfo     `yaml:"logging"`
}

// TLSServer contém os caminhos dos certificados mTLS do server. Um
// ServerConfig.TLS nil significa TCP em texto puro (nenhum mTLS).
type TLSServer struct {
	CACert     string `yaml:"ca_cert"`
	ServerCert string `yaml:"server_cert"`
	ServerKey  string `yaml:"server_key"`
}

// PhaseConfig sobrepõe um par (MaxLen, Timeout) do cap table de
// internal/framing. Campos zero herdam o default daquela fase.
type PhaseConfig struct {
	MaxLen  int           `yaml:"max_len"`
	Timeout time.Duration `yaml:"timeout"`
}

func (p PhaseConfig) resolve(def framing.Phase) framing.Phase {
	out := def
	if p.MaxLen > 0 {
		out.MaxLen = p.MaxLen
	}
	if p.Timeout > 0 {
		out.Timeout = p.Timeout
	}
	return out
}

// PhaseOverrides permite customizar os caps por fase do protocolo.
// A maioria dos deployments deixa os quatro campos vazios e usa os
// defaults publicados por framing.DefaultCaps.
type PhaseOverrides struct {
	Name     PhaseConfig `yaml:"name"`
	Numeric  PhaseConfig `yaml:"numeric"`
	Recharge PhaseConfig `yaml:"recharge"`
	Pickup   PhaseConfig `yaml:"pickup"`
}

// RateLimitConfig governa o rate.Limiter que protege o accept loop
// contra uma rajada de conexões.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"` // default: 50
	Burst     int     `yaml:"burst"`      // default: 10
}

// HealthConfig controla o endpoint de liveness.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // default: "127.0.0.1:9848"
}

// LoggingInfo configura o logger estruturado (internal/logging).
type LoggingInfo struct {
	Level         string `yaml:"level"`           // default: "info"
	Format        string `yaml:"format"`          // default: "json"
	File          string `yaml:"file"`            // opcional, mirror em arquivo
	SessionLogDir string `yaml:"session_log_dir"` // opcional, debug por sessão
}

// LoadServerConfig lê e valida o arquivo YAML de configuração do server.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading server config: %w", err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating server config: %w", err)
	}

	return &cfg, nil
}

func (c *ServerConfig) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}

	if c.TLS != nil {
		if c.TLS.CACert == "" {
			return fmt.Errorf("tls.ca_cert is required when tls is set")
		}
		if c.TLS.ServerCert == "" {
			return fmt.Errorf("tls.server_cert is required when tls is set")
		}
		if c.TLS.ServerKey == "" {
			return fmt.Errorf("tls.server_key is required when tls is set")
		}
	}

	if c.RateLimit.PerSecond <= 0 {
		c.RateLimit.PerSecond = 50
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 10
	}

	if c.Health.Enabled && c.Health.Listen == "" {
		c.Health.Listen = "127.0.0.1:9848"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	return nil
}

// SessionConfig resolves the phase overrides against internal/framing's
// defaults, producing the session.Config every accepted connection uses.
func (c *ServerConfig) SessionConfig() session.Config {
	return session.Config{
		Name:          c.Phases.Name.resolve(framing.PhaseName),
		Numeric:       c.Phases.Numeric.resolve(framing.PhaseNumericReply),
		Recharge:      c.Phases.Recharge.resolve(framing.PhaseRechargeWait),
		Pickup:        c.Phases.Pickup.resolve(framing.PhasePickup),
		SessionLogDir: c.Logging.SessionLogDir,
	}
}
