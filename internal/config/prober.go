// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProberConfig drives cmd/robotping: a cron schedule and a list of
// robotd endpoints to dial.
type ProberConfig struct {
	Schedule string         `yaml:"schedule"` // cron expression, default: hourly
	Timeout  time.Duration  `yaml:"timeout"`  // default: 5s
	Targets  []ProberTarget `yaml:"targets"`
	Logging  LoggingInfo    `yaml:"logging"`
}

// ProberTarget is one endpoint cmd/robotping dials.
type ProberTarget struct {
	Name string     `yaml:"name"`
	Addr string     `yaml:"addr"`
	TLS  *TLSClient `yaml:"tls"`
}

// TLSClient contains the mTLS material a client (robotping, robotsim)
// presents when dialing a TLS-enabled robotd.
type TLSClient struct {
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// LoadProberConfig reads and validates the YAML configuration for
// cmd/robotping.
func LoadProberConfig(path string) (*ProberConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prober config: %w", err)
	}

	var cfg ProberConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing prober config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating prober config: %w", err)
	}

	return &cfg, nil
}

func (c *ProberConfig) validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("targets must have at least one entry")
	}
	for i, t := range c.Targets {
		if t.Addr == "" {
			return fmt.Errorf("targets[%d].addr is required", i)
		}
	}

	if c.Schedule == "" {
		c.Schedule = "@hourly"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	return nil
}
