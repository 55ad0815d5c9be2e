// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/nbremote/robotd/internal/config"
	"github.com/nbremote/robotd/internal/logging"
	"github.com/nbremote/robotd/internal/pki"
	"github.com/nbremote/robotd/internal/prober"
)

func main() {
	configPath := flag.String("config", "/etc/robotd/robotping.yaml", "path to prober config file")
	flag.Parse()

	cfg, err := config.LoadProberConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closer := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "", "robotping")
	defer closer.Close()

	targets := make([]prober.Target, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		target := prober.Target{Name: t.Name, Addr: t.Addr}
		if t.TLS != nil {
			tlsCfg, err := pki.NewMutualTLSConfig(pki.ClientRole, t.TLS.CACert, t.TLS.ClientCert, t.TLS.ClientKey)
			if err != nil {
				logger.Error("configuring TLS for target", "target", t.Name, "error", err)
				os.Exit(1)
			}
			target.TLS = tlsCfg
		}
		targets = append(targets, target)
	}

	runProbes := func() {
		for _, target := range targets {
			result := prober.Probe(target, cfg.Timeout)
			if result.Reached {
				logger.Info("probe ok", "target", result.Target, "latency", result.Latency)
			} else {
				logger.Warn("probe failed", "target", result.Target, "error", result.Err)
			}
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, runProbes); err != nil {
		fmt.Fprintf(os.Stderr, "Error scheduling probes: %v\n", err)
		os.Exit(1)
	}

	logger.Info("robotping starting", "schedule", cfg.Schedule, "targets", len(targets))
	runProbes() // one immediate pass so an operator sees output right away
	c.Start()
	defer c.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	logger.Info("robotping shutting down")
}
