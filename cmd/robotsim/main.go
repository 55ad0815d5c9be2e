// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/nbremote/robotd/internal/pki"
	"github.com/nbremote/robotd/internal/simulator"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:3000", "robotd address to dial")
	name := flag.String("name", "Mnau", "robot name sent at the handshake")
	keyID := flag.Int("key-id", 0, "key id to use in the handshake (0..4)")
	x := flag.Int("x", 2, "starting x coordinate")
	y := flag.Int("y", -3, "starting y coordinate")
	heading := flag.String("heading", "up", "starting heading: up|down|left|right")
	secret := flag.String("secret", "Tajny vzkaz", "secret returned on GET MESSAGE")
	obstacles := flag.String("obstacles", "", "semicolon-separated x,y obstacle cells, e.g. \"1,0;2,2\"")

	wrongConfirm := flag.Bool("wrong-confirm", false, "send an incorrect confirm value")
	oversizeName := flag.Bool("oversize-name", false, "send 20 bytes with no terminator as the name")
	injectRecharge := flag.Bool("inject-recharge", false, "interleave RECHARGING/FULL POWER before the first two replies")
	delayedReply := flag.Duration("delayed-reply", 0, "sleep this long before each movement reply")

	caCert := flag.String("ca-cert", "", "CA certificate path (enables mTLS when set)")
	clientCert := flag.String("client-cert", "", "client certificate path")
	clientKey := flag.String("client-key", "", "client key path")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	h, err := parseHeading(*heading)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var tlsCfg *tls.Config
	if *caCert != "" {
		tlsCfg, err = pki.NewMutualTLSConfig(pki.ClientRole, *caCert, *clientCert, *clientKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuring TLS: %v\n", err)
			os.Exit(1)
		}
	}

	conn, err := simulator.Dial(*addr, tlsCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dialing %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	cfg := simulator.Config{
		Name:           *name,
		KeyID:          *keyID,
		X:              int32(*x),
		Y:              int32(*y),
		Heading:        h,
		Secret:         *secret,
		Obstacles:      parseObstacles(*obstacles),
		WrongConfirm:   *wrongConfirm,
		OversizeName:   *oversizeName,
		InjectRecharge: *injectRecharge,
		DelayedReply:   *delayedReply,
	}

	if err := simulator.Run(conn, cfg, logger); err != nil {
		logger.Error("simulation ended with an error", "error", err)
		os.Exit(1)
	}
}

func parseHeading(s string) (simulator.Heading, error) {
	switch strings.ToLower(s) {
	case "up":
		return simulator.Up, nil
	case "down":
		return simulator.Down, nil
	case "left":
		return simulator.Left, nil
	case "right":
		return simulator.Right, nil
	default:
		return 0, fmt.Errorf("invalid heading %q: want up|down|left|right", s)
	}
}

func parseObstacles(s string) map[[2]int32]bool {
	out := make(map[[2]int32]bool)
	if s == "" {
		return out
	}
	for _, cell := range strings.Split(s, ";") {
		parts := strings.SplitN(cell, ",", 2)
		if len(parts) != 2 {
			continue
		}
		x, errX := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 32)
		y, errY := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
		if errX != nil || errY != nil {
			continue
		}
		out[[2]int32{int32(x), int32(y)}] = true
	}
	return out
}
