package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nbremote/robotd/internal/framing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadServerConfigMinimal(t *testing.T) {
	path := writeConfig(t, "listen: \"0.0.0.0:3000\"\n")

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Listen != "0.0.0.0:3000" {
		t.Errorf("Listen = %q, want 0.0.0.0:3000", cfg.Listen)
	}
	if cfg.TLS != nil {
		t.Errorf("TLS = %+v, want nil (no mTLS configured)", cfg.TLS)
	}
	if cfg.RateLimit.PerSecond != 50 || cfg.RateLimit.Burst != 10 {
		t.Errorf("RateLimit = %+v, want defaults {50 10}", cfg.RateLimit)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json defaults", cfg.Logging)
	}
	if cfg.Health.Enabled {
		t.Errorf("Health.Enabled = true, want false by default")
	}
}

func TestLoadServerConfigMissingListen(t *testing.T) {
	path := writeConfig(t, "rate_limit:\n  per_second: 10\n")
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatal("expected an error for a missing listen address")
	}
}

func TestLoadServerConfigIncompleteTLS(t *testing.T) {
	path := writeConfig(t, "listen: \"0.0.0.0:3000\"\ntls:\n  ca_cert: /tmp/ca.pem\n")
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatal("expected an error for an incomplete tls block")
	}
}

func TestLoadServerConfigHealthDefaultListen(t *testing.T) {
	path := writeConfig(t, "listen: \"0.0.0.0:3000\"\nhealth:\n  enabled: true\n")
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Health.Listen != "127.0.0.1:9848" {
		t.Errorf("Health.Listen = %q, want the default", cfg.Health.Listen)
	}
}

func TestSessionConfigAppliesOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `listen: "0.0.0.0:3000"
phases:
  name:
    max_len: 32
  pickup:
    timeout: 2s
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}

	sc := cfg.SessionConfig()
	if sc.Name.MaxLen != 32 {
		t.Errorf("Name.MaxLen = %d, want 32 (override)", sc.Name.MaxLen)
	}
	if sc.Name.Timeout != framing.PhaseName.Timeout {
		t.Errorf("Name.Timeout = %v, want the unmodified default", sc.Name.Timeout)
	}
	if sc.Pickup.Timeout != 2*time.Second {
		t.Errorf("Pickup.Timeout = %v, want 2s (override)", sc.Pickup.Timeout)
	}
	if sc.Pickup.MaxLen != framing.PhasePickup.MaxLen {
		t.Errorf("Pickup.MaxLen = %d, want the unmodified default", sc.Pickup.MaxLen)
	}
	if sc.Numeric != framing.PhaseNumericReply {
		t.Errorf("Numeric = %+v, want the unmodified default", sc.Numeric)
	}
	if sc.Recharge != framing.PhaseRechargeWait {
		t.Errorf("Recharge = %+v, want the unmodified default", sc.Recharge)
	}
}

func TestSessionConfigCarriesSessionLogDir(t *testing.T) {
	path := writeConfig(t, `listen: "0.0.0.0:3000"
logging:
  session_log_dir: /var/log/robotd/sessions
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if got := cfg.SessionConfig().SessionLogDir; got != "/var/log/robotd/sessions" {
		t.Errorf("SessionLogDir = %q, want /var/log/robotd/sessions", got)
	}
}
