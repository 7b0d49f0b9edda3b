package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() failed validation: %v", err)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Domain != Default().Domain {
		t.Errorf("Domain = %q, want default %q", cfg.Domain, Default().Domain)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobby.yaml")
	body := `
ports: [13381, 13382]
domain: "ppy.sh"
maintenance: true
autojoin_channels: ["#osu"]
workers:
  pool_size: 8
  ping_interval: 10s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Ports) != 2 || cfg.Ports[0] != 13381 || cfg.Ports[1] != 13382 {
		t.Errorf("Ports = %v, want [13381 13382]", cfg.Ports)
	}
	if cfg.Domain != "ppy.sh" {
		t.Errorf("Domain = %q, want ppy.sh", cfg.Domain)
	}
	if !cfg.Maintenance {
		t.Errorf("Maintenance = false, want true")
	}
	if cfg.Workers.PoolSize != 8 {
		t.Errorf("Workers.PoolSize = %d, want 8", cfg.Workers.PoolSize)
	}
	if cfg.Workers.PingInterval.Seconds() != 10 {
		t.Errorf("Workers.PingInterval = %v, want 10s", cfg.Workers.PingInterval)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Ports = []int{0}
	if err := Validate(cfg); err == nil {
		t.Errorf("Validate accepted port 0")
	}
}

func TestValidateRejectsEmptyPorts(t *testing.T) {
	cfg := Default()
	cfg.Ports = nil
	if err := Validate(cfg); err == nil {
		t.Errorf("Validate accepted empty ports list")
	}
}

func TestWatchSeedsLiveFromBaseConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobby.yaml")
	if err := os.WriteFile(path, []byte("maintenance: false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	base, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	w, live, err := Watch(path, base)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Stop()

	_, maintenance, _ := live.Snapshot()
	if maintenance {
		t.Fatalf("initial Snapshot maintenance = true, want false")
	}
}
