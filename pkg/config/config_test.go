package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
server:
  port: 9090
clickhouse:
  host: ch.local
  database: tradegate
redis:
  host: redis.local
kafka:
  brokers: [broker:9092]
  proposals_topic: trade.proposals
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesGateDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	g := cfg.Gate
	if g.BaseThreshold != 0.25 {
		t.Errorf("base threshold = %v, want 0.25", g.BaseThreshold)
	}
	if g.ThresholdFloor != 0.22 {
		t.Errorf("threshold floor = %v, want 0.22", g.ThresholdFloor)
	}
	if g.MinDailyTrades != 5 {
		t.Errorf("min daily trades = %d, want 5", g.MinDailyTrades)
	}
	if g.SoftHaltDuration != 12*time.Hour {
		t.Errorf("soft halt duration = %v, want 12h", g.SoftHaltDuration)
	}
	if g.MaxSlippage != 0.01 {
		t.Errorf("max slippage = %v, want 0.01", g.MaxSlippage)
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	body := minimalYAML + `
gate:
  base_threshold: 0.20
  threshold_floor: 0.30
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected validation error for floor above base threshold")
	}
}

func TestLoadRejectsMissingClickHouseHost(t *testing.T) {
	body := `
environment: test
redis:
  host: redis.local
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected validation error for missing clickhouse host")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "18080")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("REDIS_PASSWORD", "secret")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Server.Port != 18080 {
		t.Errorf("server port = %d, want 18080", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.Password != "secret" {
		t.Errorf("redis password not overridden")
	}
}

func TestLoadWithEnvIgnoresBadPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want yaml value 9090", cfg.Server.Port)
	}
}
