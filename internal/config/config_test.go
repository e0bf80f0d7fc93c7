package config

import (
	"os"
	"testing"
)

func TestValidateRequiresHost(t *testing.T) {
	cfg := Config{Port: 8442, NodeRPCURL: "http://localhost:8332", ChainType: "main", FeeCheckInterval: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing host")
	}
}

func TestValidateRejectsMismatchedTLS(t *testing.T) {
	cfg := Config{
		Host:             "0.0.0.0",
		Port:             8442,
		NodeRPCURL:       "http://localhost:8332",
		ChainType:        "main",
		FeeCheckInterval: 1,
		TLSCertPath:      "cert.pem",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for one-sided tls config")
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	cfg := Config{
		Host:             "0.0.0.0",
		Port:             8442,
		NodeRPCURL:       "http://localhost:8332",
		ChainType:        "regtest",
		FeeCheckInterval: 1,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSkipIBDWaitOnlyOnSignet(t *testing.T) {
	if (Config{ChainType: "main"}).SkipIBDWait() {
		t.Fatalf("main should not skip IBD wait")
	}
	if !(Config{ChainType: "signet"}).SkipIBDWait() {
		t.Fatalf("signet should skip IBD wait")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := os.WriteFile(path, []byte("host: 0.0.0.0\nport: 8442\nnode_rpc_url: http://localhost:8332\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FeeCheckInterval <= 0 {
		t.Fatalf("expected default fee_check_interval to be applied")
	}
	if cfg.ChainType != "main" {
		t.Fatalf("expected default chain_type main, got %s", cfg.ChainType)
	}
}
