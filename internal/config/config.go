// Package config loads and validates runtime settings for the sv2 template
// provider daemon.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the template provider and its backing
// services.
type Config struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`

	TLSCertPath string `yaml:"tls_cert_path"`
	TLSKeyPath  string `yaml:"tls_key_path"`

	NodeRPCURL string `yaml:"node_rpc_url"`
	ChainType  string `yaml:"chain_type"` // main, test, regtest, signet

	FeeCheckInterval time.Duration `yaml:"fee_check_interval"`
	FeeDelta         int64         `yaml:"fee_delta"` // satoshis
	IsTest           bool          `yaml:"is_test"`

	MetricsListen string `yaml:"metrics_listen"`
	StatusListen  string `yaml:"status_listen"`

	AuditDSN                   string        `yaml:"audit_dsn"`
	AuditRetention             time.Duration `yaml:"audit_retention"`
	AuditRetentionCron         string        `yaml:"audit_retention_cron"`
	AuditConfirmationsRequired int           `yaml:"audit_confirmations_required"`
}

// Load reads YAML config from disk.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FeeCheckInterval <= 0 {
		c.FeeCheckInterval = 30 * time.Second
	}
	if c.FeeDelta <= 0 {
		c.FeeDelta = 1000
	}
	if c.ChainType == "" {
		c.ChainType = "main"
	}
	if c.AuditRetention <= 0 {
		c.AuditRetention = 14 * 24 * time.Hour
	}
	if c.AuditRetentionCron == "" {
		c.AuditRetentionCron = "0 3 * * *"
	}
	if c.AuditConfirmationsRequired <= 0 {
		c.AuditConfirmationsRequired = 6
	}
}

// Validate enforces required fields and basic sanity checks.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if (c.TLSCertPath == "") != (c.TLSKeyPath == "") {
		return fmt.Errorf("tls_cert_path and tls_key_path must both be set or both empty")
	}
	if c.NodeRPCURL == "" {
		return fmt.Errorf("node_rpc_url is required")
	}
	switch c.ChainType {
	case "main", "test", "regtest", "signet":
	default:
		return fmt.Errorf("chain_type must be one of main, test, regtest, signet")
	}
	if c.FeeCheckInterval <= 0 {
		return fmt.Errorf("fee_check_interval must be > 0")
	}
	if c.FeeDelta < 0 {
		return fmt.Errorf("fee_delta must be >= 0")
	}
	return nil
}

// SkipIBDWait reports whether the dispatcher may proceed without waiting for
// the node to leave initial block download (we might be the only miner).
func (c Config) SkipIBDWait() bool {
	return c.ChainType == "signet"
}
