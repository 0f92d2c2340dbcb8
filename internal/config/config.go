// Package config loads and validates the worker's immutable configuration:
// a YAML manifest overlaid with CLI flags and a small set of recognized
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scaleout-labs/fednworker/internal/types"
)

// RootCertEnvVar is the environment variable carrying a PEM root certificate
// path for the combiner channel; it takes precedence over config-driven TLS
// when the assignment itself does not supply a certificate.
const RootCertEnvVar = "FEDN_GRPC_ROOT_CERT_PATH"

// Config is the worker's full, immutable-after-load configuration.
type Config struct {
	Name              string        `yaml:"name"`
	DiscoverHost      string        `yaml:"discover_host"`
	DiscoverPort      int           `yaml:"discover_port"`
	Token             string        `yaml:"token"`
	PreferredCombiner string        `yaml:"preferred_combiner,omitempty"`
	ForceSSL          bool          `yaml:"force_ssl"`
	Secure            bool          `yaml:"secure"`
	Verify            bool          `yaml:"verify"`
	Trainer           bool          `yaml:"trainer"`
	Validator         bool          `yaml:"validator"`
	RemoteComputeCtx  bool          `yaml:"remote_compute_context"`
	LocalComputeDir   string        `yaml:"local_compute_dir,omitempty"`
	Checksum          string        `yaml:"checksum,omitempty"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	MissedHeartbeats  int           `yaml:"reconnect_after_missed_heartbeat"`
	Logfile           string        `yaml:"logfile,omitempty"`

	// MetricsAddr is the ambient Prometheus/healthz listen address; it has
	// no equivalent in the wire protocol and is only meaningful to this
	// process's own observability surface.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// manifest mirrors the Kubernetes-style resource envelope used elsewhere for
// declarative configuration: apiVersion/kind/metadata/spec.
type manifest struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Metadata   struct {
		Name string `yaml:"name"`
	} `yaml:"metadata"`
	Spec Config `yaml:"spec"`
}

// LoadFile reads a YAML manifest from path and returns its spec. An empty
// path returns Default(). Fields absent from the manifest keep their zero
// value, except the heartbeat interval, missed-heartbeat threshold, metrics
// address and local compute dir, which get the same values as Default().
// CLI flags are merged by the caller after LoadFile returns.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	spec := m.Spec
	if spec.Name == "" {
		spec.Name = m.Metadata.Name
	}
	cfg = &spec
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a Config with every non-required field set to its
// documented default.
func Default() *Config {
	cfg := &Config{
		Verify:            true,
		HeartbeatInterval: 2 * time.Second,
		MissedHeartbeats:  3,
		MetricsAddr:       ":9090",
		LocalComputeDir:   "client",
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 2 * time.Second
	}
	if cfg.MissedHeartbeats <= 0 {
		cfg.MissedHeartbeats = 3
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.LocalComputeDir == "" {
		cfg.LocalComputeDir = "client"
	}
}

// Validate checks the invariants that must hold before the worker attaches:
// a well-formed name, a non-empty discovery host with a positive port, at
// least one of trainer/validator, and a coherent TLS configuration. Config errors are refused here, at construction, per the
// error taxonomy.
func (c *Config) Validate() error {
	if err := types.ValidateName(c.Name); err != nil {
		return err
	}
	if c.DiscoverHost == "" {
		return fmt.Errorf("discover_host is required")
	}
	if c.DiscoverPort <= 0 {
		return fmt.Errorf("discover_port must be positive")
	}
	if !c.Trainer && !c.Validator {
		return fmt.Errorf("at least one of trainer or validator must be enabled")
	}
	if c.ForceSSL && !c.Secure {
		return fmt.Errorf("force_ssl requires secure=true")
	}
	return nil
}

// RootCertPath returns the value of the root-cert environment variable, or
// the empty string if unset.
func RootCertPath() string {
	return os.Getenv(RootCertEnvVar)
}
