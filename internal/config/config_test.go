package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAppliesDocumentedDefaults(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Verify)
	assert.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 3, cfg.MissedHeartbeats)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "client", cfg.LocalComputeDir)
}

func TestLoadFileParsesManifestEnvelope(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worker.yaml")
	content := `
apiVersion: fedn/v1
kind: Worker
metadata:
  name: manifest-name
spec:
  discover_host: discover.example.com
  discover_port: 8090
  trainer: true
  heartbeat_interval: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "manifest-name", cfg.Name)
	assert.Equal(t, "discover.example.com", cfg.DiscoverHost)
	assert.Equal(t, 8090, cfg.DiscoverPort)
	assert.True(t, cfg.Trainer)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
}

func TestLoadFileEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateRejectsMalformedName(t *testing.T) {
	cfg := Default()
	cfg.Name = "bad name!"
	cfg.DiscoverHost = "host"
	cfg.DiscoverPort = 1
	cfg.Trainer = true
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresDiscoverHost(t *testing.T) {
	cfg := Default()
	cfg.Name = "worker1"
	cfg.DiscoverPort = 1
	cfg.Trainer = true
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresTrainerOrValidator(t *testing.T) {
	cfg := Default()
	cfg.Name = "worker1"
	cfg.DiscoverHost = "host"
	cfg.DiscoverPort = 1
	assert.Error(t, cfg.Validate())
}

func TestValidateForceSSLRequiresSecure(t *testing.T) {
	cfg := Default()
	cfg.Name = "worker1"
	cfg.DiscoverHost = "host"
	cfg.DiscoverPort = 1
	cfg.Trainer = true
	cfg.ForceSSL = true
	assert.Error(t, cfg.Validate())

	cfg.Secure = true
	assert.NoError(t, cfg.Validate())
}

func TestRootCertPathReadsEnvVar(t *testing.T) {
	t.Setenv(RootCertEnvVar, "/tmp/ca.pem")
	assert.Equal(t, "/tmp/ca.pem", RootCertPath())
}
