package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaleout-labs/fednworker/internal/config"
	"github.com/scaleout-labs/fednworker/internal/discovery"
	"github.com/scaleout-labs/fednworker/internal/types"
)

func newSupervisorTestCfg(t *testing.T) *config.Config {
	t.Helper()
	localDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "train.py"), []byte("pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "validate.py"), []byte("pass\n"), 0o644))

	cfg := config.Default()
	cfg.Name = "worker1"
	cfg.Trainer = true
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.LocalComputeDir = localDir
	cfg.RemoteComputeCtx = false
	return cfg
}

func TestSupervisorAttachRetriesThenSucceeds(t *testing.T) {
	original := assignRetryInterval
	assignRetryInterval = 10 * time.Millisecond
	defer func() { assignRetryInterval = original }()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusAccepted) // OutcomeTryAgain
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"host":"127.0.0.1","port":1,"helper_type":"numpyhelper","package":"local"}`))
	}))
	defer srv.Close()

	cfg := newSupervisorTestCfg(t)
	wk, err := New(types.Identity{Name: cfg.Name, Role: types.RoleWorker}, cfg, t.TempDir())
	require.NoError(t, err)

	conn := discovery.New(srv.URL, "token")
	sup := NewSupervisor(wk, cfg, conn, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = sup.attach(ctx)
	require.NoError(t, err)
	assert.True(t, wk.Attached())
	assert.GreaterOrEqual(t, attempts, 3)

	sup.stopDaemons()
	wk.Detach()
}

func TestSupervisorAttachFatalOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := newSupervisorTestCfg(t)
	wk, err := New(types.Identity{Name: cfg.Name, Role: types.RoleWorker}, cfg, t.TempDir())
	require.NoError(t, err)

	conn := discovery.New(srv.URL, "token")
	sup := NewSupervisor(wk, cfg, conn, t.TempDir())

	err = sup.attach(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, wk.Attached())
}

func TestSupervisorAttachFatalOnUnmatchedConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	cfg := newSupervisorTestCfg(t)
	wk, err := New(types.Identity{Name: cfg.Name, Role: types.RoleWorker}, cfg, t.TempDir())
	require.NoError(t, err)

	conn := discovery.New(srv.URL, "token")
	sup := NewSupervisor(wk, cfg, conn, t.TempDir())

	err = sup.attach(context.Background())
	assert.ErrorIs(t, err, ErrUnmatchedConfig)
}

func TestSupervisorRunExitsCleanlyOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"host":"127.0.0.1","port":1,"helper_type":"numpyhelper","package":"local"}`))
	}))
	defer srv.Close()

	cfg := newSupervisorTestCfg(t)
	wk, err := New(types.Identity{Name: cfg.Name, Role: types.RoleWorker}, cfg, t.TempDir())
	require.NoError(t, err)

	conn := discovery.New(srv.URL, "token")
	sup := NewSupervisor(wk, cfg, conn, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool { return wk.Attached() }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
