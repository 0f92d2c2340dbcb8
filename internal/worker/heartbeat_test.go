package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaleout-labs/fednworker/internal/config"
	"github.com/scaleout-labs/fednworker/internal/transport"
	"github.com/scaleout-labs/fednworker/internal/types"
)

func newHeartbeatWorker(t *testing.T, missedThreshold int) (*Worker, *fakeConnector) {
	t.Helper()
	cfg := config.Default()
	cfg.Name = "worker1"
	cfg.Trainer = true
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.MissedHeartbeats = missedThreshold

	w, err := New(types.Identity{Name: "worker1", Role: types.RoleWorker}, cfg, t.TempDir())
	require.NoError(t, err)

	conn := &fakeConnector{}
	w.SetTransport(&transport.Transport{Connector: conn, Combiner: &fakeCombiner{}, Models: &fakeModelService{}})
	return w, conn
}

func TestHeartbeatLoopSucceeds(t *testing.T) {
	w, conn := newHeartbeatWorker(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	w.wg.Add(1)
	go w.runHeartbeatLoop(ctx)

	require.Eventually(t, func() bool {
		return conn.heartbeatCount() >= 3
	}, time.Second, 5*time.Millisecond)

	assert.True(t, w.Attached())
	cancel()
	w.wg.Wait()
}

func TestHeartbeatLoopDetachesAfterMissedThreshold(t *testing.T) {
	w, conn := newHeartbeatWorker(t, 2)
	conn.HeartbeatErr = assertHeartbeatErr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.wg.Add(1)
	go w.runHeartbeatLoop(ctx)

	require.Eventually(t, func() bool {
		return !w.Attached()
	}, time.Second, 5*time.Millisecond)

	w.wg.Wait()
}

var assertHeartbeatErr = errHeartbeatTransient{}

type errHeartbeatTransient struct{}

func (errHeartbeatTransient) Error() string { return "simulated heartbeat failure" }
