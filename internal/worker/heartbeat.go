package worker

import (
	"context"
	"time"

	"github.com/scaleout-labs/fednworker/api/proto"
	"github.com/scaleout-labs/fednworker/pkg/log"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

// runHeartbeatLoop issues SendHeartbeat every cfg.HeartbeatInterval until
// detach or ctx is canceled. On the (MissedHeartbeats+1)th consecutive
// failure it calls Detach and returns.
func (w *Worker) runHeartbeatLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	logger := log.WithComponent("heartbeat")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.Attached() {
				return
			}
			if err := w.sendHeartbeat(ctx); err != nil {
				n := w.missedHeartbeats.Add(1)
				metrics.HeartbeatFailuresTotal.Inc()
				logger.Warn().Err(err).Int32("consecutive_failures", n).Msg("heartbeat failed")
				if int(n) > w.cfg.MissedHeartbeats {
					logger.Error().Msg("missed heartbeat threshold exceeded, detaching")
					metrics.DetachesTotal.Inc()
					w.Detach()
					return
				}
			} else {
				w.missedHeartbeats.Store(0)
			}
			metrics.MissedHeartbeats.Set(float64(w.missedHeartbeats.Load()))
		}
	}
}

func (w *Worker) sendHeartbeat(ctx context.Context) error {
	t := w.currentTransport()
	if t == nil {
		return errNotAttached
	}
	hbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := t.Connector.SendHeartbeat(hbCtx, &proto.Heartbeat{Sender: w.senderClient()})
	return err
}
