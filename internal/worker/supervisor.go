package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scaleout-labs/fednworker/internal/config"
	"github.com/scaleout-labs/fednworker/internal/discovery"
	"github.com/scaleout-labs/fednworker/internal/dispatcher"
	"github.com/scaleout-labs/fednworker/internal/runtime"
	"github.com/scaleout-labs/fednworker/internal/transport"
	"github.com/scaleout-labs/fednworker/pkg/log"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

// ErrUnauthorized and ErrUnmatchedConfig are the two assign outcomes the
// Supervisor treats as fatal, surfaced to cmd/fednworker for distinguishable
// process exit codes.
var (
	ErrUnauthorized    = errors.New("worker: assignment rejected, unauthorized")
	ErrUnmatchedConfig = errors.New("worker: assignment rejected, config does not match any combiner")
)

// assignRetryInterval is the delay between retryable assign attempts
// (OutcomeTryAgain / OutcomeTransientError). A var, not a const, so tests can
// shrink it.
var assignRetryInterval = 5 * time.Second

// tickInterval drives the Supervisor's outer loop.
const tickInterval = 1 * time.Second

// Supervisor owns the attach/reattach lifecycle: it negotiates assignment
// with discovery, dials a Transport, binds a dispatcher via the package
// runtime, and spawns the four per-attach daemons (heartbeat, two
// subscribers, pipeline consumer), tearing them down cleanly on detach.
type Supervisor struct {
	worker    *Worker
	cfg       *config.Config
	connector *discovery.Connector
	runDir    string

	daemonCancel context.CancelFunc
}

// NewSupervisor wires a Worker to a discovery Connector, both already
// constructed by the caller (cmd/fednworker), plus the run directory used
// for package unpacking and task scratch files.
func NewSupervisor(w *Worker, cfg *config.Config, connector *discovery.Connector, runDir string) *Supervisor {
	return &Supervisor{worker: w, cfg: cfg, connector: connector, runDir: runDir}
}

// Run drives the outer tick loop until ctx is canceled or the worker enters
// its error state. It returns the terminal error, if any -- one of
// ErrUnauthorized, ErrUnmatchedConfig, or a wrapped lower-level error -- or
// nil on a clean context-canceled shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	logger := log.WithComponent("supervisor")

	if err := s.attach(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var ticks int
	for {
		select {
		case <-ctx.Done():
			s.stopDaemons()
			s.worker.Detach()
			return nil
		case <-ticker.C:
			ticks++
			if ticks%5 == 0 {
				logger.Debug().Str("state", string(s.worker.State())).Bool("attached", s.worker.Attached()).Msg("active")
			}
			if s.worker.ErrorState() {
				s.stopDaemons()
				s.worker.Detach()
				return fmt.Errorf("worker entered error state")
			}
			if !s.worker.Attached() {
				s.stopDaemons()
				if err := s.attach(ctx); err != nil {
					return err
				}
			}
		}
	}
}

// attach negotiates assignment, dials the transport, binds the dispatcher,
// and spawns the four daemons. Retryable outcomes (OutcomeTryAgain,
// OutcomeTransientError) are retried on assignRetryInterval until ctx is
// canceled; OutcomeUnauthorized and OutcomeUnmatchedConfig are fatal.
func (s *Supervisor) attach(ctx context.Context) error {
	logger := log.WithComponent("supervisor")

	for {
		result, err := s.connector.Assign(ctx, s.worker.identity, s.cfg.PreferredCombiner, s.cfg.ForceSSL, s.cfg.Verify)
		outcome := result.Outcome
		if err != nil {
			outcome = discovery.OutcomeTransientError
		}
		metrics.AttachAttemptsTotal.WithLabelValues(outcomeLabel(outcome)).Inc()

		switch outcome {
		case discovery.OutcomeAssigned:
			if err := s.completeAttach(ctx, result); err != nil {
				return err
			}
			metrics.AttachedGauge.Set(1)
			return nil
		case discovery.OutcomeUnauthorized:
			return ErrUnauthorized
		case discovery.OutcomeUnmatchedConfig:
			return ErrUnmatchedConfig
		default:
			logger.Warn().Str("outcome", outcomeLabel(outcome)).Str("message", result.Message).Msg("assign not ready, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(assignRetryInterval):
			}
		}
	}
}

func (s *Supervisor) completeAttach(ctx context.Context, result discovery.Result) error {
	logger := log.WithCombinerID(result.Assignment.Host).With().Str("component", "supervisor").Logger()

	if result.Assignment.HelperType == "" {
		return fmt.Errorf("assignment has no helper_type configured")
	}

	t, err := transport.Dial(ctx, result.Assignment, s.cfg)
	if err != nil {
		return fmt.Errorf("dial combiner: %w", err)
	}

	dispatch, err := s.bindRuntime(ctx)
	if err != nil {
		t.Close()
		return fmt.Errorf("bind package runtime: %w", err)
	}

	s.worker.SetDispatcher(dispatch)
	s.worker.SetTransport(t)

	if dispatch.Has("startup") {
		if err := dispatch.Run(ctx, "startup"); err != nil {
			logger.Warn().Err(err).Msg("startup entry point failed, continuing")
		}
	}

	logger.Info().Msg("attached")
	s.spawnDaemons(ctx)
	return nil
}

func (s *Supervisor) bindRuntime(ctx context.Context) (*dispatcher.Dispatcher, error) {
	if !s.cfg.RemoteComputeCtx {
		return runtime.FromLocalDir(s.runDir, s.cfg.LocalComputeDir)
	}

	data, err := runtime.Download(ctx, s.connector)
	if err != nil {
		return nil, err
	}
	checksum := s.cfg.Checksum
	if checksum == "" {
		checksum, err = s.connector.FetchPackageChecksum(ctx)
		if err != nil {
			log.WithComponent("supervisor").Warn().Err(err).Msg("could not fetch package checksum, skipping validation")
		}
	}
	if err := runtime.Validate(data, checksum); err != nil {
		return nil, err
	}
	if err := runtime.Unpack(s.runDir, data); err != nil {
		return nil, err
	}
	return runtime.Bind(s.runDir)
}

func (s *Supervisor) spawnDaemons(ctx context.Context) {
	daemonCtx, cancel := context.WithCancel(ctx)
	s.daemonCancel = cancel

	s.worker.wg.Add(4)
	go s.worker.runHeartbeatLoop(daemonCtx)
	go s.worker.runUpdateSubscriber(daemonCtx)
	go s.worker.runValidationSubscriber(daemonCtx)
	go s.worker.runPipeline(daemonCtx)
}

func (s *Supervisor) stopDaemons() {
	metrics.AttachedGauge.Set(0)
	if s.daemonCancel != nil {
		s.daemonCancel()
		s.daemonCancel = nil
	}
	s.worker.wg.Wait()
}

func outcomeLabel(o discovery.Outcome) string {
	switch o {
	case discovery.OutcomeAssigned:
		return "assigned"
	case discovery.OutcomeTryAgain:
		return "try_again"
	case discovery.OutcomeUnauthorized:
		return "unauthorized"
	case discovery.OutcomeUnmatchedConfig:
		return "unmatched_config"
	default:
		return "transient_error"
	}
}
