// Package worker implements the concurrent stream fabric, task pipeline, and
// outer supervisor state machine: the four daemons (heartbeat, two
// subscribers, pipeline) that run against a Transport once attached to a
// combiner, and the Supervisor that owns the attach/detach lifecycle.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scaleout-labs/fednworker/api/proto"
	"github.com/scaleout-labs/fednworker/internal/config"
	"github.com/scaleout-labs/fednworker/internal/dispatcher"
	"github.com/scaleout-labs/fednworker/internal/queue"
	"github.com/scaleout-labs/fednworker/internal/transport"
	"github.com/scaleout-labs/fednworker/internal/types"
	"github.com/scaleout-labs/fednworker/pkg/log"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// maxLogBufferEntries bounds the in-memory log buffer -- the base
// specification leaves this unbounded, which this implementation treats as
// a defect in long-lived processes (Open Question, resolved by bounding).
const maxLogBufferEntries = 2000

// Worker holds everything a (re)attach cycle needs: identity, config, the
// current Transport, the shared task queue, and the cooperative-cancellation
// flags the four daemons observe.
type Worker struct {
	identity types.Identity
	cfg      *config.Config

	mu        sync.RWMutex
	transport *transport.Transport
	dispatch  *dispatcher.Dispatcher
	runDir    string

	queue *queue.Queue

	attached   atomic.Bool
	errorState atomic.Bool
	state      atomic.Value // types.State

	missedHeartbeats atomic.Int32

	logMu  sync.Mutex
	logBuf []string

	wg sync.WaitGroup
}

// New constructs a Worker for identity under cfg with an empty task queue.
// New does not create runDir; cmd/fednworker creates it before calling New.
func New(identity types.Identity, cfg *config.Config, runDir string) (*Worker, error) {
	if err := types.ValidateName(identity.Name); err != nil {
		return nil, err
	}
	w := &Worker{
		identity: identity,
		cfg:      cfg,
		runDir:   runDir,
		queue:    queue.New(),
	}
	w.state.Store(types.StateIdle)
	return w, nil
}

// State returns the worker's current task-execution state.
func (w *Worker) State() types.State {
	return w.state.Load().(types.State)
}

func (w *Worker) setState(s types.State) {
	w.state.Store(s)
}

// Attached reports whether the channel to the combiner is currently live.
func (w *Worker) Attached() bool {
	return w.attached.Load()
}

// ErrorState reports whether the worker has hit a fatal condition.
func (w *Worker) ErrorState() bool {
	return w.errorState.Load()
}

// SetErrorState latches the fatal flag; it never clears once set.
func (w *Worker) SetErrorState() {
	w.errorState.Store(true)
}

// SetTransport installs the live channel and its stubs and marks attached.
// Only the Supervisor calls this, at attach boundaries when no daemons are
// running.
func (w *Worker) SetTransport(t *transport.Transport) {
	w.mu.Lock()
	w.transport = t
	w.mu.Unlock()
	w.attached.Store(true)
	w.missedHeartbeats.Store(0)
}

// SetDispatcher installs the bound dispatcher for the current run directory.
func (w *Worker) SetDispatcher(d *dispatcher.Dispatcher) {
	w.mu.Lock()
	w.dispatch = d
	w.mu.Unlock()
}

func (w *Worker) currentTransport() *transport.Transport {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.transport
}

func (w *Worker) currentDispatcher() *dispatcher.Dispatcher {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dispatch
}

// Detach closes the channel and marks the worker unattached. Idempotent.
func (w *Worker) Detach() {
	if !w.attached.CompareAndSwap(true, false) {
		return
	}
	w.mu.Lock()
	t := w.transport
	w.transport = nil
	w.mu.Unlock()
	if t != nil {
		if err := t.Close(); err != nil {
			log.WithComponent("worker").Warn().Err(err).Msg("error closing transport on detach")
		}
	}
}

// appendLog appends a formatted entry to the bounded in-memory log buffer.
// The entry is kept in memory only: it is not written to any file, and
// cfg.Logfile is not consulted.
func (w *Worker) appendLog(entry string) {
	w.logMu.Lock()
	defer w.logMu.Unlock()
	w.logBuf = append(w.logBuf, entry)
	if len(w.logBuf) > maxLogBufferEntries {
		w.logBuf = w.logBuf[len(w.logBuf)-maxLogBufferEntries:]
	}
}

// Logs returns a snapshot of the buffered log entries.
func (w *Worker) Logs() []string {
	w.logMu.Lock()
	defer w.logMu.Unlock()
	out := make([]string, len(w.logBuf))
	copy(out, w.logBuf)
	return out
}

// sendStatus publishes a Status message via Connector.SendStatus and appends
// it to the local log buffer, matching the original client's behavior of
// recording every status it emits.
func (w *Worker) sendStatus(ctx context.Context, level proto.LogLevel, statusMsg string, typ proto.StatusType, data string) {
	w.appendLog(statusMsg)

	t := w.currentTransport()
	if t == nil {
		return
	}
	msg := &proto.Status{
		Timestamp: timestamppb.Now(),
		Sender:    w.senderClient(),
		LogLevel:  level,
		Status:    statusMsg,
		Type:      typ,
		Data:      data,
	}
	if _, err := t.Connector.SendStatus(ctx, msg); err != nil {
		log.WithComponent("worker").Warn().Err(err).Msg("failed to publish status")
	}
}

func (w *Worker) senderClient() *proto.Client {
	return &proto.Client{Name: w.identity.Name, Role: proto.Role_WORKER}
}
