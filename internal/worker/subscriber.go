package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/scaleout-labs/fednworker/api/proto"
	"github.com/scaleout-labs/fednworker/internal/types"
	"github.com/scaleout-labs/fednworker/pkg/log"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

// errNotAttached signals the transport has been torn down mid-call; callers
// treat it like any other transient transport error.
var errNotAttached = errors.New("worker: not attached")

// resubscribeDelay is the fixed backoff between resubscribe attempts after a
// stream error, per the stream subscriber error-handling policy.
const resubscribeDelay = 5 * time.Second

// recvLoop is the narrow surface both stream client types share.
type recvLoop interface {
	Recv() (*proto.Request, error)
}

// runUpdateSubscriber drains the model-update-request stream into the task
// queue as TaskTrain envelopes, for as long as the worker stays attached.
func (w *Worker) runUpdateSubscriber(ctx context.Context) {
	defer w.wg.Done()
	if !w.cfg.Trainer {
		return
	}
	w.runSubscriber(ctx, "update-subscriber", types.TaskTrain, proto.StatusType_MODEL_UPDATE_REQUEST,
		func(ctx context.Context, combiner proto.CombinerClient) (recvLoop, error) {
			return combiner.ModelUpdateRequestStream(ctx, &proto.ClientAvailableMessage{Sender: w.senderClient()})
		},
	)
}

// runValidationSubscriber is the analogous loop for validation/inference
// requests.
func (w *Worker) runValidationSubscriber(ctx context.Context) {
	defer w.wg.Done()
	if !w.cfg.Validator {
		return
	}
	w.runSubscriber(ctx, "validation-subscriber", types.TaskValidate, proto.StatusType_MODEL_VALIDATION_REQUEST,
		func(ctx context.Context, combiner proto.CombinerClient) (recvLoop, error) {
			return combiner.ModelValidationRequestStream(ctx, &proto.ClientAvailableMessage{Sender: w.senderClient()})
		},
	)
}

func (w *Worker) runSubscriber(ctx context.Context, name string, kind types.TaskKind, statusType proto.StatusType, open func(context.Context, proto.CombinerClient) (recvLoop, error)) {
	logger := log.WithClientID(w.identity.Name).With().Str("component", name).Logger()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !w.Attached() {
			return
		}

		t := w.currentTransport()
		if t == nil {
			return
		}

		stream, err := open(ctx, t.Combiner)
		if err != nil {
			logger.Warn().Err(err).Msg("subscribe failed, retrying")
			if !sleepOrDone(ctx, resubscribeDelay) {
				return
			}
			continue
		}

		for {
			req, err := stream.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				logger.Warn().Err(err).Msg("stream recv failed, resubscribing")
				break
			}
			if req.Sender == nil || req.Sender.Role != proto.Role_COMBINER {
				continue
			}
			w.queue.Push(types.Task{
				Kind:          kind,
				ModelID:       req.ModelID,
				CorrelationID: req.CorrelationID,
				Sender:        types.Identity{Name: req.Sender.Name, Role: types.RoleCombiner},
				Data:          req.Data,
				IsInference:   req.IsInference,
				EnqueuedAt:    time.Now(),
			})
			metrics.TasksEnqueuedTotal.WithLabelValues(string(kind)).Inc()
			log.WithCorrelationID(req.CorrelationID).Debug().Str("component", name).Str("model_id", req.ModelID).Msg("request received")
			w.sendStatus(ctx, proto.LogLevel_AUDIT, "request received", statusType, "")
		}

		if !w.Attached() {
			return
		}
		if !sleepOrDone(ctx, resubscribeDelay) {
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
