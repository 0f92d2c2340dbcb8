package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/scaleout-labs/fednworker/api/proto"
	"github.com/scaleout-labs/fednworker/internal/types"
	"github.com/scaleout-labs/fednworker/pkg/log"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

// runPipeline is the single consumer loop over the task queue: exactly one
// envelope is processed at a time, polled with a 1-second timeout.
func (w *Worker) runPipeline(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !w.Attached() {
			return
		}

		task, ok := w.queue.Pop(1 * time.Second)
		if !ok {
			continue
		}

		switch task.Kind {
		case types.TaskTrain:
			w.processTrain(ctx, task)
		case types.TaskValidate:
			w.processValidate(ctx, task)
		}
	}
}

func (w *Worker) processTrain(ctx context.Context, task types.Task) {
	logger := log.WithCorrelationID(task.CorrelationID).With().
		Str("component", "pipeline").
		Str("model_id", task.ModelID).
		Logger()
	w.setState(types.StateTraining)
	defer w.setState(types.StateIdle)

	start := time.Now()
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TaskDuration, "train")

	meta, failErr := w.runTraining(ctx, task)
	processingTime := time.Since(start).Seconds()

	if failErr != nil {
		logger.Warn().Err(failErr).Msg("training task failed")
		metrics.TasksFailedTotal.WithLabelValues("train").Inc()
		failMeta, _ := json.Marshal(types.UpdateMeta{
			ProcessingTime: processingTime,
			Config:         task.Data,
			Status:         "failed",
			Error:          failErr.Error(),
		})
		w.sendStatus(ctx, proto.LogLevel_WARNING, fmt.Sprintf("training failed: %v", failErr), proto.StatusType_MODEL_UPDATE, string(failMeta))
		return
	}

	meta.ProcessingTime = processingTime
	meta.Config = task.Data
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode update meta")
		return
	}

	update := &proto.ModelUpdate{
		Sender:        w.senderClient(),
		Receiver:      &proto.Client{Name: task.Sender.Name, Role: proto.Role_COMBINER},
		ModelID:       task.ModelID,
		ModelUpdateID: uuid.NewString(),
		Timestamp:     timestamppb.Now(),
		CorrelationID: task.CorrelationID,
		Meta:          string(metaJSON),
	}

	t := w.currentTransport()
	if t == nil {
		return
	}
	if _, err := t.Combiner.SendModelUpdate(ctx, update); err != nil {
		logger.Warn().Err(err).Msg("failed to publish model update")
		return
	}
	metrics.TasksCompletedTotal.WithLabelValues("train").Inc()
	w.sendStatus(ctx, proto.LogLevel_INFO, "model update sent", proto.StatusType_MODEL_UPDATE, "")
}

// runTraining performs fetch -> exec("train") -> upload -> sidecar-read,
// returning the populated meta (minus ProcessingTime/Config, filled by the
// caller) or an error describing which step failed.
func (w *Worker) runTraining(ctx context.Context, task types.Task) (types.UpdateMeta, error) {
	var meta types.UpdateMeta

	t := w.currentTransport()
	if t == nil {
		return meta, errNotAttached
	}
	d := w.currentDispatcher()
	if d == nil {
		return meta, fmt.Errorf("no dispatcher bound")
	}

	fetchStart := time.Now()
	data, err := t.Download(ctx, task.ModelID)
	if err != nil {
		return meta, fmt.Errorf("fetch model: %w", err)
	}
	meta.FetchModel = time.Since(fetchStart).Seconds()

	inPath, err := writeTempFile(w.runDir, "train-in-*", data)
	if err != nil {
		return meta, fmt.Errorf("write input artifact: %w", err)
	}
	defer os.Remove(inPath)

	outPath := inPath + ".out"
	defer os.Remove(outPath)
	metaPath := outPath + "-metadata"
	defer os.Remove(metaPath)

	execStart := time.Now()
	if err := d.Run(ctx, "train", inPath, outPath); err != nil {
		return meta, fmt.Errorf("exec training: %w", err)
	}
	meta.ExecTraining = time.Since(execStart).Seconds()

	outData, err := os.ReadFile(outPath)
	if err != nil {
		return meta, fmt.Errorf("read training output: %w", err)
	}

	uploadStart := time.Now()
	updatedModelID := uuid.NewString()
	if err := t.Upload(ctx, updatedModelID, outData); err != nil {
		return meta, fmt.Errorf("upload model: %w", err)
	}
	meta.UploadModel = time.Since(uploadStart).Seconds()

	if sidecar, err := os.ReadFile(metaPath); err == nil {
		meta.TrainingMetadata = json.RawMessage(sidecar)
	}

	return meta, nil
}

func (w *Worker) processValidate(ctx context.Context, task types.Task) {
	logger := log.WithCorrelationID(task.CorrelationID).With().
		Str("component", "pipeline").
		Str("model_id", task.ModelID).
		Logger()
	w.setState(types.StateValidating)
	defer w.setState(types.StateIdle)

	label := "validate"
	statusType := proto.StatusType_MODEL_VALIDATION
	entryPoint := "validate"
	if task.IsInference {
		label = "infer"
		statusType = proto.StatusType_INFERENCE
		entryPoint = "infer"
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TaskDuration, label)

	resultData, failErr := w.runValidation(ctx, task, entryPoint)
	if failErr != nil {
		logger.Warn().Err(failErr).Msg("validation task failed")
		metrics.TasksFailedTotal.WithLabelValues(label).Inc()
		w.sendStatus(ctx, proto.LogLevel_WARNING, fmt.Sprintf("%s failed: %v", label, failErr), statusType, "")
		return
	}

	validation := &proto.ModelValidation{
		Sender:        w.senderClient(),
		Receiver:      &proto.Client{Name: task.Sender.Name, Role: proto.Role_COMBINER},
		ModelID:       task.ModelID,
		Data:          string(resultData),
		Timestamp:     timestamppb.Now(),
		CorrelationID: task.CorrelationID,
	}

	t := w.currentTransport()
	if t == nil {
		return
	}
	if _, err := t.Combiner.SendModelValidation(ctx, validation); err != nil {
		logger.Warn().Err(err).Msg("failed to publish model validation")
		return
	}
	metrics.TasksCompletedTotal.WithLabelValues(label).Inc()
	w.sendStatus(ctx, proto.LogLevel_INFO, fmt.Sprintf("%s result sent", label), statusType, "")
}

func (w *Worker) runValidation(ctx context.Context, task types.Task, entryPoint string) ([]byte, error) {
	t := w.currentTransport()
	if t == nil {
		return nil, errNotAttached
	}
	d := w.currentDispatcher()
	if d == nil {
		return nil, fmt.Errorf("no dispatcher bound")
	}

	data, err := t.Download(ctx, task.ModelID)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}

	inPath, err := writeTempFile(w.runDir, "validate-in-*", data)
	if err != nil {
		return nil, fmt.Errorf("write input artifact: %w", err)
	}
	defer os.Remove(inPath)

	outPath := inPath + ".out"
	defer os.Remove(outPath)

	if err := d.Run(ctx, entryPoint, inPath, outPath); err != nil {
		return nil, fmt.Errorf("exec %s: %w", entryPoint, err)
	}

	return os.ReadFile(outPath)
}

func writeTempFile(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return filepath.Clean(f.Name()), nil
}
