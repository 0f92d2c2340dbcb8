// Package types defines the data model shared across the worker runtime:
// identity, configuration, task envelopes, and the state enums that the
// supervisor and pipeline coordinate over.
package types

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Role identifies a participant in the federated-training network.
type Role string

const (
	RoleWorker   Role = "worker"
	RoleCombiner Role = "combiner"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// Identity is the worker's tuple of (name, client ID, role). Role is always
// RoleWorker for this process; the field exists because the wire messages
// carry it explicitly.
type Identity struct {
	Name     string
	ClientID string
	Role     Role
}

// ValidateName reports whether name is an acceptable worker name. Construction
// refuses any name that doesn't match this pattern.
func ValidateName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("invalid worker name %q: must match %s", name, nameRE.String())
	}
	return nil
}

// State is the worker's task-execution state. At most one task is in flight,
// so this is also the pipeline's state.
type State string

const (
	StateIdle       State = "idle"
	StateTraining   State = "training"
	StateValidating State = "validating"
)

// Assignment is what the Discovery Connector returns on a successful assign.
type Assignment struct {
	Host        string
	Port        int
	FQDN        string // when set, Dial targets FQDN on port 443 instead of Host/Port
	Certificate string // base64-encoded PEM, optional
	HelperType  string
	Package     string
}

// TaskKind distinguishes the two envelope shapes the pipeline services.
type TaskKind string

const (
	TaskTrain    TaskKind = "train"
	TaskValidate TaskKind = "validate"
)

// Task is a single unit of work dequeued by the pipeline. Validate envelopes
// set IsInference to additionally mean "treat as inference, not validation".
type Task struct {
	Kind          TaskKind
	ModelID       string
	CorrelationID string
	Sender        Identity
	Data          string // opaque config, forwarded verbatim in meta.config
	IsInference   bool
	EnqueuedAt    time.Time
}

// UpdateMeta is the meta map published alongside a model update, with the
// exact field names the combiner expects.
type UpdateMeta struct {
	FetchModel        float64         `json:"fetch_model"`
	ExecTraining      float64         `json:"exec_training"`
	UploadModel       float64         `json:"upload_model"`
	TrainingMetadata  json.RawMessage `json:"training_metadata,omitempty"`
	ProcessingTime    float64         `json:"processing_time"`
	Config            string          `json:"config"`
	Status            string          `json:"status,omitempty"`
	Error             string          `json:"error,omitempty"`
}
