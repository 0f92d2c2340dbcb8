// Package proto defines the wire messages and gRPC service stubs exchanged
// with the combiner. The message shapes mirror
// the federated-training wire protocol (Connector, Combiner, ModelService);
// see codec.go for how they're carried over the grpc transport.
package proto

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Role mirrors the network's client role. Only Role_WORKER originates from
// this process; Role_COMBINER appears as a sender on inbound requests.
type Role int32

const (
	Role_WORKER   Role = 0
	Role_COMBINER Role = 1
)

func (r Role) String() string {
	switch r {
	case Role_WORKER:
		return "WORKER"
	case Role_COMBINER:
		return "COMBINER"
	default:
		return "UNKNOWN"
	}
}

// Client identifies a network participant by name and role.
type Client struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Heartbeat is the periodic liveness signal sent to Connector.SendHeartbeat.
type Heartbeat struct {
	Sender *Client `json:"sender"`
}

// LogLevel classifies a Status message's severity.
type LogLevel int32

const (
	LogLevel_INFO    LogLevel = 0
	LogLevel_WARNING LogLevel = 1
	LogLevel_AUDIT   LogLevel = 2
	LogLevel_ERROR   LogLevel = 3
)

// StatusType classifies what kind of event a Status message reports.
type StatusType int32

const (
	StatusType_UNSPECIFIED             StatusType = 0
	StatusType_MODEL_UPDATE_REQUEST    StatusType = 1
	StatusType_MODEL_VALIDATION_REQUEST StatusType = 2
	StatusType_MODEL_UPDATE            StatusType = 3
	StatusType_MODEL_VALIDATION        StatusType = 4
	StatusType_INFERENCE                StatusType = 5
)

// Status is emitted via Connector.SendStatus to report task progress,
// failures, and stream-level events back to the combiner.
type Status struct {
	Timestamp *timestamppb.Timestamp `json:"timestamp"`
	Sender    *Client                `json:"sender"`
	LogLevel  LogLevel               `json:"log_level"`
	Status    string                 `json:"status"`
	Type      StatusType             `json:"type,omitempty"`
	Data      string                 `json:"data,omitempty"`
}

// ClientAvailableMessage announces worker availability when opening a
// request-subscription stream.
type ClientAvailableMessage struct {
	Sender *Client `json:"sender"`
}

// Request is a train-or-validate envelope pushed by the combiner over a
// subscription stream.
type Request struct {
	Sender        *Client `json:"sender"`
	ModelID       string  `json:"model_id"`
	CorrelationID string  `json:"correlation_id"`
	Data          string  `json:"data"`
	IsInference   bool    `json:"is_inference"`
}

// ModelUpdate is published after a successful training task.
type ModelUpdate struct {
	Sender        *Client                `json:"sender"`
	Receiver      *Client                `json:"receiver"`
	ModelID       string                 `json:"model_id"`
	ModelUpdateID string                 `json:"model_update_id"`
	Timestamp     *timestamppb.Timestamp `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
	Meta          string                 `json:"meta"`
}

// ModelValidation is published after a successful validation or inference
// task.
type ModelValidation struct {
	Sender        *Client                `json:"sender"`
	Receiver      *Client                `json:"receiver"`
	ModelID       string                 `json:"model_id"`
	Data          string                 `json:"data"`
	Timestamp     *timestamppb.Timestamp `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// ModelStatus frames a chunk in the artifact transfer protocol.
type ModelStatus int32

const (
	ModelStatus_IN_PROGRESS ModelStatus = 0
	ModelStatus_OK          ModelStatus = 1
	ModelStatus_FAILED      ModelStatus = 2
)

// ModelRequest is a single frame of an artifact upload/download exchange.
type ModelRequest struct {
	ID     string      `json:"id"`
	Data   []byte      `json:"data,omitempty"`
	Status ModelStatus `json:"status"`
}

// ModelResponse mirrors ModelRequest for the download direction and the
// final upload acknowledgement.
type ModelResponse struct {
	ID     string      `json:"id"`
	Data   []byte      `json:"data,omitempty"`
	Status ModelStatus `json:"status"`
}

// Response is an opaque RPC acknowledgement.
type Response struct {
	Ack bool `json:"ack"`
}
