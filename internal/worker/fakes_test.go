package worker

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/grpc"

	"github.com/scaleout-labs/fednworker/api/proto"
)

// fakeConnector stubs proto.ConnectorClient. HeartbeatErr, when set, is
// returned by every SendHeartbeat call.
type fakeConnector struct {
	mu            sync.Mutex
	HeartbeatErr  error
	heartbeats    int
	statusMsgs    []*proto.Status
}

func (f *fakeConnector) SendHeartbeat(ctx context.Context, in *proto.Heartbeat, opts ...grpc.CallOption) (*proto.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats++
	if f.HeartbeatErr != nil {
		return nil, f.HeartbeatErr
	}
	return &proto.Response{Ack: true}, nil
}

func (f *fakeConnector) SendStatus(ctx context.Context, in *proto.Status, opts ...grpc.CallOption) (*proto.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusMsgs = append(f.statusMsgs, in)
	return &proto.Response{Ack: true}, nil
}

func (f *fakeConnector) heartbeatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeats
}

// fakeCombiner stubs proto.CombinerClient for the two publish RPCs; the two
// subscription streams are unused by pipeline/heartbeat tests and return an
// error if ever called.
type fakeCombiner struct {
	mu        sync.Mutex
	updates   []*proto.ModelUpdate
	validations []*proto.ModelValidation
}

func (f *fakeCombiner) ModelUpdateRequestStream(ctx context.Context, in *proto.ClientAvailableMessage, opts ...grpc.CallOption) (proto.Combiner_ModelUpdateRequestStreamClient, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeCombiner) ModelValidationRequestStream(ctx context.Context, in *proto.ClientAvailableMessage, opts ...grpc.CallOption) (proto.Combiner_ModelValidationRequestStreamClient, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeCombiner) SendModelUpdate(ctx context.Context, in *proto.ModelUpdate, opts ...grpc.CallOption) (*proto.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	return &proto.Response{Ack: true}, nil
}

func (f *fakeCombiner) SendModelValidation(ctx context.Context, in *proto.ModelValidation, opts ...grpc.CallOption) (*proto.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validations = append(f.validations, in)
	return &proto.Response{Ack: true}, nil
}

// fakeDownloadStream replays a single OK-terminated frame carrying Data.
type fakeDownloadStream struct {
	grpc.ClientStream
	data []byte
	sent bool
}

func (f *fakeDownloadStream) Recv() (*proto.ModelResponse, error) {
	if !f.sent {
		f.sent = true
		return &proto.ModelResponse{Status: proto.ModelStatus_IN_PROGRESS, Data: f.data}, nil
	}
	return &proto.ModelResponse{Status: proto.ModelStatus_OK}, nil
}

// fakeUploadStream records uploaded chunks and acks on close.
type fakeUploadStream struct {
	grpc.ClientStream
	chunks [][]byte
}

func (f *fakeUploadStream) Send(m *proto.ModelRequest) error {
	if len(m.Data) > 0 {
		f.chunks = append(f.chunks, m.Data)
	}
	return nil
}

func (f *fakeUploadStream) CloseAndRecv() (*proto.ModelResponse, error) {
	return &proto.ModelResponse{Status: proto.ModelStatus_OK}, nil
}

// fakeModelService stubs proto.ModelServiceClient with an in-memory artifact.
type fakeModelService struct {
	mu       sync.Mutex
	artifact []byte
	uploaded []byte
}

func (f *fakeModelService) Download(ctx context.Context, in *proto.ModelRequest, opts ...grpc.CallOption) (proto.ModelService_DownloadClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &fakeDownloadStream{data: f.artifact}, nil
}

func (f *fakeModelService) Upload(ctx context.Context, opts ...grpc.CallOption) (proto.ModelService_UploadClient, error) {
	return &recordingUploadStream{fakeUploadStream: &fakeUploadStream{}, owner: f}, nil
}

// recordingUploadStream flushes accumulated chunks into the owning
// fakeModelService's uploaded field on CloseAndRecv.
type recordingUploadStream struct {
	*fakeUploadStream
	owner *fakeModelService
}

func (r *recordingUploadStream) CloseAndRecv() (*proto.ModelResponse, error) {
	r.owner.mu.Lock()
	for _, c := range r.chunks {
		r.owner.uploaded = append(r.owner.uploaded, c...)
	}
	r.owner.mu.Unlock()
	return r.fakeUploadStream.CloseAndRecv()
}
