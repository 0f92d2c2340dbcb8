package transport

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/scaleout-labs/fednworker/api/proto"
)

// fakeDownloadStream replays a fixed sequence of ModelResponse frames.
type fakeDownloadStream struct {
	grpc.ClientStream
	frames []*proto.ModelResponse
	pos    int
}

func (f *fakeDownloadStream) Recv() (*proto.ModelResponse, error) {
	if f.pos >= len(f.frames) {
		return nil, io.EOF
	}
	frame := f.frames[f.pos]
	f.pos++
	return frame, nil
}

// fakeUploadStream records every chunk sent to it.
type fakeUploadStream struct {
	grpc.ClientStream
	sent []*proto.ModelRequest
}

func (f *fakeUploadStream) Send(m *proto.ModelRequest) error {
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeUploadStream) CloseAndRecv() (*proto.ModelResponse, error) {
	return &proto.ModelResponse{Status: proto.ModelStatus_OK}, nil
}

// fakeModelServiceClient stubs ModelServiceClient for download/upload tests.
type fakeModelServiceClient struct {
	downloadStream *fakeDownloadStream
	uploadStream   *fakeUploadStream
}

func (f *fakeModelServiceClient) Download(ctx context.Context, in *proto.ModelRequest, opts ...grpc.CallOption) (proto.ModelService_DownloadClient, error) {
	return f.downloadStream, nil
}

func (f *fakeModelServiceClient) Upload(ctx context.Context, opts ...grpc.CallOption) (proto.ModelService_UploadClient, error) {
	return f.uploadStream, nil
}

func TestDownloadConcatenatesInProgressFrames(t *testing.T) {
	stream := &fakeDownloadStream{frames: []*proto.ModelResponse{
		{Status: proto.ModelStatus_IN_PROGRESS, Data: []byte("hello ")},
		{Status: proto.ModelStatus_IN_PROGRESS, Data: []byte("world")},
		{Status: proto.ModelStatus_OK},
	}}
	tr := &Transport{Models: &fakeModelServiceClient{downloadStream: stream}}

	data, err := tr.Download(context.Background(), "model-1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestDownloadFailedFrameReturnsError(t *testing.T) {
	stream := &fakeDownloadStream{frames: []*proto.ModelResponse{
		{Status: proto.ModelStatus_FAILED},
	}}
	tr := &Transport{Models: &fakeModelServiceClient{downloadStream: stream}}

	_, err := tr.Download(context.Background(), "model-1")
	assert.Error(t, err)
}

func TestUploadChunksAndTerminates(t *testing.T) {
	stream := &fakeUploadStream{}
	tr := &Transport{Models: &fakeModelServiceClient{uploadStream: stream}}

	data := make([]byte, ChunkSize+10)
	for i := range data {
		data[i] = byte(i % 251)
	}

	err := tr.Upload(context.Background(), "model-2", data)
	require.NoError(t, err)

	require.Len(t, stream.sent, 3) // two data chunks + terminator
	assert.Equal(t, proto.ModelStatus_IN_PROGRESS, stream.sent[0].Status)
	assert.Len(t, stream.sent[0].Data, ChunkSize)
	assert.Equal(t, proto.ModelStatus_IN_PROGRESS, stream.sent[1].Status)
	assert.Len(t, stream.sent[1].Data, 10)
	assert.Equal(t, proto.ModelStatus_OK, stream.sent[2].Status)
	assert.Empty(t, stream.sent[2].Data)
}

func TestCertPoolFromBase64RejectsGarbage(t *testing.T) {
	_, err := certPoolFromBase64("not-base64!!!")
	assert.Error(t, err)
}

func TestCertPoolFromBase64RejectsNonPEM(t *testing.T) {
	_, err := certPoolFromBase64("aGVsbG8=") // "hello" base64-encoded
	assert.Error(t, err)
}
