package proto

import (
	"context"

	"google.golang.org/grpc"
)

// ModelServiceClient is the worker-side stub for artifact transfer.
type ModelServiceClient interface {
	Download(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (ModelService_DownloadClient, error)
	Upload(ctx context.Context, opts ...grpc.CallOption) (ModelService_UploadClient, error)
}

type modelServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewModelServiceClient wraps an existing connection as a ModelServiceClient.
func NewModelServiceClient(cc grpc.ClientConnInterface) ModelServiceClient {
	return &modelServiceClient{cc}
}

func (c *modelServiceClient) Download(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (ModelService_DownloadClient, error) {
	stream, err := c.cc.NewStream(ctx, &ModelService_ServiceDesc.Streams[0], "/fedn.ModelService/Download", opts...)
	if err != nil {
		return nil, err
	}
	x := &modelServiceDownloadClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type ModelService_DownloadClient interface {
	Recv() (*ModelResponse, error)
	grpc.ClientStream
}

type modelServiceDownloadClient struct {
	grpc.ClientStream
}

func (x *modelServiceDownloadClient) Recv() (*ModelResponse, error) {
	m := new(ModelResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *modelServiceClient) Upload(ctx context.Context, opts ...grpc.CallOption) (ModelService_UploadClient, error) {
	stream, err := c.cc.NewStream(ctx, &ModelService_ServiceDesc.Streams[1], "/fedn.ModelService/Upload", opts...)
	if err != nil {
		return nil, err
	}
	return &modelServiceUploadClient{stream}, nil
}

type ModelService_UploadClient interface {
	Send(*ModelRequest) error
	CloseAndRecv() (*ModelResponse, error)
	grpc.ClientStream
}

type modelServiceUploadClient struct {
	grpc.ClientStream
}

func (x *modelServiceUploadClient) Send(m *ModelRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *modelServiceUploadClient) CloseAndRecv() (*ModelResponse, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(ModelResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ModelServiceServer is the combiner-side implementation surface (used by
// test fakes standing in for a real model service).
type ModelServiceServer interface {
	Download(*ModelRequest, ModelService_DownloadServer) error
	Upload(ModelService_UploadServer) error
}

type ModelService_DownloadServer interface {
	Send(*ModelResponse) error
	grpc.ServerStream
}

type modelServiceDownloadServer struct {
	grpc.ServerStream
}

func (x *modelServiceDownloadServer) Send(m *ModelResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _ModelService_Download_Handler(srv any, stream grpc.ServerStream) error {
	m := new(ModelRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ModelServiceServer).Download(m, &modelServiceDownloadServer{stream})
}

type ModelService_UploadServer interface {
	SendAndClose(*ModelResponse) error
	Recv() (*ModelRequest, error)
	grpc.ServerStream
}

type modelServiceUploadServer struct {
	grpc.ServerStream
}

func (x *modelServiceUploadServer) SendAndClose(m *ModelResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *modelServiceUploadServer) Recv() (*ModelRequest, error) {
	m := new(ModelRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _ModelService_Upload_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(ModelServiceServer).Upload(&modelServiceUploadServer{stream})
}

// ModelService_ServiceDesc is the grpc.ServiceDesc for the ModelService
// service.
var ModelService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "fedn.ModelService",
	HandlerType: (*ModelServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{StreamName: "Download", Handler: _ModelService_Download_Handler, ServerStreams: true},
		{StreamName: "Upload", Handler: _ModelService_Upload_Handler, ClientStreams: true},
	},
	Metadata: "fedn.proto",
}

func RegisterModelServiceServer(s grpc.ServiceRegistrar, srv ModelServiceServer) {
	s.RegisterService(&ModelService_ServiceDesc, srv)
}
