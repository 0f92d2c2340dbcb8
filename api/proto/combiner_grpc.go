package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CombinerClient is the worker-side stub for the two request-subscription
// streams and the two publish RPCs.
type CombinerClient interface {
	ModelUpdateRequestStream(ctx context.Context, in *ClientAvailableMessage, opts ...grpc.CallOption) (Combiner_ModelUpdateRequestStreamClient, error)
	ModelValidationRequestStream(ctx context.Context, in *ClientAvailableMessage, opts ...grpc.CallOption) (Combiner_ModelValidationRequestStreamClient, error)
	SendModelUpdate(ctx context.Context, in *ModelUpdate, opts ...grpc.CallOption) (*Response, error)
	SendModelValidation(ctx context.Context, in *ModelValidation, opts ...grpc.CallOption) (*Response, error)
}

type combinerClient struct {
	cc grpc.ClientConnInterface
}

// NewCombinerClient wraps an existing connection as a CombinerClient.
func NewCombinerClient(cc grpc.ClientConnInterface) CombinerClient {
	return &combinerClient{cc}
}

func (c *combinerClient) ModelUpdateRequestStream(ctx context.Context, in *ClientAvailableMessage, opts ...grpc.CallOption) (Combiner_ModelUpdateRequestStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &Combiner_ServiceDesc.Streams[0], "/fedn.Combiner/ModelUpdateRequestStream", opts...)
	if err != nil {
		return nil, err
	}
	x := &combinerModelUpdateRequestStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Combiner_ModelUpdateRequestStreamClient interface {
	Recv() (*Request, error)
	grpc.ClientStream
}

type combinerModelUpdateRequestStreamClient struct {
	grpc.ClientStream
}

func (x *combinerModelUpdateRequestStreamClient) Recv() (*Request, error) {
	m := new(Request)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *combinerClient) ModelValidationRequestStream(ctx context.Context, in *ClientAvailableMessage, opts ...grpc.CallOption) (Combiner_ModelValidationRequestStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &Combiner_ServiceDesc.Streams[1], "/fedn.Combiner/ModelValidationRequestStream", opts...)
	if err != nil {
		return nil, err
	}
	x := &combinerModelValidationRequestStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Combiner_ModelValidationRequestStreamClient interface {
	Recv() (*Request, error)
	grpc.ClientStream
}

type combinerModelValidationRequestStreamClient struct {
	grpc.ClientStream
}

func (x *combinerModelValidationRequestStreamClient) Recv() (*Request, error) {
	m := new(Request)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *combinerClient) SendModelUpdate(ctx context.Context, in *ModelUpdate, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Combiner/SendModelUpdate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *combinerClient) SendModelValidation(ctx context.Context, in *ModelValidation, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Combiner/SendModelValidation", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CombinerServer is the combiner-side implementation surface (used by test
// fakes that stand in for a real combiner).
type CombinerServer interface {
	ModelUpdateRequestStream(*ClientAvailableMessage, Combiner_ModelUpdateRequestStreamServer) error
	ModelValidationRequestStream(*ClientAvailableMessage, Combiner_ModelValidationRequestStreamServer) error
	SendModelUpdate(context.Context, *ModelUpdate) (*Response, error)
	SendModelValidation(context.Context, *ModelValidation) (*Response, error)
}

type UnimplementedCombinerServer struct{}

func (UnimplementedCombinerServer) ModelUpdateRequestStream(*ClientAvailableMessage, Combiner_ModelUpdateRequestStreamServer) error {
	return status.Errorf(codes.Unimplemented, "method ModelUpdateRequestStream not implemented")
}

func (UnimplementedCombinerServer) ModelValidationRequestStream(*ClientAvailableMessage, Combiner_ModelValidationRequestStreamServer) error {
	return status.Errorf(codes.Unimplemented, "method ModelValidationRequestStream not implemented")
}

func (UnimplementedCombinerServer) SendModelUpdate(context.Context, *ModelUpdate) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendModelUpdate not implemented")
}

func (UnimplementedCombinerServer) SendModelValidation(context.Context, *ModelValidation) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendModelValidation not implemented")
}

func RegisterCombinerServer(s grpc.ServiceRegistrar, srv CombinerServer) {
	s.RegisterService(&Combiner_ServiceDesc, srv)
}

type Combiner_ModelUpdateRequestStreamServer interface {
	Send(*Request) error
	grpc.ServerStream
}

type combinerModelUpdateRequestStreamServer struct {
	grpc.ServerStream
}

func (x *combinerModelUpdateRequestStreamServer) Send(m *Request) error {
	return x.ServerStream.SendMsg(m)
}

func _Combiner_ModelUpdateRequestStream_Handler(srv any, stream grpc.ServerStream) error {
	m := new(ClientAvailableMessage)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CombinerServer).ModelUpdateRequestStream(m, &combinerModelUpdateRequestStreamServer{stream})
}

type Combiner_ModelValidationRequestStreamServer interface {
	Send(*Request) error
	grpc.ServerStream
}

type combinerModelValidationRequestStreamServer struct {
	grpc.ServerStream
}

func (x *combinerModelValidationRequestStreamServer) Send(m *Request) error {
	return x.ServerStream.SendMsg(m)
}

func _Combiner_ModelValidationRequestStream_Handler(srv any, stream grpc.ServerStream) error {
	m := new(ClientAvailableMessage)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CombinerServer).ModelValidationRequestStream(m, &combinerModelValidationRequestStreamServer{stream})
}

func _Combiner_SendModelUpdate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelUpdate)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CombinerServer).SendModelUpdate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fedn.Combiner/SendModelUpdate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CombinerServer).SendModelUpdate(ctx, req.(*ModelUpdate))
	}
	return interceptor(ctx, in, info, handler)
}

func _Combiner_SendModelValidation_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelValidation)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CombinerServer).SendModelValidation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fedn.Combiner/SendModelValidation"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CombinerServer).SendModelValidation(ctx, req.(*ModelValidation))
	}
	return interceptor(ctx, in, info, handler)
}

// Combiner_ServiceDesc is the grpc.ServiceDesc for the Combiner service.
var Combiner_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "fedn.Combiner",
	HandlerType: (*CombinerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendModelUpdate", Handler: _Combiner_SendModelUpdate_Handler},
		{MethodName: "SendModelValidation", Handler: _Combiner_SendModelValidation_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ModelUpdateRequestStream", Handler: _Combiner_ModelUpdateRequestStream_Handler, ServerStreams: true},
		{StreamName: "ModelValidationRequestStream", Handler: _Combiner_ModelValidationRequestStream_Handler, ServerStreams: true},
	},
	Metadata: "fedn.proto",
}
