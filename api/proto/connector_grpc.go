package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ConnectorClient is the worker-side stub for heartbeats and status
// reporting.
type ConnectorClient interface {
	SendHeartbeat(ctx context.Context, in *Heartbeat, opts ...grpc.CallOption) (*Response, error)
	SendStatus(ctx context.Context, in *Status, opts ...grpc.CallOption) (*Response, error)
}

type connectorClient struct {
	cc grpc.ClientConnInterface
}

// NewConnectorClient wraps an existing connection as a ConnectorClient.
func NewConnectorClient(cc grpc.ClientConnInterface) ConnectorClient {
	return &connectorClient{cc}
}

func (c *connectorClient) SendHeartbeat(ctx context.Context, in *Heartbeat, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Connector/SendHeartbeat", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *connectorClient) SendStatus(ctx context.Context, in *Status, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, "/fedn.Connector/SendStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ConnectorServer is the combiner-side implementation surface. Unimplemented
// methods return Unimplemented, matching protoc-gen-go-grpc's forward
// compatibility convention.
type ConnectorServer interface {
	SendHeartbeat(context.Context, *Heartbeat) (*Response, error)
	SendStatus(context.Context, *Status) (*Response, error)
}

// UnimplementedConnectorServer embeds into test fakes that only implement a
// subset of ConnectorServer.
type UnimplementedConnectorServer struct{}

func (UnimplementedConnectorServer) SendHeartbeat(context.Context, *Heartbeat) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendHeartbeat not implemented")
}

func (UnimplementedConnectorServer) SendStatus(context.Context, *Status) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendStatus not implemented")
}

func RegisterConnectorServer(s grpc.ServiceRegistrar, srv ConnectorServer) {
	s.RegisterService(&Connector_ServiceDesc, srv)
}

func _Connector_SendHeartbeat_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Heartbeat)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).SendHeartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fedn.Connector/SendHeartbeat"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).SendHeartbeat(ctx, req.(*Heartbeat))
	}
	return interceptor(ctx, in, info, handler)
}

func _Connector_SendStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Status)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConnectorServer).SendStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fedn.Connector/SendStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConnectorServer).SendStatus(ctx, req.(*Status))
	}
	return interceptor(ctx, in, info, handler)
}

// Connector_ServiceDesc is the grpc.ServiceDesc for the Connector service.
var Connector_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "fedn.Connector",
	HandlerType: (*ConnectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendHeartbeat", Handler: _Connector_SendHeartbeat_Handler},
		{MethodName: "SendStatus", Handler: _Connector_SendStatus_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fedn.proto",
}
