package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "siape.v1.AnalysisService"

// Method names.
const (
	MethodExtractText  = "ExtractText"
	MethodAnalyze      = "Analyze"
	MethodExportReport = "ExportReport"
	MethodListLenders  = "ListLenders"
)

// AnalysisServer is the server API. Messages are google.protobuf.Struct so
// any gRPC client can call it without generated stubs.
type AnalysisServer interface {
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLenders(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns "/siape.v1.AnalysisService/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryCall func(AnalysisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AnalysisServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AnalysisServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes AnalysisService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodExtractText, AnalysisServer.ExtractText),
		unary(MethodAnalyze, AnalysisServer.Analyze),
		unary(MethodExportReport, AnalysisServer.ExportReport),
		unary(MethodListLenders, AnalysisServer.ListLenders),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "siape/v1/analysis.proto",
}

// RegisterAnalysisServer registers srv on s.
func RegisterAnalysisServer(s grpc.ServiceRegistrar, srv AnalysisServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// AnalysisClient calls AnalysisService over a client connection.
type AnalysisClient struct {
	cc grpc.ClientConnInterface
}

func NewAnalysisClient(cc grpc.ClientConnInterface) *AnalysisClient {
	return &AnalysisClient{cc: cc}
}

func (c *AnalysisClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AnalysisClient) ExtractText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodExtractText, in, opts...)
}

func (c *AnalysisClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAnalyze, in, opts...)
}

func (c *AnalysisClient) ExportReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodExportReport, in, opts...)
}

func (c *AnalysisClient) ListLenders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListLenders, in, opts...)
}
