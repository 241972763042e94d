package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer builds a server with AnalysisService and the health service
// registered. maxRecvBytes bounds request size; 0 keeps the gRPC default.
func NewGRPCServer(svc AnalysisServer, maxRecvBytes int, logger *slog.Logger) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryLogging(logger))}
	if maxRecvBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxRecvBytes))
	}
	s := grpc.NewServer(opts...)
	RegisterAnalysisServer(s, svc)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	// Set the service as serving (empty string means overall server health)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s, hs
}
