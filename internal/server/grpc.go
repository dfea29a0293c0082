package server

import (
	"github.com/PaulBabatuyi/FileDrop/internal/middleware"
	"github.com/PaulBabatuyi/FileDrop/internal/observability"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the name the file store reports under in grpc.health.v1.
const HealthService = "filedrop.FileStore"

// NewGRPCServer builds the gRPC server carrying the health service, with
// logging, Prometheus and OpenTelemetry instrumentation. metrics may be nil.
func NewGRPCServer(logger *zap.Logger, metrics *observability.Metrics, hs *health.Server) *grpc.Server {
	unary := []grpc.UnaryServerInterceptor{middleware.UnaryLoggingInterceptor(logger)}
	stream := []grpc.StreamServerInterceptor{middleware.StreamLoggingInterceptor(logger)}
	if metrics != nil {
		unary = append([]grpc.UnaryServerInterceptor{metrics.GetServerMetrics().UnaryServerInterceptor()}, unary...)
		stream = append([]grpc.StreamServerInterceptor{metrics.GetServerMetrics().StreamServerInterceptor()}, stream...)
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(observability.GRPCStatsHandler()),
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)
	healthpb.RegisterHealthServer(srv, hs)
	if metrics != nil {
		metrics.GetServerMetrics().InitializeMetrics(srv)
	}
	return srv
}

// NewHealthServer starts NOT_SERVING until SetServing reports a load.
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	SetServing(hs, false)
	return hs
}

// SetServing flips both the overall and the file store status.
func SetServing(hs *health.Server, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(HealthService, status)
}
