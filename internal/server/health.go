package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// HealthServer implements grpc_health_v1.HealthServer. Spec §4.9 says the
// health probe always returns SERVING while the process is up, so there
// is no per-service state to track: any service name (including the
// empty string, meaning "the whole server") reports SERVING.
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
}

// NewHealthServer builds a HealthServer.
func NewHealthServer() *HealthServer {
	return &HealthServer{}
}

// Check answers a single health probe.
func (h *HealthServer) Check(
	_ context.Context,
	_ *grpc_health_v1.HealthCheckRequest,
) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

// Watch streams health updates. Since status never changes while the
// process runs, it sends one SERVING response and then blocks until the
// client disconnects.
func (h *HealthServer) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}); err != nil {
		return status.Error(codes.Unavailable, err.Error())
	}
	<-stream.Context().Done()
	return stream.Context().Err()
}
