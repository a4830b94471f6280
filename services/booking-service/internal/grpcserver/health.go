// Package grpcserver exposes the standard gRPC health service so meshes and load balancers
// can probe booking-service readiness without HTTP.
package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/grpcx"
	"github.com/md-rashed-zaman/bookora/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key callers probe in addition to the overall "" key.
const ServiceName = "bookora.booking.v1.BookingService"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	checks []runtime.ReadyCheck
	logger *slog.Logger
}

func New(logger *slog.Logger, checks ...runtime.ReadyCheck) *Server {
	srv := grpcx.NewServer([]grpc.UnaryServerInterceptor{grpcx.UnaryServerLogInterceptor(logger)})
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{grpc: srv, health: hs, checks: checks, logger: logger}
}

func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Refresh probes every dependency once and publishes the result.
func (s *Server) Refresh(ctx context.Context) bool {
	failures := runtime.CheckAll(ctx, s.checks)
	status := healthpb.HealthCheckResponse_SERVING
	if len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("dependencies not ready", "failures", failures)
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return len(failures) == 0
}

// Watch refreshes health every interval until ctx ends, then marks the server as shutting down.
func (s *Server) Watch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	s.Refresh(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
