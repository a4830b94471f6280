package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/config"
	"github.com/md-rashed-zaman/bookora/libs/grpcx"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/grpcserver"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// runHealthcheck backs `booking-service healthcheck`, the container probe. It exits non-zero
// unless the local gRPC health service reports SERVING.
func runHealthcheck() int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	addr := "127.0.0.1:" + config.String("GRPC_PORT", "9093")
	if err := probeHealth(ctx, addr); err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		return 1
	}
	return 0
}

func probeHealth(ctx context.Context, addr string) error {
	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 2 * time.Second})
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s", grpcserver.ServiceName, resp.GetStatus())
	}
	return nil
}
