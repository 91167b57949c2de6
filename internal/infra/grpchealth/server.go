package grpchealth

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "comazon.Store"

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	checks []Checker
}

func New(checks ...Checker) *Server {
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		checks: checks,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Refresh runs every checker and flips the store service status accordingly.
func (s *Server) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			log.Printf("health check failed: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
			break
		}
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks until ctx is cancelled, refreshing status every interval.
func (s *Server) Serve(ctx context.Context, lis net.Listener, interval time.Duration) error {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	log.Printf("gRPC health server listening on %s", lis.Addr())
	return s.grpc.Serve(lis)
}
