// Package grpc exposes the standard gRPC health service so orchestrators can
// probe the backend without going through the HTTP API.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"troop-backend/internal/logger"
)

// ServiceName is the health service name reported alongside the overall "" status.
const ServiceName = "troop.Backend"

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	probe    Probe
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewServer builds a health server that runs probe every interval. A nil probe
// reports SERVING unconditionally.
func NewServer(probe Probe, interval time.Duration) *Server {
	s := &Server{
		grpc:     grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor)),
		health:   health.NewServer(),
		probe:    probe,
		interval: interval,
		stop:     make(chan struct{}),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)

	// Register reflection service for grpcurl
	reflection.Register(s.grpc)
	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.check(context.Background())
	go s.loop()
	return s.grpc.Serve(lis)
}

func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.grpc.GracefulStop()
	})
}

func (s *Server) loop() {
	if s.probe == nil || s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.check(context.Background())
		}
	}
}

func (s *Server) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.probe(ctx); err != nil {
			logger.Warn("Health probe failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("gRPC call", "method", info.FullMethod, "duration", time.Since(start), "error", err)
	return resp, err
}
