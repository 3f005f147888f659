package grpcx

import (
	"context"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server bundles a grpc.Server with the standard health service.
type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
	logger *slog.Logger
}

func NewServer(logger *slog.Logger, extra ...grpc.ServerOption) *Server {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLoggingInterceptor(logger),
		),
	}
	opts = append(opts, extra...)

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &Server{GRPC: srv, Health: hs, logger: logger}
}

// SetServing marks service (and the server as a whole) as SERVING or NOT_SERVING.
func (s *Server) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", st)
	if service != "" {
		s.Health.SetServingStatus(service, st)
	}
}

// Serve blocks until ctx is cancelled or the listener fails, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.GRPC.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.Health.Shutdown()
		s.GRPC.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
