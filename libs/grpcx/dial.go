package grpcx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type DialOptions struct {
	// If nil, defaults to insecure credentials (local dev, or mTLS terminated by a mesh).
	TransportCredentials grpc.DialOption
}

// Dial creates a lazily connecting client. Use HealthCheck to block until the peer serves.
func Dial(addr string, opts DialOptions, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(UnaryClientRequestIDInterceptor()),
	}
	if opts.TransportCredentials != nil {
		dialOpts = append(dialOpts, opts.TransportCredentials)
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, extra...)

	return grpc.NewClient(addr, dialOpts...)
}

// HealthCheck asks the standard health service whether service is SERVING.
// An empty service name checks the server as a whole.
func HealthCheck(ctx context.Context, conn grpc.ClientConnInterface, service string, timeout time.Duration) error {
	if conn == nil {
		return errors.New("grpc connection not configured")
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("grpc health %q: %s", service, resp.GetStatus())
	}
	return nil
}
