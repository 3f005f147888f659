package grpcx

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthCheckOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.SetServing("apptbook.booking", true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	defer func() {
		cancel()
		<-done
	}()

	conn, err := Dial("passthrough:///bufnet", DialOptions{},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := HealthCheck(context.Background(), conn, "apptbook.booking", 2*time.Second); err != nil {
		t.Fatalf("expected SERVING, got %v", err)
	}

	srv.SetServing("apptbook.booking", false)
	if err := HealthCheck(context.Background(), conn, "apptbook.booking", 2*time.Second); err == nil {
		t.Fatal("expected NOT_SERVING error")
	}
}

func TestUnaryServerRequestIDInterceptor(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-42"))

	var seen string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, func(ctx context.Context, _ any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "req-42" {
		t.Fatalf("expected req-42, got %q", seen)
	}
}

func TestUnaryClientRequestIDInterceptor(t *testing.T) {
	interceptor := UnaryClientRequestIDInterceptor()
	ctx := WithRequestID(context.Background(), "req-7")

	var got []string
	err := interceptor(ctx, "/x/y", nil, nil, nil, func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		got = md.Get(RequestIDMetadataKey)
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if len(got) != 1 || got[0] != "req-7" {
		t.Fatalf("expected outgoing req-7, got %v", got)
	}
}
