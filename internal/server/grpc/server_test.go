package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Additional-Code/frostline/pkg/errorbank"
)

func TestHealthReportsServingStatus(t *testing.T) {
	hs := health.NewServer()
	server := NewServer(zap.NewNop(), hs)

	ln := bufconn.Listen(1 << 16)
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return ln.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	hs.SetServingStatus("frostline", healthpb.HealthCheckResponse_SERVING)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "frostline"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	hs.Shutdown()
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "frostline"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "invoices"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestToStatusMapsApplicationErrors(t *testing.T) {
	assert.NoError(t, toStatus(nil))

	err := toStatus(errorbank.Upstream("backend unavailable"))
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, "backend unavailable", status.Convert(err).Message())

	err = toStatus(errorbank.NotFound("order not found in view"))
	assert.Equal(t, codes.NotFound, status.Code(err))

	passthrough := status.Error(codes.Unavailable, "down")
	assert.Equal(t, passthrough, toStatus(passthrough))
}
