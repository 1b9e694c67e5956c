package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestServer_Check(t *testing.T) {
	ctx := context.Background()
	var probeErr error
	s := NewServer(func(context.Context) error { return probeErr }, 0)

	s.check(ctx)
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	probeErr = errors.New("store unreachable")
	s.check(ctx)
	resp, err = s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestServer_NilProbeServes(t *testing.T) {
	ctx := context.Background()
	s := NewServer(nil, 0)
	s.check(ctx)

	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
