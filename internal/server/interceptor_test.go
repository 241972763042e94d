package server

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/joseph-ayodele/siape-analyzer/internal/common"
)

func TestUnaryLoggingLogsHeaderFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	interceptor := UnaryLogging(logger)

	// no server transport stream in ctx, so SetHeader fails
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-42"))
	var seen string
	resp, err := interceptor(ctx, "in", &grpc.UnaryServerInfo{FullMethod: "/siape.v1.AnalysisService/ListLenders"},
		func(ctx context.Context, req any) (any, error) {
			seen = common.RequestIDFromContext(ctx)
			return "out", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "out", resp)
	assert.Equal(t, "req-42", seen)
	out := buf.String()
	assert.Contains(t, out, "set request id header failed")
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "rpc ok")
}
