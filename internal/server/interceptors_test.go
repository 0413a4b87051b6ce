package server

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/PlayCard"}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var order []string
	mark := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			order = append(order, name+":in")
			resp, err := handler(ctx, req)
			order = append(order, name+":out")
			return resp, err
		}
	}

	chain := ChainUnaryInterceptors(mark("a"), mark("b"))
	resp, err := chain(context.Background(), "req", testInfo, func(_ context.Context, req any) (any, error) {
		order = append(order, "handler")
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	assert.Equal(t, []string{"a:in", "b:in", "handler", "b:out", "a:out"}, order)
}

func TestRecoveryInterceptorConvertsPanics(t *testing.T) {
	interceptor := RecoveryInterceptor(zap.NewNop())
	_, err := interceptor(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		panic("catalog miss after validation")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestErrorInterceptorMapsDomainCodes(t *testing.T) {
	interceptor := ErrorInterceptor()
	fail := func(err error) grpc.UnaryHandler {
		return func(context.Context, any) (any, error) { return nil, err }
	}

	_, err := interceptor(context.Background(), nil, testInfo, fail(apperrors.New(apperrors.CodeNotEnoughGCD, "gcd 0")))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = interceptor(context.Background(), nil, testInfo, fail(apperrors.New(apperrors.CodeVersionConflict, "stale")))
	assert.Equal(t, codes.Aborted, status.Code(err))

	_, err = interceptor(context.Background(), nil, testInfo, fail(errors.New("disk on fire")))
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := interceptor(context.Background(), "req", testInfo, func(_ context.Context, req any) (any, error) {
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
}
