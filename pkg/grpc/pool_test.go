package grpc

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/test/bufconn"

	bloodbank "github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

func startServer(t *testing.T) *bufconn.Listener {
	t.Helper()
	store, err := memory.NewStore(nil)
	require.NoError(t, err)
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	bloodbank.RegisterBloodBankServer(srv, bloodbank.NewGrpcServer(usecase.NewCoreUseCase(store, store), nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis
}

func bufDialer(lis *bufconn.Listener) PoolOption {
	return WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
}

func TestNewPool_RoundRobin(t *testing.T) {
	p, err := NewPool("passthrough:///bloodbank:50051", WithSize(3))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.Size())
	assert.Equal(t, "passthrough:///bloodbank:50051", p.Target())

	seen := make([]*grpc.ClientConn, 6)
	for i := range seen {
		seen[i], err = p.Conn()
		require.NoError(t, err)
	}
	assert.Same(t, seen[0], seen[3])
	assert.Same(t, seen[1], seen[4])
	assert.NotSame(t, seen[0], seen[1])
	assert.NotSame(t, seen[1], seen[2])
}

func TestNewPool_DefaultSize(t *testing.T) {
	p, err := NewPool("passthrough:///bloodbank:50051", WithSize(0))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, DefaultSize, p.Size())
}

func TestPool_CallsServiceWithInterceptors(t *testing.T) {
	lis := startServer(t)

	var calls atomic.Int32
	var methods sync.Map
	p, err := NewPool("passthrough:///bufnet",
		WithSize(2),
		bufDialer(lis),
		WithInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			calls.Add(1)
			methods.Store(method, true)
			return invoker(ctx, method, req, reply, cc, opts...)
		}),
	)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		conn, err := p.Conn()
		require.NoError(t, err)
		resp, err := bloodbank.NewClient(conn).GetUnits(ctx, &bloodbank.GetUnitsRequest{BloodGroup: "O+"})
		require.NoError(t, err)
		assert.False(t, resp.Found)
	}

	assert.Equal(t, int32(4), calls.Load())
	_, ok := methods.Load("/" + bloodbank.ServiceName + "/GetUnits")
	assert.True(t, ok)
}

func TestClose(t *testing.T) {
	p, err := NewPool("passthrough:///bloodbank:50051", WithSize(2))
	require.NoError(t, err)

	conn, err := p.Conn()
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.Equal(t, connectivity.Shutdown, conn.GetState())

	_, err = p.Conn()
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NoError(t, p.Close())
}
