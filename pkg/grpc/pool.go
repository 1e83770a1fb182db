package grpc

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// DefaultSize 預設的連線數
const DefaultSize = 4

// ErrPoolClosed Close 之後再取連線
var ErrPoolClosed = errors.New("grpc pool closed")

// Pool 通往單一血庫服務的一組連線，多個站點輪流使用
// 每條連線都帶上 JSON content-subtype 與固定的 keepalive 設定
type Pool struct {
	target string
	conns  []*grpc.ClientConn
	next   atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

type poolOptions struct {
	size         int
	subtype      string
	interceptors []grpc.UnaryClientInterceptor
	dialOpts     []grpc.DialOption
}

// PoolOption 定義了 Pool 的配置選項函數
type PoolOption func(*poolOptions)

// WithSize 設定連線數，小於 1 時使用 DefaultSize
func WithSize(n int) PoolOption {
	return func(o *poolOptions) {
		o.size = n
	}
}

// WithContentSubtype 設定每次呼叫使用的 codec 名稱 (預設 "json")
func WithContentSubtype(name string) PoolOption {
	return func(o *poolOptions) {
		o.subtype = name
	}
}

// WithInterceptor 加入 UnaryClientInterceptor，依加入順序串接
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(o *poolOptions) {
		o.interceptors = append(o.interceptors, interceptor)
	}
}

// WithDialOptions 額外的 DialOption (測試時可帶 bufconn dialer)
func WithDialOptions(opts ...grpc.DialOption) PoolOption {
	return func(o *poolOptions) {
		o.dialOpts = append(o.dialOpts, opts...)
	}
}

// NewPool 建立 size 條通往 target 的連線
//
// 參數:
//
//	target: 服務地址 (e.g., "localhost:50051")
//	opts: 可選的配置
//
// 回傳值:
//
//	*Pool: 連線池
//	error: 任一連線建立失敗時回傳，已建立的連線會被關閉
func NewPool(target string, opts ...PoolOption) (*Pool, error) {
	o := poolOptions{size: DefaultSize, subtype: "json"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.size < 1 {
		o.size = DefaultSize
	}

	dialOpts := []grpc.DialOption{
		// 站點與血庫在同一內網，不走 TLS
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(o.subtype)),
	}
	if len(o.interceptors) > 0 {
		dialOpts = append(dialOpts, grpc.WithChainUnaryInterceptor(o.interceptors...))
	}
	dialOpts = append(dialOpts, o.dialOpts...)

	p := &Pool{target: target, conns: make([]*grpc.ClientConn, 0, o.size)}
	for i := 0; i < o.size; i++ {
		// grpc.NewClient 不會立即連線，第一次呼叫時才建立
		conn, err := grpc.NewClient(target, dialOpts...)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create grpc client for target %s: %w", target, err)
		}
		p.conns = append(p.conns, conn)
	}
	return p, nil
}

// Target 連線目標
func (p *Pool) Target() string {
	return p.target
}

// Size 連線數
func (p *Pool) Size() int {
	return len(p.conns)
}

// Conn 以 round-robin 取一條連線
func (p *Pool) Conn() (*grpc.ClientConn, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	n := p.next.Add(1) - 1
	return p.conns[n%uint64(len(p.conns))], nil
}

// Close 關閉所有連線，可重複呼叫
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, conn := range p.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
