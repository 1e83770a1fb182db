package usecase

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger *zap.Logger
	now    func() time.Time
	guard  IdempotencyGuard
}

// Option 定義了 UseCase 的配置選項函數
type Option func(*options)

// WithLogger 設定 logger，未設定時不輸出
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIdempotencyGuard 設定 ref_id 併發保護 (例如 Redis)
func WithIdempotencyGuard(guard IdempotencyGuard) Option {
	return func(o *options) {
		o.guard = guard
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
