package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

const (
	refKeyPrefix  = "bloodbank:ref:"
	defaultKeyTTL = 30 * time.Second
)

// 只刪除自己 claim 的 key，避免 TTL 過期後誤刪別人的
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// IdempotencyGuard 以 SETNX 擋下同 ref_id 併發的重複請求
// 持久的去重仍由流水帳 ref_id unique index 負責
type IdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
	// ref_id -> 本次 claim 的 token
	tokens sync.Map
}

func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = defaultKeyTTL
	}
	return &IdempotencyGuard{client: client, ttl: ttl}
}

func (g *IdempotencyGuard) Claim(ctx context.Context, refID string) (bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, refKeyPrefix+refID, token, g.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		g.tokens.Store(refID, token)
	}
	return ok, nil
}

func (g *IdempotencyGuard) Release(ctx context.Context, refID string) error {
	v, ok := g.tokens.LoadAndDelete(refID)
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, g.client, []string{refKeyPrefix + refID}, v.(string)).Err()
}

var _ usecase.IdempotencyGuard = (*IdempotencyGuard)(nil)
