package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)

local data = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = burst
  ts = now
else
  local delta = math.max(0, now - ts)
  tokens = math.min(burst, tokens + (delta / 1000) * rate)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", ts)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), ts}
`

var ErrInvalidBucket = errors.New("rate limiter rate and burst must be positive")

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Bucket admits one request per token; tokens refill continuously at rate per
// second up to burst.
type Bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error)
}

type RedisTokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisTokenBucket(client *redis.Client) *RedisTokenBucket {
	return &RedisTokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

func (t *RedisTokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error) {
	if rate <= 0 || burst <= 0 {
		return &Result{}, ErrInvalidBucket
	}

	res, err := t.script.Run(
		ctx,
		t.client,
		[]string{key},
		rate,
		burst,
		bucketTTL(rate, burst).Milliseconds(),
	).Slice()
	if err != nil {
		return &Result{}, err
	}
	if len(res) < 3 {
		return &Result{}, errors.New("invalid rate limit script response")
	}

	allowed := toInt64(res[0]) == 1
	remaining := toFloat64(res[1])
	return newResult(allowed, remaining, rate, burst), nil
}

type localBucket struct {
	tokens float64
	ts     time.Time
}

// LocalTokenBucket keeps buckets in process memory.
type LocalTokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

func NewLocalTokenBucket(now func() time.Time) *LocalTokenBucket {
	if now == nil {
		now = time.Now
	}
	return &LocalTokenBucket{buckets: make(map[string]*localBucket), now: now}
}

func (t *LocalTokenBucket) Allow(_ context.Context, key string, rate float64, burst int) (*Result, error) {
	if rate <= 0 || burst <= 0 {
		return &Result{}, ErrInvalidBucket
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		b = &localBucket{tokens: float64(burst), ts: now}
		t.buckets[key] = b
	} else {
		elapsed := now.Sub(b.ts).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		b.tokens = math.Min(float64(burst), b.tokens+elapsed*rate)
		b.ts = now
	}

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}
	return newResult(allowed, b.tokens, rate, burst), nil
}

func newResult(allowed bool, remaining, rate float64, burst int) *Result {
	var retryAfter time.Duration
	if !allowed {
		if needed := 1 - remaining; needed > 0 {
			retryAfter = time.Duration(needed / rate * float64(time.Second))
		}
	}
	return &Result{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  int(remaining),
		RetryAfter: retryAfter,
	}
}

func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Ceil((float64(burst) / rate) * 2)
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

func toInt64(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	case string:
		parsed, _ := strconv.ParseInt(val, 10, 64)
		return parsed
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case string:
		parsed, _ := strconv.ParseFloat(val, 64)
		return parsed
	default:
		return 0
	}
}
