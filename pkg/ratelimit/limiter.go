package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Rule is a token bucket refilling Limit tokens per Window, holding at most
// Limit+Burst tokens.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

func (r Rule) capacity() int {
	return max(r.Limit+r.Burst, 1)
}

func (r Rule) window() time.Duration {
	if r.Window <= 0 {
		return time.Minute
	}
	return r.Window
}

// Result is the outcome of one decision.
type Result struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// tokenBucket keeps tokens and the last refill time (ms) in one hash per key.
// Returns {allowed, tokens_left, retry_after_ms}.
const tokenBucket = `
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

if now > ts then
    tokens = math.min(capacity, tokens + (now - ts) * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
else
    wait = math.ceil((1 - tokens) / rate)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {allowed, math.floor(tokens), wait}
`

// RedisLimiter shares buckets across replicas through Redis.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	rule   Rule
	script *redis.Script
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client redis.Scripter, prefix string, rule Rule) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		rule:   rule,
		script: redis.NewScript(tokenBucket),
		now:    time.Now,
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	windowMs := l.rule.window().Milliseconds()
	refill := float64(max(l.rule.Limit, 1)) / float64(windowMs)

	raw, err := l.script.Run(ctx, l.client, []string{l.prefix + ":" + key},
		l.now().UnixMilli(),
		strconv.FormatFloat(refill, 'f', 10, 64),
		l.rule.capacity(),
		windowMs*2,
	).Slice()
	if err != nil {
		return Result{}, err
	}
	if len(raw) != 3 {
		return Result{}, errors.New("unexpected token bucket response")
	}

	return Result{
		Allowed:    toInt(raw[0]) == 1,
		Remaining:  max(toInt(raw[1]), 0),
		Limit:      l.rule.Limit,
		RetryAfter: time.Duration(toInt(raw[2])) * time.Millisecond,
	}, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

// LocalLimiter keeps buckets in process memory. Buckets idle for two windows
// are dropped.
type LocalLimiter struct {
	mu      sync.Mutex
	rule    Rule
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const pruneAbove = 10000

// NewLocalLimiter creates an in-process limiter.
func NewLocalLimiter(rule Rule) *LocalLimiter {
	return &LocalLimiter{rule: rule, buckets: make(map[string]*bucket), now: time.Now}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.buckets) > pruneAbove {
		l.prune(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		every := l.rule.window() / time.Duration(max(l.rule.Limit, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), l.rule.capacity())}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := Result{Limit: l.rule.Limit}
	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = time.Duration(math.Ceil(float64(delay)/float64(time.Millisecond))) * time.Millisecond
	} else {
		res.Allowed = true
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	return res, nil
}

func (l *LocalLimiter) prune(now time.Time) {
	idle := 2 * l.rule.window()
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(l.buckets, k)
		}
	}
}
