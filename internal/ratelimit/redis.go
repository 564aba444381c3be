package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps rate windows in Redis so multiple instances share one
// counter per (route, client). The window lifetime is enforced with PEXPIRE;
// rollover needs no explicit reset.
type RedisStore struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

// NewRedisStore constructs a store over the provided client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(luaFixedWindowScript),
		prefix: "ratelimit:",
	}
}

// Counter starts at the first request of a window and expires with it. The
// counter may pass the ceiling on denied requests; admitted requests never do.
const luaFixedWindowScript = `
local key = KEYS[1]
local max = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local count = redis.call("INCR", key)
if count == 1 then
  redis.call("PEXPIRE", key, window_ms)
end
local ttl = redis.call("PTTL", key)
if ttl < 0 then
  redis.call("PEXPIRE", key, window_ms)
  ttl = window_ms
end

if count > max then
  return { 0, 0, ttl }
end
return { 1, max - count, ttl }
`

// Admit implements Store atomically via the Lua script.
func (s *RedisStore) Admit(ctx context.Context, key string, p Policy, _ time.Time) (Decision, error) {
	res, err := s.script.Run(ctx, s.client, []string{s.prefix + key},
		p.Max, p.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Allowed: res[0] == 1, Remaining: int(res[1])}
	if !d.Allowed {
		d.RetryAfter = time.Duration(res[2]) * time.Millisecond
	}
	return d, nil
}
