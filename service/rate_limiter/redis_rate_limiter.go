/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 基于Redis的分布式限流，限制每个用户在时间窗口内的导出与报表生成次数
 * @architecture 工具层 - 提供分布式限流能力
 * @stateFlow 构造限流Key -> Lua脚本原子计数 -> 判断是否超限
 * @rules 使用Redis INCR和EXPIRE实现固定窗口计数；多实例共享同一计数
 * @dependencies github.com/go-redis/redis/v8
 * @refs api/middleware/rate_limit.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultPrefix 限流Key前缀
const DefaultPrefix = "dynconfig:ratelimit:"

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetAt   int64 `json:"reset_at"` // Unix时间戳
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Scope       string // 限流范围，如 export
	TargetID    string // 目标ID，通常为用户ID
	TimeWindow  int    // 时间窗口（秒）
	MaxRequests int
}

// Limiter 限流器
type Limiter interface {
	Check(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error)
}

// scripter Eval 的最小接口，便于替换
type scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisRateLimiter Redis限流器
type RedisRateLimiter struct {
	client scripter
	prefix string
	now    func() time.Time
}

// NewRedisRateLimiter 创建Redis限流器
func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisRateLimiter{client: client, prefix: prefix, now: time.Now}
}

// 超限时不再计数；首次计数时设置过期时间
const checkScript = `
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	if current >= max_requests then
		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end
		return {0, current, ttl}
	end

	local new_count = redis.call('INCR', key)
	if new_count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end
	return {1, new_count, ttl}
`

// Check 检查并计数一次请求
func (r *RedisRateLimiter) Check(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	if rule.MaxRequests <= 0 {
		return &RateLimitResult{Allowed: true, Limit: -1, Remaining: -1}, nil
	}
	key := r.buildRateLimitKey(rule)
	raw, err := r.client.Eval(ctx, checkScript, []string{key}, rule.MaxRequests, rule.TimeWindow).Result()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("限流脚本返回格式错误: %v", raw)
	}
	nums := make([]int64, len(values))
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("限流脚本返回格式错误: %v", raw)
		}
		nums[i] = n
	}

	remaining := rule.MaxRequests - int(nums[1])
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   nums[0] == 1,
		Limit:     rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   r.now().Add(time.Duration(nums[2]) * time.Second).Unix(),
	}, nil
}

// buildRateLimitKey 构造限流Key
func (r *RedisRateLimiter) buildRateLimitKey(rule RateLimitRule) string {
	return fmt.Sprintf("%s%s:%s:%d", r.prefix, rule.Scope, rule.TargetID, rule.TimeWindow)
}
