package rate_limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScripter struct {
	keys   []string
	args   []interface{}
	result interface{}
	err    error
}

func (f *fakeScripter) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.keys = keys
	f.args = args
	return redis.NewCmdResult(f.result, f.err)
}

func newLimiter(f *fakeScripter) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: f,
		prefix: DefaultPrefix,
		now:    func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestCheck_Allowed(t *testing.T) {
	fake := &fakeScripter{result: []interface{}{int64(1), int64(3), int64(42)}}
	result, err := newLimiter(fake).Check(context.Background(), RateLimitRule{
		Scope: "export", TargetID: "u1", TimeWindow: 60, MaxRequests: 10,
	})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 10, result.Limit)
	assert.Equal(t, 7, result.Remaining)
	assert.Equal(t, int64(1700000042), result.ResetAt)
	assert.Equal(t, []string{"dynconfig:ratelimit:export:u1:60"}, fake.keys)
	assert.Equal(t, []interface{}{10, 60}, fake.args)
}

func TestCheck_Limited(t *testing.T) {
	fake := &fakeScripter{result: []interface{}{int64(0), int64(10), int64(5)}}
	result, err := newLimiter(fake).Check(context.Background(), RateLimitRule{
		Scope: "export", TargetID: "u1", TimeWindow: 60, MaxRequests: 10,
	})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestCheck_NoLimit(t *testing.T) {
	fake := &fakeScripter{err: errors.New("不应调用")}
	result, err := newLimiter(fake).Check(context.Background(), RateLimitRule{Scope: "export", TargetID: "u1"})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Nil(t, fake.keys)
}

func TestCheck_Errors(t *testing.T) {
	rule := RateLimitRule{Scope: "export", TargetID: "u1", TimeWindow: 60, MaxRequests: 1}

	_, err := newLimiter(&fakeScripter{err: errors.New("connection refused")}).Check(context.Background(), rule)
	assert.ErrorContains(t, err, "connection refused")

	_, err = newLimiter(&fakeScripter{result: "OK"}).Check(context.Background(), rule)
	assert.Error(t, err)
}
