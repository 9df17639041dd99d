package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"dynconfig-service/service/rate_limiter"
)

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Check(_ context.Context, rule rate_limiter.RateLimitRule) (*rate_limiter.RateLimitResult, error) {
	args := m.Called(rule.Scope, rule.TargetID, rule.MaxRequests)
	result, _ := args.Get(0).(*rate_limiter.RateLimitResult)
	return result, args.Error(1)
}

func serve(h http.Handler, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/export", nil)
	req.Header.Set(HeaderUserID, user)
	w := httptest.NewRecorder()
	Identity(h).ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	limiter := &mockLimiter{}
	limiter.On("Check", "export", "u1", 5).Return(&rate_limiter.RateLimitResult{Allowed: true, Limit: 5, Remaining: 4}, nil)
	limiter.On("Check", "export", "u2", 5).Return(&rate_limiter.RateLimitResult{Allowed: false, Limit: 5}, nil)
	limiter.On("Check", "export", "u3", 5).Return(nil, errors.New("redis down"))
	h := RateLimit(limiter, "export", 5)(ok)

	w := serve(h, "u1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(h, "u2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Redis 故障时放行
	w = serve(h, "u3")
	assert.Equal(t, http.StatusOK, w.Code)
	limiter.AssertExpectations(t)
}

func TestRateLimit_Disabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(RateLimit(nil, "export", 5)(ok), "u1").Code)

	limiter := &mockLimiter{}
	assert.Equal(t, http.StatusOK, serve(RateLimit(limiter, "export", 0)(ok), "u1").Code)
	limiter.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}
