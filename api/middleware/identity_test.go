package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	var got UserInfo
	handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserInfo(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, " u42 ")
	req.Header.Set(HeaderUserRole, "advisor")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, UserInfo{UserID: "u42", Role: "advisor"}, got)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, AnonymousUser, got.UserID)
	assert.Empty(t, got.Role)
}

func TestGetUserInfo_NoMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, AnonymousUser, GetUserInfo(req.Context()).UserID)
}
