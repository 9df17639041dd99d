/*
 * @module api/middleware/identity
 * @description 请求身份中间件，从网关注入的请求头中读取用户与角色
 * @architecture 中间件模式 - HTTP请求拦截和上下文注入
 * @stateFlow 读取请求头 -> 上下文注入 -> 下一个处理器
 * @rules 鉴权由网关完成，本服务只读取身份；缺少用户头时以匿名身份继续
 * @dependencies net/http, context
 * @refs api/routes.go, api/controllers/view_controller.go, api/controllers/form_controller.go
 */

package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	// UserInfoKey 用户信息在上下文中的键
	UserInfoKey ContextKey = "user_info"

	// HeaderUserID 用户ID请求头
	HeaderUserID = "X-User-ID"
	// HeaderUserRole 用户角色请求头
	HeaderUserRole = "X-User-Role"

	// AnonymousUser 匿名用户ID
	AnonymousUser = "anonymous"
)

// UserInfo 用户信息
type UserInfo struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Identity 身份中间件
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := UserInfo{
			UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Role:   strings.TrimSpace(r.Header.Get(HeaderUserRole)),
		}
		if info.UserID == "" {
			info.UserID = AnonymousUser
		}
		ctx := context.WithValue(r.Context(), UserInfoKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserInfo 从上下文读取用户信息
func GetUserInfo(ctx context.Context) UserInfo {
	if info, ok := ctx.Value(UserInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{UserID: AnonymousUser}
}
