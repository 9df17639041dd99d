/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供服务存活与就绪状态
 * @architecture MVC架构 - 控制器层
 * @rules 存活检查不访问依赖；就绪检查要求数据库可连接
 * @dependencies net/http
 */

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Version 服务版本
const Version = "1.0.0"

// HealthController 健康检查控制器
type HealthController struct {
	ping func(ctx context.Context) error
}

// NewHealthController 创建健康检查控制器实例，ping 为空时就绪检查总是成功
func NewHealthController(ping func(ctx context.Context) error) *HealthController {
	return &HealthController{ping: ping}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"dynconfig-service"`
	Error     string    `json:"error,omitempty"`
}

func healthResponse(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   Version,
		Service:   "dynconfig-service",
	}
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse("ok"))
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查数据库是否可连接
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	if c.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.ping(ctx); err != nil {
			resp := healthResponse("unavailable")
			resp.Error = err.Error()
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, resp)
			return
		}
	}
	render.JSON(w, r, healthResponse("ready"))
}
