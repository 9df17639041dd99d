package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"dynconfig-service/service/definition"
	"dynconfig-service/service/export"
	"dynconfig-service/service/form"
	"dynconfig-service/service/report"
	"dynconfig-service/service/scheduler"
	"dynconfig-service/service/view"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 0, Msg: msg, Data: data}
}

// PaginatedSuccessResponse 分页成功响应
func PaginatedSuccessResponse(msg string, data interface{}, total int64, page, size int) *PaginatedResponse {
	return &PaginatedResponse{Status: 0, Msg: msg, Data: data, Total: total, Page: page, Size: size}
}

// ErrorResponse 错误响应，status 与 HTTP 状态码一致
func ErrorResponse(status int, msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: status, Msg: msg, Data: data}
}

// BadRequestResponse 参数错误响应
func BadRequestResponse(msg string, data interface{}) *APIResponse {
	return ErrorResponse(http.StatusBadRequest, msg, data)
}

// NotFoundResponse 资源不存在响应
func NotFoundResponse(msg string, data interface{}) *APIResponse {
	return ErrorResponse(http.StatusNotFound, msg, data)
}

// ConflictResponse 冲突响应
func ConflictResponse(msg string, data interface{}) *APIResponse {
	return ErrorResponse(http.StatusConflict, msg, data)
}

// InternalErrorResponse 服务内部错误响应
func InternalErrorResponse(msg string, data interface{}) *APIResponse {
	return ErrorResponse(http.StatusInternalServerError, msg, data)
}

// respond 写出响应并设置 HTTP 状态码
func respond(w http.ResponseWriter, r *http.Request, resp *APIResponse) {
	if resp.Status != 0 {
		render.Status(r, resp.Status)
	}
	render.JSON(w, r, resp)
}

// badJSON 请求体解析失败
func badJSON(w http.ResponseWriter, r *http.Request, err error) {
	respond(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
}

// errorStatus 业务错误到 HTTP 状态码的映射
var errorStatus = []struct {
	target error
	status int
}{
	{definition.ErrDefinitionNotFound, http.StatusNotFound},
	{view.ErrViewNotFound, http.StatusNotFound},
	{form.ErrSubmissionNotFound, http.StatusNotFound},
	{scheduler.ErrScheduleNotFound, http.StatusNotFound},
	{definition.ErrDuplicateCode, http.StatusConflict},
	{form.ErrSubmissionFinalized, http.StatusConflict},
	{form.ErrInvalidTransition, http.StatusConflict},
	{form.ErrConcurrentUpdate, http.StatusConflict},
	{form.ErrFormInactive, http.StatusConflict},
	{form.ErrWorkflowRoleMismatch, http.StatusForbidden},
	{export.ErrUnsupportedExportFormat, http.StatusBadRequest},
	{report.ErrMissingParameter, http.StatusBadRequest},
	{view.ErrInvalidView, http.StatusBadRequest},
	{export.ErrRendererUnavailable, http.StatusServiceUnavailable},
	{report.ErrGenerationTimeout, http.StatusGatewayTimeout},
}

// writeError 按错误类型写出统一错误响应
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var defErr *definition.ValidationError
	if errors.As(err, &defErr) {
		respond(w, r, BadRequestResponse(defErr.Error(), defErr.Fields))
		return
	}
	var formErr *form.ValidationErrors
	if errors.As(err, &formErr) {
		respond(w, r, ErrorResponse(http.StatusUnprocessableEntity, formErr.Error(), formErr.Fields))
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			respond(w, r, ErrorResponse(e.status, err.Error(), nil))
			return
		}
	}
	slog.Error("请求处理失败", "path", r.URL.Path, "error", err)
	respond(w, r, InternalErrorResponse(err.Error(), nil))
}

// pageParams 读取分页参数
func pageParams(r *http.Request) (page, size int) {
	q := r.URL.Query()
	return cast.ToInt(q.Get("page")), cast.ToInt(q.Get("size"))
}
