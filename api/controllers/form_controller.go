/*
 * @module api/controllers/form_controller
 * @description 表单控制器：布局求值、校验规则、提交与审批动作
 * @architecture MVC架构 - 控制器层
 * @stateFlow 请求 -> 身份上下文 -> form.Service -> 统一响应
 * @rules 操作人身份取自身份中间件；校验失败返回 422 与字段级错误
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/form/service.go, service/form/workflow.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dynconfig-service/api/middleware"
	"dynconfig-service/service/form"
	"dynconfig-service/service/models"
)

// FormController 表单控制器
type FormController struct {
	forms *form.Service
}

// NewFormController 创建表单控制器
func NewFormController(forms *form.Service) *FormController {
	return &FormController{forms: forms}
}

// LayoutRequest 布局求值请求
type LayoutRequest struct {
	Data map[string]interface{} `json:"data"`
}

// ActionRequest 审批动作请求
type ActionRequest struct {
	Notes string                 `json:"notes,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

func actor(r *http.Request) form.Actor {
	user := middleware.GetUserInfo(r.Context())
	return form.Actor{UserID: user.UserID, Role: user.Role}
}

// Layout 按当前数据求值表单布局
// @Summary 求值表单布局
// @Description 返回在给定数据下可见的分区与字段，计算字段已求值
// @Tags 表单
// @Accept json
// @Produce json
// @Param code path string true "表单编码"
// @Param request body LayoutRequest false "当前表单数据"
// @Success 200 {object} APIResponse{data=form.Layout}
// @Router /forms/{code}/layout [post]
func (c *FormController) Layout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badJSON(w, r, err)
			return
		}
	}
	layout, err := c.forms.Layout(r.Context(), chi.URLParam(r, "code"), req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取表单布局成功", layout))
}

// Rules 获取表单校验规则
// @Summary 获取表单校验规则
// @Tags 表单
// @Produce json
// @Param code path string true "表单编码"
// @Success 200 {object} APIResponse
// @Router /forms/{code}/rules [get]
func (c *FormController) Rules(w http.ResponseWriter, r *http.Request) {
	rules, err := c.forms.Rules(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取校验规则成功", rules))
}

// Submit 提交表单
// @Summary 提交表单
// @Description draft=true 时保存草稿且不校验
// @Tags 表单
// @Accept json
// @Produce json
// @Param code path string true "表单编码"
// @Param request body form.SubmitRequest true "提交内容"
// @Success 201 {object} APIResponse{data=models.FormSubmission}
// @Failure 422 {object} APIResponse
// @Router /forms/{code}/submissions [post]
func (c *FormController) Submit(w http.ResponseWriter, r *http.Request) {
	var req form.SubmitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badJSON(w, r, err)
		return
	}
	sub, err := c.forms.Submit(r.Context(), chi.URLParam(r, "code"), actor(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("提交成功", sub))
}

// ListSubmissions 获取表单提交列表
// @Summary 获取表单提交列表
// @Tags 表单
// @Produce json
// @Param code path string true "表单编码"
// @Param status query string false "状态"
// @Param submitted_by query string false "提交人"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse
// @Router /forms/{code}/submissions [get]
func (c *FormController) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	filter := form.SubmissionFilter{
		Status:      r.URL.Query().Get("status"),
		SubmittedBy: r.URL.Query().Get("submitted_by"),
		Page:        page,
		Size:        size,
	}
	subs, total, err := c.forms.List(r.Context(), chi.URLParam(r, "code"), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("获取提交列表成功", subs, total, page, size))
}

// GetSubmission 获取提交详情
// @Summary 获取提交详情
// @Tags 表单
// @Produce json
// @Param id path string true "提交ID"
// @Success 200 {object} APIResponse{data=models.FormSubmission}
// @Router /submissions/{id} [get]
func (c *FormController) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := c.forms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取提交成功", sub))
}

// Act 执行审批动作
// @Summary 执行审批动作
// @Description action 取值 submit、approve、reject、return、resubmit
// @Tags 表单
// @Accept json
// @Produce json
// @Param id path string true "提交ID"
// @Param action path string true "动作"
// @Param request body ActionRequest false "备注与新数据"
// @Success 200 {object} APIResponse{data=models.FormSubmission}
// @Failure 403 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /submissions/{id}/{action} [post]
func (c *FormController) Act(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	switch action {
	case models.ActionSubmit, models.ActionApprove, models.ActionReject, models.ActionReturn, models.ActionResubmit:
	default:
		respond(w, r, BadRequestResponse("不支持的审批动作: "+action, nil))
		return
	}
	var req ActionRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badJSON(w, r, err)
			return
		}
	}
	sub, err := c.forms.Act(r.Context(), chi.URLParam(r, "id"), action, actor(r), req.Notes, req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("审批动作执行成功", sub))
}
