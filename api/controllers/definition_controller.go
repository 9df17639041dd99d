/*
 * @module api/controllers/definition_controller
 * @description 定义管理控制器：表格、表单、报表定义的增删改查与定义包导入
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数解析 -> definition.Store -> 统一响应
 * @rules 编码通过路径参数指定且不可修改；校验失败返回字段级错误
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/definition/store.go, service/definition/bundle.go
 */

package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"dynconfig-service/service/definition"
	"dynconfig-service/service/models"
)

// DefinitionController 定义管理控制器
type DefinitionController struct {
	store *definition.Store
}

// NewDefinitionController 创建定义管理控制器
func NewDefinitionController(store *definition.Store) *DefinitionController {
	return &DefinitionController{store: store}
}

func listFilter(r *http.Request) definition.ListFilter {
	page, size := pageParams(r)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	f := definition.ListFilter{Search: r.URL.Query().Get("search"), Page: page, Size: size}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := cast.ToBool(raw)
		f.IsActive = &active
	}
	return f
}

// ListTables 获取表格定义列表
// @Summary 获取表格定义列表
// @Tags 定义管理
// @Produce json
// @Param search query string false "名称或编码关键词"
// @Param is_active query bool false "是否启用"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse
// @Router /tables [get]
func (c *DefinitionController) ListTables(w http.ResponseWriter, r *http.Request) {
	f := listFilter(r)
	tables, total, err := c.store.ListTables(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("获取表格定义列表成功", tables, total, f.Page, f.Size))
}

// GetTable 获取表格定义
// @Summary 获取表格定义
// @Tags 定义管理
// @Produce json
// @Param code path string true "表格编码"
// @Success 200 {object} APIResponse{data=models.TableDefinition}
// @Failure 404 {object} APIResponse
// @Router /tables/{code} [get]
func (c *DefinitionController) GetTable(w http.ResponseWriter, r *http.Request) {
	t, err := c.store.GetTable(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取表格定义成功", t))
}

// CreateTable 创建表格定义
// @Summary 创建表格定义
// @Tags 定义管理
// @Accept json
// @Produce json
// @Param request body models.TableDefinition true "表格定义"
// @Success 201 {object} APIResponse{data=models.TableDefinition}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /tables [post]
func (c *DefinitionController) CreateTable(w http.ResponseWriter, r *http.Request) {
	var t models.TableDefinition
	if err := render.DecodeJSON(r.Body, &t); err != nil {
		badJSON(w, r, err)
		return
	}
	if err := c.store.CreateTable(r.Context(), &t); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("创建表格定义成功", &t))
}

// UpdateTable 更新表格定义
// @Summary 更新表格定义
// @Tags 定义管理
// @Accept json
// @Produce json
// @Param code path string true "表格编码"
// @Param request body models.TableDefinition true "表格定义"
// @Success 200 {object} APIResponse{data=models.TableDefinition}
// @Router /tables/{code} [put]
func (c *DefinitionController) UpdateTable(w http.ResponseWriter, r *http.Request) {
	var t models.TableDefinition
	if err := render.DecodeJSON(r.Body, &t); err != nil {
		badJSON(w, r, err)
		return
	}
	updated, err := c.store.UpdateTable(r.Context(), chi.URLParam(r, "code"), &t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新表格定义成功", updated))
}

// DeleteTable 删除表格定义
// @Summary 删除表格定义
// @Description 同时删除该表格上的所有保存视图
// @Tags 定义管理
// @Produce json
// @Param code path string true "表格编码"
// @Success 200 {object} APIResponse
// @Router /tables/{code} [delete]
func (c *DefinitionController) DeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := c.store.DeleteTable(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("删除表格定义成功", nil))
}

// ListForms 获取表单定义列表
// @Summary 获取表单定义列表
// @Tags 定义管理
// @Produce json
// @Param search query string false "名称或编码关键词"
// @Param is_active query bool false "是否启用"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse
// @Router /forms [get]
func (c *DefinitionController) ListForms(w http.ResponseWriter, r *http.Request) {
	f := listFilter(r)
	forms, total, err := c.store.ListForms(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("获取表单定义列表成功", forms, total, f.Page, f.Size))
}

// GetForm 获取表单定义
// @Summary 获取表单定义
// @Tags 定义管理
// @Produce json
// @Param code path string true "表单编码"
// @Success 200 {object} APIResponse{data=models.FormDefinition}
// @Router /forms/{code} [get]
func (c *DefinitionController) GetForm(w http.ResponseWriter, r *http.Request) {
	f, err := c.store.GetForm(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取表单定义成功", f))
}

// CreateForm 创建表单定义
// @Summary 创建表单定义
// @Tags 定义管理
// @Accept json
// @Produce json
// @Param request body models.FormDefinition true "表单定义"
// @Success 201 {object} APIResponse{data=models.FormDefinition}
// @Router /forms [post]
func (c *DefinitionController) CreateForm(w http.ResponseWriter, r *http.Request) {
	var f models.FormDefinition
	if err := render.DecodeJSON(r.Body, &f); err != nil {
		badJSON(w, r, err)
		return
	}
	if err := c.store.CreateForm(r.Context(), &f); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("创建表单定义成功", &f))
}

// UpdateForm 更新表单定义
// @Summary 更新表单定义
// @Tags 定义管理
// @Accept json
// @Produce json
// @Param code path string true "表单编码"
// @Param request body models.FormDefinition true "表单定义"
// @Success 200 {object} APIResponse{data=models.FormDefinition}
// @Router /forms/{code} [put]
func (c *DefinitionController) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var f models.FormDefinition
	if err := render.DecodeJSON(r.Body, &f); err != nil {
		badJSON(w, r, err)
		return
	}
	updated, err := c.store.UpdateForm(r.Context(), chi.URLParam(r, "code"), &f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新表单定义成功", updated))
}

// DeleteForm 删除表单定义
// @Summary 删除表单定义
// @Description 已有提交记录保留
// @Tags 定义管理
// @Produce json
// @Param code path string true "表单编码"
// @Success 200 {object} APIResponse
// @Router /forms/{code} [delete]
func (c *DefinitionController) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := c.store.DeleteForm(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("删除表单定义成功", nil))
}

// ListReports 获取报表定义列表
// @Summary 获取报表定义列表
// @Tags 定义管理
// @Produce json
// @Param search query string false "名称或编码关键词"
// @Param is_active query bool false "是否启用"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse
// @Router /reports [get]
func (c *DefinitionController) ListReports(w http.ResponseWriter, r *http.Request) {
	f := listFilter(r)
	reports, total, err := c.store.ListReports(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("获取报表定义列表成功", reports, total, f.Page, f.Size))
}

// GetReport 获取报表定义
// @Summary 获取报表定义
// @Tags 定义管理
// @Produce json
// @Param code path string true "报表编码"
// @Success 200 {object} APIResponse{data=models.ReportDefinition}
// @Router /reports/{code} [get]
func (c *DefinitionController) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := c.store.GetReport(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取报表定义成功", rep))
}

// CreateReport 创建报表定义
// @Summary 创建报表定义
// @Tags 定义管理
// @Accept json
// @Produce json
// @Param request body models.ReportDefinition true "报表定义"
// @Success 201 {object} APIResponse{data=models.ReportDefinition}
// @Router /reports [post]
func (c *DefinitionController) CreateReport(w http.ResponseWriter, r *http.Request) {
	var rep models.ReportDefinition
	if err := render.DecodeJSON(r.Body, &rep); err != nil {
		badJSON(w, r, err)
		return
	}
	if err := c.store.CreateReport(r.Context(), &rep); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("创建报表定义成功", &rep))
}

// UpdateReport 更新报表定义
// @Summary 更新报表定义
// @Tags 定义管理
// @Accept json
// @Produce json
// @Param code path string true "报表编码"
// @Param request body models.ReportDefinition true "报表定义"
// @Success 200 {object} APIResponse{data=models.ReportDefinition}
// @Router /reports/{code} [put]
func (c *DefinitionController) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var rep models.ReportDefinition
	if err := render.DecodeJSON(r.Body, &rep); err != nil {
		badJSON(w, r, err)
		return
	}
	updated, err := c.store.UpdateReport(r.Context(), chi.URLParam(r, "code"), &rep)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新报表定义成功", updated))
}

// DeleteReport 删除报表定义
// @Summary 删除报表定义
// @Description 同时删除该报表的定时任务
// @Tags 定义管理
// @Produce json
// @Param code path string true "报表编码"
// @Success 200 {object} APIResponse
// @Router /reports/{code} [delete]
func (c *DefinitionController) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := c.store.DeleteReport(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("删除报表定义成功", nil))
}

// ImportBundle 导入定义包
// @Summary 导入定义包
// @Description 请求体为 YAML 或 JSON 定义包，按编码创建或更新；单个定义失败不影响其他定义
// @Tags 定义管理
// @Accept json
// @Accept x-yaml
// @Produce json
// @Success 200 {object} APIResponse{data=definition.ImportResult}
// @Router /definitions/import [post]
func (c *DefinitionController) ImportBundle(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		badJSON(w, r, err)
		return
	}
	bundle, err := definition.ParseBundle(data)
	if err != nil {
		respond(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	result := c.store.ImportBundle(r.Context(), bundle)
	render.JSON(w, r, SuccessResponse("定义包导入完成", result))
}
