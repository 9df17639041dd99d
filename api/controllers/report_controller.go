/*
 * @module api/controllers/report_controller
 * @description 报表控制器：参数可见性、报表生成、报表导出
 * @architecture MVC架构 - 控制器层
 * @rules 必填参数缺失返回 400；生成超时返回 504；不允许的导出格式返回 400
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/report/generator.go, service/report/export.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dynconfig-service/service/report"
)

// ReportController 报表控制器
type ReportController struct {
	generator *report.Generator
}

// NewReportController 创建报表控制器
func NewReportController(generator *report.Generator) *ReportController {
	return &ReportController{generator: generator}
}

// ReportExportRequest 报表导出请求
type ReportExportRequest struct {
	report.Request
	Format string `json:"format" example:"csv"`
}

// ParametersRequest 参数可见性请求
type ParametersRequest struct {
	Parameters map[string]interface{} `json:"parameters"`
}

// ParametersResponse 参数可见性响应
type ParametersResponse struct {
	Visibility map[string]bool `json:"visibility"`
}

// Parameters 按当前参数值求值各参数是否显示
// @Summary 求值报表参数可见性
// @Tags 报表
// @Accept json
// @Produce json
// @Param code path string true "报表编码"
// @Param request body ParametersRequest false "当前参数值"
// @Success 200 {object} APIResponse{data=ParametersResponse}
// @Router /reports/{code}/parameters [post]
func (c *ReportController) Parameters(w http.ResponseWriter, r *http.Request) {
	var req ParametersRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badJSON(w, r, err)
			return
		}
	}
	def, err := c.generator.Definition(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取参数状态成功", ParametersResponse{
		Visibility: report.ParameterVisibility(def, req.Parameters),
	}))
}

// Generate 生成报表
// @Summary 生成报表
// @Tags 报表
// @Accept json
// @Produce json
// @Param code path string true "报表编码"
// @Param request body report.Request false "报表参数"
// @Success 200 {object} APIResponse{data=report.Output}
// @Failure 400 {object} APIResponse
// @Failure 504 {object} APIResponse
// @Router /reports/{code}/generate [post]
func (c *ReportController) Generate(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badJSON(w, r, err)
			return
		}
	}
	out, err := c.generator.Generate(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("报表生成成功", out))
}

// Export 导出报表
// @Summary 导出报表
// @Tags 报表
// @Accept json
// @Produce octet-stream
// @Param code path string true "报表编码"
// @Param request body ReportExportRequest true "导出请求"
// @Success 200 {file} file
// @Failure 400 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /reports/{code}/export [post]
func (c *ReportController) Export(w http.ResponseWriter, r *http.Request) {
	var req ReportExportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badJSON(w, r, err)
		return
	}
	file, err := c.generator.Export(r.Context(), chi.URLParam(r, "code"), req.Request, req.Format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, file)
}
