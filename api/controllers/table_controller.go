/*
 * @module api/controllers/table_controller
 * @description 表格数据控制器：按定义查询、格式化、导出表格数据
 * @architecture MVC架构 - 控制器层
 * @stateFlow 请求参数 -> 合并保存视图 -> 查询引擎 -> 格式化 -> 响应/导出文件
 * @rules
 *   - 未指定视图时使用用户的默认视图
 *   - 导出不分页，只包含可导出且可见的列
 *   - 表格限定了导出格式时，其他格式返回 400
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/query/engine.go, service/view/apply.go, service/export/exporter.go
 */

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dynconfig-service/api/middleware"
	"dynconfig-service/service/export"
	"dynconfig-service/service/format"
	"dynconfig-service/service/models"
	"dynconfig-service/service/query"
	"dynconfig-service/service/view"
)

// TableController 表格数据控制器
type TableController struct {
	tables    query.TableLoader
	engine    *query.Engine
	views     *view.Service
	formatter *format.Formatter
	exporter  export.Exporter
}

// NewTableController 创建表格数据控制器
func NewTableController(tables query.TableLoader, engine *query.Engine, views *view.Service, formatter *format.Formatter, exporter export.Exporter) *TableController {
	return &TableController{tables: tables, engine: engine, views: views, formatter: formatter, exporter: exporter}
}

// TableDataRequest 表格数据查询请求
type TableDataRequest struct {
	query.Request
	ViewID string `json:"view_id,omitempty"`
}

// TableExportRequest 表格导出请求
type TableExportRequest struct {
	TableDataRequest
	Format string `json:"format" example:"csv"`
}

// TableDataResponse 表格数据响应
type TableDataResponse struct {
	Columns  []models.ColumnDefinition `json:"columns"`
	Rows     []format.Row              `json:"rows"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	PerPage  int                       `json:"per_page"`
	LastPage int                       `json:"last_page"`
	ViewID   string                    `json:"view_id,omitempty"`
}

// resolveView 显式指定的视图必须存在；默认视图不存在时不使用视图
func (c *TableController) resolveView(r *http.Request, code, viewID string) (*models.ViewDefinition, error) {
	userID := middleware.GetUserInfo(r.Context()).UserID
	if viewID != "" {
		return c.views.Get(r.Context(), code, viewID, userID)
	}
	v, err := c.views.DefaultFor(r.Context(), code, userID)
	if errors.Is(err, view.ErrViewNotFound) {
		return nil, nil
	}
	return v, err
}

func (c *TableController) query(r *http.Request, code string, req TableDataRequest) (*TableDataResponse, error) {
	table, err := c.tables.GetTable(r.Context(), code)
	if err != nil {
		return nil, err
	}
	v, err := c.resolveView(r, code, req.ViewID)
	if err != nil {
		return nil, err
	}
	schema := query.SchemaFromTable(table)
	result, err := c.engine.Run(r.Context(), schema, view.ApplyTo(schema, v, req.Request))
	if err != nil {
		return nil, err
	}
	cols := view.Columns(table, v)
	resp := &TableDataResponse{
		Columns:  cols,
		Rows:     c.formatter.FormatRows(format.ColumnsFromTable(cols), result.Rows),
		Total:    result.Total,
		Page:     result.Page,
		PerPage:  result.PerPage,
		LastPage: result.LastPage,
	}
	if v != nil {
		resp.ViewID = v.ID
	}
	return resp, nil
}

// GetData 查询表格数据
// @Summary 查询表格数据
// @Description 支持 search、sort_field、sort_direction、page、per_page 以及 filters[key]=value 形式的筛选
// @Tags 表格数据
// @Produce json
// @Param code path string true "表格编码"
// @Param view_id query string false "保存视图ID"
// @Success 200 {object} APIResponse{data=TableDataResponse}
// @Failure 404 {object} APIResponse
// @Router /tables/{code}/data [get]
func (c *TableController) GetData(w http.ResponseWriter, r *http.Request) {
	req := TableDataRequest{
		Request: query.RequestFromQuery(r.URL.Query()),
		ViewID:  r.URL.Query().Get("view_id"),
	}
	resp, err := c.query(r, chi.URLParam(r, "code"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询表格数据成功", resp))
}

// QueryData 以请求体查询表格数据
// @Summary 以请求体查询表格数据
// @Tags 表格数据
// @Accept json
// @Produce json
// @Param code path string true "表格编码"
// @Param request body TableDataRequest true "查询请求"
// @Success 200 {object} APIResponse{data=TableDataResponse}
// @Router /tables/{code}/data [post]
func (c *TableController) QueryData(w http.ResponseWriter, r *http.Request) {
	var req TableDataRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badJSON(w, r, err)
		return
	}
	req.All = false
	resp, err := c.query(r, chi.URLParam(r, "code"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询表格数据成功", resp))
}

// Export 导出表格数据
// @Summary 导出表格数据
// @Description 按当前搜索、筛选、排序导出全部匹配记录
// @Tags 表格数据
// @Accept json
// @Produce octet-stream
// @Param code path string true "表格编码"
// @Param request body TableExportRequest true "导出请求"
// @Success 200 {file} file
// @Failure 400 {object} APIResponse
// @Router /tables/{code}/export [post]
func (c *TableController) Export(w http.ResponseWriter, r *http.Request) {
	var req TableExportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badJSON(w, r, err)
		return
	}
	code := chi.URLParam(r, "code")
	table, err := c.tables.GetTable(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !export.Supported(req.Format) ||
		(len(table.Settings.ExportFormats) > 0 && !slices.Contains(table.Settings.ExportFormats, req.Format)) {
		writeError(w, r, fmt.Errorf("%w: %q", export.ErrUnsupportedExportFormat, req.Format))
		return
	}
	v, err := c.resolveView(r, code, req.ViewID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	schema := query.SchemaFromTable(table)
	q := view.ApplyTo(schema, v, req.Request)
	q.All = true
	result, err := c.engine.Run(r.Context(), schema, q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var cols []models.ColumnDefinition
	for _, col := range view.Columns(table, v) {
		if col.Exportable {
			cols = append(cols, col)
		}
	}
	rows := c.formatter.FormatRows(format.ColumnsFromTable(cols), result.Rows)
	doc := &export.Document{
		Title: table.Name,
		Rows:  make([]map[string]interface{}, 0, len(rows)),
		Meta:  map[string]interface{}{"table": table.Code, "total": result.Total},
	}
	for _, col := range cols {
		doc.Columns = append(doc.Columns, export.Column{Key: col.Key, Label: col.Label})
	}
	for _, row := range rows {
		doc.Rows = append(doc.Rows, row.Formatted)
	}

	file, err := c.exporter.Export(r.Context(), doc, req.Format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, file)
}

// writeFile 以附件形式写出导出文件
func writeFile(w http.ResponseWriter, file *export.File) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}
