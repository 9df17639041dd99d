package report

import (
	"context"
	"fmt"

	"dynconfig-service/service/export"
	"dynconfig-service/service/models"
)

// formatAllowed 报表定义未列出导出格式时接受所有受支持的格式
func formatAllowed(def *models.ReportDefinition, f string) bool {
	if !export.Supported(f) {
		return false
	}
	return len(def.ExportFormats) == 0 || def.ExportFormats.Contains(f)
}

// Export 生成并导出报表
func (g *Generator) Export(ctx context.Context, code string, req Request, f string) (*export.File, error) {
	def, err := g.reports.GetReport(ctx, code)
	if err != nil {
		return nil, err
	}
	return g.ExportReport(ctx, def, req, f)
}

// ExportReport 生成并导出已加载的报表定义
func (g *Generator) ExportReport(ctx context.Context, def *models.ReportDefinition, req Request, f string) (*export.File, error) {
	if !formatAllowed(def, f) {
		return nil, fmt.Errorf("报表 %s 不支持 %q: %w", def.Code, f, export.ErrUnsupportedExportFormat)
	}
	out, err := g.GenerateReport(ctx, def, req)
	if err != nil {
		return nil, err
	}
	return g.exporter.Export(ctx, out.Document(), f)
}

// Document 转换为导出文档，单元格使用格式化后的值
func (o *Output) Document() *export.Document {
	doc := &export.Document{
		Title:     o.Name,
		Columns:   make([]export.Column, len(o.Columns)),
		Rows:      make([]map[string]interface{}, len(o.Rows)),
		Summaries: o.FormattedSummaries,
		Meta: map[string]interface{}{
			"code":         o.Code,
			"row_count":    o.Meta.RowCount,
			"generated_at": o.Meta.GeneratedAt,
			"parameters":   o.Meta.Parameters,
		},
	}
	for i, c := range o.Columns {
		doc.Columns[i] = export.Column{Key: c.Key, Label: c.Label}
	}
	for i, r := range o.Rows {
		doc.Rows[i] = r.Formatted
	}
	return doc
}

// RunSchedule 按定时任务的固定参数与格式生成导出文件
func (g *Generator) RunSchedule(ctx context.Context, s *models.ReportSchedule) (*export.File, error) {
	return g.Export(ctx, s.ReportCode, Request{Parameters: s.Parameters}, s.ExportFormat)
}
