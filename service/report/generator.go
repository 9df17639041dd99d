/*
 * @module service/report/generator
 * @description 报表生成：参数解析 -> 查询引擎取数 -> 格式化/样式 -> 汇总 -> 图表
 * @architecture 服务层 - 交互式生成、导出与定时任务共用同一条流水线
 * @stateFlow 参数 -> 筛选条件 -> 全量行（不分页）-> 格式化行 + 汇总 + 图表 + 元信息
 * @rules
 *   - 参数作为筛选条件进入查询白名单，字段不在报表字段/参数中的一律丢弃
 *   - 生成遵守调用方 context 截止时间，超时返回 ErrGenerationTimeout，不返回部分汇总
 *   - 导出格式必须在报表定义允许的格式内
 * @dependencies service/query, service/format, service/aggregate, service/export
 * @refs parameters.go, service/scheduler
 */

package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dynconfig-service/service/aggregate"
	"dynconfig-service/service/export"
	"dynconfig-service/service/format"
	"dynconfig-service/service/models"
	"dynconfig-service/service/monitoring"
	"dynconfig-service/service/query"
)

// ErrGenerationTimeout 报表生成超时，可重试
var ErrGenerationTimeout = errors.New("报表生成超时")

// ReportLoader 按编码加载报表定义
type ReportLoader interface {
	GetReport(ctx context.Context, code string) (*models.ReportDefinition, error)
}

// Request 报表生成请求
type Request struct {
	Parameters    map[string]interface{} `json:"parameters"`
	Search        string                 `json:"search,omitempty"`
	SortField     string                 `json:"sort_field,omitempty"`
	SortDirection string                 `json:"sort_direction,omitempty"`
}

// ColumnInfo 输出列
type ColumnInfo struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	DataType models.DataType `json:"data_type"`
}

// Meta 生成元信息
type Meta struct {
	RowCount        int                    `json:"row_count"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
	GeneratedAt     time.Time              `json:"generated_at"`
	Parameters      map[string]interface{} `json:"parameters"`
}

// Output 报表生成结果
type Output struct {
	Code               string                 `json:"code"`
	Name               string                 `json:"name"`
	ReportType         string                 `json:"report_type"`
	Version            int                    `json:"version"`
	Columns            []ColumnInfo           `json:"columns"`
	Rows               []format.Row           `json:"rows"`
	Summaries          map[string]interface{} `json:"summaries"`
	FormattedSummaries map[string]interface{} `json:"formatted_summaries"`
	Charts             []aggregate.ChartData  `json:"charts"`
	Meta               Meta                   `json:"meta"`
}

// Generator 报表生成器
type Generator struct {
	reports   ReportLoader
	engine    *query.Engine
	formatter *format.Formatter
	exporter  export.Exporter
	timeout   time.Duration
	now       func() time.Time
}

// NewGenerator 创建报表生成器，timeout 为 0 时只使用调用方的截止时间
func NewGenerator(reports ReportLoader, engine *query.Engine, formatter *format.Formatter, exporter export.Exporter, timeout time.Duration) *Generator {
	return &Generator{
		reports:   reports,
		engine:    engine,
		formatter: formatter,
		exporter:  exporter,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Definition 加载报表定义
func (g *Generator) Definition(ctx context.Context, code string) (*models.ReportDefinition, error) {
	return g.reports.GetReport(ctx, code)
}

// Generate 按编码生成报表
func (g *Generator) Generate(ctx context.Context, code string, req Request) (*Output, error) {
	def, err := g.reports.GetReport(ctx, code)
	if err != nil {
		return nil, err
	}
	return g.GenerateReport(ctx, def, req)
}

// GenerateReport 生成报表
func (g *Generator) GenerateReport(ctx context.Context, def *models.ReportDefinition, req Request) (out *Output, err error) {
	start := g.now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failed"
			if errors.Is(err, ErrGenerationTimeout) {
				status = "timeout"
			}
		}
		monitoring.ReportGenerations.WithLabelValues(def.Code, status).Inc()
		monitoring.ReportDuration.WithLabelValues(def.Code).Observe(time.Since(start).Seconds())
	}()

	params, err := ResolveParameters(def, req.Parameters)
	if err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err := g.engine.Run(ctx, query.SchemaFromReport(def), query.Request{
		Search:        req.Search,
		Filters:       params,
		SortField:     req.SortField,
		SortDirection: req.SortDirection,
		All:           true,
	})
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	out = &Output{
		Code:       def.Code,
		Name:       def.Name,
		ReportType: def.ReportType,
		Version:    def.Version,
		Rows:       g.formatter.FormatRows(format.ColumnsFromReport(def.Fields), result.Rows),
	}
	for _, f := range def.Fields {
		if f.Visible {
			out.Columns = append(out.Columns, ColumnInfo{Key: f.Key, Label: labelOr(f.Label, f.Key), DataType: f.DataType})
		}
	}
	out.Summaries, out.FormattedSummaries = g.summaries(def, result.Rows)
	out.Charts = make([]aggregate.ChartData, 0, len(def.Charts))
	for _, c := range def.Charts {
		out.Charts = append(out.Charts, aggregate.BuildChart(c, result.Rows))
	}

	// 汇总完成后再次检查截止时间，超时不返回部分结果
	if ctx.Err() != nil {
		return nil, timeoutOr(ctx, ctx.Err())
	}

	out.Meta = Meta{
		RowCount:        len(result.Rows),
		ExecutionTimeMs: g.now().Sub(start).Milliseconds(),
		GeneratedAt:     start,
		Parameters:      params,
	}
	slog.Info("报表生成完成", "report", def.Code, "rows", out.Meta.RowCount, "ms", out.Meta.ExecutionTimeMs)
	return out, nil
}

func (g *Generator) summaries(def *models.ReportDefinition, rows []map[string]interface{}) (map[string]interface{}, map[string]interface{}) {
	raw := make(map[string]interface{})
	formatted := make(map[string]interface{})
	for _, f := range def.Fields {
		if !f.IsSummary || f.SummaryFunction == "" {
			continue
		}
		value := aggregate.Aggregate(rows, f.Field, f.SummaryFunction)
		raw[f.Key] = value
		dataType := f.DataType
		if f.SummaryFunction == models.AggCount {
			dataType = models.DataTypeNumber
		}
		formatted[f.Key] = g.formatter.Format(value, dataType, f.FormatOptions)
	}
	return raw, formatted
}

func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}
	return err
}

func labelOr(label, key string) string {
	if label != "" {
		return label
	}
	return key
}
