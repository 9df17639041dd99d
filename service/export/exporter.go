/*
 * @module service/export/exporter
 * @description 导出：csv 进程内生成，pdf/excel 通过 Dapr 服务调用交给渲染服务
 * @architecture 策略路由 - 按格式选择生成方式
 * @stateFlow 列 + 已格式化行 -> 文件(名称, 格式, 内容类型, 内容)
 * @rules
 *   - 只支持 csv / excel / pdf，其他格式返回 ErrUnsupportedExportFormat
 *   - 未配置渲染服务时 pdf/excel 返回 ErrRendererUnavailable
 *   - 单元格统一转为展示文本，富格式（如成绩等级）取 value
 * @dependencies github.com/dapr/go-sdk/client
 * @refs deliverer.go, service/report, service/scheduler
 */

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	dapr "github.com/dapr/go-sdk/client"

	"dynconfig-service/service/format"
)

var (
	// ErrUnsupportedExportFormat 不支持的导出格式
	ErrUnsupportedExportFormat = errors.New("不支持的导出格式")
	// ErrRendererUnavailable 未配置 pdf/excel 渲染服务
	ErrRendererUnavailable = errors.New("导出渲染服务不可用")
)

// 导出格式
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

var formats = map[string]struct {
	ext         string
	contentType string
}{
	FormatCSV:   {"csv", "text/csv; charset=utf-8"},
	FormatExcel: {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	FormatPDF:   {"pdf", "application/pdf"},
}

// Supported 格式是否受支持
func Supported(f string) bool {
	_, ok := formats[f]
	return ok
}

// Column 导出列
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Document 待导出的数据
type Document struct {
	Title     string                   `json:"title"`
	Columns   []Column                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	Summaries map[string]interface{}   `json:"summaries,omitempty"`
	Meta      map[string]interface{}   `json:"meta,omitempty"`
}

// File 导出结果
type File struct {
	Name        string `json:"name"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// Exporter 导出器
type Exporter interface {
	Export(ctx context.Context, doc *Document, format string) (*File, error)
}

// Renderer 外部渲染服务（pdf/excel）
type Renderer interface {
	Render(ctx context.Context, doc *Document, format string) ([]byte, error)
}

// Service 按格式路由的导出器
type Service struct {
	renderer Renderer
	now      func() time.Time
}

// NewService 创建导出器，renderer 可为 nil
func NewService(renderer Renderer) *Service {
	return &Service{renderer: renderer, now: time.Now}
}

// Export 导出文档
func (s *Service) Export(ctx context.Context, doc *Document, f string) (*File, error) {
	spec, ok := formats[f]
	if !ok {
		return nil, fmt.Errorf("%q: %w", f, ErrUnsupportedExportFormat)
	}

	var content []byte
	var err error
	if f == FormatCSV {
		content, err = WriteCSV(doc)
	} else {
		if s.renderer == nil {
			return nil, fmt.Errorf("%s: %w", f, ErrRendererUnavailable)
		}
		content, err = s.renderer.Render(ctx, doc, f)
	}
	if err != nil {
		return nil, fmt.Errorf("导出 %s 失败: %w", f, err)
	}

	file := &File{
		Name:        fileName(doc.Title, spec.ext, s.now()),
		Format:      f,
		ContentType: spec.contentType,
		Content:     content,
	}
	slog.Debug("导出完成", "file", file.Name, "rows", len(doc.Rows), "bytes", len(content))
	return file, nil
}

// WriteCSV 生成带 BOM 的 UTF-8 csv，表头为列标签
func WriteCSV(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)

	header := make([]string, len(doc.Columns))
	for i, c := range doc.Columns {
		header[i] = c.Label
		if header[i] == "" {
			header[i] = c.Key
		}
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range doc.Rows {
		record := make([]string, len(doc.Columns))
		for i, c := range doc.Columns {
			record[i] = format.Text(row[c.Key])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	if len(doc.Summaries) > 0 {
		record := make([]string, len(doc.Columns))
		for i, c := range doc.Columns {
			if v, ok := doc.Summaries[c.Key]; ok {
				record[i] = format.Text(v)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_\-]+`)

func fileName(title, ext string, now time.Time) string {
	base := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(title), "_"), "_")
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), ext)
}

// methodInvoker Dapr 服务调用，dapr.Client 满足该接口
type methodInvoker interface {
	InvokeMethodWithContent(ctx context.Context, appID, methodName, verb string, content *dapr.DataContent) ([]byte, error)
}

// DaprRenderer 通过 Dapr 服务调用渲染 pdf/excel
type DaprRenderer struct {
	client methodInvoker
	appID  string
}

// NewDaprRenderer 创建渲染器，请求发送到 {appID}/render/{format}
func NewDaprRenderer(client methodInvoker, appID string) *DaprRenderer {
	return &DaprRenderer{client: client, appID: appID}
}

// Render 渲染文档
func (r *DaprRenderer) Render(ctx context.Context, doc *Document, f string) ([]byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("序列化导出数据失败: %w", err)
	}
	out, err := r.client.InvokeMethodWithContent(ctx, r.appID, "render/"+f, "post", &dapr.DataContent{
		ContentType: "application/json",
		Data:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("调用渲染服务 %s 失败: %w", r.appID, err)
	}
	return out, nil
}
