/*
 * @module service/definition/bundle
 * @description 定义包导入：YAML 描述的表格/表单/报表定义按编码创建或更新
 * @architecture 批处理 - 启动时加载配置目录中的定义包，也可通过接口导入
 * @stateFlow YAML -> 通用结构 -> JSON -> 模型（应用默认值）-> 逐个 Upsert
 * @rules 单个定义失败不影响其他定义，错误按 kind:code 汇总返回
 * @dependencies gopkg.in/yaml.v3
 * @refs store.go, api/controllers/definition_controller.go
 */

package definition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"dynconfig-service/service/models"
)

// Bundle 定义包
type Bundle struct {
	Tables  []models.TableDefinition  `json:"tables"`
	Forms   []models.FormDefinition   `json:"forms"`
	Reports []models.ReportDefinition `json:"reports"`
}

// ImportResult 导入结果
type ImportResult struct {
	Tables  int               `json:"tables"`
	Forms   int               `json:"forms"`
	Reports int               `json:"reports"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (r *ImportResult) fail(kind, code string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[kind+":"+code] = err.Error()
}

// ParseBundle 解析 YAML（JSON 是 YAML 的子集，同样适用）定义包
func ParseBundle(data []byte) (*Bundle, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析定义包失败: %w", err)
	}
	// 经 JSON 转换一次，使模型的 JSON 默认值与自定义解析生效
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("转换定义包失败: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(encoded, &b); err != nil {
		return nil, fmt.Errorf("定义包结构错误: %w", err)
	}
	return &b, nil
}

// ImportBundle 导入定义包
func (s *Store) ImportBundle(ctx context.Context, b *Bundle) *ImportResult {
	result := &ImportResult{}
	for i := range b.Tables {
		t := &b.Tables[i]
		if err := s.UpsertTable(ctx, t); err != nil {
			result.fail(kindTable, t.Code, err)
			continue
		}
		result.Tables++
	}
	for i := range b.Forms {
		f := &b.Forms[i]
		if err := s.UpsertForm(ctx, f); err != nil {
			result.fail(kindForm, f.Code, err)
			continue
		}
		result.Forms++
	}
	for i := range b.Reports {
		r := &b.Reports[i]
		if err := s.UpsertReport(ctx, r); err != nil {
			result.fail(kindReport, r.Code, err)
			continue
		}
		result.Reports++
	}
	return result
}

// LoadBundleFiles 按 glob 模式加载定义包文件
func (s *Store) LoadBundleFiles(ctx context.Context, patterns []string) error {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("无效的定义包路径 %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("读取定义包 %s 失败: %w", file, err)
		}
		b, err := ParseBundle(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		result := s.ImportBundle(ctx, b)
		slog.Info("定义包导入完成", "file", file,
			"tables", result.Tables, "forms", result.Forms, "reports", result.Reports,
			"errors", len(result.Errors))
		for key, msg := range result.Errors {
			slog.Warn("定义导入失败", "file", file, "definition", key, "error", msg)
		}
	}
	return nil
}
