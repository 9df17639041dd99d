/*
 * @module service/query/engine
 * @description 查询引擎：搜索 -> 筛选 -> 排序 -> 分页 的单一线性流水线
 * @architecture 服务层 - 无状态，每个请求独立执行
 * @stateFlow 请求 -> BuildPredicates/BuildSort -> RecordSource.Fetch -> 分页结果
 * @rules
 *   - 搜索仅在请求给出关键词且定义启用搜索时生效，在可搜索字段上做 OR
 *   - 仅在定义启用分页时分页；每页条数必须在允许列表中，否则使用默认值
 *   - 报表（All=true）不分页
 * @dependencies service/definition (TableLoader)
 * @refs builder.go, source.go, service/report
 */

package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"dynconfig-service/service/models"
)

// Request 查询请求
type Request struct {
	Search        string                 `json:"search,omitempty"`
	Filters       map[string]interface{} `json:"filters,omitempty"`
	SortField     string                 `json:"sort_field,omitempty"`
	SortDirection string                 `json:"sort_direction,omitempty"`
	Page          int                    `json:"page,omitempty"`
	PerPage       int                    `json:"per_page,omitempty"`
	All           bool                   `json:"-"` // 不分页，取全部匹配记录
}

// Result 查询结果
type Result struct {
	Rows     []map[string]interface{} `json:"rows"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PerPage  int                      `json:"per_page"`
	LastPage int                      `json:"last_page"`
}

// TableLoader 按编码加载表格定义
type TableLoader interface {
	GetTable(ctx context.Context, code string) (*models.TableDefinition, error)
}

// Engine 查询引擎
type Engine struct {
	sources *SourceRegistry
	tables  TableLoader
}

// NewEngine 创建查询引擎
func NewEngine(sources *SourceRegistry, tables TableLoader) *Engine {
	return &Engine{sources: sources, tables: tables}
}

// Sources 记录源注册中心
func (e *Engine) Sources() *SourceRegistry {
	return e.sources
}

// RunTable 加载表格定义并执行查询
func (e *Engine) RunTable(ctx context.Context, code string, req Request) (*Result, error) {
	table, err := e.tables.GetTable(ctx, code)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, SchemaFromTable(table), req)
}

// Plan 把请求翻译为白名单内的取数描述，不含分页
func Plan(s *Schema, req Request) FetchSpec {
	spec := FetchSpec{
		Predicates: BuildPredicates(s, req.Filters),
		Sort:       BuildSort(s, req.SortField, req.SortDirection),
	}
	term := strings.TrimSpace(req.Search)
	if term != "" && s.SearchEnabled {
		if fields := s.SearchFields(); len(fields) > 0 {
			spec.Search = &SearchSpec{Term: term, Fields: fields}
		}
	}
	return spec
}

// Run 按查询白名单执行请求
func (e *Engine) Run(ctx context.Context, s *Schema, req Request) (*Result, error) {
	source, err := e.sources.Get(s.Source)
	if err != nil {
		return nil, err
	}

	spec := Plan(s, req)

	page, perPage := 1, 0
	paginate := s.Pagination && !req.All
	if paginate {
		page = req.Page
		if page < 1 {
			page = 1
		}
		perPage = req.PerPage
		if !s.pageSizeAllowed(perPage) {
			perPage = s.DefaultPageSize
		}
		spec.Limit = perPage
		spec.Offset = (page - 1) * perPage
	}

	fetched, err := source.Fetch(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("记录源 %s 查询失败: %w", s.Source, err)
	}

	result := &Result{
		Rows:     fetched.Rows,
		Total:    fetched.Total,
		Page:     page,
		PerPage:  perPage,
		LastPage: 1,
	}
	if !paginate {
		result.PerPage = len(fetched.Rows)
	} else if fetched.Total > 0 {
		result.LastPage = int((fetched.Total + int64(perPage) - 1) / int64(perPage))
	}

	slog.Debug("查询完成", "schema", s.Code, "source", s.Source,
		"predicates", len(spec.Predicates), "total", result.Total)
	return result, nil
}

// RequestFromQuery 从 URL 查询参数构建请求：filters[key]=value 形式的筛选
func RequestFromQuery(values map[string][]string) Request {
	req := Request{Filters: map[string]interface{}{}}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch {
		case key == "search":
			req.Search = vals[0]
		case key == "sort_field" || key == "sort":
			req.SortField = vals[0]
		case key == "sort_direction" || key == "direction":
			req.SortDirection = vals[0]
		case key == "page":
			req.Page = cast.ToInt(vals[0])
		case key == "per_page":
			req.PerPage = cast.ToInt(vals[0])
		case strings.HasPrefix(key, "filters[") && strings.HasSuffix(key, "]"):
			name := strings.TrimSuffix(strings.TrimPrefix(key, "filters["), "]")
			if len(vals) > 1 {
				items := make([]interface{}, len(vals))
				for i, v := range vals {
					items[i] = v
				}
				req.Filters[name] = items
			} else {
				req.Filters[name] = vals[0]
			}
		}
	}
	return req
}
