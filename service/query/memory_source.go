package query

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// MemorySource 进程内记录源，用于静态字典数据和测试
type MemorySource struct {
	rows []map[string]interface{}
}

// NewMemorySource 创建内存记录源
func NewMemorySource(rows []map[string]interface{}) *MemorySource {
	return &MemorySource{rows: rows}
}

type rowMatcher func(actual, value interface{}) bool

var memoryPredicates = map[models.FilterOperator]rowMatcher{
	models.OpEquals:    func(a, v interface{}) bool { return a != nil && compare.LooseEqual(a, v) },
	models.OpNotEquals: func(a, v interface{}) bool { return a != nil && !compare.LooseEqual(a, v) },
	models.OpContains: func(a, v interface{}) bool {
		return a != nil && compare.ContainsFold(a, compare.ToString(v))
	},
	models.OpStartsWith: func(a, v interface{}) bool {
		return a != nil && strings.HasPrefix(strings.ToLower(compare.ToString(a)), strings.ToLower(compare.ToString(v)))
	},
	models.OpEndsWith: func(a, v interface{}) bool {
		return a != nil && strings.HasSuffix(strings.ToLower(compare.ToString(a)), strings.ToLower(compare.ToString(v)))
	},
	models.OpGreaterThan: compare.GreaterThan,
	models.OpLessThan:    compare.LessThan,
	models.OpBetween:     compare.Between,
	models.OpIn:          compare.In,
	models.OpNotIn:       func(a, v interface{}) bool { return a != nil && !compare.In(a, v) },
	models.OpIsNull:      func(a, _ interface{}) bool { return a == nil },
	models.OpIsNotNull:   func(a, _ interface{}) bool { return a != nil },
	models.OpDateEquals: func(a, v interface{}) bool {
		c, ok := compare.CompareDates(a, v)
		return ok && c == 0
	},
	models.OpDateBefore: func(a, v interface{}) bool {
		c, ok := compare.CompareDates(a, v)
		return ok && c < 0
	},
	models.OpDateAfter: func(a, v interface{}) bool {
		c, ok := compare.CompareDates(a, v)
		return ok && c > 0
	},
	models.OpDateBetween: func(a, v interface{}) bool {
		lo, hi, ok := compare.Range(v)
		if !ok {
			return false
		}
		c1, ok1 := compare.CompareDates(a, lo)
		c2, ok2 := compare.CompareDates(a, hi)
		return ok1 && ok2 && c1 >= 0 && c2 <= 0
	},
}

// Fetch 在内存中筛选、搜索、排序并分页，语义与 SQL 记录源一致（NULL 不满足否定条件）
func (m *MemorySource) Fetch(ctx context.Context, spec FetchSpec) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := make([]map[string]interface{}, 0, len(m.rows))
	for _, row := range m.rows {
		if m.matches(row, spec) {
			matched = append(matched, row)
		}
	}

	if len(spec.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, s := range spec.Sort {
				c := compareForSort(matched[i][s.Field], matched[j][s.Field])
				if c == 0 {
					continue
				}
				if s.Direction == models.SortDesc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	total := int64(len(matched))
	if spec.Limit > 0 {
		start := spec.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + spec.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return &FetchResult{Rows: matched, Total: total}, nil
}

func (m *MemorySource) matches(row map[string]interface{}, spec FetchSpec) bool {
	for _, p := range spec.Predicates {
		match, ok := memoryPredicates[p.Operator]
		if ok && !match(row[p.Field], p.Value) {
			return false
		}
	}
	if spec.Search != nil && spec.Search.Term != "" && len(spec.Search.Fields) > 0 {
		for _, f := range spec.Search.Fields {
			if row[f] != nil && compare.ContainsFold(row[f], spec.Search.Term) {
				return true
			}
		}
		return false
	}
	return true
}

// compareForSort nil 排在最前
func compareForSort(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, _ := compare.Compare(a, b)
	return c
}

// LoadStaticRows 读取 YAML 列表形式的静态行
func LoadStaticRows(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取静态数据 %s 失败: %w", path, err)
	}
	var rows []map[string]interface{}
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("解析静态数据 %s 失败: %w", path, err)
	}
	return rows, nil
}
