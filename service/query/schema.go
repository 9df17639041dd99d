/*
 * @module service/query/schema
 * @description 查询白名单：由表格/报表定义派生出的可查询字段集合
 * @architecture 安全边界 - 所有筛选、排序、搜索字段必须经过 ValidateField
 * @rules 白名单 = 列(报表字段)的 field ∪ 筛选(报表参数)的 field，不接受任何其他字段名
 * @dependencies service/models
 * @refs builder.go, engine.go
 */

package query

import (
	"dynconfig-service/service/models"
)

const (
	defaultPageSize = 25
)

// FieldSpec 可展示字段
type FieldSpec struct {
	Key        string
	Field      string
	Searchable bool
	Sortable   bool
	Filterable bool
}

// FilterSpec 可用筛选
type FilterSpec struct {
	Key       string
	Field     string
	Operator  models.FilterOperator
	Required  bool
	Default   interface{}
	DependsOn models.Dependencies
}

// Schema 查询白名单及分页/排序约定
type Schema struct {
	Code                 string
	Source               string
	Fields               []FieldSpec
	Filters              []FilterSpec
	DefaultSortField     string
	DefaultSortDirection string
	Pagination           bool
	DefaultPageSize      int
	AllowedPageSizes     []int
	SearchEnabled        bool
}

// SchemaFromTable 从表格定义构建查询白名单
func SchemaFromTable(t *models.TableDefinition) *Schema {
	s := &Schema{
		Code:                 t.Code,
		Source:               t.SourceName,
		DefaultSortField:     t.DefaultSortField,
		DefaultSortDirection: t.DefaultSortDirection,
		Pagination:           t.Settings.Pagination,
		DefaultPageSize:      t.Settings.DefaultPageSize,
		AllowedPageSizes:     t.Settings.AllowedPageSizes,
		SearchEnabled:        t.Settings.Searchable,
	}
	for _, c := range t.Columns {
		s.Fields = append(s.Fields, FieldSpec{
			Key:        c.Key,
			Field:      c.Field,
			Searchable: c.Searchable,
			Sortable:   c.Sortable,
			Filterable: c.Filterable,
		})
	}
	for _, f := range t.Filters {
		s.Filters = append(s.Filters, FilterSpec{
			Key:       f.Key,
			Field:     f.Field,
			Operator:  f.Operator,
			Required:  f.Required,
			Default:   f.DefaultValue.V,
			DependsOn: f.DependsOn,
		})
	}
	if s.DefaultPageSize <= 0 {
		s.DefaultPageSize = defaultPageSize
	}
	return s
}

// SchemaFromReport 从报表定义构建查询白名单，参数对应筛选，报表不分页
func SchemaFromReport(r *models.ReportDefinition) *Schema {
	s := &Schema{
		Code:                 r.Code,
		Source:               r.SourceName,
		DefaultSortField:     r.DefaultSortField,
		DefaultSortDirection: r.DefaultSortDirection,
		Pagination:           false,
		DefaultPageSize:      defaultPageSize,
	}
	for _, f := range r.Fields {
		s.Fields = append(s.Fields, FieldSpec{
			Key:        f.Key,
			Field:      f.Field,
			Searchable: f.Searchable,
			Sortable:   f.Sortable,
			Filterable: true,
		})
		if f.Searchable {
			s.SearchEnabled = true
		}
	}
	for _, p := range r.Parameters {
		op := p.Operator
		if op == "" {
			op = models.OpEquals
		}
		// 参数的默认值与必填由报表服务解析，这里只保留字段与操作符
		s.Filters = append(s.Filters, FilterSpec{
			Key:      p.Key,
			Field:    p.Field,
			Operator: op,
		})
	}
	return s
}

// ValidateField 判断字段是否在白名单内，这是字段名进入查询的唯一入口
func ValidateField(s *Schema, field string) bool {
	if s == nil || field == "" {
		return false
	}
	for _, f := range s.Fields {
		if f.Field == field {
			return true
		}
	}
	for _, f := range s.Filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

// fieldSpec 按字段名查找列
func (s *Schema) fieldSpec(field string) *FieldSpec {
	for i := range s.Fields {
		if s.Fields[i].Field == field {
			return &s.Fields[i]
		}
	}
	return nil
}

// filterSpec 按筛选键或字段名查找筛选定义，键优先
func (s *Schema) filterSpec(name string) *FilterSpec {
	for i := range s.Filters {
		if s.Filters[i].Key == name {
			return &s.Filters[i]
		}
	}
	for i := range s.Filters {
		if s.Filters[i].Field == name {
			return &s.Filters[i]
		}
	}
	return nil
}

// SearchFields 可搜索字段
func (s *Schema) SearchFields() []string {
	var fields []string
	for _, f := range s.Fields {
		if f.Searchable {
			fields = append(fields, f.Field)
		}
	}
	return fields
}

// pageSizeAllowed 每页条数是否在允许列表中；未配置允许列表时只接受默认值
func (s *Schema) pageSizeAllowed(size int) bool {
	if size == s.DefaultPageSize {
		return true
	}
	for _, allowed := range s.AllowedPageSizes {
		if allowed == size {
			return true
		}
	}
	return false
}
