/*
 * @module service/query/builder
 * @description 筛选条件与排序构建器，把请求参数翻译为白名单内的谓词与排序
 * @architecture 安全边界 - 即席查询、保存视图、定时任务全部经过这里
 * @stateFlow 请求筛选 -> 补齐必填默认值 -> 依赖判断 -> 白名单校验 -> 谓词列表
 * @rules
 *   - 不在白名单内的字段静默丢弃（debug 日志 + 指标）
 *   - 排序方向只允许 asc/desc，默认 asc
 *   - 请求排序无效时回退到定义默认排序，默认排序同样需要校验
 * @dependencies service/compare, service/monitoring
 * @refs schema.go, gorm_source.go, memory_source.go
 */

package query

import (
	"log/slog"
	"sort"
	"strings"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
	"dynconfig-service/service/monitoring"
)

// Predicate 已通过白名单校验的筛选谓词
type Predicate struct {
	Field    string                `json:"field"`
	Operator models.FilterOperator `json:"operator"`
	Value    interface{}           `json:"value,omitempty"`
}

// SortSpec 已通过白名单校验的排序
type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// valueShape 校验操作符对取值形态的要求
var valueShape = map[models.FilterOperator]func(v interface{}) bool{
	models.OpEquals:      scalar,
	models.OpNotEquals:   scalar,
	models.OpContains:    scalar,
	models.OpStartsWith:  scalar,
	models.OpEndsWith:    scalar,
	models.OpGreaterThan: scalar,
	models.OpLessThan:    scalar,
	models.OpBetween:     isRange,
	models.OpIn:          isList,
	models.OpNotIn:       isList,
	models.OpIsNull:      truthy,
	models.OpIsNotNull:   truthy,
	models.OpDateEquals:  isDate,
	models.OpDateBefore:  isDate,
	models.OpDateAfter:   isDate,
	models.OpDateBetween: isDateRange,
}

func scalar(v interface{}) bool {
	return !compare.IsEmpty(v)
}

func isRange(v interface{}) bool {
	_, _, ok := compare.Range(v)
	return ok
}

func isList(v interface{}) bool {
	return len(compare.ToList(v)) > 0
}

func truthy(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return !compare.IsEmpty(v)
}

func isDate(v interface{}) bool {
	_, ok := compare.ToDate(v)
	return ok
}

func isDateRange(v interface{}) bool {
	lo, hi, ok := compare.Range(v)
	return ok && isDate(lo) && isDate(hi)
}

// NormalizeDirection 规范化排序方向
func NormalizeDirection(direction string) string {
	if strings.EqualFold(strings.TrimSpace(direction), models.SortDesc) {
		return models.SortDesc
	}
	return models.SortAsc
}

// BuildPredicates 将请求筛选转换为谓词，非法字段或取值静默丢弃
func BuildPredicates(s *Schema, filters map[string]interface{}) []Predicate {
	effective := withDefaults(s, filters)

	keys := make([]string, 0, len(effective))
	for k := range effective {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	predicates := make([]Predicate, 0, len(keys))
	for _, key := range keys {
		value := effective[key]

		field, op, ok := resolveFilter(s, key)
		if !ok {
			dropped("filter", key)
			continue
		}
		if spec := s.filterSpec(key); spec != nil && !dependenciesMet(s, spec.DependsOn, effective) {
			slog.Debug("筛选依赖未满足，跳过", "schema", s.Code, "filter", key)
			continue
		}
		check, known := valueShape[op]
		if !known || !check(value) {
			slog.Debug("筛选取值无效，跳过", "schema", s.Code, "filter", key, "operator", op)
			continue
		}
		predicates = append(predicates, Predicate{Field: field, Operator: op, Value: value})
	}
	return predicates
}

// resolveFilter 确定筛选对应的字段与操作符：先匹配筛选定义，再匹配可筛选列（等值）
func resolveFilter(s *Schema, key string) (string, models.FilterOperator, bool) {
	if spec := s.filterSpec(key); spec != nil {
		op := spec.Operator
		if op == "" {
			op = models.OpEquals
		}
		return spec.Field, op, ValidateField(s, spec.Field)
	}
	if col := s.fieldSpec(key); col != nil && col.Filterable && ValidateField(s, col.Field) {
		return col.Field, models.OpEquals, true
	}
	return "", "", false
}

// withDefaults 为缺失的必填筛选补齐默认值
func withDefaults(s *Schema, filters map[string]interface{}) map[string]interface{} {
	effective := make(map[string]interface{}, len(filters))
	for k, v := range filters {
		effective[k] = v
	}
	for _, f := range s.Filters {
		if !f.Required || f.Default == nil {
			continue
		}
		if _, ok := effective[f.Key]; ok {
			continue
		}
		if _, ok := effective[f.Field]; ok {
			continue
		}
		effective[f.Key] = f.Default
	}
	return effective
}

// dependenciesMet 依赖的每个 (field, value) 都必须与白名单内的其他请求筛选匹配。
// 依赖字段既可以是筛选键，也可以是其对应的数据字段。
func dependenciesMet(s *Schema, deps models.Dependencies, filters map[string]interface{}) bool {
	for _, dep := range deps {
		actual, ok := allowedValue(s, dep.Field, filters)
		if !ok || !compare.LooseEqual(actual, dep.Value) {
			return false
		}
	}
	return true
}

// allowedValue 查找能通过白名单解析的请求取值，不在白名单内的键不参与依赖判断
func allowedValue(s *Schema, name string, filters map[string]interface{}) (interface{}, bool) {
	if v, ok := filters[name]; ok {
		if _, _, allowed := resolveFilter(s, name); allowed {
			return v, true
		}
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if field, _, allowed := resolveFilter(s, key); allowed && field == name {
			return filters[key], true
		}
	}
	return nil, false
}

// BuildSort 校验请求排序，无效时回退到定义默认排序
func BuildSort(s *Schema, field, direction string) []SortSpec {
	if field != "" {
		if sortable(s, field) {
			return []SortSpec{{Field: field, Direction: NormalizeDirection(direction)}}
		}
		dropped("sort", field)
	}
	if s.DefaultSortField != "" && sortable(s, s.DefaultSortField) {
		return []SortSpec{{Field: s.DefaultSortField, Direction: NormalizeDirection(s.DefaultSortDirection)}}
	}
	return nil
}

// sortable 字段在白名单内且未被列定义禁止排序
func sortable(s *Schema, field string) bool {
	if !ValidateField(s, field) {
		return false
	}
	if col := s.fieldSpec(field); col != nil {
		return col.Sortable
	}
	return true
}

func dropped(kind, name string) {
	slog.Debug("字段不在白名单内，已丢弃", "kind", kind, "field", name)
	monitoring.DroppedFieldReferences.WithLabelValues(kind).Inc()
}

// FilterAllowed 筛选键能否解析到白名单字段
func (s *Schema) FilterAllowed(key string) bool {
	_, _, ok := resolveFilter(s, key)
	return ok
}

// SortAllowed 字段能否用于排序
func (s *Schema) SortAllowed(field string) bool {
	return sortable(s, field)
}
