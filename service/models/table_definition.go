/*
 * @module service/models/table_definition
 * @description 动态表格定义模型，包含列定义、筛选定义与表格设置
 * @architecture DDD领域驱动设计 - 实体模型
 * @stateFlow 管理员创建/编辑 -> 存储 -> 查询引擎只读使用
 * @rules 列字段与筛选字段在各自列表内唯一，二者并集构成查询白名单
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/definition, service/query
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataType 字段数据类型
type DataType string

const (
	DataTypeString     DataType = "string"
	DataTypeNumber     DataType = "number"
	DataTypeDecimal    DataType = "decimal"
	DataTypeCurrency   DataType = "currency"
	DataTypePercentage DataType = "percentage"
	DataTypeDate       DataType = "date"
	DataTypeDatetime   DataType = "datetime"
	DataTypeBoolean    DataType = "boolean"
	DataTypeStatus     DataType = "status"
	DataTypeGrade      DataType = "grade"
)

// FilterOperator 筛选操作符
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpContains    FilterOperator = "contains"
	OpStartsWith  FilterOperator = "starts_with"
	OpEndsWith    FilterOperator = "ends_with"
	OpGreaterThan FilterOperator = "greater_than"
	OpLessThan    FilterOperator = "less_than"
	OpBetween     FilterOperator = "between"
	OpIn          FilterOperator = "in"
	OpNotIn       FilterOperator = "not_in"
	OpIsNull      FilterOperator = "is_null"
	OpIsNotNull   FilterOperator = "is_not_null"
	OpDateEquals  FilterOperator = "date_equals"
	OpDateBefore  FilterOperator = "date_before"
	OpDateAfter   FilterOperator = "date_after"
	OpDateBetween FilterOperator = "date_between"
)

// SortDirection 排序方向
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// TableSettings 表格设置
type TableSettings struct {
	Pagination       bool     `json:"pagination"`
	DefaultPageSize  int      `json:"default_page_size"`
	AllowedPageSizes []int    `json:"allowed_page_sizes"`
	Searchable       bool     `json:"searchable"`
	ExportFormats    []string `json:"export_formats"`
	BulkActions      []string `json:"bulk_actions,omitempty"`
	RowActions       []string `json:"row_actions,omitempty"`
}

// Scan 实现 Scanner 接口
func (s *TableSettings) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, s)
}

// Value 实现 Valuer 接口
func (s TableSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// StyleRule 条件样式规则，按顺序匹配，首个命中生效
type StyleRule struct {
	Operator FilterOperator    `json:"operator"`
	Value    interface{}       `json:"value"`
	Style    map[string]string `json:"style,omitempty"`
	Class    string            `json:"class,omitempty"`
}

// StyleRules 条件样式规则列表
type StyleRules []StyleRule

// Scan 实现 Scanner 接口
func (r *StyleRules) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	return scanJSON(value, r)
}

// Value 实现 Valuer 接口
func (r StyleRules) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Dependency 筛选依赖：指定字段等于指定值时该筛选才显示/生效
type Dependency struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// Dependencies 依赖列表
type Dependencies []Dependency

// Scan 实现 Scanner 接口
func (d *Dependencies) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	return scanJSON(value, d)
}

// Value 实现 Valuer 接口
func (d Dependencies) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// TableDefinition 动态表格定义
type TableDefinition struct {
	ID                   string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code                 string             `json:"code" gorm:"not null;size:100;uniqueIndex"`
	Name                 string             `json:"name" gorm:"not null;size:255"`
	Description          string             `json:"description" gorm:"type:text"`
	SourceName           string             `json:"source_name" gorm:"not null;size:100"` // 记录源名称
	Version              int                `json:"version" gorm:"not null;default:1"`
	IsActive             bool               `json:"is_active" gorm:"not null"`
	Settings             TableSettings      `json:"settings" gorm:"type:jsonb"`
	DefaultSortField     string             `json:"default_sort_field" gorm:"size:100"`
	DefaultSortDirection string             `json:"default_sort_direction" gorm:"size:4;default:'asc'"`
	CreatedBy            string             `json:"created_by" gorm:"size:100"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	Columns              []ColumnDefinition `json:"columns" gorm:"foreignKey:TableDefinitionID;constraint:OnDelete:CASCADE"`
	Filters              []FilterDefinition `json:"filters" gorm:"foreignKey:TableDefinitionID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (t *TableDefinition) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

// ColumnByField 按字段名查找列
func (t *TableDefinition) ColumnByField(field string) *ColumnDefinition {
	for i := range t.Columns {
		if t.Columns[i].Field == field {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnDefinition 列定义
type ColumnDefinition struct {
	ID                string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TableDefinitionID string     `json:"table_definition_id" gorm:"not null;type:varchar(36);index"`
	Key               string     `json:"key" gorm:"not null;size:100"`
	Field             string     `json:"field" gorm:"not null;size:100"`
	Label             string     `json:"label" gorm:"size:255"`
	DataType          DataType   `json:"data_type" gorm:"not null;size:20;default:'string'"`
	FormatOptions     JSONB      `json:"format_options,omitempty" gorm:"type:jsonb"`
	Alignment         string     `json:"alignment" gorm:"size:10;default:'left'"`
	Visible           bool       `json:"visible" gorm:"not null"`
	Sortable          bool       `json:"sortable" gorm:"not null"`
	Searchable        bool       `json:"searchable" gorm:"not null"`
	Filterable        bool       `json:"filterable" gorm:"not null"`
	Exportable        bool       `json:"exportable" gorm:"not null"`
	Frozen            bool       `json:"frozen" gorm:"not null"`
	Width             int        `json:"width"`
	StylingRules      StyleRules `json:"styling_rules,omitempty" gorm:"type:jsonb"`
	SortOrder         int        `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (c *ColumnDefinition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// FilterDefinition 筛选定义
type FilterDefinition struct {
	ID                string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TableDefinitionID string            `json:"table_definition_id" gorm:"not null;type:varchar(36);index"`
	Key               string            `json:"key" gorm:"not null;size:100"`
	Field             string            `json:"field" gorm:"not null;size:100"`
	Label             string            `json:"label" gorm:"size:255"`
	Operator          FilterOperator    `json:"operator" gorm:"not null;size:20;default:'equals'"`
	InputType         string            `json:"input_type" gorm:"size:30;default:'text'"`
	Options           JSONBGenericArray `json:"options,omitempty" gorm:"type:jsonb"`
	DefaultValue      JSONValue         `json:"default_value" gorm:"type:jsonb"`
	Required          bool              `json:"required" gorm:"not null"`
	Visible           bool              `json:"visible" gorm:"not null"`
	DependsOn         Dependencies      `json:"depends_on,omitempty" gorm:"type:jsonb"`
	SortOrder         int               `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (f *FilterDefinition) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
