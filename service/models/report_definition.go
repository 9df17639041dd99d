/*
 * @module service/models/report_definition
 * @description 报表定义模型，包含报表字段、参数、图表与报表设置
 * @architecture DDD领域驱动设计 - 实体模型
 * @stateFlow 管理员创建/编辑 -> 存储 -> 报表生成/定时任务只读使用
 * @rules 字段与参数的 field 构成查询白名单；汇总字段必须指定汇总函数
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/report, service/aggregate
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 报表类型
const (
	ReportTabular    = "tabular"
	ReportTypeChart  = "chart"
	ReportDocument   = "document"
	ReportTranscript = "transcript"
	ReportInvoice    = "invoice"
)

// AggregateFunc 汇总/聚合函数
type AggregateFunc string

const (
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggCount AggregateFunc = "count"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// ChartType 图表类型
type ChartType string

const (
	ChartBar      ChartType = "bar"
	ChartLine     ChartType = "line"
	ChartPie      ChartType = "pie"
	ChartDoughnut ChartType = "doughnut"
	ChartArea     ChartType = "area"
	ChartRadar    ChartType = "radar"
)

// ReportSettings 报表输出设置
type ReportSettings struct {
	ShowLogo        bool   `json:"show_logo"`
	ShowDate        bool   `json:"show_date"`
	ShowPageNumbers bool   `json:"show_page_numbers"`
	Orientation     string `json:"orientation,omitempty"` // portrait, landscape
	PageSize        string `json:"page_size,omitempty"`   // A4, letter
}

// Scan 实现 Scanner 接口
func (s *ReportSettings) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, s)
}

// Value 实现 Valuer 接口
func (s ReportSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// ReportDefinition 报表定义
type ReportDefinition struct {
	ID                   string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code                 string            `json:"code" gorm:"not null;size:100;uniqueIndex"`
	Name                 string            `json:"name" gorm:"not null;size:255"`
	Description          string            `json:"description" gorm:"type:text"`
	SourceName           string            `json:"source_name" gorm:"not null;size:100"`
	ReportType           string            `json:"report_type" gorm:"not null;size:20;default:'tabular'"`
	Version              int               `json:"version" gorm:"not null;default:1"`
	IsActive             bool              `json:"is_active" gorm:"not null"`
	ExportFormats        JSONBStringArray  `json:"export_formats" gorm:"type:jsonb"`
	Settings             ReportSettings    `json:"settings" gorm:"type:jsonb"`
	DefaultSortField     string            `json:"default_sort_field" gorm:"size:100"`
	DefaultSortDirection string            `json:"default_sort_direction" gorm:"size:4;default:'asc'"`
	CreatedBy            string            `json:"created_by" gorm:"size:100"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	Fields               []ReportField     `json:"fields" gorm:"foreignKey:ReportDefinitionID;constraint:OnDelete:CASCADE"`
	Parameters           []ReportParameter `json:"parameters" gorm:"foreignKey:ReportDefinitionID;constraint:OnDelete:CASCADE"`
	Charts               []ReportChart     `json:"charts" gorm:"foreignKey:ReportDefinitionID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (r *ReportDefinition) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}

// ReportField 报表字段
type ReportField struct {
	ID                 string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReportDefinitionID string        `json:"report_definition_id" gorm:"not null;type:varchar(36);index"`
	Key                string        `json:"key" gorm:"not null;size:100"`
	Field              string        `json:"field" gorm:"not null;size:100"`
	Label              string        `json:"label" gorm:"size:255"`
	DataType           DataType      `json:"data_type" gorm:"not null;size:20;default:'string'"`
	FormatOptions      JSONB         `json:"format_options,omitempty" gorm:"type:jsonb"`
	IsSummary          bool          `json:"is_summary" gorm:"not null"`
	SummaryFunction    AggregateFunc `json:"summary_function,omitempty" gorm:"size:10"`
	StylingRules       StyleRules    `json:"styling_rules,omitempty" gorm:"type:jsonb"`
	Visible            bool          `json:"visible" gorm:"not null"`
	Sortable           bool          `json:"sortable" gorm:"not null"`
	Searchable         bool          `json:"searchable" gorm:"not null"`
	SortOrder          int           `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (f *ReportField) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// ReportParameter 报表参数，生成报表时转换为筛选条件
type ReportParameter struct {
	ID                 string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReportDefinitionID string            `json:"report_definition_id" gorm:"not null;type:varchar(36);index"`
	Key                string            `json:"key" gorm:"not null;size:100"`
	Field              string            `json:"field" gorm:"not null;size:100"`
	Label              string            `json:"label" gorm:"size:255"`
	InputType          string            `json:"input_type" gorm:"size:30;default:'text'"`
	DataType           DataType          `json:"data_type" gorm:"size:20;default:'string'"`
	Operator           FilterOperator    `json:"operator" gorm:"size:20;default:'equals'"`
	Options            JSONBGenericArray `json:"options,omitempty" gorm:"type:jsonb"`
	DefaultValue       JSONValue         `json:"default_value" gorm:"type:jsonb"`
	Required           bool              `json:"required" gorm:"not null"`
	Visible            bool              `json:"visible" gorm:"not null"`
	DependsOn          *ConditionalLogic `json:"depends_on,omitempty" gorm:"type:jsonb"`
	SortOrder          int               `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (p *ReportParameter) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// ReportChart 报表图表
type ReportChart struct {
	ID                 string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReportDefinitionID string           `json:"report_definition_id" gorm:"not null;type:varchar(36);index"`
	Key                string           `json:"key" gorm:"not null;size:100"`
	Title              string           `json:"title" gorm:"size:255"`
	ChartType          ChartType        `json:"chart_type" gorm:"not null;size:20;default:'bar'"`
	DataField          string           `json:"data_field" gorm:"size:100"`
	LabelField         string           `json:"label_field,omitempty" gorm:"size:100"`
	GroupField         string           `json:"group_field,omitempty" gorm:"size:100"`
	SeriesField        string           `json:"series_field,omitempty" gorm:"size:100"`
	Aggregation        AggregateFunc    `json:"aggregation" gorm:"size:10;default:'sum'"`
	Colors             JSONBStringArray `json:"colors,omitempty" gorm:"type:jsonb"`
	Position           string           `json:"position,omitempty" gorm:"size:20"`
	Options            JSONB            `json:"options,omitempty" gorm:"type:jsonb"`
	SortOrder          int              `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (c *ReportChart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
