/*
 * @module service/models/form_definition
 * @description 动态表单定义模型，包含字段、分区、审批流程描述
 * @architecture DDD领域驱动设计 - 实体模型
 * @stateFlow 管理员创建/编辑 -> 存储 -> 渲染/校验/提交时只读使用
 * @rules 字段键在表单内唯一，字段所属分区必须存在，条件逻辑只有一层
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/form, service/logic
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FieldType 表单字段类型
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldDate        FieldType = "date"
	FieldDatetime    FieldType = "datetime"
	FieldTime        FieldType = "time"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldFile        FieldType = "file"
	FieldImage       FieldType = "image"
	FieldRepeater    FieldType = "repeater"
	FieldComputed    FieldType = "computed"
	FieldHidden      FieldType = "hidden"
)

// WorkflowStep 审批步骤
type WorkflowStep struct {
	Role  string `json:"role"`
	Label string `json:"label,omitempty"`
}

// WorkflowDescriptor 审批流程描述，按顺序逐级审批
type WorkflowDescriptor struct {
	Enabled bool           `json:"enabled"`
	Steps   []WorkflowStep `json:"steps"`
}

// Scan 实现 Scanner 接口
func (w *WorkflowDescriptor) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, w)
}

// Value 实现 Valuer 接口
func (w WorkflowDescriptor) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// GridPlacement 字段在分区网格中的位置
type GridPlacement struct {
	Row    int `json:"row,omitempty"`
	Column int `json:"column,omitempty"`
	Span   int `json:"span,omitempty"`
}

// Scan 实现 Scanner 接口
func (g *GridPlacement) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, g)
}

// Value 实现 Valuer 接口
func (g GridPlacement) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// FormDefinition 动态表单定义
type FormDefinition struct {
	ID          string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code        string              `json:"code" gorm:"not null;size:100;uniqueIndex"`
	Name        string              `json:"name" gorm:"not null;size:255"`
	Description string              `json:"description" gorm:"type:text"`
	Version     int                 `json:"version" gorm:"not null;default:1"`
	IsActive    bool                `json:"is_active" gorm:"not null"`
	Workflow    WorkflowDescriptor  `json:"workflow" gorm:"type:jsonb"`
	Settings    JSONB               `json:"settings,omitempty" gorm:"type:jsonb"`
	CreatedBy   string              `json:"created_by" gorm:"size:100"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Fields      []FieldDefinition   `json:"fields" gorm:"foreignKey:FormDefinitionID;constraint:OnDelete:CASCADE"`
	Sections    []SectionDefinition `json:"sections" gorm:"foreignKey:FormDefinitionID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (f *FormDefinition) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Version == 0 {
		f.Version = 1
	}
	return nil
}

// FieldDefinition 表单字段定义
type FieldDefinition struct {
	ID               string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FormDefinitionID string            `json:"form_definition_id" gorm:"not null;type:varchar(36);index"`
	Key              string            `json:"key" gorm:"not null;size:100"`
	Label            string            `json:"label" gorm:"size:255"`
	FieldType        FieldType         `json:"field_type" gorm:"not null;size:20;default:'text'"`
	Options          JSONBGenericArray `json:"options,omitempty" gorm:"type:jsonb"`
	DefaultValue     JSONValue         `json:"default_value" gorm:"type:jsonb"`
	ValidationRules  JSONBStringArray  `json:"validation_rules,omitempty" gorm:"type:jsonb"`
	Required         bool              `json:"required" gorm:"not null"`
	Unique           bool              `json:"unique" gorm:"not null"`
	Readonly         bool              `json:"readonly" gorm:"not null"`
	Hidden           bool              `json:"hidden" gorm:"not null"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty" gorm:"type:jsonb"`
	Grid             GridPlacement     `json:"grid" gorm:"type:jsonb"`
	SectionKey       string            `json:"section_key" gorm:"size:100"`
	Formula          string            `json:"formula,omitempty" gorm:"type:text"` // computed 字段脚本
	SortOrder        int               `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (f *FieldDefinition) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// SectionDefinition 表单分区定义
type SectionDefinition struct {
	ID               string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FormDefinitionID string            `json:"form_definition_id" gorm:"not null;type:varchar(36);index"`
	Key              string            `json:"key" gorm:"not null;size:100"`
	Title            string            `json:"title" gorm:"size:255"`
	Description      string            `json:"description" gorm:"type:text"`
	Collapsible      bool              `json:"collapsible" gorm:"not null"`
	Collapsed        bool              `json:"collapsed" gorm:"not null"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty" gorm:"type:jsonb"`
	Columns          int               `json:"columns" gorm:"not null;default:1"`
	SortOrder        int               `json:"sort_order" gorm:"not null;default:0"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (s *SectionDefinition) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
