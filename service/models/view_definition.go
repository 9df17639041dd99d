/*
 * @module service/models/view_definition
 * @description 用户保存的表格视图配置
 * @architecture DDD领域驱动设计 - 实体模型
 * @stateFlow 用户保存 -> 设为默认/共享 -> 用户删除或父表格定义删除时销毁
 * @rules 同一 (用户, 表格) 最多一个默认视图
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/view
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ViewDefinition 保存视图
type ViewDefinition struct {
	ID                string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TableDefinitionID string           `json:"table_definition_id" gorm:"not null;type:varchar(36);index:idx_view_owner"`
	UserID            string           `json:"user_id" gorm:"not null;size:100;index:idx_view_owner"`
	Name              string           `json:"name" gorm:"not null;size:255"`
	IsDefault         bool             `json:"is_default" gorm:"not null"`
	IsShared          bool             `json:"is_shared" gorm:"not null"`
	VisibleColumns    JSONBStringArray `json:"visible_columns,omitempty" gorm:"type:jsonb"`
	ColumnOrder       JSONBStringArray `json:"column_order,omitempty" gorm:"type:jsonb"`
	ColumnWidths      JSONB            `json:"column_widths,omitempty" gorm:"type:jsonb"`
	Filters           JSONB            `json:"filters,omitempty" gorm:"type:jsonb"`
	SortField         string           `json:"sort_field" gorm:"size:100"`
	SortDirection     string           `json:"sort_direction" gorm:"size:4"`
	PageSize          int              `json:"page_size"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (v *ViewDefinition) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
