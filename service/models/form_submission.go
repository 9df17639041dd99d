/*
 * @module service/models/form_submission
 * @description 表单提交记录模型，包含审批状态与审批历史
 * @architecture DDD领域驱动设计 - 实体模型
 * @stateFlow draft -> pending -> approved/rejected，退回时 pending -> draft
 * @rules 终态（approved/rejected）不可再变更
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/form/workflow.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 提交状态
const (
	SubmissionDraft    = "draft"
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// 审批动作
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionReturn   = "return"
	ActionResubmit = "resubmit"
)

// WorkflowEntry 审批历史条目
type WorkflowEntry struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Role      string    `json:"role,omitempty"`
	Step      int       `json:"step"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowHistory 审批历史，按时间顺序追加
type WorkflowHistory []WorkflowEntry

// Scan 实现 Scanner 接口
func (h *WorkflowHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	return scanJSON(value, h)
}

// Value 实现 Valuer 接口
func (h WorkflowHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal([]WorkflowEntry{})
	}
	return json.Marshal(h)
}

// FormSubmission 表单提交记录
type FormSubmission struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FormDefinitionID string          `json:"form_definition_id" gorm:"not null;type:varchar(36);index"`
	FormCode         string          `json:"form_code" gorm:"not null;size:100;index"`
	FormVersion      int             `json:"form_version"`
	SubmittedBy      string          `json:"submitted_by" gorm:"not null;size:100;index"`
	Data             JSONB           `json:"data" gorm:"type:jsonb"`
	Status           string          `json:"status" gorm:"not null;size:20;default:'pending';index"`
	CurrentStep      int             `json:"current_step" gorm:"not null;default:0"`
	History          WorkflowHistory `json:"history" gorm:"type:jsonb"`
	SubmittedAt      *time.Time      `json:"submitted_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// IsFinal 是否处于终态
func (s *FormSubmission) IsFinal() bool {
	return s.Status == SubmissionApproved || s.Status == SubmissionRejected
}
