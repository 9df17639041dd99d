/*
 * @module service/models/report_schedule
 * @description 报表定时任务模型
 * @architecture DDD领域驱动设计 - 实体模型
 * @stateFlow Idle -> Due(next_run_at<=now) -> Running -> Success/Failed -> Idle
 * @rules 由管理员创建，调度器每次执行后更新运行状态，不会自动删除
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/scheduler
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 定时任务运行状态
const (
	ScheduleStatusRunning = "running"
	ScheduleStatusSuccess = "success"
	ScheduleStatusFailed  = "failed"
)

// ReportSchedule 报表定时任务
type ReportSchedule struct {
	ID                 string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReportDefinitionID string         `json:"report_definition_id" gorm:"not null;type:varchar(36);index"`
	ReportCode         string         `json:"report_code" gorm:"not null;size:100"`
	Name               string         `json:"name" gorm:"not null;size:255"`
	CronExpression     string         `json:"cron_expression" gorm:"not null;size:100"`
	Timezone           string         `json:"timezone" gorm:"size:64;default:'UTC'"`
	Parameters         JSONB          `json:"parameters,omitempty" gorm:"type:jsonb"`
	ExportFormat       string         `json:"export_format" gorm:"not null;size:10;default:'csv'"`
	Recipients         pq.StringArray `json:"recipients" gorm:"type:text"` // 以 {a,b} 文本形式存储
	IsActive           bool           `json:"is_active" gorm:"not null;index"`
	LastRunAt          *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt          *time.Time     `json:"next_run_at,omitempty" gorm:"index"`
	LastStatus         string         `json:"last_status,omitempty" gorm:"size:20"`
	LastError          string         `json:"last_error,omitempty" gorm:"type:text"`
	RunCount           int64          `json:"run_count" gorm:"not null;default:0"`
	CreatedBy          string         `json:"created_by" gorm:"size:100"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (s *ReportSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
