package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"dynconfig-service/service/definition"
	"dynconfig-service/service/export"
	"dynconfig-service/service/models"
)

// ErrScheduleNotFound 定时任务不存在
var ErrScheduleNotFound = errors.New("定时任务不存在")

// ReportLoader 按编码加载报表定义
type ReportLoader interface {
	GetReport(ctx context.Context, code string) (*models.ReportDefinition, error)
}

// ScheduleService 定时任务管理
type ScheduleService struct {
	db        *gorm.DB
	reports   ReportLoader
	scheduler *SchedulerService
	now       func() time.Time
}

// NewScheduleService 创建定时任务管理服务
func NewScheduleService(db *gorm.DB, reports ReportLoader, scheduler *SchedulerService) *ScheduleService {
	return &ScheduleService{db: db, reports: reports, scheduler: scheduler, now: time.Now}
}

// List 报表下的定时任务
func (s *ScheduleService) List(ctx context.Context, reportCode string) ([]models.ReportSchedule, error) {
	report, err := s.reports.GetReport(ctx, reportCode)
	if err != nil {
		return nil, err
	}
	var schedules []models.ReportSchedule
	if err := s.db.WithContext(ctx).
		Where("report_definition_id = ?", report.ID).
		Order("created_at ASC").
		Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("查询定时任务失败: %w", err)
	}
	return schedules, nil
}

// Get 获取定时任务
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ReportSchedule, error) {
	var sched models.ReportSchedule
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sched).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrScheduleNotFound)
		}
		return nil, fmt.Errorf("查询定时任务失败: %w", err)
	}
	return &sched, nil
}

// Create 为报表创建定时任务
func (s *ScheduleService) Create(ctx context.Context, reportCode string, sched *models.ReportSchedule) error {
	report, err := s.reports.GetReport(ctx, reportCode)
	if err != nil {
		return err
	}
	sched.ID = ""
	sched.ReportDefinitionID = report.ID
	sched.ReportCode = report.Code
	sched.RunCount = 0
	sched.LastRunAt = nil
	sched.LastStatus = ""
	sched.LastError = ""
	if err := s.prepare(report, sched); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(sched).Error; err != nil {
		return fmt.Errorf("创建定时任务失败: %w", err)
	}
	return nil
}

// Update 更新定时任务配置，运行状态保持不变
func (s *ScheduleService) Update(ctx context.Context, id string, sched *models.ReportSchedule) (*models.ReportSchedule, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.GetReport(ctx, existing.ReportCode)
	if err != nil {
		return nil, err
	}

	existing.Name = sched.Name
	existing.CronExpression = sched.CronExpression
	existing.Timezone = sched.Timezone
	existing.Parameters = sched.Parameters
	existing.ExportFormat = sched.ExportFormat
	existing.Recipients = sched.Recipients
	existing.IsActive = sched.IsActive
	if err := s.prepare(report, existing); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("更新定时任务失败: %w", err)
	}
	return existing, nil
}

// Delete 删除定时任务
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ReportSchedule{})
	if res.Error != nil {
		return fmt.Errorf("删除定时任务失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, ErrScheduleNotFound)
	}
	return nil
}

// Toggle 启用/停用；重新启用时从当前时间计算下一次执行
func (s *ScheduleService) Toggle(ctx context.Context, id string) (*models.ReportSchedule, error) {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sched.IsActive = !sched.IsActive
	updates := map[string]interface{}{"is_active": sched.IsActive}
	if sched.IsActive {
		next, err := NextRun(sched.CronExpression, sched.Timezone, s.now())
		if err != nil {
			return nil, err
		}
		sched.NextRunAt = next
		updates["next_run_at"] = next
	}
	if err := s.db.WithContext(ctx).Model(sched).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("切换定时任务状态失败: %w", err)
	}
	return sched, nil
}

// RunNow 手动执行一次，返回执行后的任务状态；执行失败同样记录在任务上
func (s *ScheduleService) RunNow(ctx context.Context, id string) (*models.ReportSchedule, error) {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	runErr := s.scheduler.RunNow(ctx, sched)
	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return updated, runErr
}

// prepare 校验配置并计算 next_run_at
func (s *ScheduleService) prepare(report *models.ReportDefinition, sched *models.ReportSchedule) error {
	verr := &definition.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(sched.Name) == "" {
		verr.Fields["name"] = "名称不能为空"
	}
	if sched.Timezone == "" {
		sched.Timezone = "UTC"
	}
	if sched.ExportFormat == "" {
		sched.ExportFormat = export.FormatCSV
	}
	if !export.Supported(sched.ExportFormat) ||
		(len(report.ExportFormats) > 0 && !report.ExportFormats.Contains(sched.ExportFormat)) {
		verr.Fields["export_format"] = fmt.Sprintf("报表不支持导出格式 %q", sched.ExportFormat)
	}
	for i, r := range sched.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			verr.Fields[fmt.Sprintf("recipients[%d]", i)] = "邮箱格式不正确"
		}
	}
	next, err := NextRun(sched.CronExpression, sched.Timezone, s.now())
	if err != nil {
		verr.Fields["cron_expression"] = err.Error()
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	sched.NextRunAt = next
	return nil
}
