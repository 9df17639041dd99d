/*
 * @module service/form/service
 * @description 表单服务：布局、规则、提交（含草稿）、审批动作、提交查询
 * @architecture 服务层 - 定义只读，提交记录 GORM 持久化
 * @stateFlow 提交数据 -> 补默认值 -> 计算字段 -> 可见性校验 -> 唯一性 -> 裁剪不可见字段 -> 保存 -> 通知
 * @rules
 *   - 草稿不校验，提交与重新提交必须通过校验
 *   - 只保存定义中存在且当前可见的字段
 *   - 审批动作以 (状态, 步骤) 做乐观并发检查
 *   - 已停用的表单不接受新提交
 * @dependencies gorm.io/gorm, service/notify
 * @refs layout.go, validate.go, script.go, workflow.go
 */

package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
	"dynconfig-service/service/notify"
)

var (
	// ErrSubmissionNotFound 提交不存在
	ErrSubmissionNotFound = errors.New("提交不存在")
	// ErrFormInactive 表单已停用
	ErrFormInactive = errors.New("表单已停用")
	// ErrConcurrentUpdate 提交已被其他操作修改
	ErrConcurrentUpdate = errors.New("提交状态已变化，请刷新后重试")
)

// FormLoader 按编码加载表单定义
type FormLoader interface {
	GetForm(ctx context.Context, code string) (*models.FormDefinition, error)
}

// SubmitRequest 提交请求
type SubmitRequest struct {
	Data  map[string]interface{} `json:"data"`
	Draft bool                   `json:"draft"`
}

// SubmissionFilter 提交列表筛选
type SubmissionFilter struct {
	Status      string `json:"status"`
	SubmittedBy string `json:"submitted_by"`
	Page        int    `json:"page"`
	Size        int    `json:"size"`
}

// Service 表单服务
type Service struct {
	db       *gorm.DB
	forms    FormLoader
	scripts  *ScriptEngine
	notifier notify.Notifier
	now      func() time.Time
}

// NewService 创建表单服务
func NewService(db *gorm.DB, forms FormLoader, scripts *ScriptEngine, notifier notify.Notifier) *Service {
	if scripts == nil {
		scripts = NewScriptEngine(0)
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{db: db, forms: forms, scripts: scripts, notifier: notifier, now: time.Now}
}

// Layout 表单在给定数据下的布局（计算字段已求值）
func (s *Service) Layout(ctx context.Context, code string, data map[string]interface{}) (*Layout, error) {
	f, err := s.forms.GetForm(ctx, code)
	if err != nil {
		return nil, err
	}
	data = WithDefaults(f, data)
	if err := s.scripts.ApplyComputed(ctx, f, data); err != nil {
		slog.Warn("计算字段求值失败", "form", code, "error", err)
	}
	return ResolveLayout(f, data), nil
}

// Rules 表单的校验规则集
func (s *Service) Rules(ctx context.Context, code string) (map[string][]string, error) {
	f, err := s.forms.GetForm(ctx, code)
	if err != nil {
		return nil, err
	}
	return GenerateValidationRules(f), nil
}

// Submit 创建提交；Draft 为 true 时只保存草稿
func (s *Service) Submit(ctx context.Context, code string, actor Actor, req SubmitRequest) (*models.FormSubmission, error) {
	f, err := s.forms.GetForm(ctx, code)
	if err != nil {
		return nil, err
	}
	if !f.IsActive {
		return nil, fmt.Errorf("%s: %w", code, ErrFormInactive)
	}

	data, err := s.prepare(ctx, f, "", req.Data, !req.Draft)
	if err != nil {
		return nil, err
	}

	sub := &models.FormSubmission{
		FormDefinitionID: f.ID,
		FormCode:         f.Code,
		FormVersion:      f.Version,
		SubmittedBy:      actor.UserID,
		Data:             data,
		Status:           models.SubmissionDraft,
		History:          models.WorkflowHistory{},
	}
	if !req.Draft {
		if err := Transition(f, sub, models.ActionSubmit, actor, "", s.now()); err != nil {
			return nil, err
		}
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("保存提交失败: %w", err)
	}

	slog.Info("表单已提交", "form", code, "submission", sub.ID, "user", actor.UserID, "status", sub.Status)
	if !req.Draft {
		s.publish(ctx, notify.EventSubmissionCreated, sub)
	}
	return sub, nil
}

// Get 获取提交
func (s *Service) Get(ctx context.Context, id string) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrSubmissionNotFound)
		}
		return nil, fmt.Errorf("查询提交失败: %w", err)
	}
	return &sub, nil
}

// List 表单的提交列表，按创建时间倒序
func (s *Service) List(ctx context.Context, code string, filter SubmissionFilter) ([]models.FormSubmission, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 || filter.Size > 100 {
		filter.Size = 20
	}
	q := s.db.WithContext(ctx).Model(&models.FormSubmission{}).Where("form_code = ?", code)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SubmittedBy != "" {
		q = q.Where("submitted_by = ?", filter.SubmittedBy)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计提交失败: %w", err)
	}
	var items []models.FormSubmission
	err := q.Order("created_at DESC").Limit(filter.Size).Offset((filter.Page - 1) * filter.Size).Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询提交失败: %w", err)
	}
	return items, total, nil
}

// Act 执行审批动作；submit/resubmit 时可附带新数据
func (s *Service) Act(ctx context.Context, id, action string, actor Actor, notes string, data map[string]interface{}) (*models.FormSubmission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := s.forms.GetForm(ctx, sub.FormCode)
	if err != nil {
		return nil, err
	}

	prevStatus, prevStep := sub.Status, sub.CurrentStep
	if action == models.ActionSubmit || action == models.ActionResubmit {
		if data == nil {
			data = sub.Data
		}
		prepared, err := s.prepare(ctx, f, sub.ID, data, true)
		if err != nil {
			return nil, err
		}
		sub.Data = prepared
		sub.FormVersion = f.Version
	}

	if err := Transition(f, sub, action, actor, notes, s.now()); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.FormSubmission{}).
		Where("id = ? AND status = ? AND current_step = ?", sub.ID, prevStatus, prevStep).
		Updates(map[string]interface{}{
			"data":         sub.Data,
			"form_version": sub.FormVersion,
			"status":       sub.Status,
			"current_step": sub.CurrentStep,
			"history":      sub.History,
			"submitted_at": sub.SubmittedAt,
			"completed_at": sub.CompletedAt,
			"updated_at":   s.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("更新提交失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", sub.ID, ErrConcurrentUpdate)
	}

	slog.Info("审批动作已执行", "submission", sub.ID, "action", action, "actor", actor.UserID,
		"status", sub.Status, "step", sub.CurrentStep)
	s.publish(ctx, notify.EventSubmissionAdvanced, sub)
	return sub, nil
}

// prepare 补默认值、计算字段、校验并裁剪数据
func (s *Service) prepare(ctx context.Context, f *models.FormDefinition, selfID string, input map[string]interface{}, validate bool) (models.JSONB, error) {
	data := WithDefaults(f, input)
	if err := s.scripts.ApplyComputed(ctx, f, data); err != nil {
		return nil, err
	}
	if validate {
		if err := ValidateSubmission(f, data); err != nil {
			return nil, err
		}
		if err := s.checkUnique(ctx, f, selfID, data); err != nil {
			return nil, err
		}
	}

	visible := VisibleFields(f, data)
	pruned := make(models.JSONB, len(f.Fields))
	for _, fd := range f.Fields {
		if v, ok := data[fd.Key]; ok && visible[fd.Key] {
			pruned[fd.Key] = v
		}
	}
	return pruned, nil
}

// checkUnique unique 字段在同一表单未被驳回的提交中不能重复
func (s *Service) checkUnique(ctx context.Context, f *models.FormDefinition, selfID string, data map[string]interface{}) error {
	var uniqueFields []string
	for _, fd := range f.Fields {
		if fd.Unique && !compare.IsEmpty(data[fd.Key]) {
			uniqueFields = append(uniqueFields, fd.Key)
		}
	}
	if len(uniqueFields) == 0 {
		return nil
	}

	var existing []models.FormSubmission
	err := s.db.WithContext(ctx).Select("id", "data").
		Where("form_code = ? AND status <> ? AND id <> ?", f.Code, models.SubmissionRejected, selfID).
		Find(&existing).Error
	if err != nil {
		return fmt.Errorf("唯一性检查失败: %w", err)
	}

	verr := &ValidationErrors{}
	for _, key := range uniqueFields {
		for _, other := range existing {
			if compare.LooseEqual(other.Data[key], data[key]) {
				verr.add(key, "该值已被使用")
				break
			}
		}
	}
	return verr.orNil()
}

func (s *Service) publish(ctx context.Context, eventType string, sub *models.FormSubmission) {
	err := s.notifier.Publish(ctx, notify.Event{
		Type:    eventType,
		Key:     sub.ID,
		Subject: sub.FormCode,
		Payload: map[string]interface{}{
			"status":       sub.Status,
			"current_step": sub.CurrentStep,
			"submitted_by": sub.SubmittedBy,
		},
	})
	if err != nil {
		slog.Warn("提交事件通知失败", "submission", sub.ID, "error", err)
	}
}
