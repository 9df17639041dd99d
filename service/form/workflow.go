/*
 * @module service/form/workflow
 * @description 提交审批流程状态机
 * @architecture 状态机 - 查表确定 (状态, 动作) 的合法迁移
 * @stateFlow
 *   draft --submit/resubmit--> pending
 *   pending --approve--> pending(下一步) / approved(最后一步)
 *   pending --reject--> rejected
 *   pending --return--> draft
 * @rules
 *   - approved/rejected 为终态，任何动作返回 ErrSubmissionFinalized
 *   - approve/reject/return 的角色必须与当前步骤角色一致
 *   - submit/resubmit 只能由提交人执行
 *   - 未启用审批流程的表单提交后直接 approved
 * @dependencies service/models
 * @refs service.go
 */

package form

import (
	"errors"
	"fmt"
	"time"

	"dynconfig-service/service/models"
)

var (
	// ErrSubmissionFinalized 提交已处于终态
	ErrSubmissionFinalized = errors.New("提交已完成审批，不能再变更")
	// ErrWorkflowRoleMismatch 当前步骤要求的角色与操作人不符
	ErrWorkflowRoleMismatch = errors.New("操作人角色与当前审批步骤不符")
	// ErrInvalidTransition 当前状态不允许该动作
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
)

// Actor 操作人
type Actor struct {
	UserID string
	Role   string
}

type transition func(f *models.FormDefinition, s *models.FormSubmission, actor Actor, now time.Time) error

// transitions (状态, 动作) -> 迁移
var transitions = map[string]map[string]transition{
	models.SubmissionDraft: {
		models.ActionSubmit:   submit,
		models.ActionResubmit: submit,
	},
	models.SubmissionPending: {
		models.ActionApprove: approve,
		models.ActionReject:  reject,
		models.ActionReturn:  giveBack,
	},
}

// Transition 执行审批动作并追加历史记录
func Transition(f *models.FormDefinition, s *models.FormSubmission, action string, actor Actor, notes string, now time.Time) error {
	if s.IsFinal() {
		return fmt.Errorf("%s: %w", s.ID, ErrSubmissionFinalized)
	}
	apply, ok := transitions[s.Status][action]
	if !ok {
		return fmt.Errorf("%s 状态下不能执行 %s: %w", s.Status, action, ErrInvalidTransition)
	}
	step := s.CurrentStep
	if err := apply(f, s, actor, now); err != nil {
		return err
	}
	s.History = append(s.History, models.WorkflowEntry{
		Action:    action,
		Actor:     actor.UserID,
		Role:      actor.Role,
		Step:      step,
		Notes:     notes,
		Timestamp: now,
	})
	return nil
}

func submit(f *models.FormDefinition, s *models.FormSubmission, actor Actor, now time.Time) error {
	if s.SubmittedBy != "" && s.SubmittedBy != actor.UserID {
		return fmt.Errorf("只有提交人可以提交: %w", ErrWorkflowRoleMismatch)
	}
	s.SubmittedAt = &now
	s.CurrentStep = 0
	if !f.Workflow.Enabled || len(f.Workflow.Steps) == 0 {
		s.Status = models.SubmissionApproved
		s.CompletedAt = &now
		return nil
	}
	s.Status = models.SubmissionPending
	return nil
}

// currentRole 校验操作人角色
func currentRole(f *models.FormDefinition, s *models.FormSubmission, actor Actor) error {
	if s.CurrentStep < 0 || s.CurrentStep >= len(f.Workflow.Steps) {
		return fmt.Errorf("审批步骤 %d 不存在: %w", s.CurrentStep, ErrInvalidTransition)
	}
	if want := f.Workflow.Steps[s.CurrentStep].Role; want != actor.Role {
		return fmt.Errorf("需要角色 %s: %w", want, ErrWorkflowRoleMismatch)
	}
	return nil
}

func approve(f *models.FormDefinition, s *models.FormSubmission, actor Actor, now time.Time) error {
	if err := currentRole(f, s, actor); err != nil {
		return err
	}
	if s.CurrentStep+1 >= len(f.Workflow.Steps) {
		s.Status = models.SubmissionApproved
		s.CompletedAt = &now
		return nil
	}
	s.CurrentStep++
	return nil
}

func reject(f *models.FormDefinition, s *models.FormSubmission, actor Actor, now time.Time) error {
	if err := currentRole(f, s, actor); err != nil {
		return err
	}
	s.Status = models.SubmissionRejected
	s.CompletedAt = &now
	return nil
}

func giveBack(f *models.FormDefinition, s *models.FormSubmission, actor Actor, _ time.Time) error {
	if err := currentRole(f, s, actor); err != nil {
		return err
	}
	s.Status = models.SubmissionDraft
	s.CurrentStep = 0
	return nil
}
