/*
 * @module service/notify/notifier
 * @description 事件通知：定时报表执行结果、表单审批状态变化发布到消息系统
 * @architecture 发布者接口 - Kafka / MQTT / 组合 / 空实现
 * @stateFlow 业务完成 -> Publish(Event) -> 各通道独立发送
 * @rules 通知失败只记录日志并返回错误，调用方不因通知失败而回滚业务结果
 * @dependencies github.com/segmentio/kafka-go, github.com/eclipse/paho.mqtt.golang
 * @refs service/scheduler, service/form
 */

package notify

import (
	"context"
	"errors"
	"time"
)

// 事件类型
const (
	EventScheduleSucceeded  = "schedule.succeeded"
	EventScheduleFailed     = "schedule.failed"
	EventSubmissionCreated  = "submission.created"
	EventSubmissionAdvanced = "submission.advanced"
)

// Event 通知事件
type Event struct {
	Type      string                 `json:"type"`
	Key       string                 `json:"key"` // 分区键：定时任务 ID 或提交 ID
	Subject   string                 `json:"subject"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Notifier 事件发布者
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop 不发送任何通知
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }

// Multi 依次发送到多个通道，收集全部错误
type Multi []Notifier

// Publish 发布事件
func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 关闭全部通道
func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func stamp(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}
