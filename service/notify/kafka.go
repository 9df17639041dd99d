package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig Kafka 通知配置
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	RequiredAcks int           `yaml:"required_acks"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaNotifier 发布事件到 Kafka topic，事件类型写入消息头
type KafkaNotifier struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaNotifier 创建 Kafka 通知者
func NewKafkaNotifier(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka 通知需要 brokers 与 topic")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		WriteTimeout: timeout,
	}
	slog.Info("Kafka 通知已配置", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &KafkaNotifier{writer: writer, timeout: timeout}, nil
}

// Publish 发布事件
func (k *KafkaNotifier) Publish(ctx context.Context, event Event) error {
	event = stamp(event)
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.Key),
		Value:   value,
		Time:    event.Timestamp,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
	})
	if err != nil {
		slog.Warn("Kafka 事件发送失败", "type", event.Type, "key", event.Key, "error", err)
		return fmt.Errorf("发送 Kafka 事件失败: %w", err)
	}
	slog.Debug("Kafka 事件已发送", "type", event.Type, "key", event.Key)
	return nil
}

// Close 关闭生产者
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
