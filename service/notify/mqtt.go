package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig MQTT 通知配置
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// MQTTNotifier 发布事件到 MQTT，主题为 前缀/事件类型（点号换成斜杠）
type MQTTNotifier struct {
	client mqtt.Client
	prefix string
	qos    byte
}

// NewMQTTNotifier 连接 broker 并创建通知者
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt 通知需要 broker 地址")
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT 连接断开", "broker", cfg.Broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = "dynconfig"
	}
	slog.Info("MQTT 通知已连接", "broker", cfg.Broker, "prefix", prefix)
	return &MQTTNotifier{client: client, prefix: prefix, qos: cfg.QoS}, nil
}

// Topic 事件对应的主题
func (m *MQTTNotifier) Topic(eventType string) string {
	return m.prefix + "/" + strings.ReplaceAll(eventType, ".", "/")
}

// Publish 发布事件
func (m *MQTTNotifier) Publish(ctx context.Context, event Event) error {
	event = stamp(event)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	token := m.client.Publish(m.Topic(event.Type), m.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		slog.Warn("MQTT 事件发送失败", "type", event.Type, "error", err)
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

// Close 断开连接
func (m *MQTTNotifier) Close() error {
	m.client.Disconnect(250)
	return nil
}
