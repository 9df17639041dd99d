/*
 * @module service/config/config
 * @description 应用配置：可选 YAML 配置文件 + 环境变量覆盖
 * @architecture 配置层 - 启动时加载一次，只读
 * @stateFlow 默认值 -> CONFIG_FILE(YAML) -> 环境变量 -> AppConfig
 * @rules 环境变量优先级最高；时长使用 Go duration 格式（如 30s、5m）
 * @dependencies gopkg.in/yaml.v3, github.com/spf13/cast
 * @refs service/init.go
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Notify    NotifyConfig    `json:"notify" yaml:"notify"`
	Export    ExportConfig    `json:"export" yaml:"export"`
	Format    FormatConfig    `json:"format" yaml:"format"`
	Form      FormConfig      `json:"form" yaml:"form"`
	Sources   []SourceConfig  `json:"sources" yaml:"sources"`
	Bundles   []string        `json:"bundles" yaml:"bundles"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port        int    `json:"port" yaml:"port"`
	BaseContext string `json:"base_context" yaml:"base_context"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	URL          string `json:"url" yaml:"url"`
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	User         string `json:"user" yaml:"user"`
	Password     string `json:"-" yaml:"password"`
	Name         string `json:"name" yaml:"name"`
	SSLMode      string `json:"ssl_mode" yaml:"ssl_mode"`
	Schema       string `json:"schema" yaml:"schema"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN 连接串，优先使用 URL
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Schema)
}

// RedisConfig Redis 配置，Host 为空表示不使用 Redis
type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"-" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Addr host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// 定义缓存类型
const (
	CacheNone  = "none"
	CacheLocal = "local"
	CacheRedis = "redis"
)

// CacheConfig 定义缓存配置
type CacheConfig struct {
	Type     string        `json:"type" yaml:"type"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
	MaxBytes int64         `json:"max_bytes" yaml:"max_bytes"`
}

// SchedulerConfig 定时报表配置
type SchedulerConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
	RunTimeout   time.Duration `json:"run_timeout" yaml:"run_timeout"`
	DistLock     bool          `json:"dist_lock" yaml:"dist_lock"`
}

// NotifyConfig 事件通知配置，Kafka 与 MQTT 可同时启用
type NotifyConfig struct {
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`
	MQTT  MQTTConfig  `json:"mqtt" yaml:"mqtt"`
}

// KafkaConfig Kafka 配置，Brokers 为空表示不启用
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// MQTTConfig MQTT 配置，Broker 为空表示不启用
type MQTTConfig struct {
	Broker      string `json:"broker" yaml:"broker"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"-" yaml:"password"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte   `json:"qos" yaml:"qos"`
}

// ExportConfig 导出与投递配置
type ExportConfig struct {
	RendererAppID string        `json:"renderer_app_id" yaml:"renderer_app_id"`
	MailBinding   string        `json:"mail_binding" yaml:"mail_binding"`
	MailFrom      string        `json:"mail_from" yaml:"mail_from"`
	ReportTimeout time.Duration `json:"report_timeout" yaml:"report_timeout"`
	RateLimit     int           `json:"rate_limit" yaml:"rate_limit"` // 每用户每分钟导出与报表生成次数，0 表示不限制，需要 Redis
}

// FormatConfig 格式化配置
type FormatConfig struct {
	Locale   string `json:"locale" yaml:"locale"`
	Currency string `json:"currency" yaml:"currency"`
}

// FormConfig 表单配置
type FormConfig struct {
	ScriptTimeout time.Duration `json:"script_timeout" yaml:"script_timeout"`
}

// 记录源类型
const (
	SourceTable  = "table"
	SourceStatic = "static"
)

// SourceConfig 记录源配置：table 为数据库表/视图，static 为 YAML 文件中的静态行
type SourceConfig struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Table string `json:"table" yaml:"table"`
	File  string `json:"file" yaml:"file"`
}

// Default 默认配置
func Default() *AppConfig {
	return &AppConfig{
		LogLevel: "info",
		Server:   ServerConfig{Port: 80},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, User: "postgres", Name: "postgres",
			SSLMode: "disable", Schema: "public", MaxOpenConns: 20, MaxIdleConns: 5,
		},
		Redis: RedisConfig{Port: 6379},
		Cache: CacheConfig{Type: CacheLocal, TTL: 5 * time.Minute, MaxBytes: 64 << 20},
		Scheduler: SchedulerConfig{
			Enabled: true, TickInterval: time.Minute, RunTimeout: 5 * time.Minute,
		},
		Notify: NotifyConfig{
			Kafka: KafkaConfig{Topic: "dynconfig-events"},
			MQTT:  MQTTConfig{ClientID: "dynconfig-service", TopicPrefix: "dynconfig", QoS: 1},
		},
		Export: ExportConfig{ReportTimeout: 60 * time.Second, RateLimit: 30},
		Format: FormatConfig{Locale: "en", Currency: "$"},
		Form:   FormConfig{ScriptTimeout: 2 * time.Second},
	}
}

// Load 加载配置：默认值 -> CONFIG_FILE -> 环境变量
func Load() (*AppConfig, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// Parse 在已有配置上叠加 YAML 内容
func Parse(data []byte, cfg *AppConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv 环境变量覆盖
func (c *AppConfig) applyEnv(lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = cast.ToInt(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			if d, err := cast.ToDurationE(v); err == nil {
				*dst = d
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = cast.ToBool(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	num("LISTEN_PORT", &c.Server.Port)
	str("BASE_CONTEXT", &c.Server.BaseContext)

	str("DATABASE_URL", &c.Database.URL)
	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)
	str("DB_SSLMODE", &c.Database.SSLMode)
	str("DB_SCHEMA", &c.Database.Schema)

	str("REDIS_HOST", &c.Redis.Host)
	num("REDIS_PORT", &c.Redis.Port)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)

	str("CACHE_TYPE", &c.Cache.Type)
	dur("CACHE_TTL", &c.Cache.TTL)

	flag("SCHEDULER_ENABLED", &c.Scheduler.Enabled)
	dur("SCHEDULER_TICK_INTERVAL", &c.Scheduler.TickInterval)
	dur("SCHEDULER_RUN_TIMEOUT", &c.Scheduler.RunTimeout)
	flag("SCHEDULER_DIST_LOCK", &c.Scheduler.DistLock)

	list("KAFKA_BROKERS", &c.Notify.Kafka.Brokers)
	str("NOTIFY_KAFKA_TOPIC", &c.Notify.Kafka.Topic)
	str("MQTT_BROKER", &c.Notify.MQTT.Broker)
	str("MQTT_USERNAME", &c.Notify.MQTT.Username)
	str("MQTT_PASSWORD", &c.Notify.MQTT.Password)
	str("NOTIFY_MQTT_TOPIC_PREFIX", &c.Notify.MQTT.TopicPrefix)

	str("EXPORT_APP_ID", &c.Export.RendererAppID)
	str("MAIL_BINDING", &c.Export.MailBinding)
	str("MAIL_FROM", &c.Export.MailFrom)
	dur("REPORT_TIMEOUT", &c.Export.ReportTimeout)
	num("EXPORT_RATE_LIMIT", &c.Export.RateLimit)

	str("LOCALE", &c.Format.Locale)
	str("CURRENCY", &c.Format.Currency)

	list("DEFINITION_BUNDLES", &c.Bundles)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
