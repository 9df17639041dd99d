/*
 * @module service/init
 * @description 服务初始化模块，负责配置加载、数据库连接、记录源注册与各服务装配
 * @architecture 分层架构 - 服务层
 * @stateFlow 应用启动时执行初始化流程：配置 -> 日志 -> 数据库 -> 迁移 -> 服务 -> 定义包 -> 调度器
 * @rules 确保所有依赖服务正常启动后才提供API服务；可选组件（Redis、Kafka、MQTT、Dapr）未配置时降级
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, github.com/go-redis/redis/v8, github.com/dapr/go-sdk/client
 * @refs service/config/config.go, api/routes.go
 */

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	dapr "github.com/dapr/go-sdk/client"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dynconfig-service/logger"
	"dynconfig-service/service/config"
	"dynconfig-service/service/database"
	"dynconfig-service/service/definition"
	"dynconfig-service/service/distributed_lock"
	"dynconfig-service/service/export"
	"dynconfig-service/service/form"
	"dynconfig-service/service/format"
	"dynconfig-service/service/notify"
	"dynconfig-service/service/query"
	"dynconfig-service/service/rate_limiter"
	"dynconfig-service/service/report"
	"dynconfig-service/service/scheduler"
	"dynconfig-service/service/view"
)

var (
	Config                 *config.AppConfig
	DB                     *gorm.DB
	RedisClient            *redis.Client
	GlobalDefinitionStore  *definition.Store
	GlobalQueryEngine      *query.Engine
	GlobalFormatter        *format.Formatter
	GlobalViewService      *view.Service
	GlobalFormService      *form.Service
	GlobalExportService    *export.Service
	GlobalReportGenerator  *report.Generator
	GlobalNotifier         notify.Notifier
	GlobalSchedulerService *scheduler.SchedulerService
	GlobalScheduleService  *scheduler.ScheduleService
	GlobalRateLimiter      rate_limiter.Limiter
)

func init() {
	loadConfig()
	initDatabase()
	runMigrations()
	initRedis()
	initServices()
	loadBundles()
	startScheduler()
}

// loadConfig 加载配置并初始化日志
func loadConfig() {
	var err error
	Config, err = config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(Config.LogLevel)
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var err error
	DB, err = gorm.Open(postgres.Open(Config.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("获取数据库连接池失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(Config.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(Config.Database.MaxIdleConns)

	log.Println("数据库连接成功")
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
}

// initRedis 配置了 REDIS_HOST 时连接 Redis，失败只降级不退出
func initRedis() {
	if Config.Redis.Host == "" {
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:         Config.Redis.Addr(),
		Password:     Config.Redis.Password,
		DB:           Config.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis连接失败，共享缓存、分布式锁与限流不可用: %v", err)
		_ = client.Close()
		return
	}
	RedisClient = client
	log.Printf("Redis连接成功: %s", Config.Redis.Addr())
}

// initServices 初始化服务
func initServices() {
	GlobalDefinitionStore = definition.NewStore(DB, newDefinitionCache(), Config.Cache.TTL)

	sources, err := newSourceRegistry()
	if err != nil {
		log.Fatalf("记录源注册失败: %v", err)
	}
	GlobalQueryEngine = query.NewEngine(sources, GlobalDefinitionStore)
	GlobalFormatter = format.NewFormatter(Config.Format.Locale, Config.Format.Currency)
	GlobalViewService = view.NewService(DB, GlobalDefinitionStore)
	GlobalNotifier = newNotifier()
	GlobalFormService = form.NewService(DB, GlobalDefinitionStore, form.NewScriptEngine(Config.Form.ScriptTimeout), GlobalNotifier)

	daprClient := newDaprClient()
	var renderer export.Renderer
	var deliverer export.Deliverer = export.LogDeliverer{}
	if daprClient != nil && Config.Export.RendererAppID != "" {
		renderer = export.NewDaprRenderer(daprClient, Config.Export.RendererAppID)
	}
	if daprClient != nil && Config.Export.MailBinding != "" {
		deliverer = export.NewDaprMailDeliverer(daprClient, Config.Export.MailBinding, Config.Export.MailFrom)
	}
	GlobalExportService = export.NewService(renderer)
	GlobalReportGenerator = report.NewGenerator(GlobalDefinitionStore, GlobalQueryEngine, GlobalFormatter,
		GlobalExportService, Config.Export.ReportTimeout)

	var lock distributed_lock.DistributedLock
	if Config.Scheduler.DistLock && RedisClient != nil {
		lock = distributed_lock.NewRedisLock(RedisClient, distributed_lock.DefaultPrefix)
	}
	GlobalSchedulerService = scheduler.NewSchedulerService(DB, GlobalReportGenerator, deliverer, GlobalNotifier, lock,
		scheduler.Config{
			TickInterval: Config.Scheduler.TickInterval,
			RunTimeout:   Config.Scheduler.RunTimeout,
		})
	GlobalScheduleService = scheduler.NewScheduleService(DB, GlobalDefinitionStore, GlobalSchedulerService)

	if RedisClient != nil && Config.Export.RateLimit > 0 {
		GlobalRateLimiter = rate_limiter.NewRedisRateLimiter(RedisClient, rate_limiter.DefaultPrefix)
	}

	log.Println("服务初始化完成")
}

// newDefinitionCache 按配置选择定义缓存
func newDefinitionCache() definition.Cache {
	switch Config.Cache.Type {
	case config.CacheRedis:
		if RedisClient != nil {
			return definition.NewRedisCache(RedisClient, "dynconfig:definition:")
		}
		log.Println("未连接Redis，定义缓存降级为本地缓存")
		fallthrough
	case config.CacheLocal:
		c, err := definition.NewLocalCache(Config.Cache.MaxBytes)
		if err != nil {
			log.Printf("本地缓存初始化失败，不使用缓存: %v", err)
			return definition.NopCache{}
		}
		return c
	default:
		return definition.NopCache{}
	}
}

// newSourceRegistry 按配置注册记录源
func newSourceRegistry() (*query.SourceRegistry, error) {
	registry := query.NewSourceRegistry()
	for _, sc := range Config.Sources {
		switch sc.Type {
		case config.SourceStatic:
			rows, err := query.LoadStaticRows(sc.File)
			if err != nil {
				return nil, err
			}
			registry.Register(sc.Name, query.NewMemorySource(rows))
		case config.SourceTable, "":
			table := sc.Table
			if table == "" {
				table = sc.Name
			}
			registry.Register(sc.Name, query.NewGormSource(DB, table))
		default:
			return nil, fmt.Errorf("记录源 %s 类型无效: %q", sc.Name, sc.Type)
		}
	}
	log.Printf("已注册 %d 个记录源", len(Config.Sources))
	return registry, nil
}

// newNotifier 启用已配置的 Kafka / MQTT 通知
func newNotifier() notify.Notifier {
	var notifiers notify.Multi
	if len(Config.Notify.Kafka.Brokers) > 0 {
		k, err := notify.NewKafkaNotifier(notify.KafkaConfig{
			Brokers: Config.Notify.Kafka.Brokers,
			Topic:   Config.Notify.Kafka.Topic,
		})
		if err != nil {
			log.Printf("Kafka通知初始化失败: %v", err)
		} else {
			notifiers = append(notifiers, k)
		}
	}
	if Config.Notify.MQTT.Broker != "" {
		m, err := notify.NewMQTTNotifier(notify.MQTTConfig{
			Broker:      Config.Notify.MQTT.Broker,
			ClientID:    Config.Notify.MQTT.ClientID,
			Username:    Config.Notify.MQTT.Username,
			Password:    Config.Notify.MQTT.Password,
			TopicPrefix: Config.Notify.MQTT.TopicPrefix,
			QoS:         Config.Notify.MQTT.QoS,
		})
		if err != nil {
			log.Printf("MQTT通知初始化失败: %v", err)
		} else {
			notifiers = append(notifiers, m)
		}
	}
	if len(notifiers) == 0 {
		return notify.Nop{}
	}
	return notifiers
}

// newDaprClient 仅在配置了渲染服务或邮件绑定时连接 Dapr sidecar
func newDaprClient() dapr.Client {
	if Config.Export.RendererAppID == "" && Config.Export.MailBinding == "" {
		return nil
	}
	client, err := dapr.NewClient()
	if err != nil {
		log.Printf("Dapr客户端初始化失败，pdf/excel导出与邮件投递不可用: %v", err)
		return nil
	}
	return client
}

// loadBundles 导入配置的定义包
func loadBundles() {
	if len(Config.Bundles) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := GlobalDefinitionStore.LoadBundleFiles(ctx, Config.Bundles); err != nil {
		log.Printf("定义包导入失败: %v", err)
	}
}

// startScheduler 启动定时报表调度器
func startScheduler() {
	if !Config.Scheduler.Enabled {
		log.Println("定时报表调度器未启用")
		return
	}
	if err := GlobalSchedulerService.Start(); err != nil {
		log.Printf("启动调度器服务失败: %v", err)
	}
}

// Shutdown 停止调度器并关闭通知通道，等待进行中的定时任务结束
func Shutdown() {
	if GlobalSchedulerService != nil {
		GlobalSchedulerService.Stop()
	}
	if GlobalNotifier != nil {
		if err := GlobalNotifier.Close(); err != nil {
			log.Printf("关闭通知通道失败: %v", err)
		}
	}
	if RedisClient != nil {
		_ = RedisClient.Close()
	}
}
