/**
 * @module SchedulerService
 * @description 定时报表调度器：周期性检查到期任务，生成报表、导出、投递并记录结果
 * @architecture 单一周期触发 + 每个任务独立协程
 * @stateFlow Idle -> Due(next_run_at<=now) -> Running -> Success/Failed -> Idle
 * @rules
 *   - 认领任务时先推进 next_run_at，成功与失败使用同一个计算方式
 *   - 每个任务有独立超时与 panic 恢复，失败只记录在任务行上，不影响其他任务
 *   - 不自动重试
 *   - 多实例部署时通过 Redis 锁去重
 * @dependencies github.com/robfig/cron/v3, gorm, service/distributed_lock
 * @refs ../models/report_schedule.go, ../report/export.go
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"dynconfig-service/service/distributed_lock"
	"dynconfig-service/service/export"
	"dynconfig-service/service/models"
	"dynconfig-service/service/monitoring"
	"dynconfig-service/service/notify"
)

// Runner 按定时任务生成导出文件
type Runner interface {
	RunSchedule(ctx context.Context, s *models.ReportSchedule) (*export.File, error)
}

// Config 调度器配置
type Config struct {
	TickInterval time.Duration
	RunTimeout   time.Duration
	LockTTL      time.Duration
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Minute
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 5 * time.Minute
	}
	if c.LockTTL <= c.RunTimeout {
		c.LockTTL = c.RunTimeout + 30*time.Second
	}
	return c
}

// SchedulerService 调度器服务
type SchedulerService struct {
	db        *gorm.DB
	runner    Runner
	deliverer export.Deliverer
	notifier  notify.Notifier
	locks     *distributed_lock.LockExecutor
	cfg       Config
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewSchedulerService 创建调度器服务，lock 为 nil 时不做跨实例去重
func NewSchedulerService(db *gorm.DB, runner Runner, deliverer export.Deliverer, notifier notify.Notifier,
	lock distributed_lock.DistributedLock, cfg Config) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())
	if deliverer == nil {
		deliverer = export.LogDeliverer{}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	var locks *distributed_lock.LockExecutor
	if lock != nil {
		locks = distributed_lock.NewLockExecutor(lock)
	}
	return &SchedulerService{
		db:        db,
		runner:    runner,
		deliverer: deliverer,
		notifier:  notifier,
		locks:     locks,
		cfg:       cfg.withDefaults(),
		cron:      cron.New(),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Start 启动调度器
func (s *SchedulerService) Start() error {
	log.Println("启动定时报表调度器")

	spec := fmt.Sprintf("@every %s", s.cfg.TickInterval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.Tick(s.ctx, s.now())
	}); err != nil {
		return fmt.Errorf("添加调度触发器失败: %w", err)
	}
	s.cron.Start()

	log.Printf("定时报表调度器启动完成，检查间隔 %s", s.cfg.TickInterval)
	return nil
}

// Stop 停止调度器，等待执行中的任务结束
func (s *SchedulerService) Stop() {
	log.Println("停止定时报表调度器")
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
	log.Println("定时报表调度器已停止")
}

// RunNow 立即执行一次，不改变 next_run_at
func (s *SchedulerService) RunNow(ctx context.Context, sched *models.ReportSchedule) error {
	ranAt := s.now().UTC()
	start := time.Now()
	err := s.run(ctx, sched)
	monitoring.ScheduleRunDuration.Observe(time.Since(start).Seconds())
	s.record(ctx, sched, ranAt, err)
	return err
}

// Wait 等待已启动的任务执行完毕
func (s *SchedulerService) Wait() {
	s.wg.Wait()
}

// Tick 启动所有到期任务，返回本次认领的任务数，不等待执行结束
func (s *SchedulerService) Tick(ctx context.Context, now time.Time) int {
	now = now.UTC()
	var due []models.ReportSchedule
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Find(&due).Error
	if err != nil {
		slog.Error("查询到期定时任务失败", "error", err)
		return 0
	}

	started := 0
	for i := range due {
		sched := due[i]
		if !s.claim(ctx, &sched, now) {
			continue
		}
		started++
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx, &sched, now)
		}()
	}
	if started > 0 {
		slog.Info("定时报表已触发", "due", len(due), "started", started)
	}
	return started
}

// claim 推进 next_run_at 并标记为运行中；推进后任务不再到期，条件更新保证同一轮只被认领一次
func (s *SchedulerService) claim(ctx context.Context, sched *models.ReportSchedule, now time.Time) bool {
	next, nextErr := NextRun(sched.CronExpression, sched.Timezone, now)
	updates := map[string]interface{}{
		"last_status": models.ScheduleStatusRunning,
		"next_run_at": next,
	}
	res := s.db.WithContext(ctx).Model(&models.ReportSchedule{}).
		Where("id = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", sched.ID, now).
		Updates(updates)
	if res.Error != nil {
		slog.Error("认领定时任务失败", "schedule", sched.ID, "error", res.Error)
		return false
	}
	if res.RowsAffected == 0 {
		return false
	}
	if nextErr != nil {
		// 表达式无效：本次记为失败，next_run_at 置空后不再触发
		s.record(ctx, sched, now, nextErr)
		return false
	}
	sched.NextRunAt = next
	sched.LastStatus = models.ScheduleStatusRunning
	return true
}

// execute 执行单个任务，失败与 panic 只记录在任务行上
func (s *SchedulerService) execute(ctx context.Context, sched *models.ReportSchedule, now time.Time) {
	start := time.Now()
	err := s.run(ctx, sched)
	monitoring.ScheduleRunDuration.Observe(time.Since(start).Seconds())
	s.record(ctx, sched, now, err)
}

func (s *SchedulerService) run(ctx context.Context, sched *models.ReportSchedule) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("定时任务执行 panic", "schedule", sched.ID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	ran, err := s.locks.ExecuteWithLock(runCtx, sched.ID, s.cfg.LockTTL, func() error {
		file, err := s.runner.RunSchedule(runCtx, sched)
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("%s - %s", sched.Name, file.Name)
		return s.deliverer.Deliver(runCtx, file, sched.Recipients, subject)
	})
	if err == nil && !ran {
		return errSkipped
	}
	return err
}

var errSkipped = errors.New("已由其他实例执行")

// record 写回执行结果
func (s *SchedulerService) record(ctx context.Context, sched *models.ReportSchedule, ranAt time.Time, runErr error) {
	if errors.Is(runErr, errSkipped) {
		return
	}
	status, message := models.ScheduleStatusSuccess, ""
	if runErr != nil {
		status, message = models.ScheduleStatusFailed, runErr.Error()
	}

	// 任务上下文可能已取消，结果写回不依赖它
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := s.db.WithContext(writeCtx).Model(&models.ReportSchedule{}).
		Where("id = ?", sched.ID).
		Updates(map[string]interface{}{
			"last_run_at": ranAt,
			"last_status": status,
			"last_error":  message,
			"run_count":   gorm.Expr("run_count + 1"),
		}).Error
	if err != nil {
		slog.Error("记录定时任务结果失败", "schedule", sched.ID, "error", err)
	}
	sched.LastRunAt = &ranAt
	sched.LastStatus = status
	sched.LastError = message
	sched.RunCount++

	monitoring.ScheduleRuns.WithLabelValues(status).Inc()
	if runErr != nil {
		slog.Warn("定时报表执行失败", "schedule", sched.ID, "report", sched.ReportCode, "error", runErr)
	} else {
		slog.Info("定时报表执行成功", "schedule", sched.ID, "report", sched.ReportCode)
	}

	eventType := notify.EventScheduleSucceeded
	if runErr != nil {
		eventType = notify.EventScheduleFailed
	}
	if err := s.notifier.Publish(writeCtx, notify.Event{
		Type:    eventType,
		Key:     sched.ID,
		Subject: sched.ReportCode,
		Payload: map[string]interface{}{
			"schedule_id": sched.ID,
			"name":        sched.Name,
			"status":      status,
			"error":       message,
			"next_run_at": sched.NextRunAt,
		},
	}); err != nil {
		slog.Warn("定时任务事件发布失败", "schedule", sched.ID, "error", err)
	}
}

// NextRun 按标准五段 cron 表达式与时区计算下一次执行时间
func NextRun(expr, timezone string, after time.Time) (*time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("无效的时区 %q: %w", timezone, err)
		}
		loc = l
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("无效的 cron 表达式 %q: %w", expr, err)
	}
	next := sched.Next(after.In(loc)).UTC()
	return &next, nil
}
