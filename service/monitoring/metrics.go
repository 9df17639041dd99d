/*
 * @module service/monitoring/metrics
 * @description Prometheus 指标定义：查询耗时、报表生成、定时任务执行、定义缓存命中
 * @architecture 全局采集器 - promauto 注册到默认 Registry，由 /metrics 暴露
 * @rules 标签只使用定义编码/来源名/状态等低基数值
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs main.go, service/query/engine.go, service/report, service/scheduler
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dynconfig"

var (
	// QueryDuration 查询引擎执行耗时
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "记录源查询耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	// DroppedFieldReferences 被白名单丢弃的筛选/排序字段数
	DroppedFieldReferences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "dropped_field_references_total",
		Help:      "不在白名单内被丢弃的字段引用数",
	}, []string{"kind"})

	// ReportGenerations 报表生成次数
	ReportGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "generations_total",
		Help:      "报表生成次数",
	}, []string{"report", "status"})

	// ReportDuration 报表生成耗时
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "duration_seconds",
		Help:      "报表生成耗时",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"report"})

	// ScheduleRuns 定时任务执行次数
	ScheduleRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "runs_total",
		Help:      "定时报表执行次数",
	}, []string{"status"})

	// ScheduleRunDuration 定时任务执行耗时
	ScheduleRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "run_duration_seconds",
		Help:      "定时报表单次执行耗时",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	// DefinitionCacheLookups 定义缓存查询
	DefinitionCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "definition",
		Name:      "cache_lookups_total",
		Help:      "定义缓存查询次数",
	}, []string{"result"})
)
