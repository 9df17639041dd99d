/*
 * @module service/aggregate/summary
 * @description 报表汇总计算：sum/avg/count/min/max
 * @architecture 纯函数层 - 只读输入行，不保留状态
 * @rules
 *   - 只统计非 nil 值
 *   - 空数据集：sum/count 返回 0，avg/min/max 返回 nil
 *   - sum/avg 只统计可解释为数值的值；min/max 同时支持数值、日期与文本
 * @dependencies service/compare
 * @refs chart.go, service/report/generator.go
 */

package aggregate

import (
	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

type aggregator func(values []interface{}) interface{}

var aggregators = map[models.AggregateFunc]aggregator{
	models.AggSum:   sum,
	models.AggAvg:   avg,
	models.AggCount: count,
	models.AggMin:   func(values []interface{}) interface{} { return extreme(values, -1) },
	models.AggMax:   func(values []interface{}) interface{} { return extreme(values, 1) },
}

// Supported 是否支持该汇总函数
func Supported(fn models.AggregateFunc) bool {
	_, ok := aggregators[fn]
	return ok
}

// Aggregate 对行集中某字段执行汇总；未知函数返回 nil
func Aggregate(rows []map[string]interface{}, field string, fn models.AggregateFunc) interface{} {
	agg, ok := aggregators[fn]
	if !ok {
		return nil
	}
	return agg(column(rows, field))
}

// column 取出字段的非 nil 值
func column(rows []map[string]interface{}, field string) []interface{} {
	values := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		if v := row[field]; v != nil {
			values = append(values, v)
		}
	}
	return values
}

func sum(values []interface{}) interface{} {
	total := 0.0
	for _, v := range values {
		if n, ok := compare.ToNumber(v); ok {
			total += n
		}
	}
	return total
}

func avg(values []interface{}) interface{} {
	total, n := 0.0, 0
	for _, v := range values {
		if f, ok := compare.ToNumber(v); ok {
			total += f
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return total / float64(n)
}

func count(values []interface{}) interface{} {
	return len(values)
}

// extreme sign=-1 取最小值，sign=1 取最大值
func extreme(values []interface{}, sign int) interface{} {
	var best interface{}
	for _, v := range values {
		if best == nil {
			best = v
			continue
		}
		if c, ok := compare.Compare(v, best); ok && c*sign > 0 {
			best = v
		}
	}
	return best
}
