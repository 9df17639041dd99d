/*
 * @module service/aggregate/chart
 * @description 图表数据构建，输出 Chart.js 兼容的 labels + datasets 结构
 * @architecture 纯函数层
 * @stateFlow 行集 -> (无分组: 逐行取点 | 分组: 单序列聚合 | 分组+系列: 多序列聚合) -> ChartData
 * @rules
 *   - 分组与系列按首次出现顺序排列
 *   - 分组+系列时缺失的单元格补 0
 *   - count 统计行数，其余聚合只统计数值
 *   - 颜色优先使用定义中的颜色，否则按下标循环默认十色调色板
 * @dependencies service/compare
 * @refs summary.go, service/report/generator.go
 */

package aggregate

import (
	"strconv"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// DefaultPalette 默认十色调色板
var DefaultPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// Dataset 图表数据集
type Dataset struct {
	Label           string      `json:"label"`
	Data            []float64   `json:"data"`
	BackgroundColor interface{} `json:"backgroundColor"`
	BorderColor     interface{} `json:"borderColor"`
}

// ChartData 图表数据
type ChartData struct {
	Key      string           `json:"key"`
	Title    string           `json:"title"`
	Type     models.ChartType `json:"type"`
	Position string           `json:"position,omitempty"`
	Labels   []string         `json:"labels"`
	Datasets []Dataset        `json:"datasets"`
	Options  models.JSONB     `json:"options,omitempty"`
}

// colorAt 按下标循环取色
func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	return colors[i%len(colors)]
}

// perPointColors 饼图/环形图每个数据点单独着色
func perPointColors(t models.ChartType) bool {
	return t == models.ChartPie || t == models.ChartDoughnut
}

// BuildChart 根据图表定义构建图表数据
func BuildChart(def models.ReportChart, rows []map[string]interface{}) ChartData {
	chart := ChartData{
		Key:      def.Key,
		Title:    def.Title,
		Type:     def.ChartType,
		Position: def.Position,
		Options:  def.Options,
		Labels:   []string{},
		Datasets: []Dataset{},
	}
	fn := def.Aggregation
	if fn == "" {
		fn = models.AggSum
	}

	switch {
	case def.GroupField == "":
		buildUngrouped(&chart, def, rows)
	case def.SeriesField == "":
		buildGrouped(&chart, def, rows, fn)
	default:
		buildSeries(&chart, def, rows, fn)
	}
	return chart
}

func buildUngrouped(chart *ChartData, def models.ReportChart, rows []map[string]interface{}) {
	data := make([]float64, 0, len(rows))
	for i, row := range rows {
		label := strconv.Itoa(i + 1)
		if def.LabelField != "" {
			label = labelOf(row[def.LabelField])
		}
		chart.Labels = append(chart.Labels, label)
		n, _ := compare.ToNumber(row[def.DataField])
		data = append(data, n)
	}
	chart.Datasets = append(chart.Datasets, dataset(def, def.Title, data, 0))
}

func buildGrouped(chart *ChartData, def models.ReportChart, rows []map[string]interface{}, fn models.AggregateFunc) {
	groups, buckets := partition(rows, def.GroupField)
	data := make([]float64, 0, len(groups))
	for _, g := range groups {
		data = append(data, reduce(buckets[g], def.DataField, fn))
	}
	chart.Labels = groups
	chart.Datasets = append(chart.Datasets, dataset(def, def.Title, data, 0))
}

func buildSeries(chart *ChartData, def models.ReportChart, rows []map[string]interface{}, fn models.AggregateFunc) {
	groups, _ := partition(rows, def.GroupField)
	series, seriesBuckets := partition(rows, def.SeriesField)

	chart.Labels = groups
	for i, s := range series {
		_, cells := partition(seriesBuckets[s], def.GroupField)
		data := make([]float64, len(groups))
		for j, g := range groups {
			if cell, ok := cells[g]; ok {
				data[j] = reduce(cell, def.DataField, fn)
			}
		}
		chart.Datasets = append(chart.Datasets, dataset(def, s, data, i))
	}
}

// partition 按字段值分组，返回首次出现顺序的键与分组
func partition(rows []map[string]interface{}, field string) ([]string, map[string][]map[string]interface{}) {
	keys := []string{}
	buckets := make(map[string][]map[string]interface{})
	for _, row := range rows {
		k := labelOf(row[field])
		if _, seen := buckets[k]; !seen {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], row)
	}
	return keys, buckets
}

// reduce 图表单元格聚合：count 统计行数，其余聚合空值记为 0
func reduce(rows []map[string]interface{}, field string, fn models.AggregateFunc) float64 {
	if fn == models.AggCount {
		return float64(len(rows))
	}
	n, _ := compare.ToNumber(Aggregate(rows, field, fn))
	return n
}

func labelOf(v interface{}) string {
	if v == nil {
		return ""
	}
	return compare.ToString(v)
}

func dataset(def models.ReportChart, label string, data []float64, index int) Dataset {
	ds := Dataset{Label: label, Data: data}
	if perPointColors(def.ChartType) {
		colors := make([]string, len(data))
		for i := range data {
			colors[i] = colorAt(def.Colors, i)
		}
		ds.BackgroundColor = colors
		ds.BorderColor = colors
		return ds
	}
	c := colorAt(def.Colors, index)
	ds.BackgroundColor = c
	ds.BorderColor = c
	return ds
}
