/*
 * @module service/format/formatter
 * @description 按数据类型格式化展示值：日期、数值、货币、百分比、布尔、成绩、状态、文本
 * @architecture 查找表分发 - DataType -> 格式化函数
 * @stateFlow 原始行 -> 逐列格式化 + 条件样式 -> {raw, formatted, styles}
 * @rules
 *   - 格式化只产生新的展示值，从不修改原始值
 *   - nil 统一显示为占位符
 *   - 显式给出千分位/小数点分隔符时按分隔符格式化，否则按语言环境格式化
 * @dependencies golang.org/x/text/message, golang.org/x/text/cases, github.com/spf13/cast
 * @refs styling.go, service/report, api/controllers/table_controller.go
 */

package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/message"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// Placeholder 空值占位符
const Placeholder = "-"

var defaultPrecision = map[models.DataType]int{
	models.DataTypeNumber:     0,
	models.DataTypeDecimal:    2,
	models.DataTypeCurrency:   2,
	models.DataTypePercentage: 1,
}

var defaultGradeColors = map[string]string{
	"A": "#16a34a",
	"B": "#2563eb",
	"C": "#ca8a04",
	"D": "#ea580c",
	"E": "#dc2626",
	"F": "#dc2626",
}

// Formatter 展示值格式化器，可并发使用
type Formatter struct {
	locale   string
	profile  localeProfile
	currency string
}

type formatFunc func(f *Formatter, v interface{}, opts models.JSONB, dt models.DataType) interface{}

var formatters map[models.DataType]formatFunc

func init() {
	formatters = map[models.DataType]formatFunc{
		models.DataTypeString:     (*Formatter).formatString,
		models.DataTypeNumber:     (*Formatter).formatNumber,
		models.DataTypeDecimal:    (*Formatter).formatNumber,
		models.DataTypeCurrency:   (*Formatter).formatCurrency,
		models.DataTypePercentage: (*Formatter).formatPercentage,
		models.DataTypeDate:       (*Formatter).formatDate,
		models.DataTypeDatetime:   (*Formatter).formatDate,
		models.DataTypeBoolean:    (*Formatter).formatBoolean,
		models.DataTypeStatus:     (*Formatter).formatStatus,
		models.DataTypeGrade:      (*Formatter).formatGrade,
	}
}

// NewFormatter 创建格式化器，currency 为默认货币符号
func NewFormatter(locale, currency string) *Formatter {
	profile := profileFor(locale)
	if currency == "" {
		currency = "$"
	}
	return &Formatter{
		locale:   locale,
		profile:  profile,
		currency: currency,
	}
}

// Format 格式化单个值
func (f *Formatter) Format(value interface{}, dataType models.DataType, opts models.JSONB) interface{} {
	if value == nil {
		return Placeholder
	}
	fn, ok := formatters[dataType]
	if !ok {
		fn = (*Formatter).formatString
	}
	return fn(f, value, opts, dataType)
}

func (f *Formatter) formatString(v interface{}, opts models.JSONB, _ models.DataType) interface{} {
	s := compare.ToString(v)
	switch cast.ToString(opts["transform"]) {
	case "upper":
		s = strings.ToUpper(s)
	case "lower":
		s = strings.ToLower(s)
	case "title":
		s = f.title(s)
	}
	if limit := cast.ToInt(opts["max_length"]); limit > 0 {
		if r := []rune(s); len(r) > limit {
			s = string(r[:limit]) + "…"
		}
	}
	return s
}

func precisionOf(opts models.JSONB, dt models.DataType) int {
	if p, ok := opts["precision"]; ok {
		if n, err := cast.ToIntE(p); err == nil && n >= 0 {
			return n
		}
	}
	return defaultPrecision[dt]
}

// number 按分隔符或语言环境格式化数值；非数值返回原文本
func (f *Formatter) number(v interface{}, opts models.JSONB, precision int) (string, bool) {
	n, ok := compare.ToNumber(v)
	if !ok {
		return compare.ToString(v), false
	}
	thousands, hasThousands := opts["thousands_separator"]
	decimal, hasDecimal := opts["decimal_separator"]
	if hasThousands || hasDecimal {
		t := ","
		if hasThousands {
			t = cast.ToString(thousands)
		}
		d := "."
		if hasDecimal {
			d = cast.ToString(decimal)
		}
		return groupNumber(n, precision, t, d), true
	}
	// Printer 与 Caser 都带内部状态，每次调用单独创建
	return message.NewPrinter(f.profile.tag).Sprintf("%."+strconv.Itoa(precision)+"f", n), true
}

// groupNumber 使用给定分隔符格式化数值
func groupNumber(n float64, precision int, thousands, decimal string) string {
	s := strconv.FormatFloat(math.Abs(n), 'f', precision, 64)
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if n < 0 && strings.Trim(s, "0.") != "" {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		b.WriteString(decimal)
		b.WriteString(fracPart)
	}
	return b.String()
}

func (f *Formatter) title(s string) string {
	return cases.Title(f.profile.tag).String(s)
}

func (f *Formatter) formatNumber(v interface{}, opts models.JSONB, dt models.DataType) interface{} {
	s, _ := f.number(v, opts, precisionOf(opts, dt))
	return s
}

func (f *Formatter) formatCurrency(v interface{}, opts models.JSONB, dt models.DataType) interface{} {
	n, isNumber := compare.ToNumber(v)
	s, ok := f.number(math.Abs(n), opts, precisionOf(opts, dt))
	if !isNumber || !ok {
		return compare.ToString(v)
	}
	symbol := f.currency
	if sym, ok := opts["symbol"]; ok {
		symbol = cast.ToString(sym)
	}
	sign := ""
	if n < 0 && strings.Trim(s, "0.,") != "" {
		sign = "-"
	}
	if cast.ToString(opts["symbol_position"]) == "after" {
		return sign + s + " " + symbol
	}
	return sign + symbol + s
}

func (f *Formatter) formatPercentage(v interface{}, opts models.JSONB, dt models.DataType) interface{} {
	n, ok := compare.ToNumber(v)
	if !ok {
		return compare.ToString(v)
	}
	if cast.ToBool(opts["multiply"]) {
		n *= 100
	}
	s, _ := f.number(n, opts, precisionOf(opts, dt))
	return s + "%"
}

func (f *Formatter) formatDate(v interface{}, opts models.JSONB, dt models.DataType) interface{} {
	t, ok := compare.ToTime(v)
	if !ok {
		return compare.ToString(v)
	}
	layout := f.profile.dateLayout
	if dt == models.DataTypeDatetime {
		layout = f.profile.datetimeLayout
	}
	if custom := cast.ToString(opts["format"]); custom != "" {
		layout = goLayout(custom)
	}
	return t.Format(layout)
}

func (f *Formatter) formatBoolean(v interface{}, opts models.JSONB, _ models.DataType) interface{} {
	if cast.ToBool(v) {
		if label := cast.ToString(opts["true_label"]); label != "" {
			return label
		}
		return f.profile.yes
	}
	if label := cast.ToString(opts["false_label"]); label != "" {
		return label
	}
	return f.profile.no
}

func (f *Formatter) formatStatus(v interface{}, opts models.JSONB, _ models.DataType) interface{} {
	raw := compare.ToString(v)
	if labels, ok := opts["labels"].(map[string]interface{}); ok {
		if label, ok := labels[raw]; ok {
			return cast.ToString(label)
		}
	}
	return f.title(strings.NewReplacer("_", " ", "-", " ").Replace(raw))
}

func (f *Formatter) formatGrade(v interface{}, opts models.JSONB, _ models.DataType) interface{} {
	grade := strings.TrimSpace(compare.ToString(v))
	color := ""
	if colors, ok := opts["colors"].(map[string]interface{}); ok {
		color = cast.ToString(colors[grade])
	}
	if color == "" && grade != "" {
		color = defaultGradeColors[strings.ToUpper(grade[:1])]
	}
	return map[string]interface{}{"value": grade, "color": color}
}

// Column 参与格式化的列
type Column struct {
	Key        string
	Field      string
	DataType   models.DataType
	Options    models.JSONB
	StyleRules models.StyleRules
}

// ColumnsFromTable 表格可见列
func ColumnsFromTable(cols []models.ColumnDefinition) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if !c.Visible {
			continue
		}
		out = append(out, Column{Key: c.Key, Field: c.Field, DataType: c.DataType, Options: c.FormatOptions, StyleRules: c.StylingRules})
	}
	return out
}

// ColumnsFromReport 报表可见字段
func ColumnsFromReport(fields []models.ReportField) []Column {
	out := make([]Column, 0, len(fields))
	for _, rf := range fields {
		if !rf.Visible {
			continue
		}
		out = append(out, Column{Key: rf.Key, Field: rf.Field, DataType: rf.DataType, Options: rf.FormatOptions, StyleRules: rf.StylingRules})
	}
	return out
}

// Row 格式化后的行：原始值、展示值、样式分开返回
type Row struct {
	Raw       map[string]interface{} `json:"raw"`
	Formatted map[string]interface{} `json:"formatted"`
	Styles    map[string]*Style      `json:"styles,omitempty"`
}

// FormatRows 逐行格式化，原始行保持不变
func (f *Formatter) FormatRows(columns []Column, rows []map[string]interface{}) []Row {
	out := make([]Row, 0, len(rows))
	for _, raw := range rows {
		row := Row{Raw: raw, Formatted: make(map[string]interface{}, len(columns))}
		for _, c := range columns {
			value := raw[c.Field]
			row.Formatted[c.Key] = f.Format(value, c.DataType, c.Options)
			if style := ApplyStyle(value, c.StyleRules); style != nil {
				if row.Styles == nil {
					row.Styles = make(map[string]*Style)
				}
				row.Styles[c.Key] = style
			}
		}
		out = append(out, row)
	}
	return out
}

// Text 把展示值转换为纯文本（导出时使用）
func Text(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		if inner, ok := m["value"]; ok {
			return compare.ToString(inner)
		}
	}
	if v == nil {
		return Placeholder
	}
	return fmt.Sprint(v)
}
