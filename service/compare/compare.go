/*
 * @module service/compare/compare
 * @description 值比较工具：宽松相等、有序比较、集合/区间判断、日期截断
 * @architecture 工具层 - 条件逻辑、内存记录源筛选、条件样式共用
 * @rules 数值优先按数值比较，其次按时间，最后按字符串；nil 不参与有序比较
 * @dependencies github.com/spf13/cast
 * @refs service/logic, service/query/memory_source.go, service/format/styling.go
 */

package compare

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ToNumber 尝试将值解释为数值，布尔值和非数字字符串返回 false
func ToNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case time.Time:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToTime 尝试将值解释为时间，仅接受 time.Time 与字符串
func ToTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		parsed, err := cast.ToTimeE(s)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// ToDate 将值截断为日期（保留原时区的年月日）
func ToDate(v interface{}) (time.Time, bool) {
	t, ok := ToTime(v)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// ToString 将值转为字符串，nil 转为空串
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// IsEmpty nil、空字符串、空列表、空映射视为空
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// LooseEqual 宽松相等：数值按数值比较，布尔按真值比较，nil 与空值相等
func LooseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		other := a
		if a == nil {
			other = b
		}
		if other == nil {
			return true
		}
		if IsEmpty(other) {
			return true
		}
		if bv, ok := other.(bool); ok {
			return !bv
		}
		if n, ok := ToNumber(other); ok {
			return n == 0
		}
		return false
	}

	if ab, ok := a.(bool); ok {
		return ab == cast.ToBool(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == cast.ToBool(a)
	}

	an, aok := ToNumber(a)
	bn, bok := ToNumber(b)
	if aok && bok {
		return an == bn
	}

	return ToString(a) == ToString(b)
}

// Compare 有序比较，返回 -1/0/1；任一为 nil 或无法比较时 ok 为 false
func Compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if an, ok := ToNumber(a); ok {
		if bn, ok := ToNumber(b); ok {
			return compareFloat(an, bn), true
		}
	}
	if at, ok := ToTime(a); ok {
		if bt, ok := ToTime(b); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			}
			return 0, true
		}
	}
	return strings.Compare(ToString(a), ToString(b)), true
}

// CompareDates 按日期截断后比较
func CompareDates(a, b interface{}) (int, bool) {
	ad, ok := ToDate(a)
	if !ok {
		return 0, false
	}
	bd, ok := ToDate(b)
	if !ok {
		return 0, false
	}
	switch {
	case ad.Before(bd):
		return -1, true
	case ad.After(bd):
		return 1, true
	}
	return 0, true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// GreaterThan a > b
func GreaterThan(a, b interface{}) bool {
	c, ok := Compare(a, b)
	return ok && c > 0
}

// LessThan a < b
func LessThan(a, b interface{}) bool {
	c, ok := Compare(a, b)
	return ok && c < 0
}

// ToList 将值转为列表：切片直接展开，字符串按逗号切分
func ToList(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		items := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			items = append(items, strings.TrimSpace(p))
		}
		return items
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
		return items
	}
	return []interface{}{v}
}

// In 判断值是否在集合中；nil 永远不在任何集合中
func In(v interface{}, set interface{}) bool {
	if v == nil {
		return false
	}
	for _, item := range ToList(set) {
		if LooseEqual(v, item) {
			return true
		}
	}
	return false
}

// Range 从区间值中取出上下界，支持两元素列表或 {from,to}/{start,end}/{min,max} 映射
func Range(v interface{}) (interface{}, interface{}, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		for _, keys := range [][2]string{{"from", "to"}, {"start", "end"}, {"min", "max"}} {
			lo, lok := m[keys[0]]
			hi, hok := m[keys[1]]
			if lok && hok {
				return lo, hi, true
			}
		}
		return nil, nil, false
	}
	list := ToList(v)
	if len(list) != 2 {
		return nil, nil, false
	}
	return list[0], list[1], true
}

// Between 闭区间判断
func Between(v interface{}, bounds interface{}) bool {
	lo, hi, ok := Range(bounds)
	if !ok {
		return false
	}
	c1, ok1 := Compare(v, lo)
	c2, ok2 := Compare(v, hi)
	return ok1 && ok2 && c1 >= 0 && c2 <= 0
}

// Contains 子串判断（nil 视为空串）；列表值按成员判断
func Contains(haystack interface{}, needle interface{}) bool {
	rv := reflect.ValueOf(haystack)
	if haystack != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		for i := 0; i < rv.Len(); i++ {
			if LooseEqual(rv.Index(i).Interface(), needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(ToString(haystack), ToString(needle))
}

// ContainsFold 忽略大小写的子串判断，用于全文搜索
func ContainsFold(haystack interface{}, needle string) bool {
	return strings.Contains(strings.ToLower(ToString(haystack)), strings.ToLower(needle))
}
