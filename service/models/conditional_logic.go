/*
 * @module service/models/conditional_logic
 * @description 条件逻辑模型，单层 AND/OR 条件树及其取值联合类型
 * @architecture 分层架构 - 数据模型层
 * @stateFlow 定义写入时校验 -> 存储为 jsonb -> 渲染/校验时求值
 * @rules 只允许一层条件，不支持嵌套分组
 * @dependencies encoding/json, database/sql/driver
 * @refs service/logic/evaluator.go
 */

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LogicOperator 条件组合方式
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// ConditionOperator 单个条件的比较操作符
type ConditionOperator string

const (
	CondEquals      ConditionOperator = "equals"
	CondNotEquals   ConditionOperator = "not_equals"
	CondContains    ConditionOperator = "contains"
	CondIsEmpty     ConditionOperator = "is_empty"
	CondIsNotEmpty  ConditionOperator = "is_not_empty"
	CondGreaterThan ConditionOperator = "greater_than"
	CondLessThan    ConditionOperator = "less_than"
	CondIn          ConditionOperator = "in"
	CondNotIn       ConditionOperator = "not_in"
)

// ValueKind 条件值的类型标签
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueList
)

// Value 条件值（null/字符串/数字/布尔/列表）
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
}

// StringValue 构造字符串值
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue 构造数字值
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// BoolValue 构造布尔值
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// ListValue 构造列表值
func ListValue(items ...Value) Value { return Value{Kind: ValueList, List: items} }

// ValueOf 从任意 Go 值构造条件值
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case int32:
		return NumberValue(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return StringValue(t.String())
		}
		return NumberValue(f)
	case []interface{}:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, ValueOf(item))
		}
		return ListValue(items...)
	case []string:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, StringValue(item))
		}
		return ListValue(items...)
	default:
		return StringValue(fmt.Sprint(t))
	}
}

// Native 转为原生 Go 值，便于与提交数据比较
func (v Value) Native() interface{} {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Num
	case ValueBool:
		return v.Bool
	case ValueList:
		items := make([]interface{}, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, item.Native())
		}
		return items
	default:
		return nil
	}
}

// IsNull 是否为 null
func (v Value) IsNull() bool { return v.Kind == ValueNull }

// MarshalJSON 序列化为普通 JSON 值
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON 从普通 JSON 值解析
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if _, ok := raw.(map[string]interface{}); ok {
		return fmt.Errorf("条件值不支持对象类型")
	}
	*v = ValueOf(raw)
	return nil
}

// Condition 单个条件
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    Value             `json:"value"`
}

// ConditionalLogic 单层条件逻辑
type ConditionalLogic struct {
	Operator   LogicOperator `json:"operator"`
	Conditions []Condition   `json:"conditions"`
}

// Scan 实现 Scanner 接口
func (c *ConditionalLogic) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, c)
}

// Value 实现 Valuer 接口
func (c ConditionalLogic) Value() (driver.Value, error) {
	return json.Marshal(c)
}
