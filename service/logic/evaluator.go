/*
 * @module service/logic/evaluator
 * @description 条件逻辑求值器，决定表单分区/字段以及报表参数是否可见
 * @architecture 纯函数层 - 无状态，无 IO
 * @stateFlow 加载定义 -> 取出 ConditionalLogic -> Evaluate(data) -> 可见/不可见
 * @rules
 *   - 缺失字段按 nil 处理
 *   - AND 全部满足、OR 任一满足、无条件恒为 true
 *   - 未知操作符的条件恒为 false
 *   - nil 不属于任何集合：in 为 false，not_in 为 true
 * @dependencies service/compare
 * @refs service/form/layout.go, service/report/parameters.go
 */

package logic

import (
	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// matcher 单个操作符的判断函数
type matcher func(actual interface{}, expected models.Value) bool

var matchers = map[models.ConditionOperator]matcher{
	models.CondEquals: func(actual interface{}, expected models.Value) bool {
		return compare.LooseEqual(actual, expected.Native())
	},
	models.CondNotEquals: func(actual interface{}, expected models.Value) bool {
		return !compare.LooseEqual(actual, expected.Native())
	},
	models.CondContains: func(actual interface{}, expected models.Value) bool {
		return compare.Contains(actual, expected.Native())
	},
	models.CondIsEmpty: func(actual interface{}, _ models.Value) bool {
		return compare.IsEmpty(actual)
	},
	models.CondIsNotEmpty: func(actual interface{}, _ models.Value) bool {
		return !compare.IsEmpty(actual)
	},
	models.CondGreaterThan: func(actual interface{}, expected models.Value) bool {
		return compare.GreaterThan(actual, expected.Native())
	},
	models.CondLessThan: func(actual interface{}, expected models.Value) bool {
		return compare.LessThan(actual, expected.Native())
	},
	models.CondIn: func(actual interface{}, expected models.Value) bool {
		return compare.In(actual, expected.Native())
	},
	models.CondNotIn: func(actual interface{}, expected models.Value) bool {
		return !compare.In(actual, expected.Native())
	},
}

// Evaluate 对数据求值条件逻辑
func Evaluate(logic *models.ConditionalLogic, data map[string]interface{}) bool {
	if logic == nil || len(logic.Conditions) == 0 {
		return true
	}

	if logic.Operator == models.LogicOr {
		for _, c := range logic.Conditions {
			if EvaluateCondition(c, data) {
				return true
			}
		}
		return false
	}

	for _, c := range logic.Conditions {
		if !EvaluateCondition(c, data) {
			return false
		}
	}
	return true
}

// EvaluateCondition 对单个条件求值
func EvaluateCondition(c models.Condition, data map[string]interface{}) bool {
	match, ok := matchers[c.Operator]
	if !ok {
		return false
	}
	var actual interface{}
	if data != nil {
		actual = data[c.Field]
	}
	return match(actual, c.Value)
}
