package logic

import (
	"fmt"
	"strings"

	"dynconfig-service/service/models"
)

// Scope 条件逻辑的使用场景，决定允许的操作符集合
type Scope int

const (
	// ScopeForm 表单分区/字段可见性
	ScopeForm Scope = iota
	// ScopeReportParameter 报表参数依赖
	ScopeReportParameter
)

var formOperators = map[models.ConditionOperator]bool{
	models.CondEquals:     true,
	models.CondNotEquals:  true,
	models.CondContains:   true,
	models.CondIsEmpty:    true,
	models.CondIsNotEmpty: true,
}

var reportOperators = map[models.ConditionOperator]bool{
	models.CondEquals:      true,
	models.CondNotEquals:   true,
	models.CondContains:    true,
	models.CondIsEmpty:     true,
	models.CondIsNotEmpty:  true,
	models.CondGreaterThan: true,
	models.CondLessThan:    true,
	models.CondIn:          true,
	models.CondNotIn:       true,
}

// Allowed 判断操作符在场景下是否可用
func (s Scope) Allowed(op models.ConditionOperator) bool {
	if s == ScopeReportParameter {
		return reportOperators[op]
	}
	return formOperators[op]
}

// Validate 校验条件逻辑结构，定义写入时调用
func Validate(logic *models.ConditionalLogic, scope Scope) error {
	if logic == nil {
		return nil
	}
	switch logic.Operator {
	case models.LogicAnd, models.LogicOr:
	case "":
		if len(logic.Conditions) > 0 {
			return fmt.Errorf("缺少组合操作符(AND/OR)")
		}
	default:
		return fmt.Errorf("不支持的组合操作符: %s", logic.Operator)
	}

	for i, c := range logic.Conditions {
		if strings.TrimSpace(c.Field) == "" {
			return fmt.Errorf("第 %d 个条件缺少字段", i+1)
		}
		if !scope.Allowed(c.Operator) {
			return fmt.Errorf("第 %d 个条件使用了不支持的操作符: %s", i+1, c.Operator)
		}
		if (c.Operator == models.CondIn || c.Operator == models.CondNotIn) && c.Value.Kind != models.ValueList {
			return fmt.Errorf("第 %d 个条件的 %s 操作符需要列表值", i+1, c.Operator)
		}
		if c.Value.Kind == models.ValueList {
			for _, item := range c.Value.List {
				if item.Kind == models.ValueList {
					return fmt.Errorf("第 %d 个条件的列表值不能嵌套", i+1)
				}
			}
		}
	}
	return nil
}
