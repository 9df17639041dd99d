package format

import (
	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// Style 单元格样式
type Style struct {
	Style map[string]string `json:"style,omitempty"`
	Class string            `json:"class,omitempty"`
}

var styleMatchers = map[models.FilterOperator]func(actual, expected interface{}) bool{
	models.OpEquals:      compare.LooseEqual,
	models.OpNotEquals:   func(a, e interface{}) bool { return !compare.LooseEqual(a, e) },
	models.OpGreaterThan: compare.GreaterThan,
	models.OpLessThan:    compare.LessThan,
	models.OpBetween:     compare.Between,
	models.OpIn:          compare.In,
}

// StyleOperatorSupported 样式规则支持的操作符
func StyleOperatorSupported(op models.FilterOperator) bool {
	_, ok := styleMatchers[op]
	return ok
}

// ApplyStyle 按顺序匹配样式规则，首个命中生效；无命中返回 nil
func ApplyStyle(value interface{}, rules models.StyleRules) *Style {
	for _, rule := range rules {
		match, ok := styleMatchers[rule.Operator]
		if !ok || !match(value, rule.Value) {
			continue
		}
		return &Style{Style: rule.Style, Class: rule.Class}
	}
	return nil
}
