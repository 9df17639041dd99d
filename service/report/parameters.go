package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/logic"
	"dynconfig-service/service/models"
)

// ErrMissingParameter 必填参数缺失
var ErrMissingParameter = errors.New("缺少必填参数")

// orderedParameters 按 sort_order 排序的参数副本
func orderedParameters(def *models.ReportDefinition) []models.ReportParameter {
	params := append([]models.ReportParameter(nil), def.Parameters...)
	sort.SliceStable(params, func(i, j int) bool { return params[i].SortOrder < params[j].SortOrder })
	return params
}

// withDefaults 输入值叠加参数默认值，作为依赖条件的求值上下文
func withDefaults(def *models.ReportDefinition, input map[string]interface{}) map[string]interface{} {
	data := make(map[string]interface{}, len(def.Parameters))
	for _, p := range def.Parameters {
		if !p.DefaultValue.IsNull() {
			data[p.Key] = p.DefaultValue.V
		}
	}
	for key, value := range input {
		if !compare.IsEmpty(value) {
			data[key] = value
		}
	}
	return data
}

// applicable 参数的依赖条件是否满足
func applicable(p models.ReportParameter, data map[string]interface{}) bool {
	return p.DependsOn == nil || logic.Evaluate(p.DependsOn, data)
}

// ParameterVisibility 各参数在当前输入下是否显示
func ParameterVisibility(def *models.ReportDefinition, input map[string]interface{}) map[string]bool {
	data := withDefaults(def, input)
	out := make(map[string]bool, len(def.Parameters))
	for _, p := range def.Parameters {
		out[p.Key] = p.Visible && applicable(p, data)
	}
	return out
}

// ResolveParameters 解析生成报表使用的参数：
// 未提供的取默认值，依赖条件不满足的参数不参与查询，必填参数仍为空时报错。
// 不属于报表参数的键被丢弃。
func ResolveParameters(def *models.ReportDefinition, input map[string]interface{}) (map[string]interface{}, error) {
	data := withDefaults(def, input)
	resolved := make(map[string]interface{}, len(def.Parameters))
	var missing []string
	for _, p := range orderedParameters(def) {
		if !applicable(p, data) {
			continue
		}
		value, ok := data[p.Key]
		if !ok || compare.IsEmpty(value) {
			if p.Required {
				missing = append(missing, p.Key)
			}
			continue
		}
		resolved[p.Key] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}
	return resolved, nil
}
