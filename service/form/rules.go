package form

import (
	"fmt"
	"strings"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// typeRules 字段类型对应的基础校验规则
var typeRules = map[models.FieldType]string{
	models.FieldText:        "string",
	models.FieldTextarea:    "string",
	models.FieldPhone:       "string",
	models.FieldHidden:      "string",
	models.FieldNumber:      "numeric",
	models.FieldEmail:       "email",
	models.FieldDate:        "date",
	models.FieldDatetime:    "date",
	models.FieldTime:        "date_format:H:i",
	models.FieldMultiselect: "array",
	models.FieldCheckbox:    "array",
	models.FieldRepeater:    "array",
	models.FieldFile:        "file",
	models.FieldImage:       "file",
}

// GenerateValidationRules 为每个字段生成规则列表，形如 required|numeric|min:1。
// 计算字段由服务端赋值，不生成规则。
func GenerateValidationRules(f *models.FormDefinition) map[string][]string {
	rules := make(map[string][]string, len(f.Fields))
	for _, fd := range f.Fields {
		if fd.FieldType == models.FieldComputed {
			continue
		}
		var r []string
		if fd.Required {
			r = append(r, "required")
		} else {
			r = append(r, "nullable")
		}
		if rule, ok := typeRules[fd.FieldType]; ok {
			r = append(r, rule)
		}
		if (fd.FieldType == models.FieldSelect || fd.FieldType == models.FieldRadio) && len(fd.Options) > 0 {
			r = append(r, "in:"+strings.Join(optionValues(fd.Options), ","))
		}
		for _, extra := range fd.ValidationRules {
			if extra = strings.TrimSpace(extra); extra != "" {
				r = append(r, extra)
			}
		}
		if fd.Unique {
			r = append(r, "unique")
		}
		rules[fd.Key] = r
	}
	return rules
}

// optionValues 选项可以是纯值，也可以是 {value, label} 对象
func optionValues(options models.JSONBGenericArray) []string {
	values := make([]string, 0, len(options))
	for _, o := range options {
		if m, ok := o.(map[string]interface{}); ok {
			values = append(values, compare.ToString(m["value"]))
			continue
		}
		values = append(values, fmt.Sprint(o))
	}
	return values
}
