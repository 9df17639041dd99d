package form

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
)

// ValidationErrors 提交数据校验失败，字段键 -> 错误信息列表
type ValidationErrors struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "提交数据校验失败: " + strings.Join(parts, "; ")
}

func (e *ValidationErrors) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationErrors) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ruleCheck 校验单条规则，返回错误信息；通过时返回空串
type ruleCheck func(fd *models.FieldDefinition, value interface{}, arg string) string

var ruleChecks map[string]ruleCheck

func init() {
	ruleChecks = map[string]ruleCheck{
		"string":      checkString,
		"numeric":     checkNumeric,
		"email":       checkEmail,
		"date":        checkDate,
		"date_format": checkTimeOfDay,
		"array":       checkArray,
		"file":        checkFile,
		"in":          checkIn,
		"min":         checkMin,
		"max":         checkMax,
		"regex":       checkRegex,
	}
}

// ValidateSubmission 按生成的规则校验提交数据，只校验当前可见的字段。
// unique 需要访问存储，由 SubmissionService 处理。
func ValidateSubmission(f *models.FormDefinition, data map[string]interface{}) error {
	verr := &ValidationErrors{}
	visible := VisibleFields(f, data)
	rules := GenerateValidationRules(f)

	for i := range f.Fields {
		fd := &f.Fields[i]
		if !visible[fd.Key] {
			continue
		}
		value := data[fd.Key]
		empty := compare.IsEmpty(value)
		for _, rule := range rules[fd.Key] {
			name, arg, _ := strings.Cut(rule, ":")
			switch name {
			case "required":
				if empty {
					verr.add(fd.Key, "必填")
				}
				continue
			case "nullable", "unique":
				continue
			}
			if empty {
				continue
			}
			check, ok := ruleChecks[name]
			if !ok {
				continue
			}
			if msg := check(fd, value, arg); msg != "" {
				verr.add(fd.Key, msg)
			}
		}
	}
	return verr.orNil()
}

func checkString(_ *models.FieldDefinition, v interface{}, _ string) string {
	if _, ok := v.(string); !ok {
		return "必须是字符串"
	}
	return ""
}

func checkNumeric(_ *models.FieldDefinition, v interface{}, _ string) string {
	if _, ok := compare.ToNumber(v); !ok {
		return "必须是数字"
	}
	return ""
}

func checkEmail(_ *models.FieldDefinition, v interface{}, _ string) string {
	s, ok := v.(string)
	if !ok {
		return "邮箱格式不正确"
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "邮箱格式不正确"
	}
	return ""
}

func checkDate(_ *models.FieldDefinition, v interface{}, _ string) string {
	if _, ok := compare.ToTime(v); !ok {
		return "日期格式不正确"
	}
	return ""
}

func checkTimeOfDay(_ *models.FieldDefinition, v interface{}, _ string) string {
	s, ok := v.(string)
	if !ok {
		return "时间格式应为 HH:MM"
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return "时间格式应为 HH:MM"
	}
	return ""
}

func checkArray(_ *models.FieldDefinition, v interface{}, _ string) string {
	if _, ok := v.([]interface{}); !ok {
		return "必须是列表"
	}
	return ""
}

// checkFile 文件字段保存上传后的引用：字符串路径或 {url, name} 对象
func checkFile(_ *models.FieldDefinition, v interface{}, _ string) string {
	switch t := v.(type) {
	case string:
		return ""
	case map[string]interface{}:
		if _, ok := t["url"]; ok {
			return ""
		}
	}
	return "文件引用格式不正确"
}

func checkIn(_ *models.FieldDefinition, v interface{}, arg string) string {
	allowed := strings.Split(arg, ",")
	for _, item := range compare.ToList(v) {
		found := false
		for _, a := range allowed {
			if compare.LooseEqual(item, a) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("%v 不是可选值", item)
		}
	}
	return ""
}

// measure 数字字段取数值，列表取长度，其他取字符数
func measure(fd *models.FieldDefinition, v interface{}) (float64, string) {
	if fd.FieldType == models.FieldNumber {
		n, _ := compare.ToNumber(v)
		return n, ""
	}
	if list, ok := v.([]interface{}); ok {
		return float64(len(list)), "项"
	}
	return float64(utf8.RuneCountInString(compare.ToString(v))), "个字符"
}

func checkMin(fd *models.FieldDefinition, v interface{}, arg string) string {
	limit := cast.ToFloat64(arg)
	if n, unit := measure(fd, v); n < limit {
		return fmt.Sprintf("不能小于 %s%s", arg, unit)
	}
	return ""
}

func checkMax(fd *models.FieldDefinition, v interface{}, arg string) string {
	limit := cast.ToFloat64(arg)
	if n, unit := measure(fd, v); n > limit {
		return fmt.Sprintf("不能大于 %s%s", arg, unit)
	}
	return ""
}

func checkRegex(_ *models.FieldDefinition, v interface{}, arg string) string {
	pattern := strings.Trim(arg, "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "校验规则无效"
	}
	if !re.MatchString(compare.ToString(v)) {
		return "格式不正确"
	}
	return ""
}
