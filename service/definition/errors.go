package definition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDefinitionNotFound 定义不存在
	ErrDefinitionNotFound = errors.New("定义不存在")
	// ErrDuplicateCode 定义编码重复
	ErrDuplicateCode = errors.New("定义编码已存在")
)

// ValidationError 定义结构校验失败，Fields 为 字段路径 -> 错误信息
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "定义校验失败: " + strings.Join(parts, "; ")
}

// add 记录一条字段错误，同一路径只保留第一条
func (e *ValidationError) add(path, format string, args ...interface{}) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[path]; !exists {
		e.Fields[path] = fmt.Sprintf(format, args...)
	}
}

// orNil 没有错误时返回 nil
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
