/*
 * @module service/form/script
 * @description 计算字段脚本引擎：公式为 Go 函数体，输入当前表单数据，返回计算值
 * @architecture 解释执行 - yaegi 解释器，按脚本哈希缓存编译结果
 * @stateFlow 公式 -> 包装为 Compute 函数 -> 编译(缓存) -> 带超时执行
 * @rules
 *   - 脚本只能访问标准库与 num/str 辅助函数
 *   - 执行超时返回 ErrScriptTimeout，不写入计算结果
 * @dependencies github.com/traefik/yaegi
 * @refs service.go
 */

package form

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"dynconfig-service/service/models"
)

// ErrScriptTimeout 计算字段脚本执行超时
var ErrScriptTimeout = errors.New("计算字段脚本执行超时")

const scriptTemplate = `
package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var _ = fmt.Sprint
var _ = math.Round

func num(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	}
	return 0
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func Compute(data map[string]interface{}) (interface{}, error) {
%s
}
`

type computeFunc func(map[string]interface{}) (interface{}, error)

// ScriptEngine 计算字段脚本引擎
type ScriptEngine struct {
	mu      sync.RWMutex
	cache   map[string]computeFunc
	timeout time.Duration
}

// NewScriptEngine 创建脚本引擎，timeout<=0 时使用 2 秒
func NewScriptEngine(timeout time.Duration) *ScriptEngine {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ScriptEngine{cache: make(map[string]computeFunc), timeout: timeout}
}

// Compile 编译公式，结果按哈希缓存
func (e *ScriptEngine) Compile(formula string) error {
	_, err := e.compiled(formula)
	return err
}

func (e *ScriptEngine) compiled(formula string) (computeFunc, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(formula)))

	e.mu.RLock()
	fn, ok := e.cache[hash]
	e.mu.RUnlock()
	if ok {
		return fn, nil
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}
	if _, err := i.Eval(fmt.Sprintf(scriptTemplate, formula)); err != nil {
		return nil, fmt.Errorf("公式编译失败: %w", err)
	}
	v, err := i.Eval("Compute")
	if err != nil {
		return nil, fmt.Errorf("公式缺少 Compute 函数: %w", err)
	}
	fn, ok = v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Compute 函数签名不正确")
	}

	e.mu.Lock()
	e.cache[hash] = fn
	e.mu.Unlock()
	return fn, nil
}

// Compute 执行公式
func (e *ScriptEngine) Compute(ctx context.Context, formula string, data map[string]interface{}) (interface{}, error) {
	fn, err := e.compiled(formula)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// 脚本拿到的是副本，不能修改调用方数据
	snapshot := make(map[string]interface{}, len(data))
	for k, v := range data {
		snapshot[k] = v
	}

	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("公式执行异常: %v", r)}
			}
		}()
		value, err := fn(snapshot)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ErrScriptTimeout
	}
}

// ApplyComputed 按字段顺序计算所有 computed 字段并写回 data，后面的公式可以使用前面的结果
func (e *ScriptEngine) ApplyComputed(ctx context.Context, f *models.FormDefinition, data map[string]interface{}) error {
	fields := make([]models.FieldDefinition, 0, len(f.Fields))
	for _, fd := range f.Fields {
		if fd.FieldType == models.FieldComputed {
			fields = append(fields, fd)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].SortOrder < fields[j].SortOrder })

	for _, fd := range fields {
		value, err := e.Compute(ctx, fd.Formula, data)
		if err != nil {
			return fmt.Errorf("计算字段 %s: %w", fd.Key, err)
		}
		data[fd.Key] = value
	}
	return nil
}
