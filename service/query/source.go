/*
 * @module service/query/source
 * @description 记录源接口与注册中心，查询引擎按名称取得只读记录源
 * @architecture 注册中心模式 - 记录源由配置注册，查询时按名称查找
 * @rules 记录源只读；字段名在到达记录源之前已经过白名单校验
 * @dependencies context, sync
 * @refs gorm_source.go, memory_source.go, engine.go
 */

package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrSourceNotFound 记录源未注册
var ErrSourceNotFound = errors.New("记录源未注册")

// SearchSpec 全文搜索：在多个字段上做 OR 匹配
type SearchSpec struct {
	Term   string
	Fields []string
}

// FetchSpec 一次取数的完整描述
type FetchSpec struct {
	Predicates []Predicate
	Search     *SearchSpec
	Sort       []SortSpec
	Limit      int // 0 表示不限制
	Offset     int
}

// FetchResult 取数结果
type FetchResult struct {
	Rows  []map[string]interface{}
	Total int64
}

// RecordSource 只读记录源
type RecordSource interface {
	Fetch(ctx context.Context, spec FetchSpec) (*FetchResult, error)
}

// SourceRegistry 记录源注册中心
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]RecordSource
}

// NewSourceRegistry 创建记录源注册中心
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]RecordSource)}
}

// Register 注册记录源，同名覆盖
func (r *SourceRegistry) Register(name string, source RecordSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = source
	slog.Info("记录源注册成功", "source", name)
}

// Get 按名称获取记录源
func (r *SourceRegistry) Get(name string) (RecordSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return source, nil
}

// Names 已注册的记录源名称
func (r *SourceRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
