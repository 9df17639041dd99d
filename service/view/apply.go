package view

import (
	"sort"

	"github.com/spf13/cast"

	"dynconfig-service/service/models"
	"dynconfig-service/service/query"
)

// sanitize 保存前去掉不存在的列，规范排序方向
func sanitize(table *models.TableDefinition, v *models.ViewDefinition) {
	known := make(map[string]bool, len(table.Columns))
	for _, c := range table.Columns {
		known[c.Key] = true
	}
	v.VisibleColumns = keepKnown(v.VisibleColumns, known)
	v.ColumnOrder = keepKnown(v.ColumnOrder, known)
	for key := range v.ColumnWidths {
		if !known[key] {
			delete(v.ColumnWidths, key)
		}
	}
	if v.SortField != "" {
		v.SortDirection = query.NormalizeDirection(v.SortDirection)
	}
	if v.PageSize < 0 {
		v.PageSize = 0
	}
}

func keepKnown(keys models.JSONBStringArray, known map[string]bool) models.JSONBStringArray {
	if keys == nil {
		return nil
	}
	out := make(models.JSONBStringArray, 0, len(keys))
	for _, k := range keys {
		if known[k] {
			out = append(out, k)
		}
	}
	return out
}

// sortViews 自己的默认视图在前，其次自己的视图，最后共享视图
func sortViews(views []models.ViewDefinition, userID string) {
	rank := func(v models.ViewDefinition) int {
		switch {
		case v.UserID == userID && v.IsDefault:
			return 0
		case v.UserID == userID:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return rank(views[i]) < rank(views[j])
	})
}

// ApplyTo 把视图的筛选、排序、每页条数合并到请求中，请求中显式给出的值优先。
// 视图中的字段可能在定义更新后失效，只保留仍能通过白名单的部分。
func ApplyTo(s *query.Schema, v *models.ViewDefinition, req query.Request) query.Request {
	if v == nil {
		return req
	}
	merged := make(map[string]interface{}, len(v.Filters)+len(req.Filters))
	for key, value := range v.Filters {
		if s.FilterAllowed(key) {
			merged[key] = value
		}
	}
	for key, value := range req.Filters {
		merged[key] = value
	}
	req.Filters = merged

	if req.SortField == "" && v.SortField != "" && s.SortAllowed(v.SortField) {
		req.SortField = v.SortField
		req.SortDirection = v.SortDirection
	}
	if req.PerPage == 0 && v.PageSize > 0 {
		req.PerPage = v.PageSize
	}
	return req
}

// Columns 按视图的显示列与顺序筛选列定义；视图未指定时使用定义中的可见列
func Columns(table *models.TableDefinition, v *models.ViewDefinition) []models.ColumnDefinition {
	if v == nil || (len(v.VisibleColumns) == 0 && len(v.ColumnOrder) == 0) {
		cols := make([]models.ColumnDefinition, 0, len(table.Columns))
		for _, c := range table.Columns {
			if c.Visible {
				cols = append(cols, c)
			}
		}
		return cols
	}

	byKey := make(map[string]models.ColumnDefinition, len(table.Columns))
	for _, c := range table.Columns {
		byKey[c.Key] = c
	}
	visible := func(c models.ColumnDefinition) bool {
		if len(v.VisibleColumns) == 0 {
			return c.Visible
		}
		return v.VisibleColumns.Contains(c.Key)
	}

	cols := make([]models.ColumnDefinition, 0, len(table.Columns))
	placed := make(map[string]bool, len(table.Columns))
	for _, key := range v.ColumnOrder {
		c, ok := byKey[key]
		if !ok || placed[key] || !visible(c) {
			continue
		}
		placed[key] = true
		cols = append(cols, c)
	}
	for _, c := range table.Columns {
		if !placed[c.Key] && visible(c) {
			cols = append(cols, c)
		}
	}
	for i := range cols {
		if w, ok := v.ColumnWidths[cols[i].Key]; ok {
			if width := cast.ToInt(w); width > 0 {
				cols[i].Width = width
			}
		}
	}
	return cols
}
