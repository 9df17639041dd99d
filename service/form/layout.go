/*
 * @module service/form/layout
 * @description 表单布局解析：按当前数据求值分区与字段的条件逻辑，得到可见结构
 * @architecture 纯函数 - 不访问存储，渲染与校验共用同一可见性判断
 * @rules
 *   - 分区不可见时其中所有字段不可见
 *   - 未指定分区的字段归入默认分区，排在最前
 *   - 缺失的字段值按默认值补齐后再求值
 * @dependencies service/logic
 * @refs validate.go, service.go
 */

package form

import (
	"dynconfig-service/service/logic"
	"dynconfig-service/service/models"
)

// FieldLayout 可见字段
type FieldLayout struct {
	Key          string                   `json:"key"`
	Label        string                   `json:"label"`
	FieldType    models.FieldType         `json:"field_type"`
	Options      models.JSONBGenericArray `json:"options,omitempty"`
	DefaultValue interface{}              `json:"default_value,omitempty"`
	Required     bool                     `json:"required"`
	Readonly     bool                     `json:"readonly"`
	Hidden       bool                     `json:"hidden"`
	Grid         models.GridPlacement     `json:"grid"`
	Rules        []string                 `json:"rules"`
}

// SectionLayout 可见分区
type SectionLayout struct {
	Key         string        `json:"key"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Collapsible bool          `json:"collapsible"`
	Collapsed   bool          `json:"collapsed"`
	Columns     int           `json:"columns"`
	Fields      []FieldLayout `json:"fields"`
}

// Layout 表单在给定数据下的布局
type Layout struct {
	Code     string                    `json:"code"`
	Name     string                    `json:"name"`
	Version  int                       `json:"version"`
	Workflow models.WorkflowDescriptor `json:"workflow"`
	Sections []SectionLayout           `json:"sections"`
	Data     map[string]interface{}    `json:"data"`
}

// WithDefaults 用字段默认值补齐缺失的数据，返回新 map
func WithDefaults(f *models.FormDefinition, data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(f.Fields))
	for k, v := range data {
		out[k] = v
	}
	for _, fd := range f.Fields {
		if _, ok := out[fd.Key]; !ok && !fd.DefaultValue.IsNull() {
			out[fd.Key] = fd.DefaultValue.V
		}
	}
	return out
}

// VisibleSections 各分区在数据下是否可见
func VisibleSections(f *models.FormDefinition, data map[string]interface{}) map[string]bool {
	visible := make(map[string]bool, len(f.Sections)+1)
	visible[""] = true
	for _, s := range f.Sections {
		visible[s.Key] = logic.Evaluate(s.ConditionalLogic, data)
	}
	return visible
}

// VisibleFields 各字段在数据下是否可见（考虑所在分区）
func VisibleFields(f *models.FormDefinition, data map[string]interface{}) map[string]bool {
	sections := VisibleSections(f, data)
	visible := make(map[string]bool, len(f.Fields))
	for _, fd := range f.Fields {
		sectionVisible, ok := sections[fd.SectionKey]
		visible[fd.Key] = ok && sectionVisible && logic.Evaluate(fd.ConditionalLogic, data)
	}
	return visible
}

// ResolveLayout 解析布局，只返回可见的分区与字段
func ResolveLayout(f *models.FormDefinition, data map[string]interface{}) *Layout {
	data = WithDefaults(f, data)
	sectionVisible := VisibleSections(f, data)
	fieldVisible := VisibleFields(f, data)
	rules := GenerateValidationRules(f)

	layout := &Layout{
		Code:     f.Code,
		Name:     f.Name,
		Version:  f.Version,
		Workflow: f.Workflow,
		Data:     data,
	}

	grouped := make(map[string][]FieldLayout)
	for _, fd := range f.Fields {
		if !fieldVisible[fd.Key] {
			continue
		}
		grouped[fd.SectionKey] = append(grouped[fd.SectionKey], FieldLayout{
			Key:          fd.Key,
			Label:        fd.Label,
			FieldType:    fd.FieldType,
			Options:      fd.Options,
			DefaultValue: fd.DefaultValue.V,
			Required:     fd.Required,
			Readonly:     fd.Readonly || fd.FieldType == models.FieldComputed,
			Hidden:       fd.Hidden || fd.FieldType == models.FieldHidden,
			Grid:         fd.Grid,
			Rules:        rules[fd.Key],
		})
	}

	if fields := grouped[""]; len(fields) > 0 {
		layout.Sections = append(layout.Sections, SectionLayout{Key: "", Columns: 1, Fields: fields})
	}
	for _, s := range f.Sections {
		if !sectionVisible[s.Key] {
			continue
		}
		columns := s.Columns
		if columns < 1 {
			columns = 1
		}
		layout.Sections = append(layout.Sections, SectionLayout{
			Key:         s.Key,
			Title:       s.Title,
			Description: s.Description,
			Collapsible: s.Collapsible,
			Collapsed:   s.Collapsed,
			Columns:     columns,
			Fields:      grouped[s.Key],
		})
	}
	return layout
}
