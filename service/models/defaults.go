package models

import "encoding/json"

// 以下 UnmarshalJSON 为未显式给出的布尔开关设置默认值（visible/exportable/is_active 默认为 true）

// UnmarshalJSON 解析表格定义，is_active 缺省为 true
func (t *TableDefinition) UnmarshalJSON(data []byte) error {
	type alias TableDefinition
	a := alias{IsActive: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = TableDefinition(a)
	return nil
}

// UnmarshalJSON 解析列定义，visible/exportable 缺省为 true
func (c *ColumnDefinition) UnmarshalJSON(data []byte) error {
	type alias ColumnDefinition
	a := alias{Visible: true, Exportable: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ColumnDefinition(a)
	return nil
}

// UnmarshalJSON 解析筛选定义，visible 缺省为 true
func (f *FilterDefinition) UnmarshalJSON(data []byte) error {
	type alias FilterDefinition
	a := alias{Visible: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = FilterDefinition(a)
	return nil
}

// UnmarshalJSON 解析表单定义，is_active 缺省为 true
func (f *FormDefinition) UnmarshalJSON(data []byte) error {
	type alias FormDefinition
	a := alias{IsActive: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = FormDefinition(a)
	return nil
}

// UnmarshalJSON 解析报表定义，is_active 缺省为 true
func (r *ReportDefinition) UnmarshalJSON(data []byte) error {
	type alias ReportDefinition
	a := alias{IsActive: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = ReportDefinition(a)
	return nil
}

// UnmarshalJSON 解析报表字段，visible 缺省为 true
func (f *ReportField) UnmarshalJSON(data []byte) error {
	type alias ReportField
	a := alias{Visible: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = ReportField(a)
	return nil
}

// UnmarshalJSON 解析报表参数，visible 缺省为 true
func (p *ReportParameter) UnmarshalJSON(data []byte) error {
	type alias ReportParameter
	a := alias{Visible: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = ReportParameter(a)
	return nil
}

// UnmarshalJSON 解析定时任务，is_active 缺省为 true
func (s *ReportSchedule) UnmarshalJSON(data []byte) error {
	type alias ReportSchedule
	a := alias{IsActive: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = ReportSchedule(a)
	return nil
}
