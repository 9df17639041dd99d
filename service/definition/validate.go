/*
 * @module service/definition/validate
 * @description 定义写入时的结构校验：编码、唯一键、封闭枚举、条件逻辑、分区引用、汇总与图表
 * @architecture 校验层 - 写路径校验一次，读路径假定定义合法
 * @rules 所有错误收集到 ValidationError 一次性返回，不在第一个错误处中断
 * @dependencies service/logic, service/aggregate, service/format
 * @refs store.go, bundle.go
 */

package definition

import (
	"fmt"
	"regexp"
	"strings"

	"dynconfig-service/service/aggregate"
	"dynconfig-service/service/format"
	"dynconfig-service/service/logic"
	"dynconfig-service/service/models"
)

var codePattern = regexp.MustCompile(`^[a-z0-9_\-]+$`)

var dataTypes = set(
	models.DataTypeString, models.DataTypeNumber, models.DataTypeDecimal, models.DataTypeCurrency,
	models.DataTypePercentage, models.DataTypeDate, models.DataTypeDatetime, models.DataTypeBoolean,
	models.DataTypeStatus, models.DataTypeGrade,
)

var filterOperators = set(
	models.OpEquals, models.OpNotEquals, models.OpContains, models.OpStartsWith, models.OpEndsWith,
	models.OpGreaterThan, models.OpLessThan, models.OpBetween, models.OpIn, models.OpNotIn,
	models.OpIsNull, models.OpIsNotNull, models.OpDateEquals, models.OpDateBefore, models.OpDateAfter,
	models.OpDateBetween,
)

var fieldTypes = set(
	models.FieldText, models.FieldTextarea, models.FieldNumber, models.FieldEmail, models.FieldPhone,
	models.FieldDate, models.FieldDatetime, models.FieldTime, models.FieldSelect, models.FieldMultiselect,
	models.FieldRadio, models.FieldCheckbox, models.FieldFile, models.FieldImage, models.FieldRepeater,
	models.FieldComputed, models.FieldHidden,
)

var reportTypes = set(models.ReportTabular, models.ReportTypeChart, models.ReportDocument, models.ReportTranscript, models.ReportInvoice)

var chartTypes = set(models.ChartBar, models.ChartLine, models.ChartPie, models.ChartDoughnut, models.ChartArea, models.ChartRadar)

var alignments = set("", "left", "center", "right")

var directions = set("", models.SortAsc, models.SortDesc)

// ExportFormats 支持的导出格式
var ExportFormats = set("csv", "excel", "pdf")

func set[T comparable](items ...T) map[T]bool {
	m := make(map[T]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

func validateCode(verr *ValidationError, code, name string) {
	if !codePattern.MatchString(code) {
		verr.add("code", "编码只能包含小写字母、数字、下划线和连字符")
	}
	if strings.TrimSpace(name) == "" {
		verr.add("name", "名称不能为空")
	}
}

// uniqueKeys 校验键非空且唯一
func uniqueKeys(verr *ValidationError, path, attr string, keys []string) {
	seen := make(map[string]bool, len(keys))
	for i, k := range keys {
		p := fmt.Sprintf("%s[%d].%s", path, i, attr)
		if strings.TrimSpace(k) == "" {
			verr.add(p, "不能为空")
			continue
		}
		if seen[k] {
			verr.add(p, "重复的值 %q", k)
		}
		seen[k] = true
	}
}

func validateExportFormats(verr *ValidationError, path string, formats []string) {
	for i, f := range formats {
		if !ExportFormats[f] {
			verr.add(fmt.Sprintf("%s[%d]", path, i), "不支持的导出格式 %q", f)
		}
	}
}

func validateStyleRules(verr *ValidationError, path string, rules models.StyleRules) {
	for i, r := range rules {
		if !format.StyleOperatorSupported(r.Operator) {
			verr.add(fmt.Sprintf("%s[%d].operator", path, i), "样式规则不支持操作符 %q", r.Operator)
		}
	}
}

// ValidateTable 校验表格定义
func ValidateTable(t *models.TableDefinition) error {
	verr := &ValidationError{}
	validateCode(verr, t.Code, t.Name)
	if strings.TrimSpace(t.SourceName) == "" {
		verr.add("source_name", "记录源不能为空")
	}
	if len(t.Columns) == 0 {
		verr.add("columns", "至少需要一列")
	}

	colKeys := make([]string, 0, len(t.Columns))
	colFields := make([]string, 0, len(t.Columns))
	allowed := map[string]bool{}
	for i, c := range t.Columns {
		colKeys = append(colKeys, c.Key)
		colFields = append(colFields, c.Field)
		allowed[c.Field] = true
		if !dataTypes[c.DataType] {
			verr.add(fmt.Sprintf("columns[%d].data_type", i), "不支持的数据类型 %q", c.DataType)
		}
		if !alignments[c.Alignment] {
			verr.add(fmt.Sprintf("columns[%d].alignment", i), "不支持的对齐方式 %q", c.Alignment)
		}
		validateStyleRules(verr, fmt.Sprintf("columns[%d].styling_rules", i), c.StylingRules)
	}
	uniqueKeys(verr, "columns", "key", colKeys)
	uniqueKeys(verr, "columns", "field", colFields)

	filterKeys := make([]string, 0, len(t.Filters))
	filterFields := make([]string, 0, len(t.Filters))
	for i, f := range t.Filters {
		filterKeys = append(filterKeys, f.Key)
		filterFields = append(filterFields, f.Field)
		allowed[f.Field] = true
		if f.Operator != "" && !filterOperators[f.Operator] {
			verr.add(fmt.Sprintf("filters[%d].operator", i), "不支持的筛选操作符 %q", f.Operator)
		}
	}
	uniqueKeys(verr, "filters", "key", filterKeys)
	for i, f := range t.Filters {
		for j, dep := range f.DependsOn {
			path := fmt.Sprintf("filters[%d].depends_on[%d].field", i, j)
			switch {
			case strings.TrimSpace(dep.Field) == "":
				verr.add(path, "不能为空")
			case !filterResolvable(t, dep.Field):
				verr.add(path, "依赖字段 %q 不是可用的筛选", dep.Field)
			}
		}
	}
	uniqueKeys(verr, "filters", "field", filterFields)

	if t.DefaultSortField != "" && !allowed[t.DefaultSortField] {
		verr.add("default_sort_field", "默认排序字段 %q 不在列或筛选中", t.DefaultSortField)
	}
	if !directions[strings.ToLower(t.DefaultSortDirection)] {
		verr.add("default_sort_direction", "排序方向只能是 asc 或 desc")
	}

	s := t.Settings
	if s.DefaultPageSize < 0 {
		verr.add("settings.default_page_size", "不能为负数")
	}
	if s.DefaultPageSize > 0 && len(s.AllowedPageSizes) > 0 {
		found := false
		for _, size := range s.AllowedPageSizes {
			if size == s.DefaultPageSize {
				found = true
				break
			}
		}
		if !found {
			verr.add("settings.default_page_size", "默认每页条数必须在允许列表中")
		}
	}
	validateExportFormats(verr, "settings.export_formats", s.ExportFormats)

	return verr.orNil()
}

// ValidateForm 校验表单定义
func ValidateForm(f *models.FormDefinition) error {
	verr := &ValidationError{}
	validateCode(verr, f.Code, f.Name)

	fieldKeys := make(map[string]bool, len(f.Fields))
	keys := make([]string, 0, len(f.Fields))
	for _, fd := range f.Fields {
		keys = append(keys, fd.Key)
		fieldKeys[fd.Key] = true
	}
	uniqueKeys(verr, "fields", "key", keys)

	sectionKeys := make(map[string]bool, len(f.Sections))
	skeys := make([]string, 0, len(f.Sections))
	for i, s := range f.Sections {
		skeys = append(skeys, s.Key)
		sectionKeys[s.Key] = true
		validateLogic(verr, fmt.Sprintf("sections[%d].conditional_logic", i), s.ConditionalLogic, logic.ScopeForm, fieldKeys)
		if s.Columns < 0 {
			verr.add(fmt.Sprintf("sections[%d].columns", i), "不能为负数")
		}
	}
	uniqueKeys(verr, "sections", "key", skeys)

	for i, fd := range f.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		if !fieldTypes[fd.FieldType] {
			verr.add(path+".field_type", "不支持的字段类型 %q", fd.FieldType)
		}
		if fd.SectionKey != "" && !sectionKeys[fd.SectionKey] {
			verr.add(path+".section_key", "引用了不存在的分区 %q", fd.SectionKey)
		}
		if fd.FieldType == models.FieldComputed && strings.TrimSpace(fd.Formula) == "" {
			verr.add(path+".formula", "计算字段必须提供公式")
		}
		if fd.ConditionalLogic != nil {
			for _, c := range fd.ConditionalLogic.Conditions {
				if c.Field == fd.Key {
					verr.add(path+".conditional_logic", "字段不能依赖自身")
				}
			}
		}
		validateLogic(verr, path+".conditional_logic", fd.ConditionalLogic, logic.ScopeForm, fieldKeys)
	}

	if f.Workflow.Enabled {
		if len(f.Workflow.Steps) == 0 {
			verr.add("workflow.steps", "启用审批流程时至少需要一个步骤")
		}
		for i, step := range f.Workflow.Steps {
			if strings.TrimSpace(step.Role) == "" {
				verr.add(fmt.Sprintf("workflow.steps[%d].role", i), "审批角色不能为空")
			}
		}
	}

	return verr.orNil()
}

// ValidateReport 校验报表定义
func ValidateReport(r *models.ReportDefinition) error {
	verr := &ValidationError{}
	validateCode(verr, r.Code, r.Name)
	if strings.TrimSpace(r.SourceName) == "" {
		verr.add("source_name", "记录源不能为空")
	}
	if r.ReportType != "" && !reportTypes[r.ReportType] {
		verr.add("report_type", "不支持的报表类型 %q", r.ReportType)
	}
	validateExportFormats(verr, "export_formats", r.ExportFormats)

	allowed := map[string]bool{}
	keys := make([]string, 0, len(r.Fields))
	fields := make([]string, 0, len(r.Fields))
	for i, f := range r.Fields {
		keys = append(keys, f.Key)
		fields = append(fields, f.Field)
		allowed[f.Field] = true
		path := fmt.Sprintf("fields[%d]", i)
		if !dataTypes[f.DataType] {
			verr.add(path+".data_type", "不支持的数据类型 %q", f.DataType)
		}
		if f.IsSummary && !aggregate.Supported(f.SummaryFunction) {
			verr.add(path+".summary_function", "汇总字段必须指定 sum/avg/count/min/max")
		}
		validateStyleRules(verr, path+".styling_rules", f.StylingRules)
	}
	uniqueKeys(verr, "fields", "key", keys)
	uniqueKeys(verr, "fields", "field", fields)

	paramKeys := make(map[string]bool, len(r.Parameters))
	pkeys := make([]string, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		pkeys = append(pkeys, p.Key)
		paramKeys[p.Key] = true
		allowed[p.Field] = true
	}
	uniqueKeys(verr, "parameters", "key", pkeys)
	for i, p := range r.Parameters {
		path := fmt.Sprintf("parameters[%d]", i)
		if strings.TrimSpace(p.Field) == "" {
			verr.add(path+".field", "不能为空")
		}
		if p.Operator != "" && !filterOperators[p.Operator] {
			verr.add(path+".operator", "不支持的筛选操作符 %q", p.Operator)
		}
		if p.DataType != "" && !dataTypes[p.DataType] {
			verr.add(path+".data_type", "不支持的数据类型 %q", p.DataType)
		}
		validateLogic(verr, path+".depends_on", p.DependsOn, logic.ScopeReportParameter, paramKeys)
	}

	ckeys := make([]string, 0, len(r.Charts))
	for i, c := range r.Charts {
		ckeys = append(ckeys, c.Key)
		path := fmt.Sprintf("charts[%d]", i)
		if !chartTypes[c.ChartType] {
			verr.add(path+".chart_type", "不支持的图表类型 %q", c.ChartType)
		}
		if c.Aggregation != "" && !aggregate.Supported(c.Aggregation) {
			verr.add(path+".aggregation", "不支持的聚合函数 %q", c.Aggregation)
		}
		if c.DataField == "" && c.Aggregation != models.AggCount {
			verr.add(path+".data_field", "除 count 聚合外必须指定数据字段")
		}
		if c.SeriesField != "" && c.GroupField == "" {
			verr.add(path+".group_field", "指定系列字段时必须指定分组字段")
		}
		for attr, name := range map[string]string{
			"data_field": c.DataField, "label_field": c.LabelField,
			"group_field": c.GroupField, "series_field": c.SeriesField,
		} {
			if name != "" && !allowed[name] {
				verr.add(path+"."+attr, "字段 %q 不在报表字段中", name)
			}
		}
	}
	uniqueKeys(verr, "charts", "key", ckeys)

	if r.DefaultSortField != "" && !allowed[r.DefaultSortField] {
		verr.add("default_sort_field", "默认排序字段 %q 不在报表字段中", r.DefaultSortField)
	}
	if !directions[strings.ToLower(r.DefaultSortDirection)] {
		verr.add("default_sort_direction", "排序方向只能是 asc 或 desc")
	}

	return verr.orNil()
}

// validateLogic 校验条件逻辑结构及其引用的字段
func validateLogic(verr *ValidationError, path string, l *models.ConditionalLogic, scope logic.Scope, known map[string]bool) {
	if l == nil {
		return
	}
	if err := logic.Validate(l, scope); err != nil {
		verr.add(path, "%s", err.Error())
		return
	}
	for i, c := range l.Conditions {
		if !known[c.Field] {
			verr.add(fmt.Sprintf("%s.conditions[%d].field", path, i), "引用了不存在的字段 %q", c.Field)
		}
	}
}

// filterResolvable 依赖字段必须能作为请求筛选：筛选键、筛选字段或可筛选列的字段
func filterResolvable(t *models.TableDefinition, name string) bool {
	for _, f := range t.Filters {
		if f.Key == name || f.Field == name {
			return true
		}
	}
	for _, c := range t.Columns {
		if c.Filterable && c.Field == name {
			return true
		}
	}
	return false
}
