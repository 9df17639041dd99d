package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynconfig-service/service/models"
	"dynconfig-service/testutil"
)

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.TableDefinition)
		wantKey string
	}{
		{"合法定义", func(*models.TableDefinition) {}, ""},
		{"编码含大写", func(d *models.TableDefinition) { d.Code = "Students" }, "code"},
		{"缺少记录源", func(d *models.TableDefinition) { d.SourceName = "" }, "source_name"},
		{"没有列", func(d *models.TableDefinition) { d.Columns = nil; d.DefaultSortField = "" }, "columns"},
		{"列键重复", func(d *models.TableDefinition) { d.Columns[1].Key = "name" }, "columns[1].key"},
		{"未知数据类型", func(d *models.TableDefinition) { d.Columns[0].DataType = "money" }, "columns[0].data_type"},
		{"未知对齐方式", func(d *models.TableDefinition) { d.Columns[0].Alignment = "justify" }, "columns[0].alignment"},
		{"未知筛选操作符", func(d *models.TableDefinition) { d.Filters[0].Operator = "regex" }, "filters[0].operator"},
		{"样式规则操作符不支持", func(d *models.TableDefinition) {
			d.Columns[2].StylingRules = models.StyleRules{{Operator: models.OpContains, Value: "x"}}
		}, "columns[2].styling_rules[0].operator"},
		{"默认排序字段不在白名单", func(d *models.TableDefinition) { d.DefaultSortField = "password" }, "default_sort_field"},
		{"排序方向非法", func(d *models.TableDefinition) { d.DefaultSortDirection = "sideways" }, "default_sort_direction"},
		{"默认页大小不在允许列表", func(d *models.TableDefinition) { d.Settings.DefaultPageSize = 15 }, "settings.default_page_size"},
		{"不支持的导出格式", func(d *models.TableDefinition) { d.Settings.ExportFormats = []string{"docx"} }, "settings.export_formats[0]"},
		{"筛选依赖未知字段", func(d *models.TableDefinition) {
			d.Filters[1].DependsOn = models.Dependencies{{Field: "mode", Value: "x"}}
		}, "filters[1].depends_on[0].field"},
		{"筛选依赖不可筛选列", func(d *models.TableDefinition) {
			d.Filters[1].DependsOn = models.Dependencies{{Field: "email", Value: "x"}}
		}, "filters[1].depends_on[0].field"},
		{"筛选依赖其他筛选键", func(d *models.TableDefinition) {
			d.Filters[1].DependsOn = models.Dependencies{{Field: "min_gpa", Value: 3.0}}
		}, ""},
		{"筛选依赖可筛选列", func(d *models.TableDefinition) {
			d.Filters[0].DependsOn = models.Dependencies{{Field: "status", Value: "active"}}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testutil.NewStudentTable(tt.mutate)
			err := ValidateTable(def)
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, validationFields(t, err), tt.wantKey)
		})
	}
}

func TestValidateTable_CollectsAllErrors(t *testing.T) {
	def := testutil.NewStudentTable(func(d *models.TableDefinition) {
		d.Code = "Bad Code"
		d.Name = ""
		d.SourceName = ""
	})
	fields := validationFields(t, ValidateTable(def))
	assert.Contains(t, fields, "code")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "source_name")
}

func TestValidateForm(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.FormDefinition)
		wantKey string
	}{
		{"合法定义", func(*models.FormDefinition) {}, ""},
		{"引用不存在的分区", func(f *models.FormDefinition) { f.Fields[0].SectionKey = "ghost" }, "fields[0].section_key"},
		{"未知字段类型", func(f *models.FormDefinition) { f.Fields[1].FieldType = "slider" }, "fields[1].field_type"},
		{"计算字段缺少公式", func(f *models.FormDefinition) { f.Fields[1].FieldType = models.FieldComputed }, "fields[1].formula"},
		{"字段依赖自身", func(f *models.FormDefinition) {
			f.Fields[0].ConditionalLogic = &models.ConditionalLogic{Operator: models.LogicAnd, Conditions: []models.Condition{
				{Field: "leave_type", Operator: models.CondIsNotEmpty},
			}}
		}, "fields[0].conditional_logic"},
		{"条件引用不存在的字段", func(f *models.FormDefinition) {
			f.Sections[1].ConditionalLogic.Conditions[0].Field = "missing"
		}, "sections[1].conditional_logic.conditions[0].field"},
		{"条件操作符非法", func(f *models.FormDefinition) {
			f.Sections[1].ConditionalLogic.Operator = "XOR"
		}, "sections[1].conditional_logic"},
		{"表单条件不支持比较操作符", func(f *models.FormDefinition) {
			f.Sections[1].ConditionalLogic.Conditions[0].Operator = models.CondGreaterThan
		}, "sections[1].conditional_logic"},
		{"审批步骤缺少角色", func(f *models.FormDefinition) { f.Workflow.Steps[1].Role = "" }, "workflow.steps[1].role"},
		{"启用审批但没有步骤", func(f *models.FormDefinition) { f.Workflow.Steps = nil }, "workflow.steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testutil.NewLeaveForm(tt.mutate)
			err := ValidateForm(def)
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, validationFields(t, err), tt.wantKey)
		})
	}
}

func TestValidateReport(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ReportDefinition)
		wantKey string
	}{
		{"合法定义", func(*models.ReportDefinition) {}, ""},
		{"未知报表类型", func(r *models.ReportDefinition) { r.ReportType = "pivot" }, "report_type"},
		{"图表报表", func(r *models.ReportDefinition) { r.ReportType = models.ReportTypeChart }, ""},
		{"汇总字段缺少函数", func(r *models.ReportDefinition) { r.Fields[2].SummaryFunction = "" }, "fields[2].summary_function"},
		{"图表类型非法", func(r *models.ReportDefinition) { r.Charts[0].ChartType = "gauge" }, "charts[0].chart_type"},
		{"图表字段不在报表中", func(r *models.ReportDefinition) { r.Charts[0].GroupField = "secret" }, "charts[0].group_field"},
		{"系列字段缺少分组", func(r *models.ReportDefinition) {
			r.Charts[0].GroupField = ""
			r.Charts[0].SeriesField = "department"
		}, "charts[0].group_field"},
		{"非 count 聚合缺少数据字段", func(r *models.ReportDefinition) { r.Charts[0].DataField = "" }, "charts[0].data_field"},
		{"参数依赖使用未知操作符", func(r *models.ReportDefinition) {
			r.Parameters[1].DependsOn = &models.ConditionalLogic{Operator: models.LogicAnd, Conditions: []models.Condition{
				{Field: "term", Operator: "matches", Value: models.StringValue("2024")},
			}}
		}, "parameters[1].depends_on"},
		{"参数依赖引用未知参数", func(r *models.ReportDefinition) {
			r.Parameters[1].DependsOn = &models.ConditionalLogic{Operator: models.LogicAnd, Conditions: []models.Condition{
				{Field: "year", Operator: models.CondIsNotEmpty},
			}}
		}, "parameters[1].depends_on.conditions[0].field"},
		{"不支持的导出格式", func(r *models.ReportDefinition) { r.ExportFormats = models.JSONBStringArray{"html"} }, "export_formats[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testutil.NewEnrollmentReport(tt.mutate)
			err := ValidateReport(def)
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, validationFields(t, err), tt.wantKey)
		})
	}
}

func TestValidateReport_CountChartWithoutDataField(t *testing.T) {
	def := testutil.NewEnrollmentReport(func(r *models.ReportDefinition) {
		r.Charts[0].DataField = ""
		r.Charts[0].Aggregation = models.AggCount
	})
	assert.NoError(t, ValidateReport(def))
}
