/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dynconfig-service/service/database"
	"dynconfig-service/service/models"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return database.Models()
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接独立，事务与查询必须共用同一连接
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to get sql db: %v", err))
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"column_definitions",
		"filter_definitions",
		"view_definitions",
		"table_definitions",
		"field_definitions",
		"section_definitions",
		"form_submissions",
		"form_definitions",
		"report_fields",
		"report_parameters",
		"report_charts",
		"report_schedules",
		"report_definitions",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂，New* 只构造，Create* 直接落库
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// TableOption 表格定义选项函数类型
type TableOption func(*models.TableDefinition)

// NewStudentTable 学生名单表格定义：5 列、3 个筛选
func NewStudentTable(opts ...TableOption) *models.TableDefinition {
	t := &models.TableDefinition{
		Code:       "students",
		Name:       "学生名单",
		SourceName: "students",
		IsActive:   true,
		Settings: models.TableSettings{
			Pagination:       true,
			DefaultPageSize:  10,
			AllowedPageSizes: []int{10, 25, 50},
			Searchable:       true,
			ExportFormats:    []string{"csv"},
		},
		DefaultSortField:     "name",
		DefaultSortDirection: models.SortAsc,
		CreatedBy:            "test",
		Columns: []models.ColumnDefinition{
			{Key: "name", Field: "name", Label: "姓名", DataType: models.DataTypeString, Visible: true, Sortable: true, Searchable: true, Exportable: true},
			{Key: "email", Field: "email", Label: "邮箱", DataType: models.DataTypeString, Visible: true, Searchable: true, Exportable: true},
			{Key: "gpa", Field: "gpa", Label: "GPA", DataType: models.DataTypeDecimal, Visible: true, Sortable: true, Filterable: true, Exportable: true},
			{Key: "program", Field: "program", Label: "专业", DataType: models.DataTypeString, Visible: true, Sortable: true, Filterable: true, Exportable: true},
			{Key: "status", Field: "status", Label: "状态", DataType: models.DataTypeStatus, Visible: true, Filterable: true, Exportable: true},
		},
		Filters: []models.FilterDefinition{
			{Key: "min_gpa", Field: "gpa", Label: "最低 GPA", Operator: models.OpGreaterThan, InputType: "number", Visible: true},
			{Key: "program", Field: "program", Label: "专业", Operator: models.OpIn, InputType: "multiselect", Visible: true},
			{Key: "enrolled", Field: "enrolled_at", Label: "入学日期", Operator: models.OpDateBetween, InputType: "daterange", Visible: true},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateTable 直接写入表格定义
func (f *TestDataFactory) CreateTable(opts ...TableOption) *models.TableDefinition {
	t := NewStudentTable(opts...)
	if err := f.DB.Create(t).Error; err != nil {
		panic(fmt.Sprintf("failed to create test table definition: %v", err))
	}
	return t
}

// FormOption 表单定义选项函数类型
type FormOption func(*models.FormDefinition)

// NewLeaveForm 请假申请表单：类型为 sick 时显示证明材料，两级审批
func NewLeaveForm(opts ...FormOption) *models.FormDefinition {
	f := &models.FormDefinition{
		Code:     "leave_request",
		Name:     "请假申请",
		IsActive: true,
		Workflow: models.WorkflowDescriptor{
			Enabled: true,
			Steps: []models.WorkflowStep{
				{Role: "advisor", Label: "导师审批"},
				{Role: "dean", Label: "院长审批"},
			},
		},
		CreatedBy: "test",
		Sections: []models.SectionDefinition{
			{Key: "basic", Title: "基本信息", Columns: 2},
			{Key: "evidence", Title: "证明材料", Columns: 1, ConditionalLogic: &models.ConditionalLogic{
				Operator: models.LogicAnd,
				Conditions: []models.Condition{
					{Field: "leave_type", Operator: models.CondEquals, Value: models.StringValue("sick")},
				},
			}},
		},
		Fields: []models.FieldDefinition{
			{Key: "leave_type", Label: "请假类型", FieldType: models.FieldSelect, Required: true, SectionKey: "basic",
				Options: models.JSONBGenericArray{"sick", "personal", "conference"}},
			{Key: "days", Label: "天数", FieldType: models.FieldNumber, Required: true, SectionKey: "basic",
				ValidationRules: models.JSONBStringArray{"min:1", "max:30"}},
			{Key: "reason", Label: "事由", FieldType: models.FieldTextarea, SectionKey: "basic",
				ValidationRules: models.JSONBStringArray{"max:500"}},
			{Key: "certificate", Label: "病假证明", FieldType: models.FieldFile, Required: true, SectionKey: "evidence"},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateForm 直接写入表单定义
func (f *TestDataFactory) CreateForm(opts ...FormOption) *models.FormDefinition {
	form := NewLeaveForm(opts...)
	if err := f.DB.Create(form).Error; err != nil {
		panic(fmt.Sprintf("failed to create test form definition: %v", err))
	}
	return form
}

// ReportOption 报表定义选项函数类型
type ReportOption func(*models.ReportDefinition)

// NewEnrollmentReport 选课统计报表：学分汇总 + 按院系柱状图
func NewEnrollmentReport(opts ...ReportOption) *models.ReportDefinition {
	r := &models.ReportDefinition{
		Code:                 "enrollment_summary",
		Name:                 "选课统计",
		SourceName:           "enrollments",
		ReportType:           models.ReportTabular,
		IsActive:             true,
		ExportFormats:        models.JSONBStringArray{"csv", "pdf"},
		DefaultSortField:     "student",
		DefaultSortDirection: models.SortAsc,
		CreatedBy:            "test",
		Fields: []models.ReportField{
			{Key: "student", Field: "student", Label: "学生", DataType: models.DataTypeString, Visible: true, Sortable: true, Searchable: true},
			{Key: "department", Field: "department", Label: "院系", DataType: models.DataTypeString, Visible: true, Sortable: true},
			{Key: "credits", Field: "credits", Label: "学分", DataType: models.DataTypeNumber, Visible: true, IsSummary: true, SummaryFunction: models.AggSum},
			{Key: "fee", Field: "fee", Label: "学费", DataType: models.DataTypeCurrency, Visible: true, IsSummary: true, SummaryFunction: models.AggAvg},
		},
		Parameters: []models.ReportParameter{
			{Key: "term", Field: "term", Label: "学期", InputType: "select", DataType: models.DataTypeString, Operator: models.OpEquals,
				Required: true, Visible: true, DefaultValue: models.JSONValue{V: "2024S"}},
			{Key: "department", Field: "department", Label: "院系", InputType: "select", DataType: models.DataTypeString, Operator: models.OpEquals, Visible: true},
		},
		Charts: []models.ReportChart{
			{Key: "credits_by_department", Title: "院系学分", ChartType: models.ChartBar, DataField: "credits",
				GroupField: "department", Aggregation: models.AggSum},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateReport 直接写入报表定义
func (f *TestDataFactory) CreateReport(opts ...ReportOption) *models.ReportDefinition {
	r := NewEnrollmentReport(opts...)
	if err := f.DB.Create(r).Error; err != nil {
		panic(fmt.Sprintf("failed to create test report definition: %v", err))
	}
	return r
}

// ScheduleOption 定时任务选项函数类型
type ScheduleOption func(*models.ReportSchedule)

// CreateSchedule 创建到期的定时任务
func (f *TestDataFactory) CreateSchedule(report *models.ReportDefinition, opts ...ScheduleOption) *models.ReportSchedule {
	due := time.Now().UTC().Add(-time.Minute)
	s := &models.ReportSchedule{
		ReportDefinitionID: report.ID,
		ReportCode:         report.Code,
		Name:               "每日选课统计",
		CronExpression:     "0 6 * * *",
		Timezone:           "UTC",
		Parameters:         models.JSONB{"term": "2024S"},
		ExportFormat:       "csv",
		Recipients:         []string{"registrar@example.edu"},
		IsActive:           true,
		NextRunAt:          &due,
		CreatedBy:          "test",
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := f.DB.Create(s).Error; err != nil {
		panic(fmt.Sprintf("failed to create test report schedule: %v", err))
	}
	return s
}

// EnrollmentRows 选课明细样例数据
func EnrollmentRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"student": "Alice", "department": "CS", "credits": 12, "fee": 1200.0, "term": "2024S"},
		{"student": "Bob", "department": "CS", "credits": 9, "fee": 900.0, "term": "2024S"},
		{"student": "Carol", "department": "EE", "credits": 15, "fee": 1500.0, "term": "2024S"},
		{"student": "Dave", "department": "ME", "credits": 6, "fee": 600.0, "term": "2024S"},
		{"student": "Erin", "department": "CS", "credits": 3, "fee": 300.0, "term": "2023F"},
	}
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeResponse 解析统一响应结构中的 data 字段
func (h *HTTPTestHelper) DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) {
	var envelope struct {
		Status int             `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	if !assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope)) {
		return
	}
	if data != nil && len(envelope.Data) > 0 {
		assert.NoError(t, json.Unmarshal(envelope.Data, data))
	}
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
