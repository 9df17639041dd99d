package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	identity "dynconfig-service/api/middleware"
	"dynconfig-service/service/definition"
	"dynconfig-service/service/export"
	"dynconfig-service/service/form"
	"dynconfig-service/service/format"
	"dynconfig-service/service/models"
	"dynconfig-service/service/query"
	"dynconfig-service/service/report"
	"dynconfig-service/service/scheduler"
	"dynconfig-service/service/view"
	"dynconfig-service/testutil"
)

func studentRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "Alice", "email": "alice@example.edu", "gpa": 3.8, "program": "CS", "status": "active", "password": "x"},
		{"name": "Bob", "email": "bob@example.edu", "gpa": 3.1, "program": "CS", "status": "active", "password": "x"},
		{"name": "Carol", "email": "carol@example.edu", "gpa": 3.5, "program": "EE", "status": "probation", "password": "x"},
		{"name": "Dave", "email": "dave@example.edu", "gpa": 2.9, "program": "ME", "status": "active", "password": "x"},
	}
}

type APITestSuite struct {
	suite.Suite
	testDB *testutil.TestDB
	store  *definition.Store
	router *chi.Mux
	http   *testutil.HTTPTestHelper
	ctx    context.Context
}

func (s *APITestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.ctx = context.Background()
	s.http = testutil.NewHTTPTestHelper()
	s.store = definition.NewStore(s.testDB.DB, nil, time.Minute)
	s.Require().NoError(s.store.CreateTable(s.ctx, testutil.NewStudentTable()))
	s.Require().NoError(s.store.CreateForm(s.ctx, testutil.NewLeaveForm()))
	s.Require().NoError(s.store.CreateReport(s.ctx, testutil.NewEnrollmentReport()))

	sources := query.NewSourceRegistry()
	sources.Register("students", query.NewMemorySource(studentRows()))
	sources.Register("enrollments", query.NewMemorySource(testutil.EnrollmentRows()))
	engine := query.NewEngine(sources, s.store)
	formatter := format.NewFormatter("en", "$")
	exporter := export.NewService(nil)
	views := view.NewService(s.testDB.DB, s.store)
	generator := report.NewGenerator(s.store, engine, formatter, exporter, time.Minute)
	runner := scheduler.NewSchedulerService(s.testDB.DB, generator, export.LogDeliverer{}, nil, nil, scheduler.Config{})
	schedules := scheduler.NewScheduleService(s.testDB.DB, s.store, runner)

	defs := NewDefinitionController(s.store)
	tables := NewTableController(s.store, engine, views, formatter, exporter)
	viewCtl := NewViewController(views)
	forms := NewFormController(form.NewService(s.testDB.DB, s.store, nil, nil))
	reports := NewReportController(generator)
	scheduleCtl := NewScheduleController(schedules)

	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(identity.Identity)
	r.Post("/definitions/import", defs.ImportBundle)
	r.Get("/tables/{code}", defs.GetTable)
	r.Post("/tables", defs.CreateTable)
	r.Get("/tables", defs.ListTables)
	r.Get("/tables/{code}/data", tables.GetData)
	r.Post("/tables/{code}/data", tables.QueryData)
	r.Post("/tables/{code}/export", tables.Export)
	r.Post("/tables/{code}/views", viewCtl.Create)
	r.Get("/tables/{code}/views", viewCtl.List)
	r.Post("/tables/{code}/views/{id}/default", viewCtl.SetDefault)
	r.Post("/forms/{code}/layout", forms.Layout)
	r.Post("/forms/{code}/submissions", forms.Submit)
	r.Get("/forms/{code}/submissions", forms.ListSubmissions)
	r.Post("/submissions/{id}/{action}", forms.Act)
	r.Post("/reports/{code}/generate", reports.Generate)
	r.Post("/reports/{code}/export", reports.Export)
	r.Post("/reports/{code}/parameters", reports.Parameters)
	r.Post("/reports/{code}/schedules", scheduleCtl.Create)
	r.Get("/schedules/{id}", scheduleCtl.Get)
	r.Post("/schedules/{id}/toggle", scheduleCtl.Toggle)
	r.Post("/schedules/{id}/run", scheduleCtl.Run)
	s.router = r
}

func (s *APITestSuite) TearDownTest() {
	s.testDB.Close()
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) do(method, url string, body interface{}, user, role string) *httptest.ResponseRecorder {
	req, err := s.http.CreateJSONRequest(method, url, body)
	s.Require().NoError(err)
	if user != "" {
		req.Header.Set(identity.HeaderUserID, user)
	}
	if role != "" {
		req.Header.Set(identity.HeaderUserRole, role)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonUnmarshal(w *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

type tableData struct {
	Total  int64  `json:"total"`
	ViewID string `json:"view_id"`
	Rows   []struct {
		Raw       map[string]interface{} `json:"raw"`
		Formatted map[string]interface{} `json:"formatted"`
	} `json:"rows"`
}

func (s *APITestSuite) TestTableData_FiltersAndSort() {
	w := s.do(http.MethodGet, "/tables/students/data?filters[program]=CS&sort_field=gpa&sort_direction=desc", nil, "u1", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data tableData
	s.http.DecodeResponse(s.T(), w, &data)
	s.Equal(int64(2), data.Total)
	s.Require().Len(data.Rows, 2)
	s.Equal("Alice", data.Rows[0].Raw["name"])
	s.Equal("Bob", data.Rows[1].Raw["name"])
	s.NotContains(data.Rows[0].Formatted, "password")
}

func (s *APITestSuite) TestTableData_UnknownFilterIgnored() {
	w := s.do(http.MethodGet, "/tables/students/data?filters[password]=x&sort_field=password", nil, "u1", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var data tableData
	s.http.DecodeResponse(s.T(), w, &data)
	s.Equal(int64(4), data.Total)
	s.Equal("Alice", data.Rows[0].Raw["name"])
}

func (s *APITestSuite) TestTableData_DefaultViewPerUser() {
	w := s.do(http.MethodPost, "/tables/students/views", map[string]interface{}{
		"name":       "只看电子",
		"is_default": true,
		"filters":    map[string]interface{}{"program": []string{"EE"}},
	}, "u1", "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var saved models.ViewDefinition
	s.http.DecodeResponse(s.T(), w, &saved)

	var data tableData
	w = s.do(http.MethodGet, "/tables/students/data", nil, "u1", "")
	s.http.DecodeResponse(s.T(), w, &data)
	s.Equal(int64(1), data.Total)
	s.Equal(saved.ID, data.ViewID)

	w = s.do(http.MethodGet, "/tables/students/data", nil, "u2", "")
	data = tableData{}
	s.http.DecodeResponse(s.T(), w, &data)
	s.Equal(int64(4), data.Total)
	s.Empty(data.ViewID)

	// 他人的私有视图不可指定
	w = s.do(http.MethodGet, "/tables/students/data?view_id="+saved.ID, nil, "u2", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestTableData_QueryByBody() {
	w := s.do(http.MethodPost, "/tables/students/data", map[string]interface{}{
		"search":  "carol",
		"filters": map[string]interface{}{"min_gpa": 3.0},
	}, "u1", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var data tableData
	s.http.DecodeResponse(s.T(), w, &data)
	s.Equal(int64(1), data.Total)
}

func (s *APITestSuite) TestTableExport() {
	w := s.do(http.MethodPost, "/tables/students/export", map[string]interface{}{
		"format":  "csv",
		"filters": map[string]interface{}{"program": []string{"CS"}},
	}, "u1", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Header().Get("Content-Type"), "text/csv")
	s.Contains(w.Header().Get("Content-Disposition"), ".csv")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(w.Body.String(), "\ufeff")), "\n")
	s.Require().Len(lines, 3)
	s.Equal("姓名,邮箱,GPA,专业,状态", strings.TrimSpace(lines[0]))

	// 表格只允许 csv
	w = s.do(http.MethodPost, "/tables/students/export", map[string]interface{}{"format": "pdf"}, "u1", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestDefinitionErrors() {
	w := s.do(http.MethodGet, "/tables/ghost", nil, "", "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/tables", testutil.NewStudentTable(), "", "")
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/tables", map[string]interface{}{"code": "", "name": ""}, "", "")
	s.Equal(http.StatusBadRequest, w.Code)
	var fields map[string]string
	s.http.DecodeResponse(s.T(), w, &fields)
	s.NotEmpty(fields)

	req := httptest.NewRequest(http.MethodPost, "/tables", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestListTables() {
	w := s.do(http.MethodGet, "/tables?search=stud&is_active=true", nil, "", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp PaginatedResponse
	s.Require().NoError(jsonUnmarshal(w, &resp))
	s.Equal(int64(1), resp.Total)
	s.Equal(1, resp.Page)
	s.Equal(20, resp.Size)
}

func (s *APITestSuite) TestImportBundle() {
	table := testutil.NewStudentTable(func(t *models.TableDefinition) {
		t.Code = "alumni"
		t.Name = "校友名单"
	})
	w := s.do(http.MethodPost, "/definitions/import", map[string]interface{}{
		"tables": []interface{}{table},
	}, "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var result definition.ImportResult
	s.http.DecodeResponse(s.T(), w, &result)
	s.Equal(1, result.Tables)
	s.Empty(result.Errors)

	w = s.do(http.MethodGet, "/tables/alumni", nil, "", "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestFormSubmissionWorkflow() {
	w := s.do(http.MethodPost, "/forms/leave_request/submissions", map[string]interface{}{
		"data": map[string]interface{}{"leave_type": "sick", "days": 2},
	}, "s1", "student")
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())
	var fieldErrors map[string][]string
	s.http.DecodeResponse(s.T(), w, &fieldErrors)
	s.Contains(fieldErrors, "certificate")

	w = s.do(http.MethodPost, "/forms/leave_request/submissions", map[string]interface{}{
		"data": map[string]interface{}{"leave_type": "personal", "days": 2},
	}, "s1", "student")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var sub models.FormSubmission
	s.http.DecodeResponse(s.T(), w, &sub)
	s.Equal(models.SubmissionPending, sub.Status)
	s.Equal("s1", sub.SubmittedBy)

	w = s.do(http.MethodPost, "/submissions/"+sub.ID+"/approve", nil, "s1", "student")
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/submissions/"+sub.ID+"/approve", map[string]string{"notes": "同意"}, "t1", "advisor")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.http.DecodeResponse(s.T(), w, &sub)
	s.Equal(1, sub.CurrentStep)

	w = s.do(http.MethodPost, "/submissions/"+sub.ID+"/reject", nil, "d1", "dean")
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/submissions/"+sub.ID+"/approve", nil, "d1", "dean")
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/submissions/"+sub.ID+"/escalate", nil, "d1", "dean")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/forms/leave_request/submissions?status=rejected", nil, "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var page PaginatedResponse
	s.Require().NoError(jsonUnmarshal(w, &page))
	s.Equal(int64(1), page.Total)
}

func (s *APITestSuite) TestFormLayout() {
	type layout struct {
		Sections []struct {
			Key string `json:"key"`
		} `json:"sections"`
	}
	var got layout
	w := s.do(http.MethodPost, "/forms/leave_request/layout", map[string]interface{}{
		"data": map[string]interface{}{"leave_type": "sick"},
	}, "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.http.DecodeResponse(s.T(), w, &got)
	s.Len(got.Sections, 2)

	got = layout{}
	w = s.do(http.MethodPost, "/forms/leave_request/layout", map[string]interface{}{
		"data": map[string]interface{}{"leave_type": "personal"},
	}, "", "")
	s.http.DecodeResponse(s.T(), w, &got)
	s.Len(got.Sections, 1)
}

func (s *APITestSuite) TestReportGenerateAndExport() {
	w := s.do(http.MethodPost, "/reports/enrollment_summary/generate", map[string]interface{}{
		"parameters": map[string]interface{}{"department": "CS"},
	}, "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Rows []interface{} `json:"rows"`
		Meta struct {
			RowCount int `json:"row_count"`
		} `json:"meta"`
	}
	s.http.DecodeResponse(s.T(), w, &out)
	s.Equal(2, out.Meta.RowCount)
	s.Len(out.Rows, 2)

	w = s.do(http.MethodPost, "/reports/enrollment_summary/export", map[string]interface{}{"format": "csv"}, "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Disposition"), "attachment")

	w = s.do(http.MethodPost, "/reports/enrollment_summary/export", map[string]interface{}{"format": "excel"}, "", "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/reports/enrollment_summary/export", map[string]interface{}{"format": "pdf"}, "", "")
	s.Equal(http.StatusServiceUnavailable, w.Code)

	w = s.do(http.MethodPost, "/reports/ghost/generate", nil, "", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestReportParameters() {
	w := s.do(http.MethodPost, "/reports/enrollment_summary/parameters", nil, "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp ParametersResponse
	s.http.DecodeResponse(s.T(), w, &resp)
	s.True(resp.Visibility["term"])
	s.True(resp.Visibility["department"])
}

func (s *APITestSuite) TestScheduleLifecycle() {
	w := s.do(http.MethodPost, "/reports/enrollment_summary/schedules", map[string]interface{}{
		"name":            "坏任务",
		"cron_expression": "not a cron",
		"recipients":      []string{"nobody"},
	}, "", "")
	s.Require().Equal(http.StatusBadRequest, w.Code)
	var fields map[string]string
	s.http.DecodeResponse(s.T(), w, &fields)
	s.Contains(fields, "cron_expression")

	w = s.do(http.MethodPost, "/reports/enrollment_summary/schedules", map[string]interface{}{
		"name":            "每日选课统计",
		"cron_expression": "0 6 * * *",
		"timezone":        "Asia/Shanghai",
		"export_format":   "csv",
		"recipients":      []string{"registrar@example.edu"},
		"parameters":      map[string]interface{}{"term": "2024S"},
		"is_active":       true,
	}, "", "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var sched models.ReportSchedule
	s.http.DecodeResponse(s.T(), w, &sched)
	s.Require().NotNil(sched.NextRunAt)

	w = s.do(http.MethodPost, "/schedules/"+sched.ID+"/run", nil, "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var ran models.ReportSchedule
	s.http.DecodeResponse(s.T(), w, &ran)
	s.Equal(int64(1), ran.RunCount)
	s.Equal(models.ScheduleStatusSuccess, ran.LastStatus)
	s.Require().NotNil(ran.NextRunAt)
	s.True(sched.NextRunAt.Equal(*ran.NextRunAt))

	w = s.do(http.MethodPost, "/schedules/"+sched.ID+"/toggle", nil, "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var toggled models.ReportSchedule
	s.http.DecodeResponse(s.T(), w, &toggled)
	s.False(toggled.IsActive)

	w = s.do(http.MethodGet, "/schedules/missing", nil, "", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{definition.ErrDefinitionNotFound, http.StatusNotFound},
		{&definition.ValidationError{Fields: map[string]string{"code": "必填"}}, http.StatusBadRequest},
		{&form.ValidationErrors{Fields: map[string][]string{"days": {"必填"}}}, http.StatusUnprocessableEntity},
		{form.ErrWorkflowRoleMismatch, http.StatusForbidden},
		{form.ErrConcurrentUpdate, http.StatusConflict},
		{report.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{export.ErrRendererUnavailable, http.StatusServiceUnavailable},
		{scheduler.ErrScheduleNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		writeError(w, r, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestHealthController_Ready(t *testing.T) {
	healthy := NewHealthController(nil)
	w := httptest.NewRecorder()
	healthy.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down := NewHealthController(func(context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	down.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
