package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dynconfig-service/service/definition"
	"dynconfig-service/service/export"
	"dynconfig-service/service/format"
	"dynconfig-service/service/models"
	"dynconfig-service/service/query"
	"dynconfig-service/testutil"
)

type GeneratorTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDB
	generator *Generator
	def       *models.ReportDefinition
	ctx       context.Context
}

func (s *GeneratorTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.ctx = context.Background()
	store := definition.NewStore(s.testDB.DB, nil, time.Minute)
	s.def = testutil.NewEnrollmentReport()
	s.Require().NoError(store.CreateReport(s.ctx, s.def))

	sources := query.NewSourceRegistry()
	sources.Register("enrollments", query.NewMemorySource(testutil.EnrollmentRows()))
	s.generator = NewGenerator(store, query.NewEngine(sources, store),
		format.NewFormatter("en", "$"), export.NewService(nil), 0)
}

func (s *GeneratorTestSuite) TearDownTest() {
	s.testDB.Close()
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorTestSuite))
}

func (s *GeneratorTestSuite) TestGenerate_DefaultParameter() {
	out, err := s.generator.Generate(s.ctx, "enrollment_summary", Request{})
	s.Require().NoError(err)

	s.Equal(4, out.Meta.RowCount)
	s.Equal("2024S", out.Meta.Parameters["term"])
	s.Require().Len(out.Columns, 4)
	s.Equal("学生", out.Columns[0].Label)
	s.Equal("Alice", out.Rows[0].Formatted["student"])
	s.Equal(12, out.Rows[0].Raw["credits"])

	s.Equal(42.0, out.Summaries["credits"])
	s.Equal(1050.0, out.Summaries["fee"])
	s.Contains(out.FormattedSummaries["fee"], "1,050.00")
}

func (s *GeneratorTestSuite) TestGenerate_GroupedChartMatchesTotal() {
	out, err := s.generator.Generate(s.ctx, "enrollment_summary", Request{})
	s.Require().NoError(err)

	s.Require().Len(out.Charts, 1)
	chart := out.Charts[0]
	s.ElementsMatch([]string{"CS", "EE", "ME"}, chart.Labels)
	s.Require().Len(chart.Datasets, 1)
	total := 0.0
	for _, v := range chart.Datasets[0].Data {
		total += v
	}
	s.Equal(out.Summaries["credits"], total)
}

func (s *GeneratorTestSuite) TestGenerate_ParametersAndSort() {
	out, err := s.generator.Generate(s.ctx, "enrollment_summary", Request{
		Parameters:    map[string]interface{}{"department": "CS", "password": "x"},
		SortField:     "student",
		SortDirection: "desc",
	})
	s.Require().NoError(err)
	s.Require().Equal(2, out.Meta.RowCount)
	s.Equal("Bob", out.Rows[0].Raw["student"])
	s.NotContains(out.Meta.Parameters, "password")

	out, err = s.generator.Generate(s.ctx, "enrollment_summary", Request{
		Parameters: map[string]interface{}{"term": "2023F"},
	})
	s.Require().NoError(err)
	s.Equal(1, out.Meta.RowCount)
	s.Equal("Erin", out.Rows[0].Raw["student"])
}

func (s *GeneratorTestSuite) TestGenerate_NotFound() {
	_, err := s.generator.Generate(s.ctx, "ghost", Request{})
	s.ErrorIs(err, definition.ErrDefinitionNotFound)
}

func (s *GeneratorTestSuite) TestGenerate_DeadlineExceeded() {
	ctx, cancel := context.WithDeadline(s.ctx, time.Now().Add(-time.Second))
	defer cancel()

	out, err := s.generator.GenerateReport(ctx, s.def, Request{})
	s.ErrorIs(err, ErrGenerationTimeout)
	s.Nil(out)
}

func (s *GeneratorTestSuite) TestExport() {
	file, err := s.generator.Export(s.ctx, "enrollment_summary", Request{}, export.FormatCSV)
	s.Require().NoError(err)
	content := string(file.Content)
	s.Contains(content, "学生,院系,学分,学费")
	s.Contains(content, "Carol,EE,15,")
	s.NotContains(content, "Erin")

	_, err = s.generator.Export(s.ctx, "enrollment_summary", Request{}, export.FormatExcel)
	s.ErrorIs(err, export.ErrUnsupportedExportFormat)

	_, err = s.generator.Export(s.ctx, "enrollment_summary", Request{}, export.FormatPDF)
	s.ErrorIs(err, export.ErrRendererUnavailable)
}

func (s *GeneratorTestSuite) TestRunSchedule() {
	schedule := &models.ReportSchedule{
		ReportCode:   "enrollment_summary",
		Parameters:   models.JSONB{"term": "2023F"},
		ExportFormat: export.FormatCSV,
	}
	file, err := s.generator.RunSchedule(s.ctx, schedule)
	s.Require().NoError(err)
	s.True(strings.HasSuffix(file.Name, ".csv"))
	s.Contains(string(file.Content), "Erin")
}

func labReport() *models.ReportDefinition {
	return testutil.NewEnrollmentReport(func(r *models.ReportDefinition) {
		r.Parameters = append(r.Parameters, models.ReportParameter{
			Key: "lab", Field: "lab", Operator: models.OpEquals, Required: true, Visible: true, SortOrder: 5,
			DependsOn: &models.ConditionalLogic{
				Operator: models.LogicAnd,
				Conditions: []models.Condition{
					{Field: "department", Operator: models.CondEquals, Value: models.StringValue("EE")},
				},
			},
		})
	})
}

func TestResolveParameters(t *testing.T) {
	def := labReport()

	tests := []struct {
		name    string
		input   map[string]interface{}
		want    map[string]interface{}
		missing bool
	}{
		{"默认值", nil, map[string]interface{}{"term": "2024S"}, false},
		{"空串取默认值", map[string]interface{}{"term": ""}, map[string]interface{}{"term": "2024S"}, false},
		{"依赖不满足时忽略", map[string]interface{}{"department": "CS", "lab": "L1"},
			map[string]interface{}{"term": "2024S", "department": "CS"}, false},
		{"依赖满足", map[string]interface{}{"department": "EE", "lab": "L1"},
			map[string]interface{}{"term": "2024S", "department": "EE", "lab": "L1"}, false},
		{"依赖满足但必填缺失", map[string]interface{}{"department": "EE"}, nil, true},
		{"未知参数丢弃", map[string]interface{}{"sort": "1; DROP"}, map[string]interface{}{"term": "2024S"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveParameters(def, tt.input)
			if tt.missing {
				assert.ErrorIs(t, err, ErrMissingParameter)
				assert.Contains(t, err.Error(), "lab")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveParameters_RequiredWithoutDefault(t *testing.T) {
	def := testutil.NewEnrollmentReport(func(r *models.ReportDefinition) {
		r.Parameters[0].DefaultValue = models.JSONValue{}
	})
	_, err := ResolveParameters(def, map[string]interface{}{"department": "CS"})
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestParameterVisibility(t *testing.T) {
	def := labReport()
	def.Parameters[1].Visible = false

	vis := ParameterVisibility(def, map[string]interface{}{"department": "CS"})
	assert.Equal(t, map[string]bool{"term": true, "department": false, "lab": false}, vis)

	vis = ParameterVisibility(def, map[string]interface{}{"department": "EE"})
	assert.True(t, vis["lab"])
}
