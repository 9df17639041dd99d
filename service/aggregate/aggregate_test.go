package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynconfig-service/service/models"
)

func enrolments() []map[string]interface{} {
	return []map[string]interface{}{
		{"month": "Jan", "department": "CS", "credits": 12, "fee": 1000.0},
		{"month": "Jan", "department": "EE", "credits": 9, "fee": 800.0},
		{"month": "Feb", "department": "CS", "credits": 15, "fee": nil},
		{"month": "Jan", "department": "CS", "credits": 6, "fee": 500.0},
		{"month": "Mar", "department": "ME", "credits": 3, "fee": "250"},
	}
}

func TestAggregate(t *testing.T) {
	rows := enrolments()

	tests := []struct {
		name  string
		field string
		fn    models.AggregateFunc
		want  interface{}
	}{
		{"sum skips nil", "fee", models.AggSum, 2550.0},
		{"avg over non-null", "fee", models.AggAvg, 637.5},
		{"count non-null", "fee", models.AggCount, 4},
		{"min", "credits", models.AggMin, 3},
		{"max", "credits", models.AggMax, 15},
		{"max text", "department", models.AggMax, "ME"},
		{"unknown function", "fee", "median", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(rows, tt.field, tt.fn))
		})
	}
}

func TestAggregate_EmptyDataset(t *testing.T) {
	var rows []map[string]interface{}

	assert.Equal(t, 0.0, Aggregate(rows, "fee", models.AggSum))
	assert.Equal(t, 0, Aggregate(rows, "fee", models.AggCount))
	assert.Nil(t, Aggregate(rows, "fee", models.AggAvg))
	assert.Nil(t, Aggregate(rows, "fee", models.AggMin))
	assert.Nil(t, Aggregate(rows, "fee", models.AggMax))

	allNull := []map[string]interface{}{{"fee": nil}, {"fee": nil}}
	assert.Nil(t, Aggregate(allNull, "fee", models.AggAvg))
	assert.Equal(t, 0, Aggregate(allNull, "fee", models.AggCount))
}

func TestBuildChart_GroupedSumEqualsTotal(t *testing.T) {
	rows := enrolments()
	chart := BuildChart(models.ReportChart{
		Key: "credits_by_dept", ChartType: models.ChartBar,
		DataField: "credits", GroupField: "department", Aggregation: models.AggSum,
	}, rows)

	assert.Equal(t, []string{"CS", "EE", "ME"}, chart.Labels)
	require.Len(t, chart.Datasets, 1)

	grouped := 0.0
	for _, v := range chart.Datasets[0].Data {
		grouped += v
	}
	assert.Equal(t, Aggregate(rows, "credits", models.AggSum), grouped)
	assert.Equal(t, []float64{33, 9, 3}, chart.Datasets[0].Data)
}

func TestBuildChart_MultiSeriesCount(t *testing.T) {
	chart := BuildChart(models.ReportChart{
		Key: "enrolments", ChartType: models.ChartLine,
		GroupField: "month", SeriesField: "department", Aggregation: models.AggCount,
	}, enrolments())

	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, chart.Labels)
	require.Len(t, chart.Datasets, 3)

	assert.Equal(t, "CS", chart.Datasets[0].Label)
	assert.Equal(t, []float64{2, 1, 0}, chart.Datasets[0].Data)
	assert.Equal(t, "EE", chart.Datasets[1].Label)
	assert.Equal(t, []float64{1, 0, 0}, chart.Datasets[1].Data)
	assert.Equal(t, "ME", chart.Datasets[2].Label)
	assert.Equal(t, []float64{0, 0, 1}, chart.Datasets[2].Data)

	assert.Equal(t, DefaultPalette[0], chart.Datasets[0].BackgroundColor)
	assert.Equal(t, DefaultPalette[2], chart.Datasets[2].BorderColor)
}

func TestBuildChart_Ungrouped(t *testing.T) {
	rows := enrolments()[:3]
	chart := BuildChart(models.ReportChart{
		Key: "fees", ChartType: models.ChartPie, DataField: "fee", LabelField: "department",
		Colors: models.JSONBStringArray{"red", "green"},
	}, rows)

	assert.Equal(t, []string{"CS", "EE", "CS"}, chart.Labels)
	require.Len(t, chart.Datasets, 1)
	assert.Equal(t, []float64{1000, 800, 0}, chart.Datasets[0].Data)
	assert.Equal(t, []string{"red", "green", "red"}, chart.Datasets[0].BackgroundColor)
}

func TestBuildChart_DefaultsAndEmpty(t *testing.T) {
	chart := BuildChart(models.ReportChart{Key: "empty", ChartType: models.ChartBar, DataField: "fee", GroupField: "month"}, nil)
	assert.Empty(t, chart.Labels)
	require.Len(t, chart.Datasets, 1)
	assert.Empty(t, chart.Datasets[0].Data)

	noLabel := BuildChart(models.ReportChart{Key: "n", ChartType: models.ChartBar, DataField: "credits"}, enrolments()[:2])
	assert.Equal(t, []string{"1", "2"}, noLabel.Labels)
}

func TestColorAtCyclesPalette(t *testing.T) {
	assert.Equal(t, DefaultPalette[0], colorAt(nil, 10))
	assert.Equal(t, DefaultPalette[3], colorAt(nil, 13))
}
