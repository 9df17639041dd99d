package logic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynconfig-service/service/models"
)

func cond(field string, op models.ConditionOperator, v interface{}) models.Condition {
	return models.Condition{Field: field, Operator: op, Value: models.ValueOf(v)}
}

func TestEvaluate_Combinators(t *testing.T) {
	data := map[string]interface{}{"type": "A", "count": 3}

	tests := []struct {
		name  string
		logic *models.ConditionalLogic
		want  bool
	}{
		{"nil logic", nil, true},
		{"no conditions", &models.ConditionalLogic{Operator: models.LogicAnd}, true},
		{"no conditions OR", &models.ConditionalLogic{Operator: models.LogicOr}, true},
		{
			"AND all true",
			&models.ConditionalLogic{Operator: models.LogicAnd, Conditions: []models.Condition{
				cond("type", models.CondEquals, "A"),
				cond("count", models.CondEquals, 3),
			}},
			true,
		},
		{
			"AND one false",
			&models.ConditionalLogic{Operator: models.LogicAnd, Conditions: []models.Condition{
				cond("type", models.CondEquals, "A"),
				cond("count", models.CondEquals, 4),
			}},
			false,
		},
		{
			"OR one true",
			&models.ConditionalLogic{Operator: models.LogicOr, Conditions: []models.Condition{
				cond("type", models.CondEquals, "B"),
				cond("count", models.CondEquals, 3),
			}},
			true,
		},
		{
			"OR none true",
			&models.ConditionalLogic{Operator: models.LogicOr, Conditions: []models.Condition{
				cond("type", models.CondEquals, "B"),
				cond("count", models.CondEquals, 4),
			}},
			false,
		},
		{
			"unknown operator is false",
			&models.ConditionalLogic{Operator: models.LogicAnd, Conditions: []models.Condition{
				cond("type", "matches", "A"),
			}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.logic, data))
		})
	}
}

func TestEvaluate_OrSectionVisibility(t *testing.T) {
	logic := &models.ConditionalLogic{
		Operator: models.LogicOr,
		Conditions: []models.Condition{
			cond("type", models.CondEquals, "A"),
			cond("type", models.CondEquals, "B"),
		},
	}

	assert.True(t, Evaluate(logic, map[string]interface{}{"type": "A"}))
	assert.True(t, Evaluate(logic, map[string]interface{}{"type": "B"}))
	assert.False(t, Evaluate(logic, map[string]interface{}{"type": "C"}))
	assert.False(t, Evaluate(logic, map[string]interface{}{}))
}

func TestEvaluateCondition_Operators(t *testing.T) {
	data := map[string]interface{}{
		"name":    "Computer Science",
		"tags":    []interface{}{"stem", "undergrad"},
		"gpa":     3.7,
		"empty":   "",
		"level":   "graduate",
		"enabled": true,
	}

	tests := []struct {
		name string
		c    models.Condition
		want bool
	}{
		{"equals loose numeric", cond("gpa", models.CondEquals, "3.70"), true},
		{"equals bool", cond("enabled", models.CondEquals, true), true},
		{"not equals", cond("level", models.CondNotEquals, "undergraduate"), true},
		{"contains substring", cond("name", models.CondContains, "Science"), true},
		{"contains is case sensitive", cond("name", models.CondContains, "science"), false},
		{"contains list member", cond("tags", models.CondContains, "stem"), true},
		{"contains on missing field", cond("missing", models.CondContains, "x"), false},
		{"is empty on empty string", cond("empty", models.CondIsEmpty, nil), true},
		{"is empty on missing field", cond("missing", models.CondIsEmpty, nil), true},
		{"is not empty", cond("name", models.CondIsNotEmpty, nil), true},
		{"greater than", cond("gpa", models.CondGreaterThan, 3.5), true},
		{"less than", cond("gpa", models.CondLessThan, 3.5), false},
		{"greater than on missing", cond("missing", models.CondGreaterThan, 0), false},
		{"in", cond("level", models.CondIn, []interface{}{"graduate", "phd"}), true},
		{"not in", cond("level", models.CondNotIn, []interface{}{"graduate", "phd"}), false},
		{"missing in set", cond("missing", models.CondIn, []interface{}{"", nil}), false},
		{"missing not in set", cond("missing", models.CondNotIn, []interface{}{"a"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCondition(tt.c, data))
		})
	}
}

func TestEvaluate_FromJSON(t *testing.T) {
	raw := `{"operator":"AND","conditions":[
		{"field":"program","operator":"equals","value":"MSc"},
		{"field":"year","operator":"in","value":[1,2]}
	]}`
	var logic models.ConditionalLogic
	require.NoError(t, json.Unmarshal([]byte(raw), &logic))

	assert.True(t, Evaluate(&logic, map[string]interface{}{"program": "MSc", "year": 2}))
	assert.False(t, Evaluate(&logic, map[string]interface{}{"program": "MSc", "year": 3}))
	assert.False(t, Evaluate(&logic, nil))
}

func TestValidate_Scope(t *testing.T) {
	formLogic := &models.ConditionalLogic{
		Operator:   models.LogicAnd,
		Conditions: []models.Condition{cond("gpa", models.CondGreaterThan, 3)},
	}
	assert.Error(t, Validate(formLogic, ScopeForm))
	assert.NoError(t, Validate(formLogic, ScopeReportParameter))

	badIn := &models.ConditionalLogic{
		Operator:   models.LogicAnd,
		Conditions: []models.Condition{cond("year", models.CondIn, 1)},
	}
	assert.Error(t, Validate(badIn, ScopeReportParameter))

	assert.Error(t, Validate(&models.ConditionalLogic{Operator: "XOR"}, ScopeForm))
	assert.Error(t, Validate(&models.ConditionalLogic{
		Operator:   models.LogicOr,
		Conditions: []models.Condition{cond("", models.CondEquals, "a")},
	}, ScopeForm))
	assert.NoError(t, Validate(nil, ScopeForm))
}
