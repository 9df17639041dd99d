package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"same string", "A", "A", true},
		{"different string", "A", "B", false},
		{"numeric string vs float", "3.50", 3.5, true},
		{"int vs float", 2, 2.0, true},
		{"bool vs string", true, "1", true},
		{"bool false vs empty", false, "", true},
		{"nil vs nil", nil, nil, true},
		{"nil vs empty string", nil, "", true},
		{"nil vs zero", nil, 0, true},
		{"nil vs text", nil, "x", false},
		{"text vs number", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooseEqual(tt.a, tt.b))
		})
	}
}

func TestCompare(t *testing.T) {
	c, ok := Compare(3.6, "3.5")
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = Compare("2024-01-01", "2024-02-01")
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = Compare(nil, 1)
	assert.False(t, ok, "nil 不参与有序比较")

	assert.True(t, GreaterThan(10, 9))
	assert.False(t, LessThan(nil, 9))
}

func TestInAndBetween(t *testing.T) {
	assert.True(t, In("b", []interface{}{"a", "b"}))
	assert.True(t, In(2, "1, 2, 3"))
	assert.False(t, In(nil, []interface{}{nil, ""}), "nil 永远不在集合中")

	assert.True(t, Between(5, []interface{}{1, 5}))
	assert.True(t, Between(1, map[string]interface{}{"from": 1, "to": 3}))
	assert.False(t, Between(6, []interface{}{1, 5}))
	assert.False(t, Between(3, []interface{}{1}), "区间必须是两个元素")
}

func TestCompareDates(t *testing.T) {
	a := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	c, ok := CompareDates(a, "2024-03-01")
	assert.True(t, ok)
	assert.Equal(t, 0, c)
}

func TestContainsAndEmpty(t *testing.T) {
	assert.True(t, Contains("computer science", "science"))
	assert.False(t, Contains(nil, "x"))
	assert.True(t, Contains(nil, ""))
	assert.True(t, Contains([]interface{}{"math", "art"}, "art"))
	assert.True(t, ContainsFold("Alice", "ali"))

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty([]interface{}{}))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty("0"))
}
