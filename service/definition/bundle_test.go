package definition

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynconfig-service/testutil"
)

const sampleBundle = `
tables:
  - code: courses
    name: 课程目录
    source_name: courses
    default_sort_field: title
    columns:
      - key: title
        field: title
        label: 课程
        data_type: string
        sortable: true
      - key: credits
        field: credits
        data_type: number
        filterable: true
        visible: false
forms:
  - code: bad form
    name: 非法表单
reports:
  - code: course_load
    name: 课程负荷
    source_name: courses
    fields:
      - key: credits
        field: credits
        data_type: number
        is_summary: true
        summary_function: sum
`

func TestParseBundle_AppliesDefaults(t *testing.T) {
	b, err := ParseBundle([]byte(sampleBundle))
	require.NoError(t, err)
	require.Len(t, b.Tables, 1)

	table := b.Tables[0]
	assert.True(t, table.IsActive)
	assert.True(t, table.Columns[0].Visible)
	assert.True(t, table.Columns[0].Exportable)
	assert.False(t, table.Columns[1].Visible)
	assert.Len(t, b.Forms, 1)
	assert.Len(t, b.Reports, 1)
}

func TestParseBundle_Invalid(t *testing.T) {
	_, err := ParseBundle([]byte("tables: [unclosed"))
	assert.Error(t, err)
}

func TestImportBundle_PartialFailure(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	store := NewStore(testDB.DB, nil, time.Minute)
	ctx := context.Background()

	b, err := ParseBundle([]byte(sampleBundle))
	require.NoError(t, err)

	result := store.ImportBundle(ctx, b)
	assert.Equal(t, 1, result.Tables)
	assert.Equal(t, 0, result.Forms)
	assert.Equal(t, 1, result.Reports)
	assert.Contains(t, result.Errors, "form:bad form")

	// 再次导入按编码更新
	b, err = ParseBundle([]byte(sampleBundle))
	require.NoError(t, err)
	store.ImportBundle(ctx, b)
	got, err := store.GetTable(ctx, "courses")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestLoadBundleFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "courses.yaml"), []byte(sampleBundle), 0o644))

	testDB := testutil.NewTestDB()
	defer testDB.Close()
	store := NewStore(testDB.DB, nil, time.Minute)

	require.NoError(t, store.LoadBundleFiles(context.Background(), []string{filepath.Join(dir, "*.yaml")}))
	_, err := store.GetReport(context.Background(), "course_load")
	assert.NoError(t, err)
}
