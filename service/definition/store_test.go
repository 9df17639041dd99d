package definition

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dynconfig-service/service/models"
	"dynconfig-service/testutil"
)

// memoryCache 记录读写次数的测试缓存
type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	hits        int
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *memoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.invalidated = append(c.invalidated, key)
}

type StoreTestSuite struct {
	suite.Suite
	testDB *testutil.TestDB
	cache  *memoryCache
	store  *Store
	ctx    context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.cache = newMemoryCache()
	s.store = NewStore(s.testDB.DB, s.cache, time.Minute)
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	s.testDB.Close()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) TestCreateAndGetTable() {
	def := testutil.NewStudentTable()
	s.Require().NoError(s.store.CreateTable(s.ctx, def))
	s.NotEmpty(def.ID)
	s.Equal(1, def.Version)

	got, err := s.store.GetTable(s.ctx, "students")
	s.Require().NoError(err)
	s.Equal("学生名单", got.Name)
	s.Require().Len(got.Columns, 5)
	s.Len(got.Filters, 3)
	// 子项按 sort_order 返回
	s.Equal("name", got.Columns[0].Key)
	s.Equal("status", got.Columns[4].Key)
	s.Equal(models.OpGreaterThan, got.Filters[0].Operator)
	s.Equal([]int{10, 25, 50}, got.Settings.AllowedPageSizes)
}

func (s *StoreTestSuite) TestCreateTable_DuplicateCode() {
	s.Require().NoError(s.store.CreateTable(s.ctx, testutil.NewStudentTable()))
	err := s.store.CreateTable(s.ctx, testutil.NewStudentTable())
	s.ErrorIs(err, ErrDuplicateCode)
}

func (s *StoreTestSuite) TestCreateTable_InvalidDefinitionNotPersisted() {
	def := testutil.NewStudentTable(func(t *models.TableDefinition) { t.SourceName = "" })
	err := s.store.CreateTable(s.ctx, def)
	var verr *ValidationError
	s.ErrorAs(err, &verr)

	_, total, err := s.store.ListTables(s.ctx, ListFilter{})
	s.NoError(err)
	s.Zero(total)
}

func (s *StoreTestSuite) TestGetTable_NotFound() {
	_, err := s.store.GetTable(s.ctx, "ghost")
	s.ErrorIs(err, ErrDefinitionNotFound)
}

func (s *StoreTestSuite) TestUpdateTable_ReplacesChildrenAndBumpsVersion() {
	s.Require().NoError(s.store.CreateTable(s.ctx, testutil.NewStudentTable()))
	_, err := s.store.GetTable(s.ctx, "students")
	s.Require().NoError(err)

	updated := testutil.NewStudentTable(func(t *models.TableDefinition) {
		t.Code = "ignored"
		t.Name = "学生名单（新）"
		t.Columns = t.Columns[:2]
		t.Filters = nil
	})
	result, err := s.store.UpdateTable(s.ctx, "students", updated)
	s.Require().NoError(err)
	s.Equal(2, result.Version)
	s.Equal("students", result.Code)

	got, err := s.store.GetTable(s.ctx, "students")
	s.Require().NoError(err)
	s.Equal(2, got.Version)
	s.Equal("学生名单（新）", got.Name)
	s.Len(got.Columns, 2)
	s.Empty(got.Filters)
	s.Contains(s.cache.invalidated, "table:students")

	var columns int64
	s.testDB.DB.Model(&models.ColumnDefinition{}).Count(&columns)
	s.Equal(int64(2), columns)
}

func (s *StoreTestSuite) TestUpdateTable_NotFound() {
	_, err := s.store.UpdateTable(s.ctx, "ghost", testutil.NewStudentTable())
	s.ErrorIs(err, ErrDefinitionNotFound)
}

func (s *StoreTestSuite) TestGetTable_UsesCache() {
	s.Require().NoError(s.store.CreateTable(s.ctx, testutil.NewStudentTable()))
	_, err := s.store.GetTable(s.ctx, "students")
	s.Require().NoError(err)
	s.Equal(0, s.cache.hits)

	got, err := s.store.GetTable(s.ctx, "students")
	s.Require().NoError(err)
	s.Equal(1, s.cache.hits)
	s.Len(got.Columns, 5)
}

func (s *StoreTestSuite) TestDeleteTable_RemovesViews() {
	def := testutil.NewStudentTable()
	s.Require().NoError(s.store.CreateTable(s.ctx, def))
	s.Require().NoError(s.testDB.DB.Create(&models.ViewDefinition{
		TableDefinitionID: def.ID, UserID: "u1", Name: "我的视图",
	}).Error)

	s.Require().NoError(s.store.DeleteTable(s.ctx, "students"))

	var views, columns int64
	s.testDB.DB.Model(&models.ViewDefinition{}).Count(&views)
	s.testDB.DB.Model(&models.ColumnDefinition{}).Count(&columns)
	s.Zero(views)
	s.Zero(columns)
	_, err := s.store.GetTable(s.ctx, "students")
	s.ErrorIs(err, ErrDefinitionNotFound)
	s.ErrorIs(s.store.DeleteTable(s.ctx, "students"), ErrDefinitionNotFound)
}

func (s *StoreTestSuite) TestListTables_SearchAndActiveFilter() {
	s.Require().NoError(s.store.CreateTable(s.ctx, testutil.NewStudentTable()))
	s.Require().NoError(s.store.CreateTable(s.ctx, testutil.NewStudentTable(func(t *models.TableDefinition) {
		t.Code = "courses"
		t.Name = "课程目录"
		t.IsActive = false
	})))

	items, total, err := s.store.ListTables(s.ctx, ListFilter{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal("courses", items[0].Code)
	s.Empty(items[0].Columns)

	items, total, err = s.store.ListTables(s.ctx, ListFilter{Search: "STUD"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("students", items[0].Code)

	active := true
	_, total, err = s.store.ListTables(s.ctx, ListFilter{IsActive: &active})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *StoreTestSuite) TestFormLifecycle_KeepsSubmissions() {
	form := testutil.NewLeaveForm()
	s.Require().NoError(s.store.CreateForm(s.ctx, form))

	got, err := s.store.GetForm(s.ctx, "leave_request")
	s.Require().NoError(err)
	s.Len(got.Fields, 4)
	s.Require().Len(got.Sections, 2)
	s.Require().NotNil(got.Sections[1].ConditionalLogic)
	s.Equal("sick", got.Sections[1].ConditionalLogic.Conditions[0].Value.Str)
	s.Equal(models.JSONBStringArray{"min:1", "max:30"}, got.Fields[1].ValidationRules)

	s.Require().NoError(s.testDB.DB.Create(&models.FormSubmission{
		FormDefinitionID: got.ID, FormCode: got.Code, SubmittedBy: "u1", Status: models.SubmissionPending,
	}).Error)

	updated, err := s.store.UpdateForm(s.ctx, "leave_request", testutil.NewLeaveForm())
	s.Require().NoError(err)
	s.Equal(2, updated.Version)

	s.Require().NoError(s.store.DeleteForm(s.ctx, "leave_request"))
	var submissions int64
	s.testDB.DB.Model(&models.FormSubmission{}).Count(&submissions)
	s.Equal(int64(1), submissions)
}

func (s *StoreTestSuite) TestReportLifecycle_RemovesSchedules() {
	factory := testutil.NewTestDataFactory(s.testDB.DB)
	report := testutil.NewEnrollmentReport()
	s.Require().NoError(s.store.CreateReport(s.ctx, report))
	factory.CreateSchedule(report)

	got, err := s.store.GetReport(s.ctx, "enrollment_summary")
	s.Require().NoError(err)
	s.Len(got.Fields, 4)
	s.Len(got.Parameters, 2)
	s.Len(got.Charts, 1)
	s.Equal("2024S", got.Parameters[0].DefaultValue.V)

	s.Require().NoError(s.store.DeleteReport(s.ctx, "enrollment_summary"))
	var schedules int64
	s.testDB.DB.Model(&models.ReportSchedule{}).Count(&schedules)
	s.Zero(schedules)
}

func TestListFilterNormalized(t *testing.T) {
	f := ListFilter{Page: 0, Size: 500}.normalized()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.Size)
	assert.Equal(t, 20, ListFilter{}.normalized().Size)
}

func TestLocalCache(t *testing.T) {
	cache, err := NewLocalCache(1 << 20)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "table:students", []byte(`{"code":"students"}`), time.Minute)
	v, ok := cache.Get(ctx, "table:students")
	require.True(t, ok)
	assert.JSONEq(t, `{"code":"students"}`, string(v))

	cache.Invalidate(ctx, "table:students")
	_, ok = cache.Get(ctx, "table:students")
	assert.False(t, ok)
}
