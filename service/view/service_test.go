package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dynconfig-service/service/definition"
	"dynconfig-service/service/models"
	"dynconfig-service/service/query"
	"dynconfig-service/testutil"
)

type ViewServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	service *Service
	ctx     context.Context
}

func (s *ViewServiceTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.ctx = context.Background()
	store := definition.NewStore(s.testDB.DB, nil, time.Minute)
	s.Require().NoError(store.CreateTable(s.ctx, testutil.NewStudentTable()))
	s.service = NewService(s.testDB.DB, store)
}

func (s *ViewServiceTestSuite) TearDownTest() {
	s.testDB.Close()
}

func TestViewServiceSuite(t *testing.T) {
	suite.Run(t, new(ViewServiceTestSuite))
}

func (s *ViewServiceTestSuite) countDefaults(userID string) int64 {
	var n int64
	s.testDB.DB.Model(&models.ViewDefinition{}).
		Where("user_id = ? AND is_default = ?", userID, true).Count(&n)
	return n
}

func (s *ViewServiceTestSuite) save(userID, name string, isDefault, shared bool) *models.ViewDefinition {
	v := &models.ViewDefinition{Name: name, IsDefault: isDefault, IsShared: shared}
	s.Require().NoError(s.service.Save(s.ctx, "students", userID, v))
	return v
}

func (s *ViewServiceTestSuite) TestSetDefault_ExactlyOneDefault() {
	first := s.save("u1", "A", false, false)
	second := s.save("u1", "B", false, false)
	s.Zero(s.countDefaults("u1"))

	_, err := s.service.SetDefault(s.ctx, "students", first.ID, "u1")
	s.Require().NoError(err)
	s.Equal(int64(1), s.countDefaults("u1"))

	_, err = s.service.SetDefault(s.ctx, "students", second.ID, "u1")
	s.Require().NoError(err)
	s.Equal(int64(1), s.countDefaults("u1"))

	def, err := s.service.DefaultFor(s.ctx, "students", "u1")
	s.Require().NoError(err)
	s.Equal(second.ID, def.ID)
}

func (s *ViewServiceTestSuite) TestSave_DefaultReplacesPrevious() {
	s.save("u1", "A", true, false)
	latest := s.save("u1", "B", true, false)
	s.save("u2", "C", true, false)

	s.Equal(int64(1), s.countDefaults("u1"))
	s.Equal(int64(1), s.countDefaults("u2"))
	def, err := s.service.DefaultFor(s.ctx, "students", "u1")
	s.Require().NoError(err)
	s.Equal(latest.ID, def.ID)
}

func (s *ViewServiceTestSuite) TestSingleDefaultIndex() {
	first := s.save("u1", "A", true, false)
	table, err := definition.NewStore(s.testDB.DB, nil, time.Minute).GetTable(s.ctx, "students")
	s.Require().NoError(err)

	// 绕过服务直接写入第二个默认视图，由唯一索引拒绝
	dup := &models.ViewDefinition{TableDefinitionID: table.ID, UserID: "u1", Name: "B", IsDefault: true}
	s.Error(s.testDB.DB.Create(dup).Error)

	other := &models.ViewDefinition{TableDefinitionID: table.ID, UserID: "u2", Name: "C", IsDefault: true}
	s.NoError(s.testDB.DB.Create(other).Error)
	plain := &models.ViewDefinition{TableDefinitionID: table.ID, UserID: "u1", Name: "D"}
	s.NoError(s.testDB.DB.Create(plain).Error)

	_, err = s.service.SetDefault(s.ctx, "students", plain.ID, "u1")
	s.Require().NoError(err)
	s.Equal(int64(1), s.countDefaults("u1"))
	def, err := s.service.DefaultFor(s.ctx, "students", "u1")
	s.Require().NoError(err)
	s.Equal(plain.ID, def.ID)
	s.NotEqual(first.ID, def.ID)
}

func (s *ViewServiceTestSuite) TestSetDefault_OtherUsersView() {
	shared := s.save("u1", "共享", false, true)
	_, err := s.service.SetDefault(s.ctx, "students", shared.ID, "u2")
	s.ErrorIs(err, ErrViewNotFound)
	s.Zero(s.countDefaults("u2"))
}

func (s *ViewServiceTestSuite) TestList_OwnAndShared() {
	s.save("u1", "私有", false, false)
	s.save("u1", "共享", false, true)
	s.save("u2", "我的", true, false)
	s.save("u3", "他人私有", false, false)

	views, err := s.service.List(s.ctx, "students", "u2")
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal("我的", views[0].Name)
	s.Equal("共享", views[1].Name)
}

func (s *ViewServiceTestSuite) TestSave_DropsUnknownColumns() {
	v := &models.ViewDefinition{
		Name:           "精简",
		VisibleColumns: models.JSONBStringArray{"name", "password", "gpa"},
		ColumnWidths:   models.JSONB{"name": 200, "ssn": 80},
		SortField:      "gpa",
		SortDirection:  "DESC",
	}
	s.Require().NoError(s.service.Save(s.ctx, "students", "u1", v))

	got, err := s.service.Get(s.ctx, "students", v.ID, "u1")
	s.Require().NoError(err)
	s.Equal(models.JSONBStringArray{"name", "gpa"}, got.VisibleColumns)
	s.NotContains(got.ColumnWidths, "ssn")
	s.Equal(models.SortDesc, got.SortDirection)
}

func (s *ViewServiceTestSuite) TestUpdateAndDelete_OwnerOnly() {
	v := s.save("u1", "A", false, true)

	_, err := s.service.Update(s.ctx, "students", v.ID, "u2", &models.ViewDefinition{Name: "劫持"})
	s.ErrorIs(err, ErrViewNotFound)
	s.ErrorIs(s.service.Delete(s.ctx, "students", v.ID, "u2"), ErrViewNotFound)

	updated, err := s.service.Update(s.ctx, "students", v.ID, "u1", &models.ViewDefinition{Name: "A2", PageSize: 25})
	s.Require().NoError(err)
	s.Equal("A2", updated.Name)
	s.Equal("u1", updated.UserID)

	s.Require().NoError(s.service.Delete(s.ctx, "students", v.ID, "u1"))
	_, err = s.service.Get(s.ctx, "students", v.ID, "u1")
	s.ErrorIs(err, ErrViewNotFound)
}

func (s *ViewServiceTestSuite) TestUnknownTable() {
	_, err := s.service.List(s.ctx, "ghost", "u1")
	s.ErrorIs(err, definition.ErrDefinitionNotFound)
}

func TestApplyTo(t *testing.T) {
	schema := query.SchemaFromTable(testutil.NewStudentTable())
	v := &models.ViewDefinition{
		Filters:       models.JSONB{"min_gpa": 3.0, "password": "x", "program": []interface{}{"CS"}},
		SortField:     "gpa",
		SortDirection: models.SortDesc,
		PageSize:      25,
	}

	req := ApplyTo(schema, v, query.Request{Filters: map[string]interface{}{"min_gpa": 3.5}})
	assert.Equal(t, 3.5, req.Filters["min_gpa"])
	assert.Contains(t, req.Filters, "program")
	assert.NotContains(t, req.Filters, "password")
	assert.Equal(t, "gpa", req.SortField)
	assert.Equal(t, 25, req.PerPage)

	req = ApplyTo(schema, v, query.Request{SortField: "name", PerPage: 10})
	assert.Equal(t, "name", req.SortField)
	assert.Equal(t, 10, req.PerPage)
}

func TestApplyTo_StaleSortIgnored(t *testing.T) {
	schema := query.SchemaFromTable(testutil.NewStudentTable())
	// email 列不可排序，password 不在白名单
	for _, field := range []string{"email", "password"} {
		req := ApplyTo(schema, &models.ViewDefinition{SortField: field}, query.Request{})
		assert.Empty(t, req.SortField, field)
	}
	assert.Equal(t, query.Request{}, ApplyTo(schema, nil, query.Request{}))
}

func TestColumns(t *testing.T) {
	table := testutil.NewStudentTable()

	all := Columns(table, nil)
	require.Len(t, all, 5)

	cols := Columns(table, &models.ViewDefinition{
		VisibleColumns: models.JSONBStringArray{"name", "gpa", "status"},
		ColumnOrder:    models.JSONBStringArray{"gpa", "name"},
		ColumnWidths:   models.JSONB{"gpa": float64(80)},
	})
	require.Len(t, cols, 3)
	assert.Equal(t, "gpa", cols[0].Key)
	assert.Equal(t, 80, cols[0].Width)
	assert.Equal(t, "name", cols[1].Key)
	assert.Equal(t, "status", cols[2].Key)
}

func (s *ViewServiceTestSuite) TestSave_NameRequired() {
	err := s.service.Save(s.ctx, "students", "u1", &models.ViewDefinition{Name: "  "})
	s.ErrorIs(err, ErrInvalidView)
}
