package form

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"dynconfig-service/service/definition"
	"dynconfig-service/service/models"
	"dynconfig-service/service/notify"
	"dynconfig-service/testutil"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(_ context.Context, event notify.Event) error {
	return m.Called(event.Type).Error(0)
}

func (m *mockNotifier) Close() error { return nil }

type FormServiceTestSuite struct {
	suite.Suite
	testDB   *testutil.TestDB
	store    *definition.Store
	notifier *mockNotifier
	service  *Service
	ctx      context.Context
}

func (s *FormServiceTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.ctx = context.Background()
	s.store = definition.NewStore(s.testDB.DB, nil, time.Minute)
	s.Require().NoError(s.store.CreateForm(s.ctx, testutil.NewLeaveForm(func(f *models.FormDefinition) {
		f.Fields = append(f.Fields,
			models.FieldDefinition{Key: "student_no", FieldType: models.FieldText, Unique: true, SectionKey: "basic"},
			models.FieldDefinition{Key: "hours", FieldType: models.FieldComputed, SectionKey: "basic",
				Formula: `return num(data["days"]) * 8, nil`},
		)
	})))
	s.notifier = &mockNotifier{}
	s.notifier.On("Publish", mock.Anything).Return(nil)
	s.service = NewService(s.testDB.DB, s.store, NewScriptEngine(time.Second), s.notifier)
}

func (s *FormServiceTestSuite) TearDownTest() {
	s.testDB.Close()
}

func TestFormServiceSuite(t *testing.T) {
	suite.Run(t, new(FormServiceTestSuite))
}

var student = Actor{UserID: "s1", Role: "student"}

func (s *FormServiceTestSuite) TestSubmit_ComputesAndPrunes() {
	sub, err := s.service.Submit(s.ctx, "leave_request", student, SubmitRequest{Data: map[string]interface{}{
		"leave_type":  "personal",
		"days":        2,
		"certificate": "files/ignored.pdf",
		"injected":    "x",
	}})
	s.Require().NoError(err)
	s.Equal(models.SubmissionPending, sub.Status)
	s.NotNil(sub.SubmittedAt)

	got, err := s.service.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(16.0, got.Data["hours"])
	s.NotContains(got.Data, "certificate")
	s.NotContains(got.Data, "injected")
	s.Require().Len(got.History, 1)
	s.Equal(models.ActionSubmit, got.History[0].Action)
	s.notifier.AssertCalled(s.T(), "Publish", notify.EventSubmissionCreated)
}

func (s *FormServiceTestSuite) TestSubmit_ValidationError() {
	_, err := s.service.Submit(s.ctx, "leave_request", student, SubmitRequest{Data: map[string]interface{}{
		"leave_type": "sick", "days": 2,
	}})
	var verr *ValidationErrors
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "certificate")
}

func (s *FormServiceTestSuite) TestSubmit_DraftSkipsValidation() {
	sub, err := s.service.Submit(s.ctx, "leave_request", student, SubmitRequest{Draft: true})
	s.Require().NoError(err)
	s.Equal(models.SubmissionDraft, sub.Status)
	s.Nil(sub.SubmittedAt)
	s.notifier.AssertNotCalled(s.T(), "Publish", notify.EventSubmissionCreated)

	// 草稿补全后提交
	done, err := s.service.Act(s.ctx, sub.ID, models.ActionSubmit, student, "", map[string]interface{}{
		"leave_type": "conference", "days": 3,
	})
	s.Require().NoError(err)
	s.Equal(models.SubmissionPending, done.Status)
}

func (s *FormServiceTestSuite) TestSubmit_UniqueField() {
	data := map[string]interface{}{"leave_type": "personal", "days": 1, "student_no": "S000001"}
	_, err := s.service.Submit(s.ctx, "leave_request", student, SubmitRequest{Data: data})
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, "leave_request", Actor{UserID: "s2"}, SubmitRequest{Data: data})
	var verr *ValidationErrors
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "student_no")
}

func (s *FormServiceTestSuite) TestSubmit_InactiveForm() {
	_, err := s.store.UpdateForm(s.ctx, "leave_request", testutil.NewLeaveForm(func(f *models.FormDefinition) {
		f.IsActive = false
	}))
	s.Require().NoError(err)
	_, err = s.service.Submit(s.ctx, "leave_request", student, SubmitRequest{})
	s.ErrorIs(err, ErrFormInactive)
}

func (s *FormServiceTestSuite) TestAct_ApprovalChain() {
	sub, err := s.service.Submit(s.ctx, "leave_request", student, SubmitRequest{Data: map[string]interface{}{
		"leave_type": "personal", "days": 2,
	}})
	s.Require().NoError(err)

	_, err = s.service.Act(s.ctx, sub.ID, models.ActionApprove, Actor{UserID: "d1", Role: "dean"}, "", nil)
	s.ErrorIs(err, ErrWorkflowRoleMismatch)

	sub, err = s.service.Act(s.ctx, sub.ID, models.ActionApprove, Actor{UserID: "a1", Role: "advisor"}, "ok", nil)
	s.Require().NoError(err)
	s.Equal(1, sub.CurrentStep)

	sub, err = s.service.Act(s.ctx, sub.ID, models.ActionApprove, Actor{UserID: "d1", Role: "dean"}, "", nil)
	s.Require().NoError(err)
	s.Equal(models.SubmissionApproved, sub.Status)

	stored, err := s.service.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(models.SubmissionApproved, stored.Status)
	s.Len(stored.History, 3)
	s.NotNil(stored.CompletedAt)

	_, err = s.service.Act(s.ctx, sub.ID, models.ActionReject, Actor{UserID: "d1", Role: "dean"}, "", nil)
	s.ErrorIs(err, ErrSubmissionFinalized)
}

func (s *FormServiceTestSuite) TestList() {
	for _, user := range []string{"s1", "s2", "s1"} {
		_, err := s.service.Submit(s.ctx, "leave_request", Actor{UserID: user}, SubmitRequest{Draft: true})
		s.Require().NoError(err)
	}
	items, total, err := s.service.List(s.ctx, "leave_request", SubmissionFilter{SubmittedBy: "s1"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(items, 2)

	_, total, err = s.service.List(s.ctx, "leave_request", SubmissionFilter{Status: models.SubmissionPending})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *FormServiceTestSuite) TestGet_NotFound() {
	_, err := s.service.Get(s.ctx, "missing")
	s.ErrorIs(err, ErrSubmissionNotFound)
}

func (s *FormServiceTestSuite) TestLayoutAndRules() {
	layout, err := s.service.Layout(s.ctx, "leave_request", map[string]interface{}{"leave_type": "sick", "days": 1})
	s.Require().NoError(err)
	s.Len(layout.Sections, 2)
	s.Equal(8.0, layout.Data["hours"])

	rules, err := s.service.Rules(s.ctx, "leave_request")
	s.Require().NoError(err)
	s.Contains(rules["student_no"], "unique")

	_, err = s.service.Rules(s.ctx, "ghost")
	s.ErrorIs(err, definition.ErrDefinitionNotFound)
}
