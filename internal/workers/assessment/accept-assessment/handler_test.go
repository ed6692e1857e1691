package acceptassessment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"approved-premises-workers/internal/assessment"
	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"
	"approved-premises-workers/internal/store/postgres"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDecider struct {
	mock.Mock
}

func (m *MockDecider) Accept(ctx context.Context, cmd assessment.AcceptCommand) (assessment.Result, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(assessment.Result), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) FindByDeliusUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

var assessmentID = uuid.MustParse("0c7d7e33-4c4a-4f1a-9d1f-3c2b7f1f5a10")

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "assess-application",
		ElementId:          "Activity_AcceptAssessment",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"assessmentId":   assessmentID.String(),
		"deliusUsername": "JIMSNOWLDAP",
		"document":       map[string]interface{}{"review-application": map[string]interface{}{"additional-information": "yes"}},
		"requirements": map[string]interface{}{
			"gender":            "male",
			"type":              "normal",
			"location":          "SW1",
			"radius":            50,
			"essentialCriteria": []string{"isSemiSpecialistMentalHealth"},
			"desirableCriteria": []string{},
		},
		"placementDates": map[string]interface{}{"expectedArrival": "2026-04-01", "duration": 12},
		"notes":          "Some Notes",
	}
}

func newTestHandler(t *testing.T, decider *MockDecider, users *MockUsers) *Handler {
	h, err := NewHandler(HandlerOptions{
		Decider: decider,
		Users:   users,
		Logger:  logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockDecider{}, &MockUsers{})

	input, err := h.parseInput(createMockJob(1, validVariables()))
	require.NoError(t, err)
	assert.Equal(t, assessmentID, input.AssessmentID)
	assert.Equal(t, "JIMSNOWLDAP", input.DeliusUsername)
	require.NotNil(t, input.Requirements)
	assert.Equal(t, models.ApTypeNormal, input.Requirements.Type)
	require.NotNil(t, input.PlacementDates)
	assert.Equal(t, 12, input.PlacementDates.Duration)
	assert.Equal(t, "2026-04-01", input.PlacementDates.ExpectedArrival.String())
	assert.Equal(t, "Some Notes", *input.Notes)
}

func TestHandler_ParseInput_Invalid(t *testing.T) {
	h := newTestHandler(t, &MockDecider{}, &MockUsers{})

	tests := []struct {
		name   string
		mutate func(v map[string]interface{})
	}{
		{name: "missing assessment id", mutate: func(v map[string]interface{}) { delete(v, "assessmentId") }},
		{name: "assessment id not a uuid", mutate: func(v map[string]interface{}) { v["assessmentId"] = "123" }},
		{name: "empty username", mutate: func(v map[string]interface{}) { v["deliusUsername"] = "" }},
		{name: "document not an object", mutate: func(v map[string]interface{}) { v["document"] = "yes" }},
		{name: "dates without duration", mutate: func(v map[string]interface{}) {
			v["placementDates"] = map[string]interface{}{"expectedArrival": "2026-04-01"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := validVariables()
			tt.mutate(vars)

			_, err := h.parseInput(createMockJob(1, vars))

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	user := &models.User{ID: uuid.New(), DeliusUsername: "JIMSNOWLDAP"}
	users := &MockUsers{}
	users.On("FindByDeliusUsername", mock.Anything, "JIMSNOWLDAP").Return(user, nil)

	decider := &MockDecider{}
	decider.On("Accept", mock.Anything, mock.MatchedBy(func(cmd assessment.AcceptCommand) bool {
		return cmd.User == user && cmd.AssessmentID == assessmentID && cmd.PlacementRequirements != nil
	})).Return(assessment.Success(&models.Assessment{
		ID:          assessmentID,
		Decision:    models.DecisionAccepted,
		Application: &models.Application{Status: models.ApplicationStatusAwaitingPlacement},
	}), nil)

	h := newTestHandler(t, decider, users)
	input, err := h.parseInput(createMockJob(1, validVariables()))
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, assessmentID.String(), output.AssessmentID)
	assert.Equal(t, "ACCEPTED", output.Decision)
	assert.Equal(t, "AWAITING_PLACEMENT", output.ApplicationStatus)
	decider.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestHandler_Execute_Failures(t *testing.T) {
	user := &models.User{DeliusUsername: "JIMSNOWLDAP"}

	tests := []struct {
		name      string
		userErr   error
		result    assessment.Result
		err       error
		wantCode  apperrors.ErrorCode
		wantRetry bool
	}{
		{
			name:     "unknown user",
			userErr:  postgres.ErrUserNotFound,
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:     "unauthorised",
			result:   assessment.Unauthorised(),
			wantCode: apperrors.ErrCodeAssessmentUnauthorised,
		},
		{
			name:     "decision already taken",
			result:   assessment.GeneralValidationError(assessment.MsgDecisionTaken),
			wantCode: apperrors.ErrCodeAssessmentValidationFailed,
		},
		{
			name:     "not found",
			err:      models.ErrAssessmentNotFound,
			wantCode: apperrors.ErrCodeAssessmentNotFound,
		},
		{
			name:      "database unavailable",
			err:       apperrors.NewDatabaseQueryFailedError("lock assessment", errors.New("connection refused")),
			wantCode:  apperrors.ErrCodeDatabaseQueryFailed,
			wantRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &MockUsers{}
			decider := &MockDecider{}
			if tt.userErr != nil {
				users.On("FindByDeliusUsername", mock.Anything, "JIMSNOWLDAP").Return(nil, tt.userErr)
			} else {
				users.On("FindByDeliusUsername", mock.Anything, "JIMSNOWLDAP").Return(user, nil)
				decider.On("Accept", mock.Anything, mock.Anything).Return(tt.result, tt.err)
			}

			h := newTestHandler(t, decider, users)
			output, err := h.Execute(context.Background(), &Input{AssessmentID: assessmentID, DeliusUsername: "JIMSNOWLDAP"})

			assert.Nil(t, output)
			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetry, stdErr.Retryable)
			if tt.userErr != nil {
				decider.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Config: &Config{MaxJobsActive: 1}, Logger: logger.NewTestLogger(t)})
	assert.Error(t, err)
}
