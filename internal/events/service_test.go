package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	InsertFunc        func(ctx context.Context, e *models.DomainEvent) error
	MarkPublishedFunc func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (m *MockRepository) Insert(ctx context.Context, e *models.DomainEvent) error {
	if m.InsertFunc == nil {
		return nil
	}
	return m.InsertFunc(ctx, e)
}

func (m *MockRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkPublishedFunc == nil {
		return nil
	}
	return m.MarkPublishedFunc(ctx, id, at)
}

type MockPublisher struct {
	PublishFunc func(ctx context.Context, eventType string, payload []byte, key string) error
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload []byte, key string) error {
	return m.PublishFunc(ctx, eventType, payload, key)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Enabled:                true,
		DetailURLBase:          "https://approved-premises-api.example/events/",
		ApplicationURLTemplate: "https://approved-premises.example/applications/#id",
	}
}

func testAssessment() *models.Assessment {
	noms := "A1234AI"
	rationale := "Risk cannot be managed"
	submitted := fixedNow.Add(-time.Minute)
	return &models.Assessment{
		ID:                 uuid.MustParse("0c7d7e33-4c4a-4f1a-9d1f-3c2b7f1f5a10"),
		Service:            models.ServiceApprovedPremises,
		RejectionRationale: &rationale,
		SubmittedAt:        &submitted,
		Application: &models.Application{
			ID:         uuid.MustParse("9d3b0f3a-1f1c-4a57-8c5a-6d7b2f1e0c44"),
			Crn:        "X320741",
			NomsNumber: &noms,
		},
	}
}

func newTestService(t *testing.T, repo Repository, pub Publisher) *Service {
	svc := NewService(testConfig(), repo, pub, logger.NewTestLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestService_AssessmentRejected(t *testing.T) {
	var stored *models.DomainEvent
	var published []byte
	var publishedKey string
	marked := false

	repo := &MockRepository{
		InsertFunc: func(_ context.Context, e *models.DomainEvent) error {
			stored = e
			return nil
		},
		MarkPublishedFunc: func(_ context.Context, id uuid.UUID, at time.Time) error {
			marked = true
			assert.Equal(t, stored.ID, id)
			assert.Equal(t, fixedNow, at)
			return nil
		},
	}
	pub := &MockPublisher{
		PublishFunc: func(_ context.Context, eventType string, payload []byte, key string) error {
			assert.Equal(t, "approved-premises.assessment.rejected", eventType)
			published = payload
			publishedKey = key
			return nil
		},
	}

	svc := newTestService(t, repo, pub)
	offender := &models.OffenderSummary{Crn: "X320741", FirstName: "Jim", Surname: "Snow"}
	user := &models.User{DeliusUsername: "JIMSNOWLDAP", Name: "Jim Snow"}

	require.NoError(t, svc.AssessmentRejected(context.Background(), testAssessment(), offender, user))

	require.NotNil(t, stored)
	assert.Equal(t, models.EventAssessmentRejected, stored.Type)
	assert.Equal(t, "X320741", stored.Crn)
	assert.True(t, marked)
	assert.Equal(t, "X320741", publishedKey)

	var data models.AssessmentDecisionEventData
	require.NoError(t, json.Unmarshal(stored.Data, &data))
	assert.Equal(t, models.DecisionRejected, data.Decision)
	assert.Equal(t, "Risk cannot be managed", *data.DecisionRationale)
	assert.Equal(t, "Jim Snow", data.OffenderName)
	assert.Equal(t, "JIMSNOWLDAP", data.AssessedBy.Username)
	assert.Equal(t, fixedNow.Add(-time.Minute), data.AssessedAt)
	assert.Equal(t, "https://approved-premises.example/applications/9d3b0f3a-1f1c-4a57-8c5a-6d7b2f1e0c44", data.ApplicationURL)

	var envelope models.HMPPSDomainEvent
	require.NoError(t, json.Unmarshal(published, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, "https://approved-premises-api.example/events/assessment-rejected/"+stored.ID.String(), envelope.DetailURL)
	assert.Equal(t, "9d3b0f3a-1f1c-4a57-8c5a-6d7b2f1e0c44", envelope.AdditionalInformation["applicationId"])
	assert.Equal(t, []models.PersonIdentifier{
		{Type: "CRN", Value: "X320741"},
		{Type: "NOMS", Value: "A1234AI"},
	}, envelope.PersonReference.Identifiers)
}

func TestService_AssessmentAccepted_Disabled(t *testing.T) {
	inserted := false
	repo := &MockRepository{
		InsertFunc: func(_ context.Context, e *models.DomainEvent) error {
			inserted = true
			assert.Equal(t, models.EventApplicationAssessed, e.Type)
			return nil
		},
		MarkPublishedFunc: func(context.Context, uuid.UUID, time.Time) error {
			t.Fatal("event must not be marked published")
			return nil
		},
	}
	pub := &MockPublisher{
		PublishFunc: func(context.Context, string, []byte, string) error {
			t.Fatal("publisher must not be called")
			return nil
		},
	}

	svc := newTestService(t, repo, pub)
	svc.config.Enabled = false

	require.NoError(t, svc.AssessmentAccepted(context.Background(), testAssessment(), nil, nil))
	assert.True(t, inserted)
}

func TestService_PublishFailure(t *testing.T) {
	pub := &MockPublisher{
		PublishFunc: func(context.Context, string, []byte, string) error {
			return errors.New("connection refused")
		},
	}
	svc := newTestService(t, &MockRepository{}, pub)

	err := svc.AssessmentAccepted(context.Background(), testAssessment(), nil, nil)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeDomainEventPublishFailed, stdErr.Code)
}

func TestService_InsertFailureSkipsPublish(t *testing.T) {
	repo := &MockRepository{
		InsertFunc: func(context.Context, *models.DomainEvent) error {
			return apperrors.NewDatabaseQueryFailedError("insert domain event", errors.New("deadlock"))
		},
	}
	pub := &MockPublisher{
		PublishFunc: func(context.Context, string, []byte, string) error {
			t.Fatal("publisher must not be called")
			return nil
		},
	}

	err := newTestService(t, repo, pub).AssessmentAccepted(context.Background(), testAssessment(), nil, nil)
	assert.Error(t, err)
}

func TestService_MarkPublishedFailureIsNotFatal(t *testing.T) {
	repo := &MockRepository{
		MarkPublishedFunc: func(context.Context, uuid.UUID, time.Time) error {
			return errors.New("timeout")
		},
	}
	pub := &MockPublisher{PublishFunc: func(context.Context, string, []byte, string) error { return nil }}

	assert.NoError(t, newTestService(t, repo, pub).AssessmentAccepted(context.Background(), testAssessment(), nil, nil))
}

func TestSNSPublisher_Publish(t *testing.T) {
	var input *sns.PublishInput
	client := &MockSNSService{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			input = params
			return &sns.PublishOutput{MessageId: aws.String("1")}, nil
		},
	}

	pub := NewSNSPublisher(client, "arn:aws:sns:eu-west-2:000000000000:hmpps-domain-events")
	require.NoError(t, pub.Publish(context.Background(), "approved-premises.application.assessed", []byte(`{"version":1}`), "X320741"))

	require.NotNil(t, input)
	assert.Equal(t, "arn:aws:sns:eu-west-2:000000000000:hmpps-domain-events", aws.ToString(input.TopicArn))
	assert.Equal(t, `{"version":1}`, aws.ToString(input.Message))
	assert.Equal(t, "approved-premises.application.assessed", aws.ToString(input.MessageAttributes["eventType"].StringValue))
}

func TestNewKafkaPublisher_RequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "hmpps.domain.events")
	assert.Error(t, err)

	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	pub, err := NewKafkaPublisher([]string{"localhost:9092"}, "hmpps.domain.events")
	require.NoError(t, err)
	assert.NoError(t, pub.Close())
}
