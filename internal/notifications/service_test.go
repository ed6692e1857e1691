package notifications

import (
	"context"
	"errors"
	"testing"

	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func testConfig() Config {
	return Config{
		Enabled:                true,
		FromEmail:              "no-reply@approved-premises.example",
		ApplicationURLTemplate: "https://approved-premises.example/applications/#id",
	}
}

func testApplication() *models.Application {
	return &models.Application{
		ID:  uuid.MustParse("9d3b0f3a-1f1c-4a57-8c5a-6d7b2f1e0c44"),
		Crn: "X320741",
		CreatedByUser: &models.User{
			Name:  "Bernard Beaks",
			Email: "bernard.beaks@example.com",
		},
	}
}

func TestEmailService_Templates(t *testing.T) {
	tests := []struct {
		name        string
		send        func(s *EmailService, app *models.Application) error
		wantSubject string
		wantBody    string
	}{
		{
			name:        "assessment accepted",
			send:        func(s *EmailService, app *models.Application) error { return s.AssessmentAccepted(context.Background(), app) },
			wantSubject: "Approved Premises application assessed as suitable: X320741",
			wantBody:    "assessed as suitable",
		},
		{
			name:        "assessment rejected",
			send:        func(s *EmailService, app *models.Application) error { return s.AssessmentRejected(context.Background(), app) },
			wantSubject: "Approved Premises application assessed as unsuitable: X320741",
			wantBody:    "assessed as unsuitable",
		},
		{
			name: "placement request submitted",
			send: func(s *EmailService, app *models.Application) error {
				return s.PlacementRequestSubmitted(context.Background(), app)
			},
			wantSubject: "Placement request submitted: X320741",
			wantBody:    "A request for placement has been submitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent *ses.SendEmailInput
			mockSES := &MockSESService{
				SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					sent = params
					return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
				},
			}
			svc := NewEmailService(testConfig(), mockSES, logger.NewTestLogger(t))

			require.NoError(t, tt.send(svc, testApplication()))

			require.NotNil(t, sent)
			assert.Equal(t, []string{"bernard.beaks@example.com"}, sent.Destination.ToAddresses)
			assert.Equal(t, "no-reply@approved-premises.example", aws.ToString(sent.Source))
			assert.Equal(t, tt.wantSubject, aws.ToString(sent.Message.Subject.Data))

			body := aws.ToString(sent.Message.Body.Text.Data)
			assert.Contains(t, body, tt.wantBody)
			assert.Contains(t, body, "Dear Bernard Beaks")
			assert.Contains(t, body, "https://approved-premises.example/applications/9d3b0f3a-1f1c-4a57-8c5a-6d7b2f1e0c44")
		})
	}
}

func TestEmailService_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	svc := NewEmailService(cfg, &MockSESService{}, logger.NewTestLogger(t))

	assert.NoError(t, svc.AssessmentAccepted(context.Background(), testApplication()))
}

func TestEmailService_NoRecipient(t *testing.T) {
	svc := NewEmailService(testConfig(), &MockSESService{}, logger.NewTestLogger(t))
	app := testApplication()
	app.CreatedByUser.Email = ""

	assert.NoError(t, svc.AssessmentAccepted(context.Background(), app))
	assert.NoError(t, svc.AssessmentAccepted(context.Background(), nil))
}

func TestEmailService_SendFailure(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	}
	svc := NewEmailService(testConfig(), mockSES, logger.NewTestLogger(t))

	err := svc.AssessmentAccepted(context.Background(), testApplication())

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestRender(t *testing.T) {
	got := render("{{crn}} for {{name}} {{unknown}}", map[string]string{"crn": "X1", "name": "Jim"})
	assert.Equal(t, "X1 for Jim {{unknown}}", got)
}
