// Package notifications emails application creators about assessment
// decisions through SES.
package notifications

import (
	"context"
	"fmt"
	"strings"

	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/common/metrics"
	"approved-premises-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Config struct {
	Enabled                bool
	FromEmail              string
	ApplicationURLTemplate string
}

type EmailService struct {
	config Config
	ses    SESService
	logger logger.Logger
}

func NewEmailService(config Config, sesClient SESService, log logger.Logger) *EmailService {
	return &EmailService{
		config: config,
		ses:    sesClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifications"}),
	}
}

func (s *EmailService) AssessmentAccepted(ctx context.Context, app *models.Application) error {
	return s.send(ctx, TemplateAssessmentAccepted, app)
}

func (s *EmailService) AssessmentRejected(ctx context.Context, app *models.Application) error {
	return s.send(ctx, TemplateAssessmentRejected, app)
}

func (s *EmailService) PlacementRequestSubmitted(ctx context.Context, app *models.Application) error {
	return s.send(ctx, TemplatePlacementRequestSubmitted, app)
}

// ApplicationURL is the UI link for an application.
func (s *EmailService) ApplicationURL(app *models.Application) string {
	return strings.ReplaceAll(s.config.ApplicationURLTemplate, "#id", app.ID.String())
}

func (s *EmailService) send(ctx context.Context, template Template, app *models.Application) error {
	if !s.config.Enabled {
		metrics.NotificationsSent.WithLabelValues(string(template), "disabled").Inc()
		return nil
	}

	if app == nil || app.CreatedByUser == nil || app.CreatedByUser.Email == "" {
		s.logger.Warn("no recipient for email", map[string]interface{}{"template": string(template)})
		metrics.NotificationsSent.WithLabelValues(string(template), "skipped").Inc()
		return nil
	}

	tmpl, ok := templates[template]
	if !ok {
		return apperrors.NewNotificationSendFailedError(string(template), fmt.Errorf("unknown template"))
	}

	data := map[string]string{
		"name":           app.CreatedByUser.Name,
		"crn":            app.Crn,
		"applicationUrl": s.ApplicationURL(app),
	}

	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{app.CreatedByUser.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(render(tmpl.subject, data))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(render(tmpl.body, data))},
			},
		},
		Source: aws.String(s.config.FromEmail),
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(string(template), "failed").Inc()
		return apperrors.NewNotificationSendFailedError(string(template), err)
	}

	metrics.NotificationsSent.WithLabelValues(string(template), "sent").Inc()
	s.logger.Info("email sent", map[string]interface{}{
		"template":      string(template),
		"applicationId": app.ID.String(),
	})
	return nil
}
