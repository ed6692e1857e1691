// Package events records assessment decisions as domain events and
// publishes them in the HMPPS domain event envelope.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/common/metrics"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, e *models.DomainEvent) error
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Config struct {
	Enabled                bool
	DetailURLBase          string
	ApplicationURLTemplate string
}

type Service struct {
	config    Config
	repo      Repository
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

func NewService(config Config, repo Repository, publisher Publisher, log logger.Logger) *Service {
	return &Service{
		config:    config,
		repo:      repo,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"component": "domain-events"}),
		now:       time.Now,
	}
}

func (s *Service) AssessmentAccepted(ctx context.Context, a *models.Assessment, offender *models.OffenderSummary, user *models.User) error {
	return s.record(ctx, models.EventApplicationAssessed, a, offender, user, models.DecisionAccepted)
}

func (s *Service) AssessmentRejected(ctx context.Context, a *models.Assessment, offender *models.OffenderSummary, user *models.User) error {
	return s.record(ctx, models.EventAssessmentRejected, a, offender, user, models.DecisionRejected)
}

func (s *Service) record(ctx context.Context, eventType models.DomainEventType, a *models.Assessment, offender *models.OffenderSummary, user *models.User, decision models.AssessmentDecision) error {
	if a == nil || a.Application == nil {
		return apperrors.NewDomainEventPublishFailedError(string(eventType), fmt.Errorf("assessment has no application"))
	}
	app := a.Application
	occurredAt := s.now().UTC()

	data := models.AssessmentDecisionEventData{
		ApplicationID:     app.ID,
		AssessmentID:      a.ID,
		ApplicationURL:    strings.ReplaceAll(s.config.ApplicationURLTemplate, "#id", app.ID.String()),
		PersonReference:   personReference(app, offender),
		AssessedAt:        occurredAt,
		Decision:          decision,
		DecisionRationale: a.RejectionRationale,
	}
	if a.SubmittedAt != nil {
		data.AssessedAt = a.SubmittedAt.UTC()
	}
	if user != nil {
		data.AssessedBy = models.StaffMember{Username: user.DeliusUsername, Name: user.Name}
	}
	if offender != nil {
		data.OffenderName = strings.TrimSpace(offender.FirstName + " " + offender.Surname)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return apperrors.NewDomainEventPublishFailedError(string(eventType), err)
	}

	assessmentID := a.ID
	event := &models.DomainEvent{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		AssessmentID:  &assessmentID,
		Crn:           app.Crn,
		Type:          eventType,
		OccurredAt:    occurredAt,
		Data:          raw,
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		metrics.DomainEventsPublished.WithLabelValues(string(eventType), "failed").Inc()
		return err
	}

	if !s.config.Enabled || s.publisher == nil {
		metrics.DomainEventsPublished.WithLabelValues(string(eventType), "stored").Inc()
		return nil
	}

	return s.publish(ctx, event, data.PersonReference)
}

func (s *Service) publish(ctx context.Context, event *models.DomainEvent, ref models.PersonReference) error {
	envelope := models.HMPPSDomainEvent{
		EventType:   string(event.Type),
		Version:     1,
		Description: event.Type.Description(),
		DetailURL:   s.DetailURL(event),
		OccurredAt:  event.OccurredAt,
		AdditionalInformation: map[string]string{
			"applicationId": event.ApplicationID.String(),
		},
		PersonReference: ref,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.NewDomainEventPublishFailedError(string(event.Type), err)
	}

	if err := s.publisher.Publish(ctx, string(event.Type), payload, event.Crn); err != nil {
		metrics.DomainEventsPublished.WithLabelValues(string(event.Type), "failed").Inc()
		return apperrors.NewDomainEventPublishFailedError(string(event.Type), err)
	}

	if err := s.repo.MarkPublished(ctx, event.ID, s.now().UTC()); err != nil {
		s.logger.Warn("event published but not marked", map[string]interface{}{
			"eventId": event.ID.String(),
			"error":   err.Error(),
		})
	}

	metrics.DomainEventsPublished.WithLabelValues(string(event.Type), "published").Inc()
	s.logger.Info("domain event published", map[string]interface{}{
		"eventId":   event.ID.String(),
		"eventType": string(event.Type),
	})
	return nil
}

// DetailURL is where consumers fetch the full event.
func (s *Service) DetailURL(event *models.DomainEvent) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.config.DetailURLBase, "/"), event.Type.DetailPath(), event.ID)
}

func personReference(app *models.Application, offender *models.OffenderSummary) models.PersonReference {
	noms := app.NomsNumber
	if offender != nil && offender.NomsNumber != nil {
		noms = offender.NomsNumber
	}
	return models.NewPersonReference(app.Crn, noms)
}
