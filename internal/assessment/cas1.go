package assessment

import (
	"context"
	"errors"
	"fmt"

	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"
)

const msgRequirementsMissing = "Placement requirements must be provided"

// approvedPremisesHook raises placement requirements and requests on
// acceptance, moves the application on and announces the decision.
type approvedPremisesHook struct {
	noopHook

	store        AssessmentStore
	requirements PlacementRequirementsService
	requests     PlacementRequestService
	events       DomainEventService
	emails       EmailService
	logger       logger.Logger
}

func (h *approvedPremisesHook) Accepted(ctx context.Context, cmd AcceptCommand, a *models.Assessment) (*Result, AcceptEffects, error) {
	var effects AcceptEffects

	if cmd.PlacementRequirements == nil {
		r := GeneralValidationError(msgRequirementsMissing)
		return &r, effects, nil
	}

	requirements, err := h.requirements.Create(ctx, a, cmd.PlacementRequirements)
	if err != nil {
		if r := refusal(err); r != nil {
			return r, effects, nil
		}
		return nil, effects, fmt.Errorf("create placement requirements: %w", err)
	}
	effects.Requirements = requirements

	status := models.ApplicationStatusPendingPlacementRequest
	if cmd.PlacementDates != nil {
		request, err := h.requests.Create(ctx, models.PlacementRequestCommand{
			Source:                 models.SourceAssessmentOfApplication,
			Requirements:           requirements,
			Dates:                  *cmd.PlacementDates,
			Notes:                  cmd.Notes,
			IsParole:               false,
			PlacementApplicationID: cmd.PlacementApplicationID,
			User:                   cmd.User,
		})
		if err != nil {
			if r := refusal(err); r != nil {
				return r, effects, nil
			}
			return nil, effects, fmt.Errorf("create placement request: %w", err)
		}
		effects.PlacementRequest = request
		status = models.ApplicationStatusAwaitingPlacement
	}

	if err := h.store.UpdateApplicationStatus(ctx, a.Application.ID, status); err != nil {
		return nil, effects, err
	}
	a.Application.Status = status

	return nil, effects, nil
}

func (h *approvedPremisesHook) AfterAccept(ctx context.Context, cmd AcceptCommand, a *models.Assessment, offender *models.OffenderSummary, effects AcceptEffects) {
	if effects.PlacementRequest != nil {
		if err := h.emails.PlacementRequestSubmitted(ctx, a.Application); err != nil {
			h.logFailure("Failed to send placement request submitted email", a, err)
		}
	}

	if err := h.events.AssessmentAccepted(ctx, a, offender, cmd.User); err != nil {
		h.logFailure("Failed to emit assessment accepted event", a, err)
	}

	if err := h.emails.AssessmentAccepted(ctx, a.Application); err != nil {
		h.logFailure("Failed to send assessment accepted email", a, err)
	}
}

func (h *approvedPremisesHook) Rejected(ctx context.Context, _ RejectCommand, a *models.Assessment) error {
	if err := h.store.UpdateApplicationStatus(ctx, a.Application.ID, models.ApplicationStatusRejected); err != nil {
		return err
	}
	a.Application.Status = models.ApplicationStatusRejected
	return nil
}

func (h *approvedPremisesHook) AfterReject(ctx context.Context, cmd RejectCommand, a *models.Assessment, offender *models.OffenderSummary) {
	if err := h.events.AssessmentRejected(ctx, a, offender, cmd.User); err != nil {
		h.logFailure("Failed to emit assessment rejected event", a, err)
	}

	if err := h.emails.AssessmentRejected(ctx, a.Application); err != nil {
		h.logFailure("Failed to send assessment rejected email", a, err)
	}
}

// refusal turns a collaborator's validation error into a GeneralValidationError.
func refusal(err error) *Result {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		r := GeneralValidationError(validationErr.Message)
		return &r
	}
	return nil
}

// The decision has committed by the time notifications go out, so a failure
// is logged and the caller still sees success.
func (h *approvedPremisesHook) logFailure(msg string, a *models.Assessment, err error) {
	h.logger.Error(msg, map[string]interface{}{
		"assessmentId":  a.ID.String(),
		"applicationId": a.Application.ID.String(),
		"error":         err,
	})
}
