package assessment

import (
	"context"
	"encoding/json"

	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

// AssessmentStore persists assessments. Lock takes an exclusive row lock for
// the rest of the surrounding transaction and returns ErrAssessmentNotFound
// for unknown ids.
type AssessmentStore interface {
	Lock(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assessment, error)
	Save(ctx context.Context, a *models.Assessment) error
	UpdateApplicationStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type SchemaService interface {
	GetNewestSchema(ctx context.Context, kind models.SchemaKind) (*models.JSONSchema, error)
	Validate(schema *models.JSONSchema, document json.RawMessage) bool
}

type AccessControl interface {
	UserCanViewAssessment(user *models.User, a *models.Assessment) bool
}

type OffenderLookup interface {
	GetOffenderByCrn(ctx context.Context, crn, username string, ignoreLAO bool) (models.OffenderResult, error)
}

// PlacementRequirementsService returns *models.ValidationError when the criteria are unusable.
type PlacementRequirementsService interface {
	Create(ctx context.Context, a *models.Assessment, in *models.PlacementRequirementsInput) (*models.PlacementRequirements, error)
}

type PlacementRequestService interface {
	Create(ctx context.Context, cmd models.PlacementRequestCommand) (*models.PlacementRequest, error)
}

type DomainEventService interface {
	AssessmentAccepted(ctx context.Context, a *models.Assessment, offender *models.OffenderSummary, user *models.User) error
	AssessmentRejected(ctx context.Context, a *models.Assessment, offender *models.OffenderSummary, user *models.User) error
}

type EmailService interface {
	AssessmentAccepted(ctx context.Context, app *models.Application) error
	PlacementRequestSubmitted(ctx context.Context, app *models.Application) error
	AssessmentRejected(ctx context.Context, app *models.Application) error
}

type SystemNoteService interface {
	Add(ctx context.Context, assessmentID uuid.UUID, user *models.User, noteType models.SystemNoteType) error
}
