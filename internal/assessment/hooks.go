package assessment

import (
	"context"
	"time"

	"approved-premises-workers/internal/models"
)

// AcceptEffects records what the transactional part of an acceptance created,
// so the post-commit notifications know what to announce.
type AcceptEffects struct {
	Requirements     *models.PlacementRequirements
	PlacementRequest *models.PlacementRequest
}

// Hook carries the service specific parts of a decision. Methods named
// Before* mutate the assessment before it is saved, Accepted and Rejected run
// inside the decision transaction and After* run once it has committed.
//
// A non-nil Result from Accepted aborts the decision and rolls back.
type Hook interface {
	DecisionTaken(a *models.Assessment, target models.AssessmentDecision) bool
	BeforeAccept(a *models.Assessment)
	Accepted(ctx context.Context, cmd AcceptCommand, a *models.Assessment) (*Result, AcceptEffects, error)
	AfterAccept(ctx context.Context, cmd AcceptCommand, a *models.Assessment, offender *models.OffenderSummary, effects AcceptEffects)
	BeforeReject(a *models.Assessment, now time.Time)
	Rejected(ctx context.Context, cmd RejectCommand, a *models.Assessment) error
	AfterReject(ctx context.Context, cmd RejectCommand, a *models.Assessment, offender *models.OffenderSummary)
}

// noopHook is used for services without extra decision behaviour.
type noopHook struct{}

// DecisionTaken treats a submitted assessment as decided even when the
// decision column is empty.
func (noopHook) DecisionTaken(a *models.Assessment, _ models.AssessmentDecision) bool {
	return a.HasDecision() || a.SubmittedAt != nil
}

func (noopHook) BeforeAccept(*models.Assessment) {}

func (noopHook) Accepted(context.Context, AcceptCommand, *models.Assessment) (*Result, AcceptEffects, error) {
	return nil, AcceptEffects{}, nil
}

func (noopHook) AfterAccept(context.Context, AcceptCommand, *models.Assessment, *models.OffenderSummary, AcceptEffects) {
}

func (noopHook) BeforeReject(*models.Assessment, time.Time) {}

func (noopHook) Rejected(context.Context, RejectCommand, *models.Assessment) error {
	return nil
}

func (noopHook) AfterReject(context.Context, RejectCommand, *models.Assessment, *models.OffenderSummary) {
}
