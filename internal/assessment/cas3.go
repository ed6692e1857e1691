package assessment

import (
	"context"
	"time"

	"approved-premises-workers/internal/models"
)

// temporaryAccommodationHook keeps completedAt in step with the decision and
// records a system note for each one. A rejected referral can later be
// accepted, so only a repeat of the same decision is refused.
type temporaryAccommodationHook struct {
	noopHook

	notes SystemNoteService
}

func (h *temporaryAccommodationHook) DecisionTaken(a *models.Assessment, target models.AssessmentDecision) bool {
	return a.Decision == target
}

func (h *temporaryAccommodationHook) BeforeAccept(a *models.Assessment) {
	a.CompletedAt = nil
}

func (h *temporaryAccommodationHook) Accepted(ctx context.Context, cmd AcceptCommand, a *models.Assessment) (*Result, AcceptEffects, error) {
	if err := h.notes.Add(ctx, a.ID, cmd.User, models.SystemNoteReadyToPlace); err != nil {
		return nil, AcceptEffects{}, err
	}
	return nil, AcceptEffects{}, nil
}

func (h *temporaryAccommodationHook) BeforeReject(a *models.Assessment, now time.Time) {
	a.CompletedAt = &now
}

func (h *temporaryAccommodationHook) Rejected(ctx context.Context, cmd RejectCommand, a *models.Assessment) error {
	return h.notes.Add(ctx, a.ID, cmd.User, models.SystemNoteRejected)
}
