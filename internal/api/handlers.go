package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"approved-premises-workers/internal/assessment"
	"approved-premises-workers/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AssessmentAcceptance is the body of an acceptance request.
type AssessmentAcceptance struct {
	Document               json.RawMessage                    `json:"document"`
	Requirements           *models.PlacementRequirementsInput `json:"requirements"`
	PlacementDates         *models.PlacementDates             `json:"placementDates,omitempty"`
	PlacementApplicationID *uuid.UUID                         `json:"placementApplicationId,omitempty"`
	Notes                  *string                            `json:"notes,omitempty"`
}

type AssessmentRejection struct {
	Document           json.RawMessage `json:"document"`
	RejectionRationale string          `json:"rejectionRationale"`
}

func (h *Handler) acceptAssessment(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.decisionContext(w, r)
	if !ok {
		return
	}

	var body AssessmentAcceptance
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, r, newProblem(http.StatusBadRequest, "The request body could not be read"))
		return
	}

	result, err := h.decider.Accept(r.Context(), assessment.AcceptCommand{
		User:                   user,
		AssessmentID:           id,
		Document:               body.Document,
		PlacementRequirements:  body.Requirements,
		PlacementDates:         body.PlacementDates,
		PlacementApplicationID: body.PlacementApplicationID,
		Notes:                  body.Notes,
	})
	h.respond(w, r, id, result, err)
}

func (h *Handler) rejectAssessment(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.decisionContext(w, r)
	if !ok {
		return
	}

	var body AssessmentRejection
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, r, newProblem(http.StatusBadRequest, "The request body could not be read"))
		return
	}

	result, err := h.decider.Reject(r.Context(), assessment.RejectCommand{
		User:         user,
		AssessmentID: id,
		Document:     body.Document,
		Rationale:    body.RejectionRationale,
	})
	h.respond(w, r, id, result, err)
}

func (h *Handler) decisionContext(w http.ResponseWriter, r *http.Request) (*models.User, uuid.UUID, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeProblem(w, r, newProblem(http.StatusUnauthorized, "A bearer token is required"))
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "assessmentId"))
	if err != nil {
		writeProblem(w, r, newProblem(http.StatusNotFound, "No Assessment with an ID of "+chi.URLParam(r, "assessmentId")+" could be found"))
		return nil, uuid.Nil, false
	}
	return user, id, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, id uuid.UUID, result assessment.Result, err error) {
	if err != nil {
		if errors.Is(err, models.ErrAssessmentNotFound) {
			writeProblem(w, r, newProblem(http.StatusNotFound, "No Assessment with an ID of "+id.String()+" could be found"))
			return
		}
		h.logger.Error("assessment decision failed", map[string]interface{}{
			"assessmentId": id.String(),
			"error":        err.Error(),
			"requestId":    requestIDFromContext(r.Context()),
		})
		writeProblem(w, r, newProblem(http.StatusInternalServerError, "There was an unexpected problem"))
		return
	}

	switch result.Kind {
	case assessment.ResultSuccess:
		w.WriteHeader(http.StatusOK)
	case assessment.ResultUnauthorised:
		writeProblem(w, r, newProblem(http.StatusForbidden, "You are not authorized to access this endpoint"))
	case assessment.ResultFieldValidationError:
		writeProblem(w, r, fieldProblem(result.Fields))
	default:
		writeProblem(w, r, newProblem(http.StatusBadRequest, result.Message))
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "UP"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = "DOWN"
			status = http.StatusServiceUnavailable
			h.logger.Warn("readiness check failed", map[string]interface{}{"component": name, "error": err.Error()})
			continue
		}
		components[name] = "UP"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"components": components})
}
