package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ServiceName distinguishes the accommodation service an assessment belongs to.
type ServiceName string

const (
	ServiceApprovedPremises       ServiceName = "approved-premises"
	ServiceTemporaryAccommodation ServiceName = "temporary-accommodation"
)

type AssessmentDecision string

const (
	DecisionAccepted AssessmentDecision = "ACCEPTED"
	DecisionRejected AssessmentDecision = "REJECTED"
)

type Assessment struct {
	ID                 uuid.UUID          `json:"id"`
	Service            ServiceName        `json:"service"`
	Application        *Application       `json:"application"`
	SchemaVersion      *JSONSchema        `json:"-"`
	Decision           AssessmentDecision `json:"decision,omitempty"`
	Data               json.RawMessage    `json:"data,omitempty"`
	Document           json.RawMessage    `json:"document,omitempty"`
	RejectionRationale *string            `json:"rejectionRationale,omitempty"`
	AllocatedToUserID  *uuid.UUID         `json:"allocatedToUserId,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	SubmittedAt        *time.Time         `json:"submittedAt,omitempty"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
	ReallocatedAt      *time.Time         `json:"reallocatedAt,omitempty"`
}

func (a *Assessment) HasDecision() bool {
	return a.Decision != ""
}

// IsReallocated reports whether the assessment was handed to another assessor
// and is therefore read only.
func (a *Assessment) IsReallocated() bool {
	return a.ReallocatedAt != nil
}

func (a *Assessment) IsAllocatedTo(userID uuid.UUID) bool {
	return a.AllocatedToUserID != nil && *a.AllocatedToUserID == userID
}

func (a *Assessment) Crn() string {
	if a.Application == nil {
		return ""
	}
	return a.Application.Crn
}
