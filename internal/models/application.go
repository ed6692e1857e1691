package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusStarted                 ApplicationStatus = "STARTED"
	ApplicationStatusSubmitted               ApplicationStatus = "SUBMITTED"
	ApplicationStatusAwaitingAssessment      ApplicationStatus = "AWAITING_ASSESSMENT"
	ApplicationStatusAwaitingPlacement       ApplicationStatus = "AWAITING_PLACEMENT"
	ApplicationStatusPendingPlacementRequest ApplicationStatus = "PENDING_PLACEMENT_REQUEST"
	ApplicationStatusRejected                ApplicationStatus = "REJECTED"
)

// Application is the case under assessment. Crn identifies the offender record.
type Application struct {
	ID                uuid.UUID         `json:"id"`
	Service           ServiceName       `json:"service"`
	Crn               string            `json:"crn"`
	NomsNumber        *string           `json:"nomsNumber,omitempty"`
	Status            ApplicationStatus `json:"status"`
	CreatedByUser     *User             `json:"createdByUser,omitempty"`
	ProbationRegionID uuid.UUID         `json:"probationRegionId"`
	SubmittedAt       *time.Time        `json:"submittedAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}
