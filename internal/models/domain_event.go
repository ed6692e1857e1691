package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEventType string

const (
	EventApplicationAssessed DomainEventType = "approved-premises.application.assessed"
	EventAssessmentRejected  DomainEventType = "approved-premises.assessment.rejected"
)

// Description is the human readable text carried in the published envelope.
func (t DomainEventType) Description() string {
	switch t {
	case EventApplicationAssessed:
		return "An application has been assessed for an Approved Premises placement"
	case EventAssessmentRejected:
		return "An assessment for an Approved Premises placement has been rejected"
	default:
		return string(t)
	}
}

// DetailPath is the path segment under the events detail URL.
func (t DomainEventType) DetailPath() string {
	switch t {
	case EventApplicationAssessed:
		return "application-assessed"
	case EventAssessmentRejected:
		return "assessment-rejected"
	default:
		return "unknown"
	}
}

// DomainEvent is the stored form of an event, kept in domain_events.
type DomainEvent struct {
	ID            uuid.UUID       `json:"id"`
	ApplicationID uuid.UUID       `json:"applicationId"`
	AssessmentID  *uuid.UUID      `json:"assessmentId,omitempty"`
	Crn           string          `json:"crn"`
	Type          DomainEventType `json:"type"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Data          json.RawMessage `json:"data"`
}

// AssessmentDecisionEventData is the payload stored for assessed and rejected events.
type AssessmentDecisionEventData struct {
	ApplicationID     uuid.UUID          `json:"applicationId"`
	AssessmentID      uuid.UUID          `json:"assessmentId"`
	ApplicationURL    string             `json:"applicationUrl"`
	PersonReference   PersonReference    `json:"personReference"`
	DeliusEventNumber string             `json:"deliusEventNumber,omitempty"`
	AssessedAt        time.Time          `json:"assessedAt"`
	AssessedBy        StaffMember        `json:"assessedBy"`
	Decision          AssessmentDecision `json:"decision"`
	DecisionRationale *string            `json:"decisionRationale,omitempty"`
	OffenderName      string             `json:"offenderName,omitempty"`
}

type StaffMember struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type PersonIdentifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type PersonReference struct {
	Identifiers []PersonIdentifier `json:"identifiers"`
}

// NewPersonReference builds the CRN and, when known, NOMS identifiers.
func NewPersonReference(crn string, nomsNumber *string) PersonReference {
	ref := PersonReference{Identifiers: []PersonIdentifier{{Type: "CRN", Value: crn}}}
	if nomsNumber != nil && *nomsNumber != "" {
		ref.Identifiers = append(ref.Identifiers, PersonIdentifier{Type: "NOMS", Value: *nomsNumber})
	}
	return ref
}

// HMPPSDomainEvent is the envelope published to the domain events topic.
type HMPPSDomainEvent struct {
	EventType             string            `json:"eventType"`
	Version               int               `json:"version"`
	Description           string            `json:"description"`
	DetailURL             string            `json:"detailUrl"`
	OccurredAt            time.Time         `json:"occurredAt"`
	AdditionalInformation map[string]string `json:"additionalInformation"`
	PersonReference       PersonReference   `json:"personReference"`
}
