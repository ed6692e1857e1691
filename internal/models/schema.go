package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SchemaKind names the family of JSON schemas an assessment payload is validated against.
type SchemaKind string

const (
	SchemaKindApprovedPremisesAssessment       SchemaKind = "approved_premises_assessment"
	SchemaKindTemporaryAccommodationAssessment SchemaKind = "temporary_accommodation_assessment"
)

type JSONSchema struct {
	ID      uuid.UUID       `json:"id"`
	Kind    SchemaKind      `json:"kind"`
	AddedAt time.Time       `json:"addedAt"`
	Schema  json.RawMessage `json:"schema"`
}
