package rejectassessment

import (
	"encoding/json"

	"github.com/google/uuid"
)

type Input struct {
	AssessmentID       uuid.UUID       `json:"assessmentId"`
	DeliusUsername     string          `json:"deliusUsername"`
	Document           json.RawMessage `json:"document"`
	RejectionRationale string          `json:"rejectionRationale"`
}

type Output struct {
	AssessmentID string `json:"assessmentId"`
	Decision     string `json:"assessmentDecision"`
}

// The rationale is not required here; a blank one is reported as a field
// error by the decision itself.
func GetInputSchema() string {
	return `{
	  "type": "object",
	  "required": ["assessmentId", "deliusUsername", "document"],
	  "properties": {
	    "assessmentId": {"type": "string", "format": "uuid"},
	    "deliusUsername": {"type": "string", "minLength": 1},
	    "document": {"type": "object"},
	    "rejectionRationale": {"type": "string"}
	  }
	}`
}
