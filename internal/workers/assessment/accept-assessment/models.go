package acceptassessment

import (
	"encoding/json"

	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type Input struct {
	AssessmentID           uuid.UUID                          `json:"assessmentId"`
	DeliusUsername         string                             `json:"deliusUsername"`
	Document               json.RawMessage                    `json:"document"`
	Requirements           *models.PlacementRequirementsInput `json:"requirements,omitempty"`
	PlacementDates         *models.PlacementDates             `json:"placementDates,omitempty"`
	PlacementApplicationID *uuid.UUID                         `json:"placementApplicationId,omitempty"`
	Notes                  *string                            `json:"notes,omitempty"`
}

type Output struct {
	AssessmentID      string `json:"assessmentId"`
	Decision          string `json:"assessmentDecision"`
	ApplicationStatus string `json:"applicationStatus,omitempty"`
}

// GetInputSchema describes the job variables the worker accepts.
func GetInputSchema() string {
	return `{
	  "type": "object",
	  "required": ["assessmentId", "deliusUsername", "document"],
	  "properties": {
	    "assessmentId": {"type": "string", "format": "uuid"},
	    "deliusUsername": {"type": "string", "minLength": 1},
	    "document": {"type": "object"},
	    "requirements": {"type": "object"},
	    "placementDates": {
	      "type": "object",
	      "required": ["expectedArrival", "duration"],
	      "properties": {
	        "expectedArrival": {"type": "string"},
	        "duration": {"type": "integer"}
	      }
	    },
	    "placementApplicationId": {"type": "string", "format": "uuid"},
	    "notes": {"type": "string"}
	  }
	}`
}
