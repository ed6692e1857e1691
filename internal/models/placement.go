package models

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ApType is the kind of approved premises a placement needs.
type ApType string

const (
	ApTypeNormal           ApType = "normal"
	ApTypePIPE             ApType = "pipe"
	ApTypeESAP             ApType = "esap"
	ApTypeRFAP             ApType = "rfap"
	ApTypeMHAPStJosephs    ApType = "mhapStJosephs"
	ApTypeMHAPElliottHouse ApType = "mhapElliottHouse"
)

func (t ApType) Valid() bool {
	switch t {
	case ApTypeNormal, ApTypePIPE, ApTypeESAP, ApTypeRFAP, ApTypeMHAPStJosephs, ApTypeMHAPElliottHouse:
		return true
	}
	return false
}

type PlacementRequestSource string

const (
	SourceAssessmentOfApplication PlacementRequestSource = "ASSESSMENT_OF_APPLICATION"
	SourcePlacementApplication    PlacementRequestSource = "PLACEMENT_APPLICATION"
)

// PlacementRequirementsInput is the criteria an assessor supplies when accepting.
type PlacementRequirementsInput struct {
	Gender            Gender   `json:"gender"`
	Type              ApType   `json:"type"`
	Location          string   `json:"location"`
	Radius            int      `json:"radius"`
	EssentialCriteria []string `json:"essentialCriteria"`
	DesirableCriteria []string `json:"desirableCriteria"`
}

type PlacementRequirements struct {
	ID                 uuid.UUID `json:"id"`
	AssessmentID       uuid.UUID `json:"assessmentId"`
	ApplicationID      uuid.UUID `json:"applicationId"`
	Gender             Gender    `json:"gender"`
	ApType             ApType    `json:"type"`
	PostcodeDistrictID uuid.UUID `json:"postcodeDistrictId"`
	PostcodeDistrict   string    `json:"location"`
	Radius             int       `json:"radius"`
	EssentialCriteria  []string  `json:"essentialCriteria"`
	DesirableCriteria  []string  `json:"desirableCriteria"`
	CreatedAt          time.Time `json:"createdAt"`
}

type PlacementDates struct {
	ExpectedArrival LocalDate `json:"expectedArrival"`
	Duration        int       `json:"duration"`
}

// PlacementRequestCommand carries everything needed to raise a placement request.
type PlacementRequestCommand struct {
	Source                 PlacementRequestSource
	Requirements           *PlacementRequirements
	Dates                  PlacementDates
	Notes                  *string
	IsParole               bool
	PlacementApplicationID *uuid.UUID
	User                   *User
}

type PlacementRequest struct {
	ID                      uuid.UUID              `json:"id"`
	PlacementRequirementsID uuid.UUID              `json:"placementRequirementsId"`
	AssessmentID            uuid.UUID              `json:"assessmentId"`
	ApplicationID           uuid.UUID              `json:"applicationId"`
	ExpectedArrival         LocalDate              `json:"expectedArrival"`
	Duration                int                    `json:"duration"`
	Notes                   *string                `json:"notes,omitempty"`
	IsParole                bool                   `json:"isParole"`
	Source                  PlacementRequestSource `json:"source"`
	PlacementApplicationID  *uuid.UUID             `json:"placementApplicationId,omitempty"`
	CreatedByUserID         uuid.UUID              `json:"createdByUserId"`
	CreatedAt               time.Time              `json:"createdAt"`
}
