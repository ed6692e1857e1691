package models

import "github.com/google/uuid"

type UserRole string

const (
	RoleCAS1Assessor        UserRole = "CAS1_ASSESSOR"
	RoleCAS1WorkflowManager UserRole = "CAS1_WORKFLOW_MANAGER"
	RoleCAS1Manager         UserRole = "CAS1_MANAGER"
	RoleCAS3Assessor        UserRole = "CAS3_ASSESSOR"
	RoleCAS3Referrer        UserRole = "CAS3_REFERRER"
)

type UserQualification string

const (
	QualificationLAO       UserQualification = "LAO"
	QualificationPIPE      UserQualification = "PIPE"
	QualificationEmergency UserQualification = "EMERGENCY"
)

// User is a probation practitioner known to the service by their Delius username.
type User struct {
	ID                uuid.UUID           `json:"id"`
	DeliusUsername    string              `json:"deliusUsername"`
	Name              string              `json:"name"`
	Email             string              `json:"email,omitempty"`
	ProbationRegionID uuid.UUID           `json:"probationRegionId"`
	Roles             []UserRole          `json:"roles"`
	Qualifications    []UserQualification `json:"qualifications"`
}

func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) HasQualification(q UserQualification) bool {
	for _, uq := range u.Qualifications {
		if uq == q {
			return true
		}
	}
	return false
}
