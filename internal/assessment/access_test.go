package assessment

import (
	"testing"

	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoleBasedAccess_UserCanViewAssessment(t *testing.T) {
	region := uuid.New()
	assessorID := uuid.New()

	cas1 := &models.Assessment{
		Service:           models.ServiceApprovedPremises,
		Application:       &models.Application{ProbationRegionID: region},
		AllocatedToUserID: &assessorID,
	}
	cas3 := &models.Assessment{
		Service:     models.ServiceTemporaryAccommodation,
		Application: &models.Application{ProbationRegionID: region},
	}

	tests := []struct {
		name       string
		user       *models.User
		assessment *models.Assessment
		want       bool
	}{
		{
			name:       "allocated CAS1 assessor",
			user:       &models.User{ID: assessorID, Roles: []models.UserRole{models.RoleCAS1Assessor}},
			assessment: cas1,
			want:       true,
		},
		{
			name:       "CAS1 assessor not allocated",
			user:       &models.User{ID: uuid.New(), Roles: []models.UserRole{models.RoleCAS1Assessor}},
			assessment: cas1,
			want:       false,
		},
		{
			name:       "CAS1 workflow manager sees everything",
			user:       &models.User{ID: uuid.New(), Roles: []models.UserRole{models.RoleCAS1WorkflowManager}},
			assessment: cas1,
			want:       true,
		},
		{
			name:       "CAS3 assessor in region",
			user:       &models.User{ProbationRegionID: region, Roles: []models.UserRole{models.RoleCAS3Assessor}},
			assessment: cas3,
			want:       true,
		},
		{
			name:       "CAS3 assessor in another region",
			user:       &models.User{ProbationRegionID: uuid.New(), Roles: []models.UserRole{models.RoleCAS3Assessor}},
			assessment: cas3,
			want:       false,
		},
		{
			name:       "CAS3 referrer",
			user:       &models.User{ProbationRegionID: region, Roles: []models.UserRole{models.RoleCAS3Referrer}},
			assessment: cas3,
			want:       false,
		},
		{
			name:       "no user",
			assessment: cas1,
			want:       false,
		},
		{
			name:       "unknown service",
			user:       &models.User{Roles: []models.UserRole{models.RoleCAS1WorkflowManager}},
			assessment: &models.Assessment{Service: "community-accommodation"},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleBasedAccess{}.UserCanViewAssessment(tt.user, tt.assessment))
		})
	}
}
