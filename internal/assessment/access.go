package assessment

import "approved-premises-workers/internal/models"

// RoleBasedAccess decides who may view, and so decide, an assessment.
// CAS1 workflow managers see every assessment, other CAS1 users only those
// allocated to them. CAS3 assessors see assessments in their probation region.
type RoleBasedAccess struct{}

func (RoleBasedAccess) UserCanViewAssessment(user *models.User, a *models.Assessment) bool {
	if user == nil || a == nil {
		return false
	}

	switch a.Service {
	case models.ServiceApprovedPremises:
		if user.HasRole(models.RoleCAS1WorkflowManager) {
			return true
		}
		return a.IsAllocatedTo(user.ID)
	case models.ServiceTemporaryAccommodation:
		if !user.HasRole(models.RoleCAS3Assessor) || a.Application == nil {
			return false
		}
		return a.Application.ProbationRegionID == user.ProbationRegionID
	default:
		return false
	}
}
