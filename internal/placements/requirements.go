// Package placements creates the placement requirements and placement
// requests raised when an approved premises assessment is accepted.
package placements

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type Repository interface {
	FindPostcodeDistrict(ctx context.Context, outcode string) (uuid.UUID, bool, error)
	KnownCharacteristics(ctx context.Context, names []string, service models.ServiceName) (map[string]bool, error)
	InsertRequirements(ctx context.Context, p *models.PlacementRequirements) error
	InsertRequest(ctx context.Context, p *models.PlacementRequest) error
}

type RequirementsService struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
}

func NewRequirementsService(repo Repository, log logger.Logger) *RequirementsService {
	return &RequirementsService{
		repo:   repo,
		logger: log.WithFields(map[string]interface{}{"component": "placement-requirements"}),
		now:    time.Now,
	}
}

// Create validates the criteria and stores them against the assessment and
// its application. Unusable criteria are reported as *models.ValidationError.
func (s *RequirementsService) Create(ctx context.Context, a *models.Assessment, in *models.PlacementRequirementsInput) (*models.PlacementRequirements, error) {
	if in == nil {
		return nil, &models.ValidationError{Message: "Placement requirements must be provided"}
	}
	if in.Gender != models.GenderMale && in.Gender != models.GenderFemale {
		return nil, &models.ValidationError{Message: fmt.Sprintf("Gender '%s' is not supported", in.Gender)}
	}
	if !in.Type.Valid() {
		return nil, &models.ValidationError{Message: fmt.Sprintf("AP type '%s' is not supported", in.Type)}
	}
	if in.Radius <= 0 {
		return nil, &models.ValidationError{Message: "Radius must be greater than zero"}
	}

	outcode := strings.ToUpper(strings.TrimSpace(in.Location))
	districtID, ok, err := s.repo.FindPostcodeDistrict(ctx, outcode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.ValidationError{Message: fmt.Sprintf("Postcode district '%s' does not exist", outcode)}
	}

	criteria := append(append([]string{}, in.EssentialCriteria...), in.DesirableCriteria...)
	known, err := s.repo.KnownCharacteristics(ctx, criteria, models.ServiceApprovedPremises)
	if err != nil {
		return nil, err
	}
	if unknown := missing(criteria, known); len(unknown) > 0 {
		return nil, &models.ValidationError{Message: "Unknown criteria: " + strings.Join(unknown, ", ")}
	}

	requirements := &models.PlacementRequirements{
		ID:                 uuid.New(),
		AssessmentID:       a.ID,
		ApplicationID:      a.Application.ID,
		Gender:             in.Gender,
		ApType:             in.Type,
		PostcodeDistrictID: districtID,
		PostcodeDistrict:   outcode,
		Radius:             in.Radius,
		EssentialCriteria:  nonNil(in.EssentialCriteria),
		DesirableCriteria:  nonNil(in.DesirableCriteria),
		CreatedAt:          s.now(),
	}
	if err := s.repo.InsertRequirements(ctx, requirements); err != nil {
		return nil, err
	}

	s.logger.Info("placement requirements created", map[string]interface{}{
		"placementRequirementsId": requirements.ID.String(),
		"assessmentId":            a.ID.String(),
	})
	return requirements, nil
}

func missing(names []string, known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		if !known[n] && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
