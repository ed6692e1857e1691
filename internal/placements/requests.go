package placements

import (
	"context"
	"time"

	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type RequestService struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
}

func NewRequestService(repo Repository, log logger.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		logger: log.WithFields(map[string]interface{}{"component": "placement-requests"}),
		now:    time.Now,
	}
}

// Create raises a placement request for the requirements in cmd, owned by cmd.User.
func (s *RequestService) Create(ctx context.Context, cmd models.PlacementRequestCommand) (*models.PlacementRequest, error) {
	if cmd.Requirements == nil {
		return nil, &models.ValidationError{Message: "Placement requirements must be provided"}
	}
	if cmd.Dates.ExpectedArrival.IsZero() {
		return nil, &models.ValidationError{Message: "Expected arrival date must be provided"}
	}
	if cmd.Dates.Duration <= 0 {
		return nil, &models.ValidationError{Message: "Duration must be greater than zero"}
	}

	request := &models.PlacementRequest{
		ID:                      uuid.New(),
		PlacementRequirementsID: cmd.Requirements.ID,
		AssessmentID:            cmd.Requirements.AssessmentID,
		ApplicationID:           cmd.Requirements.ApplicationID,
		ExpectedArrival:         cmd.Dates.ExpectedArrival,
		Duration:                cmd.Dates.Duration,
		Notes:                   cmd.Notes,
		IsParole:                cmd.IsParole,
		Source:                  cmd.Source,
		PlacementApplicationID:  cmd.PlacementApplicationID,
		CreatedAt:               s.now(),
	}
	if cmd.User != nil {
		request.CreatedByUserID = cmd.User.ID
	}

	if err := s.repo.InsertRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("placement request created", map[string]interface{}{
		"placementRequestId": request.ID.String(),
		"applicationId":      request.ApplicationID.String(),
		"source":             string(request.Source),
	})
	return request, nil
}
