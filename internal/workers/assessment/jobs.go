// Package assessmentjobs holds what the accept and reject job workers share:
// resolving the deciding user and turning decision outcomes into job errors.
package assessmentjobs

import (
	"context"
	"errors"
	"fmt"

	"approved-premises-workers/internal/assessment"
	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"
	"approved-premises-workers/internal/store/postgres"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type UserFinder interface {
	FindByDeliusUsername(ctx context.Context, username string) (*models.User, error)
}

// ResolveUser loads the user a job acts for.
func ResolveUser(ctx context.Context, users UserFinder, username string) (*models.User, error) {
	user, err := users.FindByDeliusUsername(ctx, username)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(username)
		}
		return nil, err
	}
	return user, nil
}

// OutcomeError maps a decision to the error the job fails with, or nil when
// the decision succeeded.
func OutcomeError(assessmentID string, result assessment.Result, err error) error {
	if err != nil {
		if errors.Is(err, models.ErrAssessmentNotFound) {
			return apperrors.NewAssessmentNotFoundError(assessmentID)
		}
		return err
	}

	switch result.Kind {
	case assessment.ResultSuccess:
		return nil
	case assessment.ResultUnauthorised:
		return apperrors.NewAssessmentUnauthorisedError(assessmentID)
	case assessment.ResultFieldValidationError:
		return apperrors.NewFieldValidationError(result.Fields)
	case assessment.ResultGeneralValidationError:
		return apperrors.NewAssessmentValidationError(result.Message)
	default:
		return apperrors.NewInternalError(fmt.Errorf("unexpected result kind %q", result.Kind))
	}
}

// ErrorCode is the metrics label for a job failure.
func ErrorCode(err error) string {
	return string(apperrors.Normalize(err).Code)
}

// CompleteJob sends the completion with the given output variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}, log logger.Logger) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		log.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	log.Info("job completed", map[string]interface{}{"jobKey": job.GetKey()})
}
