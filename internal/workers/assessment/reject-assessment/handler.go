package rejectassessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"approved-premises-workers/internal/assessment"
	"approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/common/metrics"
	"approved-premises-workers/internal/common/observability"
	"approved-premises-workers/internal/common/validation"
	assessmentjobs "approved-premises-workers/internal/workers/assessment"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "reject-assessment"

type Decider interface {
	Reject(ctx context.Context, cmd assessment.RejectCommand) (assessment.Result, error)
}

type Handler struct {
	config        *Config
	decider       Decider
	users         assessmentjobs.UserFinder
	errorHandler  *errors.ErrorHandler
	observability *observability.Observability
	logger        logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Decider       Decider
	Users         assessmentjobs.UserFinder
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:        cfg,
		decider:       opts.Decider,
		users:         opts.Users,
		errorHandler:  errors.NewErrorHandler(log),
		observability: opts.Observability,
		logger:        log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.process(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, assessmentjobs.ErrorCode(err)).Inc()
		h.observability.RecordJob(ctx, TaskType, "failed", time.Since(start))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	assessmentjobs.CompleteJob(ctx, client, job, map[string]interface{}{
		"assessmentId":       output.AssessmentID,
		"assessmentDecision": output.Decision,
	}, h.logger)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.observability.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	result, err := validation.ValidateInput(variables, GetInputSchema())
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute rejects the assessment on behalf of the job's user.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	user, err := assessmentjobs.ResolveUser(ctx, h.users, input.DeliusUsername)
	if err != nil {
		return nil, err
	}

	result, err := h.decider.Reject(ctx, assessment.RejectCommand{
		User:         user,
		AssessmentID: input.AssessmentID,
		Document:     input.Document,
		Rationale:    input.RejectionRationale,
	})
	if err := assessmentjobs.OutcomeError(input.AssessmentID.String(), result, err); err != nil {
		return nil, err
	}

	return &Output{
		AssessmentID: input.AssessmentID.String(),
		Decision:     string(result.Assessment.Decision),
	}, nil
}
