// Package assessment decides assessments: the guard checks, the state change
// and the service specific follow-up for accepting or rejecting one.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/common/metrics"
	"approved-premises-workers/internal/common/observability"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FieldRejectionRationale is reported when a rejection carries no rationale.
const FieldRejectionRationale = "$.rejectionRationale"

// errDecisionAborted rolls back the decision transaction when a guard or hook
// produced a non-success Result. It never leaves this package.
var errDecisionAborted = errors.New("decision aborted")

type AcceptCommand struct {
	User                   *models.User
	AssessmentID           uuid.UUID
	Document               json.RawMessage
	PlacementRequirements  *models.PlacementRequirementsInput
	PlacementDates         *models.PlacementDates
	PlacementApplicationID *uuid.UUID
	Notes                  *string
}

type RejectCommand struct {
	User         *models.User
	AssessmentID uuid.UUID
	Document     json.RawMessage
	Rationale    string
}

type Dependencies struct {
	Store                 AssessmentStore
	Transactor            Transactor
	Schemas               SchemaService
	Access                AccessControl
	Offenders             OffenderLookup
	PlacementRequirements PlacementRequirementsService
	PlacementRequests     PlacementRequestService
	DomainEvents          DomainEventService
	Emails                EmailService
	SystemNotes           SystemNoteService
	Logger                logger.Logger
	Tracer                trace.Tracer
	Clock                 func() time.Time
}

type Workflow struct {
	store     AssessmentStore
	tx        Transactor
	schemas   SchemaService
	access    AccessControl
	offenders OffenderLookup
	hooks     map[models.ServiceName]Hook
	logger    logger.Logger
	tracer    trace.Tracer
	clock     func() time.Time
}

func NewWorkflow(deps Dependencies) *Workflow {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "assessment-workflow"})

	tracer := deps.Tracer
	if tracer == nil {
		tracer = observability.Tracer()
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Workflow{
		store:     deps.Store,
		tx:        deps.Transactor,
		schemas:   deps.Schemas,
		access:    deps.Access,
		offenders: deps.Offenders,
		hooks: map[models.ServiceName]Hook{
			models.ServiceApprovedPremises: &approvedPremisesHook{
				store:        deps.Store,
				requirements: deps.PlacementRequirements,
				requests:     deps.PlacementRequests,
				events:       deps.DomainEvents,
				emails:       deps.Emails,
				logger:       log,
			},
			models.ServiceTemporaryAccommodation: &temporaryAccommodationHook{
				notes: deps.SystemNotes,
			},
		},
		logger: log,
		tracer: tracer,
		clock:  clock,
	}
}

// decision is the state shared between the guard checks and the mutation.
type decision struct {
	assessment *models.Assessment
	offender   *models.OffenderSummary
	hook       Hook
}

// Accept records an ACCEPTED decision. Expected failures come back as a
// non-success Result; the error is reserved for infrastructure faults and
// models.ErrAssessmentNotFound.
func (w *Workflow) Accept(ctx context.Context, cmd AcceptCommand) (Result, error) {
	ctx, span := w.startSpan(ctx, "assessment.accept", cmd.AssessmentID)
	defer span.End()
	start := w.clock()

	var (
		result  Result
		d       *decision
		effects AcceptEffects
	)

	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var guard *Result
		var err error
		d, guard, err = w.checkGuards(ctx, cmd.User, cmd.AssessmentID, cmd.Document, models.DecisionAccepted, nil)
		if err != nil {
			return err
		}
		if guard != nil {
			result = *guard
			return errDecisionAborted
		}

		a := d.assessment
		now := w.clock()
		a.Decision = models.DecisionAccepted
		a.SubmittedAt = &now
		a.Document = cmd.Document
		d.hook.BeforeAccept(a)

		if err := w.store.Save(ctx, a); err != nil {
			return err
		}

		hookResult, hookEffects, err := d.hook.Accepted(ctx, cmd, a)
		if err != nil {
			return err
		}
		if hookResult != nil {
			result = *hookResult
			return errDecisionAborted
		}

		effects = hookEffects
		result = Success(a)
		return nil
	})

	result, err = w.finish(span, models.DecisionAccepted, d, start, result, err)
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	d.hook.AfterAccept(ctx, cmd, result.Assessment, d.offender, effects)
	return result, nil
}

// Reject records a REJECTED decision with the assessor's rationale.
func (w *Workflow) Reject(ctx context.Context, cmd RejectCommand) (Result, error) {
	ctx, span := w.startSpan(ctx, "assessment.reject", cmd.AssessmentID)
	defer span.End()
	start := w.clock()

	var (
		result Result
		d      *decision
	)

	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var guard *Result
		var err error
		d, guard, err = w.checkGuards(ctx, cmd.User, cmd.AssessmentID, cmd.Document, models.DecisionRejected, func() *Result {
			if strings.TrimSpace(cmd.Rationale) == "" {
				return fail(FieldValidationError(map[string]string{FieldRejectionRationale: "empty"}))
			}
			return nil
		})
		if err != nil {
			return err
		}
		if guard != nil {
			result = *guard
			return errDecisionAborted
		}

		a := d.assessment
		rationale := strings.TrimSpace(cmd.Rationale)
		now := w.clock()
		a.Decision = models.DecisionRejected
		a.RejectionRationale = &rationale
		a.SubmittedAt = &now
		a.Document = cmd.Document
		d.hook.BeforeReject(a, now)

		if err := w.store.Save(ctx, a); err != nil {
			return err
		}
		if err := d.hook.Rejected(ctx, cmd, a); err != nil {
			return err
		}

		result = Success(a)
		return nil
	})

	result, err = w.finish(span, models.DecisionRejected, d, start, result, err)
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	d.hook.AfterReject(ctx, cmd, result.Assessment, d.offender)
	return result, nil
}

// checkGuards locks the assessment and runs the precondition checks in order.
// It returns a non-nil Result for the first one that fails. inputCheck runs
// after schema conformance for decision specific input.
func (w *Workflow) checkGuards(ctx context.Context, user *models.User, id uuid.UUID, document json.RawMessage, target models.AssessmentDecision, inputCheck func() *Result) (*decision, *Result, error) {
	if err := w.store.Lock(ctx, id); err != nil {
		return nil, nil, err
	}

	a, err := w.store.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	d := &decision{assessment: a, hook: w.hookFor(a.Service)}

	if !w.access.UserCanViewAssessment(user, a) {
		return d, fail(Unauthorised()), nil
	}

	current, err := w.schemaIsCurrent(ctx, a)
	if err != nil {
		return d, nil, err
	}
	if !current {
		return d, fail(GeneralValidationError(MsgSchemaOutdated)), nil
	}

	if d.hook.DecisionTaken(a, target) {
		return d, fail(GeneralValidationError(MsgDecisionTaken)), nil
	}

	if a.IsReallocated() {
		return d, fail(GeneralValidationError(MsgReallocated)), nil
	}

	if !w.schemas.Validate(a.SchemaVersion, document) {
		return d, fail(FieldValidationError(map[string]string{FieldData: "invalid"})), nil
	}

	if inputCheck != nil {
		if r := inputCheck(); r != nil {
			return d, r, nil
		}
	}

	lookup, err := w.offenders.GetOffenderByCrn(ctx, a.Crn(), user.DeliusUsername, user.HasQualification(models.QualificationLAO))
	if err != nil {
		return d, nil, err
	}
	switch lookup.Status {
	case models.OffenderUnauthorised:
		return d, fail(Unauthorised()), nil
	case models.OffenderFound:
		d.offender = lookup.Offender
	}

	return d, nil, nil
}

func (w *Workflow) schemaIsCurrent(ctx context.Context, a *models.Assessment) (bool, error) {
	if a.SchemaVersion == nil {
		return false, nil
	}
	newest, err := w.schemas.GetNewestSchema(ctx, a.SchemaVersion.Kind)
	if err != nil {
		return false, fmt.Errorf("resolve newest schema: %w", err)
	}
	return newest != nil && newest.ID == a.SchemaVersion.ID, nil
}

func (w *Workflow) hookFor(service models.ServiceName) Hook {
	if hook, ok := w.hooks[service]; ok {
		return hook
	}
	return noopHook{}
}

func (w *Workflow) startSpan(ctx context.Context, name string, id uuid.UUID) (context.Context, trace.Span) {
	return w.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("assessment.id", id.String())))
}

// finish swallows the abort sentinel, then records the outcome on the span,
// the metrics and the log.
func (w *Workflow) finish(span trace.Span, target models.AssessmentDecision, d *decision, start time.Time, result Result, err error) (Result, error) {
	if errors.Is(err, errDecisionAborted) {
		err = nil
	}

	service := "unknown"
	fields := map[string]interface{}{"decision": string(target)}
	if d != nil && d.assessment != nil {
		service = string(d.assessment.Service)
		fields["assessmentId"] = d.assessment.ID.String()
		fields["service"] = service
	}

	metrics.AssessmentDecisionDuration.WithLabelValues(string(target)).Observe(w.clock().Sub(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AssessmentDecisions.WithLabelValues(service, string(target), "ERROR").Inc()
		if errors.Is(err, models.ErrAssessmentNotFound) {
			w.logger.Warn("Assessment not found", withErr(fields, err))
		} else {
			w.logger.Error("Assessment decision failed", withErr(fields, err))
		}
		return Result{}, err
	}

	span.SetAttributes(attribute.String("assessment.outcome", string(result.Kind)))
	metrics.AssessmentDecisions.WithLabelValues(service, string(target), string(result.Kind)).Inc()

	fields["outcome"] = string(result.Kind)
	if result.IsSuccess() {
		w.logger.Info("Assessment decision recorded", fields)
	} else {
		if result.Message != "" {
			fields["message"] = result.Message
		}
		w.logger.Warn("Assessment decision refused", fields)
	}
	return result, nil
}

func fail(r Result) *Result {
	return &r
}

func withErr(fields map[string]interface{}, err error) map[string]interface{} {
	fields["error"] = err
	return fields
}
