package assessment

import "approved-premises-workers/internal/models"

type ResultKind string

const (
	ResultSuccess                ResultKind = "SUCCESS"
	ResultUnauthorised           ResultKind = "UNAUTHORISED"
	ResultGeneralValidationError ResultKind = "GENERAL_VALIDATION_ERROR"
	ResultFieldValidationError   ResultKind = "FIELD_VALIDATION_ERROR"
)

// User facing messages for the general validation failures.
const (
	MsgSchemaOutdated = "The schema version is outdated"
	MsgDecisionTaken  = "A decision has already been taken on this assessment"
	MsgReallocated    = "The application has been reallocated, this assessment is read only"
)

// FieldData is the path reported when the submitted document fails its schema.
const FieldData = "$.data"

// Result is the outcome of a decision. Exactly one of Assessment (Success),
// Message (GeneralValidationError) or Fields (FieldValidationError) is set,
// and none for Unauthorised.
type Result struct {
	Kind       ResultKind
	Assessment *models.Assessment
	Message    string
	Fields     map[string]string
}

func Success(a *models.Assessment) Result {
	return Result{Kind: ResultSuccess, Assessment: a}
}

func Unauthorised() Result {
	return Result{Kind: ResultUnauthorised}
}

func GeneralValidationError(message string) Result {
	return Result{Kind: ResultGeneralValidationError, Message: message}
}

func FieldValidationError(fields map[string]string) Result {
	return Result{Kind: ResultFieldValidationError, Fields: fields}
}

func (r Result) IsSuccess() bool {
	return r.Kind == ResultSuccess
}
