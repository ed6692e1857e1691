// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Assessment decision outcomes that surface to the process engine as BPMN errors.
const (
	ErrCodeAssessmentNotFound         ErrorCode = "ASSESSMENT_NOT_FOUND"
	ErrCodeAssessmentUnauthorised     ErrorCode = "ASSESSMENT_UNAUTHORISED"
	ErrCodeAssessmentValidationFailed ErrorCode = "ASSESSMENT_VALIDATION_FAILED"
	ErrCodeFieldValidationFailed      ErrorCode = "FIELD_VALIDATION_FAILED"
	ErrCodeUserNotFound               ErrorCode = "USER_NOT_FOUND"
	ErrCodeInvalidInput               ErrorCode = "INVALID_INPUT"
)

// Infrastructure faults.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseQueryFailed      ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSchemaLookupFailed ErrorCode = "SCHEMA_LOOKUP_FAILED"
	ErrCodeSchemaNotFound     ErrorCode = "SCHEMA_NOT_FOUND"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeOffenderLookupFailed          ErrorCode = "OFFENDER_LOOKUP_FAILED"

	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeDomainEventPublishFailed ErrorCode = "DOMAIN_EVENT_PUBLISH_FAILED"

	ErrCodeTokenInvalid        ErrorCode = "TOKEN_INVALID"
	ErrCodeIdentityUnavailable ErrorCode = "IDENTITY_PROVIDER_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to a thrown or failed job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewAssessmentNotFoundError(assessmentID string) *StandardError {
	return newError(ErrCodeAssessmentNotFound, "Assessment not found",
		fmt.Sprintf("no assessment with id %s", assessmentID), false)
}

func NewAssessmentUnauthorisedError(details string) *StandardError {
	return newError(ErrCodeAssessmentUnauthorised, "User is not permitted to decide this assessment", details, false)
}

// NewAssessmentValidationError carries the user-facing validation message as Message.
func NewAssessmentValidationError(message string) *StandardError {
	return newError(ErrCodeAssessmentValidationFailed, message, "", false)
}

// NewFieldValidationError flattens the field map into Details and keeps it in Metadata.
func NewFieldValidationError(fields map[string]string) *StandardError {
	parts := make([]string, 0, len(fields))
	for field, reason := range fields {
		parts = append(parts, field+"="+reason)
	}
	err := newError(ErrCodeFieldValidationFailed, "There is a problem with your request", strings.Join(parts, ","), false)
	return err.WithMetadata("invalidParams", fields)
}

func NewUserNotFoundError(username string) *StandardError {
	return newError(ErrCodeUserNotFound, "User not found", username, false)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err.Error(), true)
}

func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, fmt.Sprintf("Database operation '%s' failed", operation), err.Error(), true)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newError(ErrCodeQueryTimeout, fmt.Sprintf("Database operation '%s' timed out", operation), "", true)
}

func NewSchemaLookupFailedError(kind string, err error) *StandardError {
	return newError(ErrCodeSchemaLookupFailed, fmt.Sprintf("Failed to load newest schema for %s", kind), err.Error(), true)
}

func NewSchemaNotFoundError(kind string) *StandardError {
	return newError(ErrCodeSchemaNotFound, "No schema registered", kind, false)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection failed", err.Error(), true)
}

func NewOffenderLookupFailedError(crn string, err error) *StandardError {
	return newError(ErrCodeOffenderLookupFailed, "Offender lookup failed", fmt.Sprintf("crn %s: %v", crn, err), true)
}

func NewNotificationSendFailedError(template string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send '%s' notification", template), err.Error(), true)
}

func NewDomainEventPublishFailedError(eventType string, err error) *StandardError {
	return newError(ErrCodeDomainEventPublishFailed, fmt.Sprintf("Failed to publish '%s'", eventType), err.Error(), true)
}

func NewTokenInvalidError(details string) *StandardError {
	return newError(ErrCodeTokenInvalid, "Token is not active", details, false)
}

func NewIdentityUnavailableError(err error) *StandardError {
	return newError(ErrCodeIdentityUnavailable, "Identity provider unavailable", err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by boundary events
// in the assessment process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAssessmentNotFound:         "ASSESSMENT_NOT_FOUND",
	ErrCodeAssessmentUnauthorised:     "ASSESSMENT_UNAUTHORISED",
	ErrCodeAssessmentValidationFailed: "ASSESSMENT_INVALID",
	ErrCodeFieldValidationFailed:      "ASSESSMENT_INVALID",
	ErrCodeUserNotFound:               "USER_NOT_FOUND",
	ErrCodeInvalidInput:               "INVALID_INPUT",
	ErrCodeSchemaNotFound:             "SCHEMA_NOT_FOUND",
}

// GetRetryCount returns the retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeSchemaLookupFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeOffenderLookupFailed,
		ErrCodeIdentityUnavailable:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeNotificationSendFailed,
		ErrCodeDomainEventPublishFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for log and metric labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "ASSESSMENT") || strings.Contains(codeStr, "VALIDATION") || codeStr == string(ErrCodeInvalidInput):
		return "ASSESSMENT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SCHEMA"):
		return "SCHEMA"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "OFFENDER"):
		return "OFFENDER"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "DOMAIN_EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "IDENTITY") || strings.Contains(codeStr, "USER"):
		return "AUTH"
	default:
		return "OTHER"
	}
}
