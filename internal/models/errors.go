package models

import "errors"

// ValidationError is returned by collaborators whose input failed a business rule.
// Message is shown to the user unchanged.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrAssessmentNotFound is returned by stores when no assessment has the requested id.
var ErrAssessmentNotFound = errors.New("ASSESSMENT_NOT_FOUND")
