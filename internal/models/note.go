package models

import (
	"time"

	"github.com/google/uuid"
)

type SystemNoteType string

const (
	SystemNoteReadyToPlace SystemNoteType = "READY_TO_PLACE"
	SystemNoteRejected     SystemNoteType = "REJECTED"
	SystemNoteCompleted    SystemNoteType = "COMPLETED"
)

type SystemNote struct {
	ID           uuid.UUID      `json:"id"`
	AssessmentID uuid.UUID      `json:"assessmentId"`
	UserID       uuid.UUID      `json:"userId"`
	Type         SystemNoteType `json:"type"`
	CreatedAt    time.Time      `json:"createdAt"`
}
