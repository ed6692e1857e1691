package postgres

import (
	"context"
	"database/sql"
	"time"

	"approved-premises-workers/internal/common/database"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type SystemNoteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSystemNoteRepository(db *sql.DB) *SystemNoteRepository {
	return &SystemNoteRepository{db: db, now: time.Now}
}

func (r *SystemNoteRepository) Add(ctx context.Context, assessmentID uuid.UUID, user *models.User, noteType models.SystemNoteType) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO assessment_system_notes (id, assessment_id, user_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), assessmentID, user.ID, string(noteType), r.now())
	if err != nil {
		return queryFailed("insert system note", err)
	}
	return nil
}
