package postgres

import (
	"context"
	"database/sql"
	"time"

	"approved-premises-workers/internal/common/database"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type DomainEventRepository struct {
	db *sql.DB
}

func NewDomainEventRepository(db *sql.DB) *DomainEventRepository {
	return &DomainEventRepository{db: db}
}

func (r *DomainEventRepository) Insert(ctx context.Context, e *models.DomainEvent) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO domain_events (id, application_id, assessment_id, crn, type, occurred_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ApplicationID, nullUUID(e.AssessmentID), e.Crn, string(e.Type), e.OccurredAt, jsonParam(e.Data),
	)
	if err != nil {
		return queryFailed("insert domain event", err)
	}
	return nil
}

func (r *DomainEventRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE domain_events SET published_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return queryFailed("mark domain event published", err)
	}
	return nil
}
