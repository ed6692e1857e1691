// Package postgres holds the lib/pq backed repositories. Every repository
// resolves its connection through database.Conn so it joins a transaction
// opened by database.Transactor.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"approved-premises-workers/internal/common/database"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Lock takes a row lock held until the surrounding transaction ends.
func (r *AssessmentRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := database.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM assessments WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrAssessmentNotFound, id)
	}
	if err != nil {
		return queryFailed("lock assessment", err)
	}
	return nil
}

const selectAssessment = `
	SELECT a.id, a.service, a.decision, a.data, a.document, a.rejection_rationale,
	       a.allocated_to_user_id, a.created_at, a.submitted_at, a.completed_at, a.reallocated_at,
	       s.id, s.type, s.added_at, s.schema,
	       ap.id, ap.service, ap.crn, ap.noms_number, ap.status, ap.probation_region_id,
	       ap.submitted_at, ap.created_at,
	       u.id, u.delius_username, u.name, u.email
	FROM assessments a
	JOIN applications ap ON ap.id = a.application_id
	JOIN users u ON u.id = ap.created_by_user_id
	LEFT JOIN json_schemas s ON s.id = a.schema_version_id
	WHERE a.id = $1`

func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	var (
		a                                     models.Assessment
		app                                   models.Application
		creator                               models.User
		decision, rationale, nomsNumber       sql.NullString
		creatorEmail, schemaKind              sql.NullString
		data, document, schemaBody            []byte
		allocatedTo, schemaID                 uuid.NullUUID
		submittedAt, completedAt, reallocated sql.NullTime
		schemaAddedAt, appSubmittedAt         sql.NullTime
	)

	err := database.Conn(ctx, r.db).QueryRowContext(ctx, selectAssessment, id).Scan(
		&a.ID, &a.Service, &decision, &data, &document, &rationale,
		&allocatedTo, &a.CreatedAt, &submittedAt, &completedAt, &reallocated,
		&schemaID, &schemaKind, &schemaAddedAt, &schemaBody,
		&app.ID, &app.Service, &app.Crn, &nomsNumber, &app.Status, &app.ProbationRegionID,
		&appSubmittedAt, &app.CreatedAt,
		&creator.ID, &creator.DeliusUsername, &creator.Name, &creatorEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrAssessmentNotFound, id)
	}
	if err != nil {
		return nil, queryFailed("find assessment", err)
	}

	a.Decision = models.AssessmentDecision(decision.String)
	a.Data = rawJSON(data)
	a.Document = rawJSON(document)
	a.RejectionRationale = stringPtr(rationale)
	a.AllocatedToUserID = uuidPtr(allocatedTo)
	a.SubmittedAt = timePtr(submittedAt)
	a.CompletedAt = timePtr(completedAt)
	a.ReallocatedAt = timePtr(reallocated)

	if schemaID.Valid {
		a.SchemaVersion = &models.JSONSchema{
			ID:      schemaID.UUID,
			Kind:    models.SchemaKind(schemaKind.String),
			AddedAt: schemaAddedAt.Time,
			Schema:  rawJSON(schemaBody),
		}
	}

	creator.Email = creatorEmail.String
	app.NomsNumber = stringPtr(nomsNumber)
	app.SubmittedAt = timePtr(appSubmittedAt)
	app.CreatedByUser = &creator
	a.Application = &app

	return &a, nil
}

// Save writes the decision fields of an assessment.
func (r *AssessmentRepository) Save(ctx context.Context, a *models.Assessment) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE assessments
		SET decision = $2, document = $3, rejection_rationale = $4,
		    submitted_at = $5, completed_at = $6
		WHERE id = $1`,
		a.ID,
		nullString(string(a.Decision)),
		jsonParam(a.Document),
		nullStringPtr(a.RejectionRationale),
		nullTime(a.SubmittedAt),
		nullTime(a.CompletedAt),
	)
	if err != nil {
		return queryFailed("save assessment", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", models.ErrAssessmentNotFound, a.ID)
	}
	return nil
}

func (r *AssessmentRepository) UpdateApplicationStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE applications SET status = $2 WHERE id = $1`, applicationID, string(status))
	if err != nil {
		return queryFailed("update application status", err)
	}
	return nil
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
