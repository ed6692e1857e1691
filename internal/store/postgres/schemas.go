package postgres

import (
	"context"
	"database/sql"
	"errors"

	"approved-premises-workers/internal/common/database"
	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
)

type SchemaRepository struct {
	db *sql.DB
}

func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// NewestID returns the id of the most recently added schema of a kind.
func (r *SchemaRepository) NewestID(ctx context.Context, kind models.SchemaKind) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id
		FROM json_schemas
		WHERE type = $1
		ORDER BY added_at DESC
		LIMIT 1`, string(kind)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, apperrors.NewSchemaNotFoundError(string(kind))
	}
	if err != nil {
		return uuid.Nil, apperrors.NewSchemaLookupFailedError(string(kind), err)
	}
	return id, nil
}

func (r *SchemaRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.JSONSchema, error) {
	var (
		s    models.JSONSchema
		body []byte
	)
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, type, added_at, schema
		FROM json_schemas
		WHERE id = $1`, id).Scan(&s.ID, &s.Kind, &s.AddedAt, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewSchemaNotFoundError(id.String())
	}
	if err != nil {
		return nil, apperrors.NewSchemaLookupFailedError(id.String(), err)
	}
	s.Schema = rawJSON(body)
	return &s, nil
}
