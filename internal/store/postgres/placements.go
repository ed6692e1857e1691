package postgres

import (
	"context"
	"database/sql"
	"errors"

	"approved-premises-workers/internal/common/database"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PlacementRepository struct {
	db *sql.DB
}

func NewPlacementRepository(db *sql.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// FindPostcodeDistrict resolves an outcode to its id. ok is false when the
// outcode is unknown.
func (r *PlacementRepository) FindPostcodeDistrict(ctx context.Context, outcode string) (id uuid.UUID, ok bool, err error) {
	err = database.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM postcode_districts WHERE outcode = $1`, outcode).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, queryFailed("find postcode district", err)
	}
	return id, true, nil
}

// KnownCharacteristics returns which of the given property names are active
// characteristics for the service.
func (r *PlacementRepository) KnownCharacteristics(ctx context.Context, names []string, service models.ServiceName) (map[string]bool, error) {
	known := make(map[string]bool, len(names))
	if len(names) == 0 {
		return known, nil
	}

	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT property_name
		FROM characteristics
		WHERE property_name = ANY($1) AND service_scope IN ($2, '*') AND is_active`,
		pq.Array(names), string(service))
	if err != nil {
		return nil, queryFailed("find characteristics", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, queryFailed("scan characteristic", err)
		}
		known[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed("find characteristics", err)
	}
	return known, nil
}

func (r *PlacementRepository) InsertRequirements(ctx context.Context, p *models.PlacementRequirements) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO placement_requirements
		    (id, assessment_id, application_id, gender, ap_type, postcode_district_id,
		     radius, essential_criteria, desirable_criteria, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.AssessmentID, p.ApplicationID, string(p.Gender), string(p.ApType), p.PostcodeDistrictID,
		p.Radius, pq.Array(p.EssentialCriteria), pq.Array(p.DesirableCriteria), p.CreatedAt,
	)
	if err != nil {
		return queryFailed("insert placement requirements", err)
	}
	return nil
}

func (r *PlacementRepository) InsertRequest(ctx context.Context, p *models.PlacementRequest) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO placement_requests
		    (id, placement_requirements_id, assessment_id, application_id, expected_arrival,
		     duration, notes, is_parole, source, placement_application_id, created_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.PlacementRequirementsID, p.AssessmentID, p.ApplicationID, p.ExpectedArrival.Time,
		p.Duration, nullStringPtr(p.Notes), p.IsParole, string(p.Source), nullUUID(p.PlacementApplicationID),
		p.CreatedByUserID, p.CreatedAt,
	)
	if err != nil {
		return queryFailed("insert placement request", err)
	}
	return nil
}
