package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_FindByDeliusUsername(t *testing.T) {
	userID := uuid.New()
	regionID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		check     func(t *testing.T, u *models.User, err error)
	}{
		{
			name: "user with roles and qualifications",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users u\s+WHERE u.delius_username = \$1`).
					WithArgs("JIMSNOWLDAP").
					WillReturnRows(sqlmock.NewRows([]string{"id", "delius_username", "name", "email", "probation_region_id", "roles", "qualifications"}).
						AddRow(userID.String(), "JIMSNOWLDAP", "Jim Snow", "jim.snow@example.com", regionID.String(),
							[]byte("{CAS1_ASSESSOR,CAS1_WORKFLOW_MANAGER}"), []byte("{LAO}")))
			},
			check: func(t *testing.T, u *models.User, err error) {
				require.NoError(t, err)
				assert.Equal(t, userID, u.ID)
				assert.Equal(t, regionID, u.ProbationRegionID)
				assert.True(t, u.HasRole(models.RoleCAS1WorkflowManager))
				assert.True(t, u.HasQualification(models.QualificationLAO))
				assert.False(t, u.HasQualification(models.QualificationPIPE))
			},
		},
		{
			name: "user without assignments",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users u`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "delius_username", "name", "email", "probation_region_id", "roles", "qualifications"}).
						AddRow(userID.String(), "JIMSNOWLDAP", "Jim Snow", nil, regionID.String(), []byte("{}"), []byte("{}")))
			},
			check: func(t *testing.T, u *models.User, err error) {
				require.NoError(t, err)
				assert.Empty(t, u.Roles)
				assert.Empty(t, u.Email)
			},
		},
		{
			name: "unknown user",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users u`).WillReturnError(sql.ErrNoRows)
			},
			check: func(t *testing.T, u *models.User, err error) {
				assert.ErrorIs(t, err, ErrUserNotFound)
				assert.Nil(t, u)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.setupMock(mock)

			u, err := NewUserRepository(db).FindByDeliusUsername(context.Background(), "JIMSNOWLDAP")

			tt.check(t, u, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSchemaRepository_NewestID(t *testing.T) {
	schemaID := uuid.New()

	t.Run("newest schema", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT id\s+FROM json_schemas\s+WHERE type = \$1\s+ORDER BY added_at DESC`).
			WithArgs("approved_premises_assessment").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(schemaID.String()))

		id, err := NewSchemaRepository(db).NewestID(context.Background(), models.SchemaKindApprovedPremisesAssessment)

		require.NoError(t, err)
		assert.Equal(t, schemaID, id)
	})

	t.Run("no schema for kind", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM json_schemas`).WillReturnError(sql.ErrNoRows)

		_, err := NewSchemaRepository(db).NewestID(context.Background(), models.SchemaKindTemporaryAccommodationAssessment)

		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeSchemaNotFound, stdErr.Code)
		assert.False(t, stdErr.Retryable)
	})

	t.Run("lookup failure is retryable", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM json_schemas`).WillReturnError(errors.New("too many connections"))

		_, err := NewSchemaRepository(db).NewestID(context.Background(), models.SchemaKindApprovedPremisesAssessment)

		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeSchemaLookupFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})
}

func TestSchemaRepository_FindByID(t *testing.T) {
	schemaID := uuid.New()
	added := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM json_schemas\s+WHERE id = \$1`).
			WithArgs(schemaID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "added_at", "schema"}).
				AddRow(schemaID.String(), "approved_premises_assessment", added, []byte(`{"type":"object"}`)))

		s, err := NewSchemaRepository(db).FindByID(context.Background(), schemaID)

		require.NoError(t, err)
		assert.Equal(t, schemaID, s.ID)
		assert.Equal(t, models.SchemaKindApprovedPremisesAssessment, s.Kind)
		assert.Equal(t, added, s.AddedAt)
		assert.Equal(t, json.RawMessage(`{"type":"object"}`), s.Schema)
	})

	t.Run("unknown id", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM json_schemas`).WillReturnError(sql.ErrNoRows)

		_, err := NewSchemaRepository(db).FindByID(context.Background(), schemaID)

		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeSchemaNotFound, stdErr.Code)
	})
}

func TestSystemNoteRepository_Add(t *testing.T) {
	db, mock := newMock(t)
	assessmentID := uuid.New()
	user := &models.User{ID: uuid.New()}
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO assessment_system_notes`).
		WithArgs(sqlmock.AnyArg(), assessmentID.String(), user.ID.String(), "READY_TO_PLACE", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSystemNoteRepository(db)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Add(context.Background(), assessmentID, user, models.SystemNoteReadyToPlace))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepository_FindPostcodeDistrict(t *testing.T) {
	districtID := uuid.New()

	t.Run("known outcode", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT id FROM postcode_districts WHERE outcode = \$1`).
			WithArgs("SW1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(districtID.String()))

		id, ok, err := NewPlacementRepository(db).FindPostcodeDistrict(context.Background(), "SW1")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, districtID, id)
	})

	t.Run("unknown outcode", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM postcode_districts`).WillReturnError(sql.ErrNoRows)

		_, ok, err := NewPlacementRepository(db).FindPostcodeDistrict(context.Background(), "ZZ99")

		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPlacementRepository_KnownCharacteristics(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM characteristics\s+WHERE property_name = ANY\(\$1\)`).
		WithArgs("{\"isCatered\",\"hasLift\"}", "approved-premises").
		WillReturnRows(sqlmock.NewRows([]string{"property_name"}).AddRow("isCatered"))

	known, err := NewPlacementRepository(db).KnownCharacteristics(context.Background(), []string{"isCatered", "hasLift"}, models.ServiceApprovedPremises)

	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"isCatered": true}, known)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepository_KnownCharacteristicsEmpty(t *testing.T) {
	db, mock := newMock(t)

	known, err := NewPlacementRepository(db).KnownCharacteristics(context.Background(), nil, models.ServiceApprovedPremises)

	require.NoError(t, err)
	assert.Empty(t, known)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepository_Inserts(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	notes := "Some Notes"

	requirements := &models.PlacementRequirements{
		ID:                 uuid.New(),
		AssessmentID:       uuid.New(),
		ApplicationID:      uuid.New(),
		Gender:             models.GenderMale,
		ApType:             models.ApTypeNormal,
		PostcodeDistrictID: uuid.New(),
		Radius:             50,
		EssentialCriteria:  []string{"isSemiSpecialistMentalHealth"},
		DesirableCriteria:  []string{"isCatered"},
		CreatedAt:          now,
	}
	request := &models.PlacementRequest{
		ID:                      uuid.New(),
		PlacementRequirementsID: requirements.ID,
		AssessmentID:            requirements.AssessmentID,
		ApplicationID:           requirements.ApplicationID,
		ExpectedArrival:         models.NewLocalDate(now),
		Duration:                12,
		Notes:                   &notes,
		Source:                  models.SourceAssessmentOfApplication,
		CreatedByUserID:         uuid.New(),
		CreatedAt:               now,
	}

	mock.ExpectExec(`INSERT INTO placement_requirements`).
		WithArgs(requirements.ID.String(), requirements.AssessmentID.String(), requirements.ApplicationID.String(),
			"male", "normal", requirements.PostcodeDistrictID.String(), 50,
			`{"isSemiSpecialistMentalHealth"}`, `{"isCatered"}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO placement_requests`).
		WithArgs(request.ID.String(), requirements.ID.String(), request.AssessmentID.String(), request.ApplicationID.String(),
			request.ExpectedArrival.Time, 12, "Some Notes", false, "ASSESSMENT_OF_APPLICATION", nil,
			request.CreatedByUserID.String(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPlacementRepository(db)
	require.NoError(t, repo.InsertRequirements(context.Background(), requirements))
	require.NoError(t, repo.InsertRequest(context.Background(), request))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDomainEventRepository(t *testing.T) {
	db, mock := newMock(t)
	assessmentID := uuid.New()
	event := &models.DomainEvent{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		AssessmentID:  &assessmentID,
		Crn:           "X320741",
		Type:          models.EventApplicationAssessed,
		OccurredAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Data:          json.RawMessage(`{"decision":"ACCEPTED"}`),
	}
	published := event.OccurredAt.Add(time.Second)

	mock.ExpectExec(`INSERT INTO domain_events`).
		WithArgs(event.ID.String(), event.ApplicationID.String(), assessmentID.String(), "X320741",
			"approved-premises.application.assessed", event.OccurredAt, `{"decision":"ACCEPTED"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE domain_events SET published_at = \$2 WHERE id = \$1`).
		WithArgs(event.ID.String(), published).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewDomainEventRepository(db)
	require.NoError(t, repo.Insert(context.Background(), event))
	require.NoError(t, repo.MarkPublished(context.Background(), event.ID, published))
	assert.NoError(t, mock.ExpectationsWereMet())
}
