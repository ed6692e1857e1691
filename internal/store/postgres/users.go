package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"approved-premises-workers/internal/common/database"
	"approved-premises-workers/internal/models"

	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("USER_NOT_FOUND")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByDeliusUsername loads a user with their roles and qualifications.
func (r *UserRepository) FindByDeliusUsername(ctx context.Context, username string) (*models.User, error) {
	var (
		u              models.User
		email          sql.NullString
		roles          []string
		qualifications []string
	)

	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT u.id, u.delius_username, u.name, u.email, u.probation_region_id,
		       COALESCE(ARRAY(SELECT role FROM user_role_assignments WHERE user_id = u.id ORDER BY role), '{}'),
		       COALESCE(ARRAY(SELECT qualification FROM user_qualification_assignments WHERE user_id = u.id ORDER BY qualification), '{}')
		FROM users u
		WHERE u.delius_username = $1`, username).Scan(
		&u.ID, &u.DeliusUsername, &u.Name, &email, &u.ProbationRegionID,
		pq.Array(&roles), pq.Array(&qualifications),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, queryFailed("find user", err)
	}

	u.Email = email.String
	for _, role := range roles {
		u.Roles = append(u.Roles, models.UserRole(role))
	}
	for _, q := range qualifications {
		u.Qualifications = append(u.Qualifications, models.UserQualification(q))
	}
	return &u, nil
}
