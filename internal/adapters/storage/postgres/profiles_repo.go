package postgres

import (
	"context"
	"database/sql"

	"petguard/internal/domain/profiles"
	"petguard/internal/platform/apperr"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) Create(ctx context.Context, p profiles.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (
			id, user_id, full_name, phone, email, max_pets, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		p.ID, p.UserID, p.FullName, p.Phone, p.Email, p.MaxPets, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "profiles_user_id_key") {
			return profiles.ErrAlreadyExists
		}
		return apperr.Transient(err, "insert profile")
	}
	return nil
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (profiles.Profile, error) {
	var p profiles.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, phone, email, max_pets, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Phone, &p.Email, &p.MaxPets, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return profiles.Profile{}, notFoundOr(err, "get profile")
	}
	return p, nil
}

// Update no modifica max_pets: la cuota la administra el plan, no el usuario.
func (r *ProfilesRepo) Update(ctx context.Context, p profiles.Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = $2, phone = $3, updated_at = $4
		WHERE user_id = $1
	`, p.UserID, p.FullName, p.Phone, p.UpdatedAt)
	if err != nil {
		return apperr.Transient(err, "update profile")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
