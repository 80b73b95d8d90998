package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petguard/internal/domain/pets"
	"petguard/internal/platform/apperr"
)

const petColumns = `
	id, short_id, owner_user_id,
	name, breed, age, medical_conditions, photo_url, reward,
	is_active, created_at, updated_at`

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

// CreateWithinQuota serializa las altas del mismo dueño con un advisory lock
// de transacción: el conteo y el insert ven el mismo estado.
func (r *PetsRepo) CreateWithinQuota(ctx context.Context, p pets.Pet, max int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Transient(err, "begin pet insert")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.OwnerUserID); err != nil {
		return apperr.Transient(err, "lock owner quota")
	}

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM pets WHERE owner_user_id = $1`, p.OwnerUserID,
	).Scan(&n); err != nil {
		return apperr.Transient(err, "count pets")
	}
	if n >= max {
		return &apperr.QuotaError{Current: n, Max: max}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		p.ID, p.ShortID, p.OwnerUserID,
		p.Name, p.Breed, p.Age, p.MedicalConditions, p.PhotoURL, p.Reward,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "pets_short_id_key") {
			return pets.ErrShortIDTaken
		}
		return apperr.Transient(err, "insert pet")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Transient(err, "commit pet insert")
	}
	return nil
}

// Update no toca short_id, owner_user_id ni created_at.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			breed = $3,
			age = $4,
			medical_conditions = $5,
			photo_url = $6,
			reward = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Breed,
		p.Age,
		p.MedicalConditions,
		p.PhotoURL,
		p.Reward,
		p.IsActive,
		p.UpdatedAt,
	)
	if err != nil {
		return apperr.Transient(err, "update pet")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, apperr.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, notFoundOr(err, "get pet")
	}
	return p, nil
}

func (r *PetsRepo) GetByShortID(ctx context.Context, shortID string) (pets.Pet, error) {
	if shortID == "" {
		return pets.Pet{}, apperr.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE short_id = $1`, shortID)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, notFoundOr(err, "get pet by short id")
	}
	return p, nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return []pets.Pet{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerUserID)
	if err != nil {
		return nil, apperr.Transient(err, "list pets")
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, apperr.Transient(err, "scan pet")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient(err, "list pets")
	}
	return out, nil
}

func (r *PetsRepo) CountByOwner(ctx context.Context, ownerUserID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM pets WHERE owner_user_id = $1`, ownerUserID,
	).Scan(&n)
	if err != nil {
		return 0, apperr.Transient(err, "count pets")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPet(s scanner) (pets.Pet, error) {
	var p pets.Pet
	err := s.Scan(
		&p.ID, &p.ShortID, &p.OwnerUserID,
		&p.Name, &p.Breed, &p.Age, &p.MedicalConditions, &p.PhotoURL, &p.Reward,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
