package postgres

import (
	"context"
	"database/sql"

	"petguard/internal/domain/reports"
	"petguard/internal/platform/apperr"
)

type ReportsRepo struct {
	db *sql.DB
}

func NewReportsRepo(db *sql.DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

func (r *ReportsRepo) Create(ctx context.Context, rep reports.FoundReport) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO found_reports (
			id, pet_id,
			finder_name, finder_phone, finder_email,
			location, latitude, longitude, message,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		rep.ID, rep.PetID,
		rep.FinderName, rep.FinderPhone, rep.FinderEmail,
		rep.Location, nullFloat(rep.Latitude), nullFloat(rep.Longitude), rep.Message,
		rep.CreatedAt,
	)
	if err != nil {
		return apperr.Transient(err, "insert found report")
	}
	return nil
}

// ListByPets usa ANY($1): pgx codifica []string como text[].
func (r *ReportsRepo) ListByPets(ctx context.Context, petIDs []string) ([]reports.FoundReport, error) {
	out := make([]reports.FoundReport, 0)
	if len(petIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, pet_id,
			finder_name, finder_phone, finder_email,
			location, latitude, longitude, message,
			created_at
		FROM found_reports
		WHERE pet_id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`, petIDs)
	if err != nil {
		return nil, apperr.Transient(err, "list found reports")
	}
	defer rows.Close()

	for rows.Next() {
		var rep reports.FoundReport
		var lat, lng sql.NullFloat64
		if err := rows.Scan(
			&rep.ID, &rep.PetID,
			&rep.FinderName, &rep.FinderPhone, &rep.FinderEmail,
			&rep.Location, &lat, &lng, &rep.Message,
			&rep.CreatedAt,
		); err != nil {
			return nil, apperr.Transient(err, "scan found report")
		}
		if lat.Valid && lng.Valid {
			rep.Latitude = &lat.Float64
			rep.Longitude = &lng.Float64
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient(err, "list found reports")
	}
	return out, nil
}

func (r *ReportsRepo) CountByPets(ctx context.Context, petIDs []string) (int, error) {
	if len(petIDs) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM found_reports WHERE pet_id = ANY($1)`, petIDs,
	).Scan(&n)
	if err != nil {
		return 0, apperr.Transient(err, "count found reports")
	}
	return n, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
