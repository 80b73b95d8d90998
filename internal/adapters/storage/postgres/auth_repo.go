package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"petguard/internal/adapters/auth/local"
	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

// AuthStore implementa local.UserStore y local.SessionStore sobre auth_users / auth_sessions.
type AuthStore struct {
	db *sql.DB
}

func NewAuthStore(db *sql.DB) *AuthStore {
	return &AuthStore{db: db}
}

func (s *AuthStore) CreateUser(ctx context.Context, u local.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_users (id, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4)
	`, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return auth.ErrEmailTaken
		}
		return apperr.Transient(err, "insert user")
	}
	return nil
}

func (s *AuthStore) UserByEmail(ctx context.Context, email string) (local.User, error) {
	return s.user(ctx, `WHERE lower(email) = $1`, strings.ToLower(email))
}

func (s *AuthStore) UserByID(ctx context.Context, id string) (local.User, error) {
	return s.user(ctx, `WHERE id = $1`, id)
}

func (s *AuthStore) user(ctx context.Context, where string, arg string) (local.User, error) {
	var u local.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM auth_users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return local.User{}, notFoundOr(err, "get user")
	}
	return u, nil
}

func (s *AuthStore) CreateSession(ctx context.Context, rs local.RefreshSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, user_id, expires_at, revoked_at, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, rs.ID, rs.UserID, rs.ExpiresAt, nullTime(rs.RevokedAt), rs.CreatedAt)
	if err != nil {
		return apperr.Transient(err, "insert session")
	}
	return nil
}

func (s *AuthStore) GetSession(ctx context.Context, id string) (local.RefreshSession, error) {
	var rs local.RefreshSession
	var revoked sql.NullTime
	var replacedBy sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, revoked_at, replaced_by, created_at
		FROM auth_sessions
		WHERE id = $1
	`, id).Scan(&rs.ID, &rs.UserID, &rs.ExpiresAt, &revoked, &replacedBy, &rs.CreatedAt)
	if err != nil {
		return local.RefreshSession{}, notFoundOr(err, "get session")
	}
	if revoked.Valid {
		t := revoked.Time
		rs.RevokedAt = &t
	}
	rs.ReplacedBy = replacedBy.String
	return rs, nil
}

// RevokeSession es idempotente: conserva la primera fecha de revocación.
func (s *AuthStore) RevokeSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE auth_sessions
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE id = $1
	`, id, at)
	if err != nil {
		return apperr.Transient(err, "revoke session")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RotateSession inserta la hija y revoca la madre en la misma transacción.
// El UPDATE condicional hace de check-and-set: de dos rotaciones concurrentes
// solo una encuentra revoked_at en NULL.
func (s *AuthStore) RotateSession(ctx context.Context, id string, next local.RefreshSession, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Transient(err, "begin session rotation")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, user_id, expires_at, created_at)
		VALUES ($1,$2,$3,$4)
	`, next.ID, next.UserID, next.ExpiresAt, next.CreatedAt); err != nil {
		return apperr.Transient(err, "insert rotated session")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE auth_sessions
		SET revoked_at = $2, replaced_by = $3
		WHERE id = $1 AND revoked_at IS NULL
	`, id, at, next.ID)
	if err != nil {
		return apperr.Transient(err, "rotate session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM auth_sessions WHERE id = $1`, id).Scan(&one)
		if err != nil {
			return notFoundOr(err, "get rotated session")
		}
		return local.ErrAlreadyRotated
	}

	if err := tx.Commit(); err != nil {
		return apperr.Transient(err, "commit session rotation")
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
