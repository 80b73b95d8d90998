package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/platform/apperr"
)

func TestIsUniqueViolation(t *testing.T) {
	shortID := &pgconn.PgError{Code: "23505", ConstraintName: "pets_short_id_key"}
	wrapped := fmt.Errorf("exec: %w", shortID)

	assert.True(t, isUniqueViolation(shortID, "pets_short_id_key"))
	assert.True(t, isUniqueViolation(wrapped, "pets_short_id_key"))
	assert.True(t, isUniqueViolation(shortID, ""))
	assert.False(t, isUniqueViolation(shortID, "profiles_user_id_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("boom"), ""))
}

func TestNotFoundOr(t *testing.T) {
	assert.ErrorIs(t, notFoundOr(sql.ErrNoRows, "get"), apperr.ErrNotFound)

	err := notFoundOr(errors.New("connection reset"), "get pet")
	assert.ErrorIs(t, err, apperr.ErrTransientStore)
	assert.Contains(t, err.Error(), "get pet")
}

func TestMigrationsEmbedded(t *testing.T) {
	up, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CONSTRAINT pets_short_id_key UNIQUE (short_id)")
	assert.Contains(t, string(up), "CONSTRAINT profiles_user_id_key UNIQUE (user_id)")

	_, err = fs.ReadFile(migrationsFS, "migrations/000001_init.down.sql")
	require.NoError(t, err)
}
