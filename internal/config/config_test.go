package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/billing")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10*time.Minute, cfg.IdempotencySweepInterval)
	assert.Equal(t, 30, cfg.DBConnectAttempts)
	assert.Equal(t, "production", cfg.AppEnv)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonPositiveExpiry(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/billing")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRY", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_EXPIRY")
}

func TestLoadDatabase_IgnoresMissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/billing")
	t.Setenv("JWT_SECRET", "")

	db, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/billing", db.DatabaseURL)
	assert.Equal(t, 25, db.DBMaxOpenConns)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9090\n"), 0o600))
	t.Setenv("DATABASE_URL", "postgres://localhost/billing")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	require.NoError(t, os.Unsetenv("PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}
