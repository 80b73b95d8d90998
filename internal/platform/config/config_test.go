package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func localSecrets() []string {
	return []string{
		"PETGUARD_AUTH_LOCAL_ACCESS_SECRET=access-secret",
		"PETGUARD_AUTH_LOCAL_REFRESH_SECRET=refresh-secret",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{SearchPaths: []string{t.TempDir()}, Environ: environ(localSecrets()...)})
	require.NoError(t, err)

	assert.Equal(t, GuardModeSession, cfg.Guard.Mode)
	assert.Equal(t, []string{"/dashboard"}, cfg.Guard.ProtectedPrefixes)
	assert.Equal(t, "/auth/login", cfg.Guard.LoginPath)
	assert.Equal(t, time.Hour, cfg.Guard.Maintenance.RetryAfter)
	assert.Equal(t, 5*time.Second, cfg.ClientGuard.Timeout)
	assert.Equal(t, 3, cfg.Pets.DefaultMaxPets)
	assert.Equal(t, int64(5*1024*1024), cfg.Photos.MaxBytes)
	assert.Equal(t, "access-secret", cfg.Auth.Local.AccessSecret)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
guard:
  mode: basic
  basic:
    username: admin
    password: from-file
`), 0o600))

	cfg, err := Load(LoadOptions{
		SearchPaths: []string{dir},
		Environ: environ(append(localSecrets(),
			"PETGUARD_GUARD_BASIC_PASSWORD=from-env",
			"PETGUARD_GUARD_PROTECTED_PREFIXES=/dashboard,/account",
			"PETGUARD_CLIENT_GUARD_TIMEOUT=2s",
			"OTHER_APP_VAR=ignored",
		)...),
	})
	require.NoError(t, err)

	assert.Equal(t, GuardModeBasic, cfg.Guard.Mode)
	assert.Equal(t, "admin", cfg.Guard.Basic.Username)
	assert.Equal(t, "from-env", cfg.Guard.Basic.Password)
	assert.Equal(t, []string{"/dashboard", "/account"}, cfg.Guard.ProtectedPrefixes)
	assert.Equal(t, 2*time.Second, cfg.ClientGuard.Timeout)
}

func TestLoad_MaintenanceFlagFromEnv(t *testing.T) {
	cfg, err := Load(LoadOptions{
		SearchPaths: []string{t.TempDir()},
		Environ:     environ(append(localSecrets(), "PETGUARD_GUARD_MODE=Maintenance")...),
	})
	require.NoError(t, err)
	assert.Equal(t, GuardModeMaintenance, cfg.Guard.Mode)
}

func TestLoad_RejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  []string
	}{
		{"basic without credentials", append(localSecrets(), "PETGUARD_GUARD_MODE=basic")},
		{"unknown mode", append(localSecrets(), "PETGUARD_GUARD_MODE=open")},
		{"local without secrets", nil},
		{"gotrue without key", []string{"PETGUARD_AUTH_PROVIDER=gotrue", "PETGUARD_AUTH_GOTRUE_URL=https://x.supabase.co"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(LoadOptions{SearchPaths: []string{t.TempDir()}, Environ: environ(tt.env...)})
			assert.Error(t, err)
		})
	}
}

func TestCanonicalizeEnvKey(t *testing.T) {
	existing := map[string]any{
		"auth": map[string]any{
			"gotrue": map[string]any{"url": "", "anonKey": ""},
			"local":  map[string]any{"accessSecret": ""},
		},
		"clientGuard": map[string]any{"timeout": "5s"},
		"http":        map[string]any{"publicBaseURL": ""},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "AUTH_GOTRUE_ANON_KEY", want: "auth.gotrue.anonKey"},
		{envKey: "AUTH_GOTRUE_ANONKEY", want: "auth.gotrue.anonKey"},
		{envKey: "AUTH_LOCAL_ACCESS_SECRET", want: "auth.local.accessSecret"},
		{envKey: "CLIENT_GUARD_TIMEOUT", want: "clientGuard.timeout"},
		{envKey: "HTTP_PUBLIC_BASE_URL", want: "http.publicBaseURL"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}
	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}
