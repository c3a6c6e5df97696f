package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
jwt_secret: from-file
access_token_lifetime_ms: 60000
server:
  port: 9090
database:
  name: accounts
policy:
  model_path: casbin/model.conf
  policy_path: casbin/policy.csv
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, time.Minute, cfg.AccessTokenLifetime())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenLifetime())
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, 4, cfg.Server.Workers)
	assert.Equal(t, "postgres://postgres:@localhost:5432/accounts?sslmode=disable", cfg.Database.ConnString())
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout())
	assert.Equal(t, "casbin/policy.csv", cfg.Policy.PolicyPath)
	assert.Equal(t, "none", cfg.Cache.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, "jwt_secret: from-file\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_WORKERS", "8")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 8, cfg.Server.Workers)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.ConnString())
}

func TestLoad_MissingSecret(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestValidate(t *testing.T) {
	valid := Config{
		JWTSecret:              "s",
		AccessTokenLifetimeMs:  1,
		RefreshTokenLifetimeMs: 1,
		Server:                 ServerConfig{Port: 8080, Workers: 1},
		Cache:                  CacheConfig{Driver: "memory"},
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Server.Workers = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.AccessTokenLifetimeMs = -5
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Cache.Driver = "memcached"
	assert.Error(t, bad.Validate())
}
