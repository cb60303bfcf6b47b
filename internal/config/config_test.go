package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "fieldforce", cfg.Database.DBName)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.True(t, cfg.Auth.DevTokens)
	assert.False(t, cfg.SMTP.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
env: production
server:
  port: 9090
database:
  host: db.internal
  dbname: fieldforce_prod
auth:
  secret: super-secret
storage:
  driver: s3
  bucket: reports
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, IsProduction(cfg))
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "fieldforce_prod", cfg.Database.DBName)
	assert.Equal(t, "super-secret", cfg.Auth.Secret)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "reports", cfg.Storage.Bucket)

	// untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
