package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "fitness_social", cfg.Database.Name)
	assert.Equal(t, "avatars/", cfg.S3.AvatarPrefix)
	assert.Equal(t, 15*time.Minute, cfg.S3.URLExpiry)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Identity.CacheTTL)
	assert.Equal(t, 10, cfg.Feed.DefaultPageSize)
	assert.Equal(t, 50, cfg.Feed.MaxPageSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Stdout)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  driver: memory
identity:
  timeout: 2s
feed:
  max_page_size: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("FEED_DEFAULT_PAGE_SIZE", "5")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 20, cfg.Feed.MaxPageSize)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5, cfg.Feed.DefaultPageSize)
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
