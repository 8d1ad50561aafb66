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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.Sessions.Backend)
	assert.Equal(t, "http://localhost:8080", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 720*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, "access_token", cfg.Cookies.AccessName)
	assert.Equal(t, "refresh_token", cfg.Cookies.RefreshName)
	assert.Equal(t, "Lax", cfg.Cookies.SameSite)
	assert.False(t, cfg.Cookies.Secure)
	assert.Equal(t, 10, cfg.Rate.Login.Limit)
	assert.Equal(t, 30, cfg.Rate.Refresh.Limit)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: staging
  log_level: debug
server:
  addr: ":9000"
jwt:
  issuer: https://auth.shop.example
  access_ttl: 5m
sessions:
  backend: redis
  redis:
    addr: localhost:6379
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "https://auth.shop.example", cfg.JWT.Issuer)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL())
	assert.Equal(t, "redis", cfg.Sessions.Backend)
	assert.Equal(t, "shopauth:", cfg.Sessions.Redis.Prefix)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("JWT_ISSUER", "https://env.example")
	t.Setenv("JWT_ACCESS_TTL", "2m")
	t.Setenv("SESSIONS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("COOKIES_SECURE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "https://env.example", cfg.JWT.Issuer)
	assert.Equal(t, 2*time.Minute, cfg.AccessTTL())
	assert.Equal(t, "redis", cfg.Sessions.Backend)
	assert.Equal(t, "redis:6379", cfg.Sessions.Redis.Addr)
	assert.True(t, cfg.Cookies.Secure)
}

func TestLoad_ProdForcesSecureCookies(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("COOKIES_SECURE", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Cookies.Secure, "prod must force Secure cookies")
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"unknown sessions backend", map[string]string{"SESSIONS_BACKEND": "kafka"}},
		{"redis without addr", map[string]string{"SESSIONS_BACKEND": "redis"}},
		{"pg sessions without pg storage", map[string]string{"SESSIONS_BACKEND": "postgres"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  access_ttl: soon\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
