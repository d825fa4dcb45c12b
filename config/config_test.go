package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_CODE", "admin-secret")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "5000", cfg.Port)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	require.Equal(t, BackendRedis, cfg.StoreBackend)
	require.Equal(t, int64(100), cfg.RateLimitMax)
	require.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	require.False(t, cfg.IsDevelopment())
	require.Empty(t, cfg.TrustedProxies)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_CODE", "admin-secret")
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8081", cfg.Port)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, int64(5), cfg.RateLimitMax)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestValidate(t *testing.T) {
	base := Config{AdminCode: "x", StoreBackend: BackendRedis, RateLimitMax: 1, RateLimitWindow: time.Second}
	require.NoError(t, base.Validate())

	noAdmin := base
	noAdmin.AdminCode = ""
	require.Error(t, noAdmin.Validate())

	fs := base
	fs.StoreBackend = BackendFirestore
	require.Error(t, fs.Validate())
	fs.FirebaseProjectID = "tutoring"
	require.NoError(t, fs.Validate())

	unknown := base
	unknown.StoreBackend = "mongo"
	require.Error(t, unknown.Validate())

	proxies := base
	proxies.TrustedProxies = []string{"10.0.0.1", "192.168.0.0/16"}
	require.NoError(t, proxies.Validate())
	proxies.TrustedProxies = []string{"proxy.internal"}
	require.Error(t, proxies.Validate())
}
