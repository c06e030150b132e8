package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir()) // no .env here
	for _, k := range []string{"PORT", "ENVIRONMENT", "STORE_DRIVER", "JWT_SECRET", "TOKEN_TTL_HOURS",
		"REDIS_URL", "FRONTEND_URL", "FLAG_STRICT_DELETE", "REVOCATION_SWEEP_SECONDS"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.StrictDelete)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("FRONTEND_URL", "https://app.example.com, https://admin.example.com")
	t.Setenv("FLAG_STRICT_DELETE", "true")
	t.Setenv("TOKEN_TTL_HOURS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.StrictDelete)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"port":         {"PORT", "abc"},
		"store driver": {"STORE_DRIVER", "sqlite"},
		"token ttl":    {"TOKEN_TTL_HOURS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cr3t")
	_, err = Load()
	require.NoError(t, err)
}
