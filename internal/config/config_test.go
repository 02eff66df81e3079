package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("USERS_SECURITY_ACCESSTOKENSECRET", "access-secret")
	t.Setenv("USERS_SECURITY_REFRESHTOKENSECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Store.Postgres.ConnectTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Security.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Security.RefreshTTL())
	assert.Equal(t, "users:events", cfg.Events.Stream)
	assert.Equal(t, 30*time.Second, cfg.Worker.ClaimInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("USERS_ENVIRONMENT", "production")
	t.Setenv("USERS_STORE_DRIVER", "memory")
	t.Setenv("USERS_SECURITY_ACCESSTOKENEXPIRE", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Security.AccessTTL())
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("ACCESS_TOKEN", "legacy-access")
	t.Setenv("REFRESH_TOKEN", "legacy-refresh")
	t.Setenv("ACCESS_TOKEN_EXPIRE", "300")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-access", cfg.Security.AccessTokenSecret)
	assert.Equal(t, "legacy-refresh", cfg.Security.RefreshTokenSecret)
	assert.Equal(t, 300*time.Minute, cfg.Security.AccessTTL())
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			Store: StoreConfig{Driver: StoreMemory},
			Security: SecurityConfig{
				AccessTokenSecret:  "a",
				RefreshTokenSecret: "b",
				AccessTokenExpire:  1,
				RefreshTokenExpire: 2,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{
			name:    "missing access secret",
			mutate:  func(c *AppConfig) { c.Security.AccessTokenSecret = "" },
			wantErr: "security.accesstokensecret is required",
		},
		{
			name:    "shared secret",
			mutate:  func(c *AppConfig) { c.Security.RefreshTokenSecret = "a" },
			wantErr: "secrets must differ",
		},
		{
			name:    "zero lifetime",
			mutate:  func(c *AppConfig) { c.Security.RefreshTokenExpire = 0 },
			wantErr: "lifetimes must be positive",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *AppConfig) { c.Store.Driver = "sqlite" },
			wantErr: `unknown store driver "sqlite"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWorker_NoSecretsNeeded(t *testing.T) {
	t.Setenv("USERS_WORKER_CONSUMER", "worker-7")

	cfg, err := LoadWorker()
	require.NoError(t, err)
	assert.Equal(t, "worker-7", cfg.Worker.Consumer)
	assert.Equal(t, "user-workers", cfg.Worker.Group)

	_, err = Load()
	assert.Error(t, err)
}

func TestValidateWorker(t *testing.T) {
	cfg := AppConfig{
		Events: EventsConfig{Stream: "users:events"},
		Worker: WorkerConfig{Group: "g", Consumer: "c", ClaimInterval: time.Second},
	}
	assert.NoError(t, cfg.ValidateWorker())

	cfg.Worker.ClaimInterval = 0
	assert.ErrorContains(t, cfg.ValidateWorker(), "claiminterval must be positive")
}
