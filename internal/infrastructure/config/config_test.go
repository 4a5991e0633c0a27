package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetCalibraEnv clears every CALIBRA_ variable for the duration of the test
func unsetCalibraEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "CALIBRA_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		unsetCalibraEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "calibra-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "calibra", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, 1, cfg.Scheduler.BillingDay)
		assert.Equal(t, 6, cfg.Scheduler.BillingHour)
		assert.Equal(t, time.Hour, cfg.Scheduler.FiscalRetransmitInterval)
		assert.Equal(t, 10, cfg.Queue.Concurrency)
		assert.Equal(t, 6, cfg.Queue.Queues["critical"])
		assert.Equal(t, "local", cfg.Storage.Driver)
		assert.Equal(t, 30*time.Second, cfg.Fiscal.Timeout)
		assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)
		assert.Equal(t, 100, cfg.Log.MaxSizeMB)
	})

	t.Run("loads values from environment variables with CALIBRA prefix", func(t *testing.T) {
		unsetCalibraEnv(t)
		t.Setenv("CALIBRA_APP_NAME", "test-app")
		t.Setenv("CALIBRA_APP_ENV", "testing")
		t.Setenv("CALIBRA_APP_PORT", "9000")
		t.Setenv("CALIBRA_DATABASE_HOST", "testdb.local")
		t.Setenv("CALIBRA_DATABASE_PORT", "5433")
		t.Setenv("CALIBRA_DATABASE_USER", "testuser")
		t.Setenv("CALIBRA_DATABASE_PASSWORD", "testpass")
		t.Setenv("CALIBRA_DATABASE_DBNAME", "testdb")
		t.Setenv("CALIBRA_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("CALIBRA_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("CALIBRA_SCHEDULER_BILLING_DAY", "5")
		t.Setenv("CALIBRA_FISCAL_BASE_URL", "https://fiscal.example.com")
		t.Setenv("CALIBRA_STORAGE_DRIVER", "s3")
		t.Setenv("CALIBRA_STORAGE_BUCKET", "calibra-docs")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5, cfg.Scheduler.BillingDay)
		assert.Equal(t, "https://fiscal.example.com", cfg.Fiscal.BaseURL)
		assert.Equal(t, "s3", cfg.Storage.Driver)
		assert.Equal(t, "calibra-docs", cfg.Storage.Bucket)
	})

	t.Run("fails when max_idle_conns exceeds max_open_conns", func(t *testing.T) {
		unsetCalibraEnv(t)
		t.Setenv("CALIBRA_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("CALIBRA_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		unsetCalibraEnv(t)
		t.Setenv("CALIBRA_STORAGE_DRIVER", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver must be local or s3")
	})

	t.Run("requires bucket for s3 storage", func(t *testing.T) {
		unsetCalibraEnv(t)
		t.Setenv("CALIBRA_STORAGE_DRIVER", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket is required")
	})

	t.Run("rejects billing day past the 28th", func(t *testing.T) {
		unsetCalibraEnv(t)
		t.Setenv("CALIBRA_SCHEDULER_BILLING_DAY", "31")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.billing_day")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		unsetCalibraEnv(t)
		t.Setenv("CALIBRA_APP_ENV", "production")
		t.Setenv("CALIBRA_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("CALIBRA_DATABASE_PASSWORD", "secure-password")
		t.Setenv("CALIBRA_DATABASE_SSLMODE", "require")
		t.Setenv("CALIBRA_SWAGGER_ENABLED", "false")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CALIBRA_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CALIBRA_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CALIBRA_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CALIBRA_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("fails if swagger enabled without protection in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CALIBRA_SWAGGER_ENABLED", "true")
		t.Setenv("CALIBRA_SWAGGER_REQUIRE_AUTH", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled, require authentication, or have IP restriction")
	})

	t.Run("passes with swagger enabled and require_auth in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CALIBRA_SWAGGER_ENABLED", "true")
		t.Setenv("CALIBRA_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Swagger.RequireAuth)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "calibra", Password: "p@ss", DBName: "calibra", SSLMode: "disable"}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://calibra:p%40ss@db:5432/calibra")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestSchedulerConfig_Location(t *testing.T) {
	assert.Equal(t, "UTC", (&SchedulerConfig{Timezone: "Nowhere/Invalid"}).Location().String())
	assert.Equal(t, "America/Sao_Paulo", (&SchedulerConfig{Timezone: "America/Sao_Paulo"}).Location().String())
}

func TestLoad_DecodesEnvironmentTypes(t *testing.T) {
	unsetCalibraEnv(t)
	t.Setenv("CALIBRA_QUEUE_QUEUES", `{"critical":9,"low":2}`)
	t.Setenv("CALIBRA_HTTP_CORS_ALLOW_ORIGINS", "https://app.calibra.io,https://admin.calibra.io")
	t.Setenv("CALIBRA_JWT_ACCESS_TOKEN_EXPIRATION", "5m")
	t.Setenv("CALIBRA_HTTP_MAX_BODY_SIZE", "1048576")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"critical": 9, "low": 2}, cfg.Queue.Queues)
	assert.Equal(t, []string{"https://app.calibra.io", "https://admin.calibra.io"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodySize)
	assert.True(t, cfg.HTTP.AuthRateLimitEnabled)
	assert.True(t, cfg.Authz.Enabled)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	unsetCalibraEnv(t)
	t.Setenv("CALIBRA_STORAGE_DRIVER", "ftp")
	t.Setenv("CALIBRA_SCHEDULER_BILLING_DAY", "0")
	t.Setenv("CALIBRA_TELEMETRY_SAMPLING_RATIO", "2")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "scheduler.billing_day")
	assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
}
