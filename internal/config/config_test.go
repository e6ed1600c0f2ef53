package config_test

import (
	"testing"

	"app/internal/config"

	"github.com/stretchr/testify/assert"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_BASE_URL", "https://pay.example.com")
	t.Setenv("GATEWAY_API_KEY", "key")
	t.Setenv("GO_ENV", "test")

	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_SSLMODE", "")
	t.Setenv("REDIS_ADDR", "")
}

func setPostgresEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "orders")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "orders")
}

func TestLoad_PostgresParts(t *testing.T) {
	setBaseEnv(t)
	setPostgresEnv(t)

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.DBHost)
	//port/sslmodeだけは省略可
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t,
		"host=db.internal port=5432 user=orders password=pw dbname=orders sslmode=disable",
		cfg.DSN())
}

func TestLoad_DatabaseURLTakesPriority(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/orders")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/orders", cfg.DSN())
}

// DATABASE_URLなしでPOSTGRES_*が欠けていたら起動させない
func TestLoad_MissingDBSettings(t *testing.T) {
	cases := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"no host", "POSTGRES_HOST", "POSTGRES_HOST is required"},
		{"no user", "POSTGRES_USER", "POSTGRES_USER is required"},
		{"no password", "POSTGRES_PASSWORD", "POSTGRES_PASSWORD is required"},
		{"no dbname", "POSTGRES_DB", "POSTGRES_DB is required"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			setBaseEnv(t)
			setPostgresEnv(t)
			t.Setenv(c.unset, "")

			_, err := config.Load()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), c.wantErr)
			}
		})
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"no port", "PORT", "PORT is required"},
		{"no jwt secret", "JWT_SECRET", "JWT_SECRET is required"},
		{"no gateway url", "GATEWAY_BASE_URL", "GATEWAY_BASE_URL is required"},
		{"no gateway key", "GATEWAY_API_KEY", "GATEWAY_API_KEY is required"},
		{"no env", "GO_ENV", "GO_ENV is required"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			setBaseEnv(t)
			setPostgresEnv(t)
			t.Setenv(c.unset, "")

			_, err := config.Load()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), c.wantErr)
			}
		})
	}
}
