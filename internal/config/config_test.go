package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 30*time.Minute, cfg.Retention.SweepInterval)
	require.Equal(t, 200, cfg.Retention.SweepBatchSize)
	require.Equal(t, "./uploads", cfg.Uploads.Root)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("SWEEP_BATCH_SIZE", "50")

	cfg := Load()

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 5*time.Minute, cfg.Retention.SweepInterval)
	require.Equal(t, 50, cfg.Retention.SweepBatchSize)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")
	t.Setenv("SWEEP_BATCH_SIZE", "lots")

	cfg := Load()

	require.Equal(t, 30*time.Minute, cfg.Retention.SweepInterval)
	require.Equal(t, 200, cfg.Retention.SweepBatchSize)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:         "db.internal",
			Port:         "3307",
			Username:     "app",
			Password:     "pw",
			DatabaseName: "maggram_db",
		},
	}

	require.Equal(t,
		"app:pw@tcp(db.internal:3307)/maggram_db?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DSN())
}

func TestDSNDefaultsHostPort(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Username: "app", DatabaseName: "maggram_db"}}

	require.Contains(t, cfg.DSN(), "tcp(localhost:3306)")
}
