package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("overrides keep unspecified defaults", func(t *testing.T) {
		path := writeConfig(t, `
reconcile:
  absolute_tolerance: "2.50"
  max_group_size: 3
storage:
  database_path: runs.db
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "2.50", cfg.Reconcile.AbsoluteTolerance)
		assert.Equal(t, "5", cfg.Reconcile.PercentTolerance)
		assert.Equal(t, 3, cfg.Reconcile.MaxGroupSize)
		assert.Equal(t, 0, cfg.Reconcile.MaxGroupCandidates)
		assert.Equal(t, "runs.db", cfg.Storage.DatabasePath)
		assert.Equal(t, 3000, cfg.Server.Port)
	})

	t.Run("expands environment variables", func(t *testing.T) {
		t.Setenv("TEST_RECON_DB", "/tmp/recon.db")
		path := writeConfig(t, "storage:\n  database_path: ${TEST_RECON_DB}\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/recon.db", cfg.Storage.DatabasePath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "reconcile: [unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECON_DB_PATH", "test.db")
	t.Setenv("RECON_PCT_TOLERANCE", "2")
	t.Setenv("RECON_WORKERS", "3")
	t.Setenv("PORT", "8080")
	t.Setenv("RECON_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadFromEnv()

	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "2", cfg.Reconcile.PercentTolerance)
	assert.Equal(t, 3, cfg.Reconcile.Workers)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadOrEnvWithPath_FallsBackToEnv(t *testing.T) {
	t.Setenv("RECON_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestReconcileConfig_ToReconciler(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rc, err := Default().Reconcile.ToReconciler()
		require.NoError(t, err)

		assert.True(t, decimal.NewFromInt(10).Equal(rc.Matcher.Tolerance.Absolute))
		assert.True(t, decimal.NewFromInt(5).Equal(rc.Matcher.Tolerance.Percent))
		assert.Equal(t, 5, rc.Matcher.MaxGroupSize)
		assert.Equal(t, 60*time.Second, rc.Timeout)
	})

	t.Run("empty tolerances mean exact only", func(t *testing.T) {
		rc, err := ReconcileConfig{}.ToReconciler()
		require.NoError(t, err)

		assert.True(t, rc.Matcher.Tolerance.Absolute.IsZero())
		assert.True(t, rc.Matcher.Tolerance.Percent.IsZero())
		assert.Equal(t, time.Duration(0), rc.Timeout)
		assert.Equal(t, 5, rc.Matcher.MaxGroupSize)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := ReconcileConfig{AbsoluteTolerance: "ten"}.ToReconciler()
		assert.Error(t, err)

		_, err = ReconcileConfig{Timeout: "soon"}.ToReconciler()
		assert.Error(t, err)
	})
}
