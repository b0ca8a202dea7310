package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qaforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"PORT", "DB_PATH", "QUOTA_FILE", "QA_ENFORCE_QUOTA", "SESSION_TTL", "SESSION_CLEANUP_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.EnforceQuota)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "qaforum.db"), cfg.DBPath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("QA_ENFORCE_QUOTA", "true")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.True(t, cfg.EnforceQuota)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("negative ttl", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "-1h")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("not a duration", func(t *testing.T) {
		t.Setenv("SESSION_CLEANUP_INTERVAL", "often")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, (&Config{LogLevel: in}).SlogLevel(), in)
	}
}

func TestParseQuotaTable(t *testing.T) {
	table, err := ParseQuotaTable([]byte(`
limits:
  student: {questions: 1, answers: 2}
  user:    {questions: 5, answers: 10}
  expert:  {questions: -1, answers: -1}
`))
	require.NoError(t, err)
	assert.Equal(t, models.QuotaLimit{Questions: 1, Answers: 2}, table[models.RoleStudent])
	assert.Equal(t, models.QuotaLimit{Questions: 5, Answers: 10}, table[models.RoleUser])
	assert.Equal(t, models.QuotaLimit{Questions: -1, Answers: -1}, table[models.RoleExpert])
	_, ok := table[models.RoleAdmin]
	assert.False(t, ok, "роли без записи не ограничены")

	_, err = ParseQuotaTable([]byte("limits:\n  wizard: {questions: 1, answers: 1}\n"))
	assert.Error(t, err, "неизвестная роль")

	_, err = ParseQuotaTable([]byte("limits: [1, 2"))
	assert.Error(t, err)
}

func TestLoadQuotaTable(t *testing.T) {
	table, err := LoadQuotaTable("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultQuotaTable(), table)

	path := filepath.Join(t.TempDir(), "quotas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  user: {questions: 2, answers: 4}\n"), 0o600))
	table, err = LoadQuotaTable(path)
	require.NoError(t, err)
	assert.Equal(t, models.QuotaTable{models.RoleUser: {Questions: 2, Answers: 4}}, table)

	_, err = LoadQuotaTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
