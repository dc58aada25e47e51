package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, "My Mac", cfg.Calendar.SourceName)
	assert.Equal(t, 14, cfg.Calendar.DaysAhead)
	assert.Equal(t, 15, cfg.Sync.IntervalMinutes)
	assert.Empty(t, cfg.Calendar.ExcludeKeywords)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  api_key: secret
calendar:
  exclude_keywords: [lunch, gym]
  days_ahead: 3
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, []string{"lunch", "gym"}, cfg.Calendar.ExcludeKeywords)
	assert.Equal(t, 3, cfg.Calendar.DaysAhead)
	assert.Equal(t, "My Mac", cfg.Calendar.SourceName)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  api_key: from-file\n"), 0o600))

	t.Setenv("DATESTACK_SERVER__API_KEY", "from-env")
	t.Setenv("DATESTACK_CALENDAR__SOURCE_NAME", "Work Laptop")
	t.Setenv("DATESTACK_SYNC__INTERVAL_MINUTES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Server.APIKey)
	assert.Equal(t, "Work Laptop", cfg.Calendar.SourceName)
	assert.Equal(t, 5, cfg.Sync.IntervalMinutes)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"server.api_key is required"}, cfg.Validate())
	assert.EqualError(t, cfg.Err(), "configuration errors: server.api_key is required")

	cfg.Server.URL = ""
	cfg.Calendar.SourceName = ""
	assert.Len(t, cfg.Validate(), 3)

	cfg = DefaultConfig()
	cfg.Server.APIKey = "k"
	assert.Empty(t, cfg.Validate())
	assert.NoError(t, cfg.Err())
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	created, err := Init(path)
	require.NoError(t, err)
	assert.True(t, created)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# DateStack Client Configuration")
	assert.Contains(t, text, "# URL of your DateStack server")
	assert.Contains(t, text, "# Interval in minutes for daemon mode")
	assert.Contains(t, text, "url: http://localhost:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	created, err = Init(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.APIKey = "abc"
	cfg.Calendar.ExcludeCalendars = []string{"Birthdays"}
	cfg.Sync.Listen = "127.0.0.1:8765"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEncode_CommentsFollowKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calendar.SourceName = "Work Laptop"

	data, err := Encode(cfg)
	require.NoError(t, err)

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "source_name: Work Laptop" {
			require.Positive(t, i)
			assert.Equal(t, "# Name for this calendar source (shown in the web UI)", strings.TrimSpace(lines[i-1]))
			return
		}
	}
	t.Fatalf("source_name not found in:\n%s", data)
}

func TestMaskedKey(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "(not set)", cfg.MaskedKey())
	cfg.Server.APIKey = "secret"
	assert.Equal(t, "********", cfg.MaskedKey())
}
