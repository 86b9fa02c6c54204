package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "badger", config.Storage.Type)
	assert.Equal(t, 60*time.Second, config.Monitor.Interval.Std())
	assert.Equal(t, 5, config.Quotes.Workers)
	assert.True(t, config.Sources.PRNewswire.Enabled)
	assert.False(t, config.Sources.Finviz.Enabled)
}

func TestLoadFromFiles_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floatwatch.toml")
	content := `
[logging]
level = "debug"

[storage]
type = "postgres"

[storage.postgres]
host = "db.internal"
port = 5433

[monitor]
max_pages = 7

[sources.finviz]
enabled = true
max_pages = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "postgres", config.Storage.Type)
	assert.Equal(t, "db.internal", config.Storage.Postgres.Host)
	assert.Equal(t, 5433, config.Storage.Postgres.Port)
	assert.Equal(t, 7, config.Monitor.MaxPages)
	assert.True(t, config.Sources.Finviz.Enabled)

	// Per-source override beats the monitor-wide page budget.
	assert.Equal(t, 2, config.MaxPagesFor(config.Sources.Finviz))
	assert.Equal(t, 7, config.MaxPagesFor(config.Sources.PRNewswire))
}

func TestLoadFromFiles_DurationStrings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floatwatch.toml")
	content := `
[monitor]
interval = "90s"

[quotes]
retry_delay = "500ms"
http_timeout = "1m"

[crawler]
request_timeout = "45s"
request_delay = "2s"
retry_delay = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, config.Monitor.Interval.Std())
	assert.Equal(t, 500*time.Millisecond, config.Quotes.RetryDelay.Std())
	assert.Equal(t, time.Minute, config.Quotes.HTTPTimeout.Std())
	assert.Equal(t, 45*time.Second, config.Crawler.RequestTimeout.Std())
	assert.Equal(t, 2*time.Second, config.Crawler.RequestDelay.Std())
	assert.Equal(t, 3*time.Second, config.Crawler.RetryDelay.Std())
}

func TestLoadFromFiles_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floatwatch.toml")
	require.NoError(t, os.WriteFile(path, []byte("[monitor]\ninterval = \"soon\"\n"), 0644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestLoadFromFiles_ShippedConfig(t *testing.T) {
	// The sample config at the repo root must always load.
	config, err := LoadFromFiles(filepath.Join("..", "..", "floatwatch.toml"))
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, config.Monitor.Interval.Std())
	assert.Equal(t, 30*time.Second, config.Crawler.RequestTimeout.Std())
	assert.False(t, config.Sources.Finviz.Enabled)
}

func TestLoadFromFiles_EnvOverride(t *testing.T) {
	t.Setenv("FLOATWATCH_LOG_LEVEL", "warn")
	t.Setenv("FLOATWATCH_STORAGE_TYPE", "postgres")
	t.Setenv("FLOATWATCH_QUOTES_API_KEY", "secret-key")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "postgres", config.Storage.Type)
	assert.Equal(t, "secret-key", config.Quotes.APIKey)
}

func TestLoadFromFiles_InvalidStorageType(t *testing.T) {
	t.Setenv("FLOATWATCH_STORAGE_TYPE", "cassandra")

	_, err := LoadFromFiles()
	assert.Error(t, err)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/floatwatch.toml")
	assert.Error(t, err)
}
