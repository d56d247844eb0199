package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate запускает Load в пустой директории, чтобы не подхватить config/ и .env репозитория.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("APP_ENV", "test")
	for _, key := range []string{
		"CONFIG_PATH", "DATABASE_CONFIG_PATH", "DATABASE_URL", "DB_MAX_CONNECTIONS",
		"STORE_DRIVER", "REDIS_URL", "CACHE_TTL_MINUTES", "PIPELINE_WORKERS",
		"EXCLUDED_USER_IDS", "WRAPPED_YEAR", "SERVER_ADDR", "EXPORT_PATH",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL())
	assert.Equal(t, 10, cfg.DBMaxConnections())
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 2024, cfg.Year)
	assert.Empty(t, cfg.Pipeline.ExcludedUserIDs)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yml := `
server_addr: ":9000"
store_driver: sqlite
year: 2023
pipeline:
  export_path: /data/export.zip
  excluded_user_ids: [UBOT1, UBOT2]
  workers: 8
cache:
  ttl_minutes: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "wrapped.yaml"), []byte(yml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "database.yaml"),
		[]byte("database_url: postgres://x@db/wrapped\ndb_max_connections: 3\n"), 0o644))

	t.Setenv("WRAPPED_YEAR", "2025")
	t.Setenv("EXCLUDED_USER_IDS", " U1 , ,U2")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, 2025, cfg.Year)
	assert.Equal(t, "/data/export.zip", cfg.Pipeline.ExportPath)
	assert.Equal(t, []string{"U1", "U2"}, cfg.Pipeline.ExcludedUserIDs)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "postgres://x@db/wrapped", cfg.DatabaseURL())
	assert.Equal(t, 3, cfg.DBMaxConnections())
}

func TestLoadDotEnvAndInvalidValues(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORE_DRIVER=memory\nREDIS_URL=redis://cache:6379/0\n"), 0o644))
	t.Setenv("PIPELINE_WORKERS", "zero")
	t.Setenv("CACHE_TTL_MINUTES", "-1")
	// godotenv не перезаписывает даже пустые переменные; t.Setenv в isolate вернёт их после теста.
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("REDIS_URL")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
}

func TestUnknownDriverFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_DRIVER", "mongo")
	assert.Equal(t, StorePostgres, Load().StoreDriver)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList("a, ,b,"))
	assert.Nil(t, SplitList(" , "))
	assert.Equal(t, []string{"U1", "U2"}, SplitList("U1, U2"))
}
