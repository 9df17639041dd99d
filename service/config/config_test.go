package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg := Default()
	err := Parse([]byte(`
server:
  port: 8080
cache:
  type: redis
  ttl: 30s
scheduler:
  run_timeout: 2m
sources:
  - name: students
    type: table
    table: sis.students
  - name: terms
    type: static
    file: /etc/dynconfig/terms.yaml
bundles:
  - /etc/dynconfig/definitions/*.yaml
`), cfg)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, CacheRedis, cfg.Cache.Type)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.RunTimeout)
	assert.Equal(t, time.Minute, cfg.Scheduler.TickInterval)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "sis.students", cfg.Sources[0].Table)
	assert.Equal(t, SourceStatic, cfg.Sources[1].Type)
	assert.Equal(t, []string{"/etc/dynconfig/definitions/*.yaml"}, cfg.Bundles)

	assert.Error(t, Parse([]byte("server: [1, 2"), cfg))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LISTEN_PORT":             "9000",
		"DB_HOST":                 "db.internal",
		"REDIS_HOST":              "cache.internal",
		"SCHEDULER_ENABLED":       "false",
		"SCHEDULER_TICK_INTERVAL": "15s",
		"SCHEDULER_RUN_TIMEOUT":   "not-a-duration",
		"KAFKA_BROKERS":           "k1:9092, k2:9092,",
		"DEFINITION_BUNDLES":      "a.yaml,b.yaml",
		"LOCALE":                  "",
		"EXPORT_RATE_LIMIT":       "5",
	}
	cfg := Default()
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.RunTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.Kafka.Brokers)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.Bundles)
	assert.Equal(t, "en", cfg.Format.Locale)
	assert.Equal(t, 5, cfg.Export.RateLimit)
}

func TestDSN(t *testing.T) {
	d := Default().Database
	assert.Contains(t, d.DSN(), "host=localhost port=5432")
	assert.Contains(t, d.DSN(), "search_path=public")

	d.URL = "postgres://u:p@db/app"
	assert.Equal(t, "postgres://u:p@db/app", d.DSN())
}
