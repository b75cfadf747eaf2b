package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
database:
  host: localhost
  user: payhub
  database: payhub
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "literal", cfg.Payment.StatusRule)
	assert.Equal(t, "GBP", cfg.Payment.Currency)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), cfg.ApportionGoLive())
	assert.Equal(t, "allow", cfg.Idempotency.ConflictPolicy)
	assert.Equal(t, "none", cfg.Idempotency.Lock)
	assert.Equal(t, 30*time.Second, cfg.Idempotency.LockTTL())
	assert.Equal(t, 2*time.Second, cfg.Idempotency.LockWait())
	assert.Equal(t, 48*time.Hour, cfg.Idempotency.Retention())
	assert.Equal(t, "log", cfg.Events.Broker)
	assert.Equal(t, "mock", cfg.Accounts.Type)
	assert.Equal(t, "0 */15 * * * *", cfg.Scheduler.AuditLedgerStatuses)
	assert.Equal(t, 4, cfg.Scheduler.AuditConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "postgres://payhub:@localhost:5432/payhub?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("PAYMENT_STATUS_RULE", "settled")
	t.Setenv("IDEMPOTENCY_LOCK", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "settled", cfg.Payment.StatusRule)
	assert.Equal(t, "redis", cfg.Idempotency.Lock)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{"Unknown status rule", "payment:\n  status_rule: optimistic\n"},
		{"Bad go-live date", "payment:\n  apportion_go_live_date: 2020-02-30\n"},
		{"Duplicate service", "payment:\n  services:\n    - name: Divorce\n    - name: divorce\n"},
		{"Redis lock without address", "idempotency:\n  lock: redis\n"},
		{"Unknown conflict policy", "idempotency:\n  conflict_policy: overwrite\n"},
		{"RabbitMQ without url", "events:\n  enabled: true\n  broker: rabbitmq\n"},
		{"Account without number", "accounts:\n  accounts:\n    - name: Nameless\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, minimalConfig+tt.extra))
			assert.Error(t, err)
		})
	}

	t.Run("Missing database host", func(t *testing.T) {
		_, err := Load(writeConfig(t, "database:\n  user: x\n  database: y\n"))
		assert.ErrorContains(t, err, "database host is required")
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestServiceCatalog(t *testing.T) {
	catalog, err := NewServiceCatalog([]ServiceEntry{
		{Name: "Civil Money Claims", Code: "AAA7"},
		{Name: "Finrem", Code: "ABA2", LegacyPBA: true},
	})
	require.NoError(t, err)

	e, ok := catalog.Lookup(" civil money claims ")
	assert.True(t, ok)
	assert.Equal(t, "AAA7", e.Code)
	assert.True(t, catalog.IsLegacyPBA("FINREM"))
	assert.False(t, catalog.IsLegacyPBA("Civil Money Claims"))
	assert.False(t, catalog.IsLegacyPBA("Probate"))
	assert.Equal(t, []string{"Civil Money Claims", "Finrem"}, catalog.Names())

	var empty *ServiceCatalog
	assert.False(t, empty.IsLegacyPBA("Finrem"))
	assert.Nil(t, empty.Names())

	_, err = NewServiceCatalog([]ServiceEntry{{Name: " "}})
	assert.Error(t, err)
}

func TestDevConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.dev.yaml"))
	require.NoError(t, err)
	catalog, err := cfg.ServiceCatalog()
	require.NoError(t, err)
	assert.True(t, catalog.IsLegacyPBA("Finrem"))
	assert.Len(t, cfg.Accounts.Accounts, 4)
}
