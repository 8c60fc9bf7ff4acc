package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/reservation-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"KV_BACKEND", "UPSERT_LOCK", "STORE_LAYOUT_FILE", "REDIS_DB", "STAN_ENABLED", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, LockNone, cfg.LockMode)
	assert.False(t, cfg.Stan.Enabled)
	assert.Equal(t, domain.DefaultLayout(), cfg.Layout)
}

func TestLoad_Validation(t *testing.T) {
	chdir(t, t.TempDir())
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"KV_BACKEND": "etcd"}},
		{"unknown lock", map[string]string{"UPSERT_LOCK": "zookeeper"}},
		{"redis lock without redis", map[string]string{"KV_BACKEND": "memory", "UPSERT_LOCK": "redis"}},
		{"bad redis db", map[string]string{"REDIS_DB": "one"}},
		{"missing layout", map[string]string{"STORE_LAYOUT_FILE": "/nonexistent/layout.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"KV_BACKEND", "UPSERT_LOCK", "REDIS_DB", "STORE_LAYOUT_FILE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
canonical_key: RESERVATIONS_V2
legacy_keys:
  - DELIVERY_RESERVATIONS_V1
  - kv:DELIVERY_RESERVATIONS_V1
`), 0o600))

	layout, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, "RESERVATIONS_V2", layout.CanonicalKey)
	assert.Equal(t, "RESERVATIONS_V2__MIGRATION", layout.MetaKey)
	assert.Equal(t, []string{"DELIVERY_RESERVATIONS_V1", "kv:DELIVERY_RESERVATIONS_V1"}, layout.LegacyKeys)
	assert.Equal(t, domain.DefaultLayout().WipePrefixes, layout.WipePrefixes)
}

func TestLoadLayout_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("legacy_keys: {not: [a list"), 0o600))
	_, err := LoadLayout(path)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
