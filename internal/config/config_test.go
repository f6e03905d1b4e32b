package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultWebPort, cfg.Web.ListenPort)
}

func TestApplyEnv(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvWebPort: "8080",
		EnvDBURL:   "postgres://flakestry@localhost/flakestry?sslmode=disable",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Web.ListenPort)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://flakestry@localhost/flakestry?sslmode=disable", cfg.Database.DSN)
}

func TestApplyEnvDriverWins(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvDBURL:    "file:test.db",
		EnvDBDriver: DriverSQLite,
	})))
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{EnvWebPort: "http"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*MainConfig)
	}{
		{"low port", func(c *MainConfig) { c.Web.ListenPort = 80 }},
		{"high port", func(c *MainConfig) { c.Web.ListenPort = 70000 }},
		{"ssl without cert", func(c *MainConfig) { c.Web.SSL = true }},
		{"unknown driver", func(c *MainConfig) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *MainConfig) { c.Database.DSN = "" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flakestry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  listen_port: 8443
  ssl: true
  cert_file: /etc/ssl/fullchain.pem
  key_file: /etc/ssl/privkey.pem
database:
  driver: postgres
  dsn: postgres://localhost/flakestry
`), 0o644))

	cfg := NewDefaultConfig()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, 8443, cfg.Web.ListenPort)
	assert.True(t, cfg.Web.SSL)
	assert.Equal(t, "web/robots.txt", cfg.Web.RobotsTxt, "keys missing from the file keep their default")
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("web: [unterminated"), 0o644))
	assert.Error(t, cfg.LoadFile(path))
}
