package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("DISCOVERY_MAX_PAGE_SIZE", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/acquaintance")
	assert.Equal(t, 24*time.Hour, cfg.Token.TTL)
	assert.Equal(t, 10, cfg.Discovery.DefaultPageSize)
	assert.Equal(t, 50, cfg.Discovery.MaxPageSize)
	assert.Equal(t, "opposite", cfg.Discovery.GenderPolicy)
}

func TestNew_SQLiteAndOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", "")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("DISCOVERY_MAX_PAGE_SIZE", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := New()

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.DB.DSN)
	assert.Equal(t, 2*time.Hour, cfg.Token.TTL)
	assert.Equal(t, 50, cfg.Discovery.MaxPageSize)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := New()
		cfg.DB.Driver = "sqlite"
		cfg.Token.SigningKey = strings.Repeat("k", MinSigningKeyLen)
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short signing key", func(c *Config) { c.Token.SigningKey = "short" }},
		{"zero ttl", func(c *Config) { c.Token.TTL = 0 }},
		{"unknown driver", func(c *Config) { c.DB.Driver = "oracle" }},
		{"default page size above max", func(c *Config) { c.Discovery.DefaultPageSize = 100 }},
		{"unknown gender policy", func(c *Config) { c.Discovery.GenderPolicy = "same" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
