package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.SetDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		config  func() *Config
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", config: valid},
		{name: "missing server listen", config: func() *Config {
			cfg := valid()
			cfg.Server.Listen = ""
			return cfg
		}, wantErr: true, errMsg: "server.listen is required"},
		{name: "missing timeout", config: func() *Config {
			cfg := valid()
			cfg.Server.Timeout = 0
			return cfg
		}, wantErr: true, errMsg: "server.timeout is required"},
		{name: "missing dsn", config: func() *Config {
			cfg := valid()
			cfg.Database.DSN = ""
			return cfg
		}, wantErr: true, errMsg: "database.dsn is required"},
		{name: "custom values", config: func() *Config {
			cfg := valid()
			cfg.Indexer.Interval = time.Second
			cfg.Client.Retry.Attempts = -1
			return cfg
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAgainstEmbeddedSchema(tt.config())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()
	require.NotNil(t, schema)
	def, ok := schema.Definitions["ServerConfig"]
	require.True(t, ok)
	_, ok = def.Properties.Get("page_size")
	assert.True(t, ok)
}

func TestEmbeddedSchemaMatchesConfig(t *testing.T) {
	// every key produced by config marshaling must be known to the embedded schema
	cfg := &Config{}
	cfg.SetDefaults()
	require.NoError(t, VerifyAgainstEmbeddedSchema(cfg))
	assert.Contains(t, embeddedSchema, `"poll_interval"`)
}
