package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Test loading default config
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	configContent := `{
		"environment": "testing",
		"server": {
			"address": ":9090"
		},
		"storage": {
			"adapter": "memory"
		},
		"settings": {
			"loyaltyLevel2MinXP": 2500,
			"loyaltyLevel2Discount": 7
		}
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)

	// Settings overrides flow into the resolved loyalty config
	resolved := cfg.Settings.ResolveLoyalty()
	assert.Equal(t, int64(2500), resolved.Tiers[1].MinXP)
	assert.Equal(t, 7, resolved.Tiers[1].DiscountPercent)
	assert.Equal(t, int64(DefaultLevel3MinXP), resolved.Tiers[2].MinXP)
}

func TestLoadFromFile_YAML(t *testing.T) {
	configContent := `
environment: staging
server:
  address: ":7070"
storage:
  adapter: file
  file:
    path: ./loyalty.json
settings:
  xpMultiplier: 2
`

	tmpFile, err := os.CreateTemp("", "config_test_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.Environment)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "file", cfg.Storage.Adapter)
	assert.Equal(t, "./loyalty.json", cfg.Storage.File.Path)
	assert.Equal(t, 2, cfg.Settings.ResolveLoyalty().XPMultiplier)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: EnvDevelopment,
			Server: ServerConfig{
				Address:           ":8080",
				ReadTimeout:       time.Second,
				WriteTimeout:      time.Second,
				IdleTimeout:       time.Second,
				ReadHeaderTimeout: time.Second,
				ShutdownTimeout:   time.Second,
			},
			Storage: StorageConfig{
				Adapter: "memory",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid config",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "invalid environment",
			mutate:      func(c *Config) { c.Environment = "" },
			expectError: true,
		},
		{
			name:        "invalid server timeout",
			mutate:      func(c *Config) { c.Server.ReadTimeout = 0 },
			expectError: true,
		},
		{
			name:        "unknown storage adapter",
			mutate:      func(c *Config) { c.Storage.Adapter = "cassandra" },
			expectError: true,
		},
		{
			name: "disordered loyalty thresholds",
			mutate: func(c *Config) {
				low := int64(100)
				c.Settings.LoyaltyLevel4MinXP = &low
			},
			expectError: true,
		},
		{
			name: "rate limit enabled without budget",
			mutate: func(c *Config) {
				c.Security.EnableRateLimit = true
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSecretsFromEnv(t *testing.T) {
	t.Setenv("LOYALTYKIT_STORAGE_SQL_DSN", "postgres://user:pw@localhost/loyalty")
	t.Setenv("LOYALTYKIT_STORAGE_REDIS_PASSWORD", "hunter2")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadSecretsFromEnv(context.Background()))

	assert.Equal(t, "postgres://user:pw@localhost/loyalty", cfg.Storage.SQL.DSN)
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password)

	// Redaction in String output
	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "postgres://user:pw@localhost/loyalty")
}

func TestLoadSecretsFromEnv_ProductionRequiresDSN(t *testing.T) {
	t.Setenv("LOYALTYKIT_STORAGE_SQL_DSN", "")

	cfg := DefaultConfig()
	cfg.Environment = EnvProduction
	cfg.Storage.Adapter = "sql"
	cfg.Storage.SQL.DSN = ""

	assert.Error(t, cfg.LoadSecretsFromEnv(context.Background()))
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expectError bool
		setup       func() string // returns path to cleanup
	}{
		{
			name:        "valid json file",
			path:        "config_test.json",
			expectError: false,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.json")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "empty path",
			path:        "",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "path traversal",
			path:        "../../../etc/passwd",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "non-json file",
			path:        "config.txt",
			expectError: true,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.txt")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "nonexistent file",
			path:        "nonexistent.json",
			expectError: true,
			setup:       func() string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupPath := tt.setup()
			if cleanupPath != "" {
				defer os.Remove(cleanupPath)
				if tt.path == "config_test.json" || tt.path == "config.txt" {
					tt.path = cleanupPath
				}
			}

			err := validateConfigPath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
