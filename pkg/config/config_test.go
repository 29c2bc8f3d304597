package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"LEDGER_DIR", "DATABASE_URL", "CLASSIFIER_SHORT_WORD_WEIGHT", "CLASSIFIER_SHORT_WORD_LENGTH",
		"CLASSIFIER_MIN_CONFIDENCE", "SERVER_PORT", "SERVER_ALLOWED_ORIGINS", "VOCABULARY_FLUSH_SCHEDULE",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Storage.LedgerDir)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 0.95, cfg.Classifier.ShortWordWeight)
	assert.Equal(t, 4, cfg.Classifier.ShortWordLength)
	assert.Equal(t, 0.1, cfg.Classifier.MinConfidence)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "@every 5m", cfg.Scheduler.VocabularyFlush)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_DIR", "/var/lib/ledger")
	t.Setenv("CLASSIFIER_SHORT_WORD_WEIGHT", "0.8")
	t.Setenv("CLASSIFIER_SHORT_WORD_LENGTH", "3")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("VOCABULARY_FLUSH_SCHEDULE", "*/10 * * * *")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ledger", cfg.Storage.LedgerDir)
	assert.Equal(t, 0.8, cfg.Classifier.ShortWordWeight)
	assert.Equal(t, 3, cfg.Classifier.ShortWordLength)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "*/10 * * * *", cfg.Scheduler.VocabularyFlush)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:    StorageConfig{LedgerDir: "./data"},
			Database:   DatabaseConfig{MaxConns: 25, MinConns: 5},
			Classifier: ClassifierConfig{ShortWordWeight: 0.95, ShortWordLength: 4, MinConfidence: 0.1},
			Server:     ServerConfig{Host: "localhost", Port: 8080, RateLimitPerSecond: 10, RateLimitBurst: 20},
			Scheduler:  SchedulerConfig{VocabularyFlush: "@every 5m"},
			Log:        LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero weight", func(c *Config) { c.Classifier.ShortWordWeight = 0 }, "CLASSIFIER_SHORT_WORD_WEIGHT"},
		{"negative threshold", func(c *Config) { c.Classifier.MinConfidence = -0.1 }, "CLASSIFIER_MIN_CONFIDENCE"},
		{"negative length", func(c *Config) { c.Classifier.ShortWordLength = -1 }, "CLASSIFIER_SHORT_WORD_LENGTH"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"bad schedule", func(c *Config) { c.Scheduler.VocabularyFlush = "whenever" }, "VOCABULARY_FLUSH_SCHEDULE"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "LOG_FORMAT"},
		{"no ledger dir", func(c *Config) { c.Storage.LedgerDir = "" }, "LEDGER_DIR"},
		{"pool bounds", func(c *Config) { c.Database.MinConns = 30 }, "DATABASE_MIN_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
