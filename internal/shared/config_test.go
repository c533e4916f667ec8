package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./moodmix.db" {
			t.Errorf("expected database path ./moodmix.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Catalog.PerTermLimit != 5 {
			t.Errorf("expected per-term limit 5, got %d", config.Catalog.PerTermLimit)
		}

		if config.Credentials.Gemini.Model != "gemini-2.0-flash" {
			t.Errorf("expected gemini model gemini-2.0-flash, got %s", config.Credentials.Gemini.Model)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
driver = "postgres"
dsn = "postgres://moodmix@localhost/moodmix"

[server]
host = "127.0.0.1"
port = 9090

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[catalog]
per_term_limit = 3
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Driver != "postgres" {
			t.Errorf("expected driver postgres, got %s", config.Database.Driver)
		}
		if config.Server.Addr() != "127.0.0.1:9090" {
			t.Errorf("expected addr 127.0.0.1:9090, got %s", config.Server.Addr())
		}
		if config.Catalog.PerTermLimit != 3 {
			t.Errorf("expected per-term limit 3, got %d", config.Catalog.PerTermLimit)
		}
		if config.Catalog.Workers != 4 {
			t.Errorf("unset keys should keep defaults, got workers=%d", config.Catalog.Workers)
		}
	})

	t.Run("LoadConfig rejects bad TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server\nport = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestConfigEnv(t *testing.T) {
	t.Run("ApplyEnv overrides", func(t *testing.T) {
		config := DefaultConfig()
		err := config.ApplyEnv(envMap(map[string]string{
			"PORT":           "9999",
			"CLIENT_ID":      "cid",
			"CLIENT_SECRET":  "secret",
			"GEMINI_API_KEY": "gkey",
			"DATABASE_URL":   "postgres://db",
			"REDIS_URL":      "redis://localhost:6379/0",
			"JWT_SECRET":     "jwt",
		}))
		if err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "cid" || config.Credentials.Spotify.ClientSecret != "secret" {
			t.Errorf("spotify credentials not applied: %+v", config.Credentials.Spotify)
		}
		if config.Credentials.Gemini.APIKey != "gkey" {
			t.Errorf("expected gemini key gkey, got %s", config.Credentials.Gemini.APIKey)
		}
		if config.Database.Driver != "postgres" || config.Database.DSN != "postgres://db" {
			t.Errorf("DATABASE_URL should switch to postgres, got %+v", config.Database)
		}
		if config.Redis.URL == "" || config.Auth.JWTSecret != "jwt" {
			t.Errorf("redis/auth overrides not applied")
		}
	})

	t.Run("ApplyEnv rejects non-numeric port", func(t *testing.T) {
		err := DefaultConfig().ApplyEnv(envMap(map[string]string{"PORT": "eighty"}))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadDotEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("MOODMIX_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("MOODMIX_TEST_VALUE") })

		if err := LoadDotEnv(envPath); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}
		if got := os.Getenv("MOODMIX_TEST_VALUE"); got != "from-dotenv" {
			t.Errorf("expected from-dotenv, got %q", got)
		}

		if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("missing .env should be ignored, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tc := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "negative workers", mutate: func(c *Config) { c.Catalog.Workers = -1 }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	if got := (ServerConfig{}).Timeout(); got != 30*time.Second {
		t.Errorf("zero request timeout should default to 30s, got %v", got)
	}
	if got := (CatalogConfig{Timeout: 2}).SearchTimeout(); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if got := (CatalogConfig{}).CacheExpiry(); got != 0 {
		t.Errorf("zero ttl should disable cache, got %v", got)
	}
}
