package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Browser.Engine != "chromium" {
		t.Errorf("Expected default engine 'chromium', got %q", cfg.Browser.Engine)
	}

	if !cfg.Browser.Headless {
		t.Error("Expected headless by default")
	}

	if cfg.Detection.PollInterval != 2*time.Second {
		t.Errorf("Expected 2s poll interval, got %v", cfg.Detection.PollInterval)
	}

	if cfg.Detection.HistoryLimit != 10 {
		t.Errorf("Expected history limit 10, got %d", cfg.Detection.HistoryLimit)
	}

	if cfg.Actions.MaxAttempts != 3 {
		t.Errorf("Expected 3 max attempts, got %d", cfg.Actions.MaxAttempts)
	}

	if len(cfg.Tabs.ExcludedURLPatterns) == 0 {
		t.Error("Expected default excluded URL patterns")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentra.yaml")

	content := `
browser:
  engine: firefox
  headless: false
  viewport_width: 1920
  viewport_height: 1080
detection:
  poll_interval: 5s
indexing:
  viewport_expansion: -1
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Browser.Engine != "firefox" {
		t.Errorf("Expected engine 'firefox', got %q", cfg.Browser.Engine)
	}

	if cfg.Browser.Headless {
		t.Error("Expected headless false from file")
	}

	if cfg.Browser.ViewportWidth != 1920 {
		t.Errorf("Expected viewport width 1920, got %d", cfg.Browser.ViewportWidth)
	}

	if cfg.Detection.PollInterval != 5*time.Second {
		t.Errorf("Expected 5s poll interval, got %v", cfg.Detection.PollInterval)
	}

	if cfg.Indexing.ViewportExpansion != -1 {
		t.Errorf("Expected viewport expansion -1, got %d", cfg.Indexing.ViewportExpansion)
	}

	// Unspecified fields keep defaults
	if cfg.Actions.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts 3, got %d", cfg.Actions.MaxAttempts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/sentra.yaml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}
	if cfg.Browser.Engine != "chromium" {
		t.Errorf("Expected defaults with empty path, got engine %q", cfg.Browser.Engine)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENTRA_BROWSER_ENGINE", "webkit")
	t.Setenv("SENTRA_HEADLESS", "false")
	t.Setenv("SENTRA_POLL_INTERVAL", "10s")
	t.Setenv("SENTRA_VIEWPORT_EXPANSION", "200")
	t.Setenv("SENTRA_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Browser.Engine != "webkit" {
		t.Errorf("Expected engine 'webkit' from env, got %q", cfg.Browser.Engine)
	}

	if cfg.Browser.Headless {
		t.Error("Expected headless false from env")
	}

	if cfg.Detection.PollInterval != 10*time.Second {
		t.Errorf("Expected 10s poll interval from env, got %v", cfg.Detection.PollInterval)
	}

	if cfg.Indexing.ViewportExpansion != 200 {
		t.Errorf("Expected viewport expansion 200 from env, got %d", cfg.Indexing.ViewportExpansion)
	}

	if !cfg.Logging.Debug {
		t.Error("Expected debug true from env")
	}
}

func TestEnvOverridesIgnoreInvalid(t *testing.T) {
	t.Setenv("SENTRA_HEADLESS", "not-a-bool")
	t.Setenv("SENTRA_POLL_INTERVAL", "not-a-duration")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Invalid values fall back to defaults
	if !cfg.Browser.Headless {
		t.Error("Invalid SENTRA_HEADLESS should leave default in place")
	}
	if cfg.Detection.PollInterval != 2*time.Second {
		t.Errorf("Invalid SENTRA_POLL_INTERVAL should leave default, got %v", cfg.Detection.PollInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid engine",
			mutate:  func(c *Config) { c.Browser.Engine = "netscape" },
			wantErr: true,
		},
		{
			name:    "zero viewport",
			mutate:  func(c *Config) { c.Browser.ViewportWidth = 0 },
			wantErr: true,
		},
		{
			name:    "negative navigation timeout",
			mutate:  func(c *Config) { c.Browser.NavigationTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "viewport expansion below -1",
			mutate:  func(c *Config) { c.Indexing.ViewportExpansion = -2 },
			wantErr: true,
		},
		{
			name:    "whole page expansion allowed",
			mutate:  func(c *Config) { c.Indexing.ViewportExpansion = -1 },
			wantErr: false,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Detection.PollInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.Detection.HistoryLimit = 0 },
			wantErr: true,
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Actions.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "negative retry backoff",
			mutate:  func(c *Config) { c.Actions.RetryBackoff = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero navigation wait",
			mutate:  func(c *Config) { c.Actions.NavigationWait = 0 },
			wantErr: true,
		},
		{
			name: "cdp endpoint with profile dir",
			mutate: func(c *Config) {
				c.Browser.CDPEndpoint = "http://localhost:9222"
				c.Browser.ProfileDir = "/tmp/profile"
			},
			wantErr: true,
		},
		{
			name:    "cdp endpoint alone",
			mutate:  func(c *Config) { c.Browser.CDPEndpoint = "http://localhost:9222" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}
