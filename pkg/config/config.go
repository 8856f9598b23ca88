package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the full Sentra runtime configuration
type Config struct {
	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// DOM indexing settings
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`

	// Page change detection settings
	Detection DetectionConfig `yaml:"detection" json:"detection"`

	// Tab lifecycle settings
	Tabs TabConfig `yaml:"tabs" json:"tabs"`

	// Action retry and timing settings
	Actions ActionConfig `yaml:"actions" json:"actions"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig defines how the browser session is launched
type BrowserConfig struct {
	// Engine selects the browser engine: chromium, firefox, or webkit
	Engine string `yaml:"engine" json:"engine"`

	Headless bool `yaml:"headless" json:"headless"`

	// SlowMo inserts a delay between driver operations, useful when watching runs
	SlowMo time.Duration `yaml:"slow_mo" json:"slow_mo"`

	// CDPEndpoint connects to an already-running browser over the DevTools
	// protocol instead of launching one (e.g. http://localhost:9222)
	CDPEndpoint string `yaml:"cdp_endpoint" json:"cdp_endpoint"`

	// ExecutablePath overrides the browser binary used for launches
	ExecutablePath string `yaml:"executable_path" json:"executable_path"`

	// ProfileDir launches a persistent context against an existing profile
	ProfileDir string `yaml:"profile_dir" json:"profile_dir"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`

	ViewportWidth  int `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height" json:"viewport_height"`

	// NavigationTimeout bounds explicit navigations (goto, reload)
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`

	// ActionTimeout bounds individual element interactions
	ActionTimeout time.Duration `yaml:"action_timeout" json:"action_timeout"`
}

// IndexingConfig controls the in-page element indexing pass
type IndexingConfig struct {
	// HighlightEnabled draws numbered overlays on indexed elements
	HighlightEnabled bool `yaml:"highlight_enabled" json:"highlight_enabled"`

	// ViewportExpansion extends the indexable area beyond the viewport,
	// in pixels. -1 indexes the entire page.
	ViewportExpansion int `yaml:"viewport_expansion" json:"viewport_expansion"`
}

// DetectionConfig controls page change detection
type DetectionConfig struct {
	// PollInterval is the period of the background freshness poll
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`

	// SettleDelay is how long to wait after an action before comparing state
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// HistoryLimit caps the number of retained page states
	HistoryLimit int `yaml:"history_limit" json:"history_limit"`

	// FingerprintSampleSize is the number of elements sampled for the
	// structural fingerprint
	FingerprintSampleSize int `yaml:"fingerprint_sample_size" json:"fingerprint_sample_size"`
}

// TabConfig controls tab discovery and filtering
type TabConfig struct {
	// SweepInterval is the period of the reconciliation sweep that catches
	// tabs missed by lifecycle events
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`

	// ExcludedURLPatterns lists glob patterns for URLs that never become
	// the active tab (browser-internal pages, devtools, extensions)
	ExcludedURLPatterns []string `yaml:"excluded_url_patterns" json:"excluded_url_patterns"`
}

// ActionConfig controls interaction retries
type ActionConfig struct {
	// MaxAttempts is the number of escalating attempts per interaction
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// RetryBackoff is the base delay between attempts; attempt n waits n times this
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"`

	// TypeDelay is the per-character delay when typing into inputs
	TypeDelay time.Duration `yaml:"type_delay" json:"type_delay"`

	// NavigationWait bounds the post-action loop that decides whether an
	// action caused a navigation
	NavigationWait time.Duration `yaml:"navigation_wait" json:"navigation_wait"`

	// SearchVocabulary overrides the terms that mark a focused input as
	// search-like for Enter-key handling
	SearchVocabulary []string `yaml:"search_vocabulary" json:"search_vocabulary"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Debug enables debug-level output in the session log
	Debug bool `yaml:"debug" json:"debug"`
}

// DefaultConfig returns a configuration suitable for most automation runs
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Engine:            "chromium",
			Headless:          true,
			ViewportWidth:     1280,
			ViewportHeight:    720,
			NavigationTimeout: 30 * time.Second,
			ActionTimeout:     5 * time.Second,
		},
		Indexing: IndexingConfig{
			HighlightEnabled:  true,
			ViewportExpansion: 0,
		},
		Detection: DetectionConfig{
			PollInterval:          2 * time.Second,
			SettleDelay:           500 * time.Millisecond,
			HistoryLimit:          10,
			FingerprintSampleSize: 100,
		},
		Tabs: TabConfig{
			SweepInterval: 2 * time.Second,
			ExcludedURLPatterns: []string{
				"about:*",
				"chrome://*",
				"chrome-extension://*",
				"edge://*",
				"devtools://*",
			},
		},
		Actions: ActionConfig{
			MaxAttempts:    3,
			RetryBackoff:   500 * time.Millisecond,
			NavigationWait: 3 * time.Second,
		},
	}
}

// Load reads configuration from a YAML file layered over defaults, then
// applies SENTRA_* environment overrides and validates the result.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Call before Load so SENTRA_* variables from the file take effect.
func LoadDotEnv() {
	// .env file is optional
	_ = godotenv.Load()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Browser.Engine {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("invalid browser engine: %s (must be 'chromium', 'firefox', or 'webkit')", c.Browser.Engine)
	}

	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}

	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive")
	}

	if c.Browser.ActionTimeout <= 0 {
		return fmt.Errorf("action_timeout must be positive")
	}

	if c.Indexing.ViewportExpansion < -1 {
		return fmt.Errorf("viewport_expansion must be -1 or greater")
	}

	if c.Detection.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	if c.Detection.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}

	if c.Detection.FingerprintSampleSize <= 0 {
		return fmt.Errorf("fingerprint_sample_size must be positive")
	}

	if c.Tabs.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}

	if c.Actions.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}

	if c.Actions.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative")
	}

	if c.Actions.NavigationWait <= 0 {
		return fmt.Errorf("navigation_wait must be positive")
	}

	if c.Browser.CDPEndpoint != "" && c.Browser.ProfileDir != "" {
		return fmt.Errorf("cdp_endpoint and profile_dir are mutually exclusive")
	}

	return nil
}

// applyEnvOverrides layers SENTRA_* environment variables over the config
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("SENTRA_BROWSER_ENGINE"); v != "" {
		c.Browser.Engine = v
	}
	if v, ok := envBool("SENTRA_HEADLESS"); ok {
		c.Browser.Headless = v
	}
	if v := os.Getenv("SENTRA_USER_AGENT"); v != "" {
		c.Browser.UserAgent = v
	}
	if v := os.Getenv("SENTRA_CDP_ENDPOINT"); v != "" {
		c.Browser.CDPEndpoint = v
	}
	if v := os.Getenv("SENTRA_EXECUTABLE_PATH"); v != "" {
		c.Browser.ExecutablePath = v
	}
	if v := os.Getenv("SENTRA_PROFILE_DIR"); v != "" {
		c.Browser.ProfileDir = v
	}
	if v, ok := envDuration("SENTRA_NAVIGATION_TIMEOUT"); ok {
		c.Browser.NavigationTimeout = v
	}
	if v, ok := envDuration("SENTRA_ACTION_TIMEOUT"); ok {
		c.Browser.ActionTimeout = v
	}
	if v, ok := envBool("SENTRA_HIGHLIGHTS"); ok {
		c.Indexing.HighlightEnabled = v
	}
	if v, ok := envInt("SENTRA_VIEWPORT_EXPANSION"); ok {
		c.Indexing.ViewportExpansion = v
	}
	if v, ok := envDuration("SENTRA_POLL_INTERVAL"); ok {
		c.Detection.PollInterval = v
	}
	if v, ok := envBool("SENTRA_DEBUG"); ok {
		c.Logging.Debug = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return parsed, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
