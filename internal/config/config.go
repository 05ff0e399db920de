// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Mapper   MapperConfig   `mapstructure:"mapper" yaml:"mapper"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
	Bridge   BridgeConfig   `mapstructure:"bridge" yaml:"bridge"`
}

// LoggerConfig controls zap output and lumberjack rotation.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the chromedp binding to a live Chrome.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	RemoteURL         string        `mapstructure:"remote_url" yaml:"remote_url"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// FrameLoadTimeout bounds the wait for an iframe's document before the
	// walker gives up on that frame and moves on.
	FrameLoadTimeout time.Duration `mapstructure:"frame_load_timeout" yaml:"frame_load_timeout"`
}

// DetectorConfig tunes the detection pass.
type DetectorConfig struct {
	// MaxFrameDepth is the hard iframe nesting bound; frames deeper than this
	// are silently not visited.
	MaxFrameDepth int `mapstructure:"max_frame_depth" yaml:"max_frame_depth"`
	MinBoxWidth   int `mapstructure:"min_box_width" yaml:"min_box_width"`
	MinBoxHeight  int `mapstructure:"min_box_height" yaml:"min_box_height"`
	// ExtraDenylist extends the built-in security/bookkeeping keyword list
	// (captcha, csrf, token, ...) used to exclude honeypot-looking fields.
	ExtraDenylist []string `mapstructure:"extra_denylist" yaml:"extra_denylist"`
}

// LLMProvider names a supported language model backend.
type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderGeminiSDK LLMProvider = "gemini-sdk"
)

// LLMModelConfig defines one model endpoint.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// MapperConfig configures the two-stage AI mapper collaborator.
type MapperConfig struct {
	Fast     LLMModelConfig `mapstructure:"fast" yaml:"fast"`
	Powerful LLMModelConfig `mapstructure:"powerful" yaml:"powerful"`
	Language string         `mapstructure:"language" yaml:"language"`
	// RequestsPerSecond caps outbound mapper calls.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// WorkflowConfig tunes the orchestrator.
type WorkflowConfig struct {
	// BatchMode auto-runs Analyze and Map once detection finds forms and
	// content or data sources are available.
	BatchMode bool `mapstructure:"batch_mode" yaml:"batch_mode"`
	// PreserveAnalysis keeps the last relevance result across a re-detect
	// when only the input content changed.
	PreserveAnalysis bool `mapstructure:"preserve_analysis" yaml:"preserve_analysis"`
}

// BridgeConfig configures the local message bridge.
type BridgeConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SetDefaults initializes default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "formfiller")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.frame_load_timeout", "3s")

	// -- Detector --
	v.SetDefault("detector.max_frame_depth", 5)
	v.SetDefault("detector.min_box_width", 20)
	v.SetDefault("detector.min_box_height", 15)

	// -- Mapper --
	v.SetDefault("mapper.fast.provider", "gemini")
	v.SetDefault("mapper.fast.model", "gemini-2.5-flash")
	v.SetDefault("mapper.fast.api_timeout", "60s")
	v.SetDefault("mapper.fast.temperature", 0.2)
	v.SetDefault("mapper.powerful.provider", "gemini")
	v.SetDefault("mapper.powerful.model", "gemini-2.5-pro")
	v.SetDefault("mapper.powerful.api_timeout", "120s")
	v.SetDefault("mapper.powerful.temperature", 0.2)
	v.SetDefault("mapper.language", "auto")
	v.SetDefault("mapper.requests_per_second", 1.0)

	// -- Workflow --
	v.SetDefault("workflow.batch_mode", false)
	v.SetDefault("workflow.preserve_analysis", true)

	// -- Bridge --
	v.SetDefault("bridge.listen_addr", "127.0.0.1:8642")
	v.SetDefault("bridge.shutdown_timeout", "5s")
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// DefaultConfigDir returns the per-user configuration directory
// (~/.formfiller), creating nothing.
func DefaultConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".formfiller"), nil
}

// NewConfigFromViper unmarshals and validates a configuration.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("mapper.fast.api_key", "FORMFILLER_API_KEY")
	v.BindEnv("mapper.powerful.api_key", "FORMFILLER_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Env fallback in case Unmarshal did not pick the binding up.
	if key := os.Getenv("FORMFILLER_API_KEY"); key != "" {
		if cfg.Mapper.Fast.APIKey == "" {
			cfg.Mapper.Fast.APIKey = key
		}
		if cfg.Mapper.Powerful.APIKey == "" {
			cfg.Mapper.Powerful.APIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Detector.MaxFrameDepth <= 0 {
		return fmt.Errorf("detector.max_frame_depth must be a positive integer")
	}
	if c.Detector.MinBoxWidth < 0 || c.Detector.MinBoxHeight < 0 {
		return fmt.Errorf("detector minimum box dimensions must not be negative")
	}
	if c.Browser.FrameLoadTimeout <= 0 {
		return fmt.Errorf("browser.frame_load_timeout must be a positive duration")
	}
	if c.Mapper.RequestsPerSecond <= 0 {
		return fmt.Errorf("mapper.requests_per_second must be positive")
	}
	return nil
}
