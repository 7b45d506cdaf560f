package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/template"
	"time"

	"photobot/models"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFeedURL        = "https://raw.githubusercontent.com/dconnolly/chromecast-backgrounds/refs/heads/master/backgrounds.json"
	DefaultMaxAttempts    = 5
	DefaultCaption        = "Today's beautiful photo by: {{.Author}}"
	DefaultLogFile        = "photo_bot.log"
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxImageBytes  = 32 << 20
	DefaultGraphBaseURL   = "https://graph.facebook.com"
	DefaultGraphVersion   = "v21.0"
	DefaultMetricsJob     = "photobot"
)

// TomlWhatsApp holds the Graph API endpoint settings
type TomlWhatsApp struct {
	BaseURL    string `toml:"base_url"`
	APIVersion string `toml:"api_version"`
}

// TomlMetrics holds the Pushgateway settings. Metrics are only pushed
// when Pushgateway is set.
type TomlMetrics struct {
	Pushgateway string `toml:"pushgateway"`
	Job         string `toml:"job"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	FeedURL        string        `toml:"feed_url"`
	MaxAttempts    int           `toml:"max_attempts"`
	Fallback       bool          `toml:"fallback"`
	RetryDelay     time.Duration `toml:"retry_delay"`
	Caption        string        `toml:"caption"`
	TempDir        string        `toml:"temp_dir"`
	LogFile        string        `toml:"log_file"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxImageBytes  int64         `toml:"max_image_bytes"`
	WhatsApp       TomlWhatsApp  `toml:"whatsapp"`
	Metrics        TomlMetrics   `toml:"metrics"`
}

// Default returns the configuration used when no file is given.
// Values missing from a config file keep these defaults.
func Default() *TomlConfig {
	return &TomlConfig{
		FeedURL:        DefaultFeedURL,
		MaxAttempts:    DefaultMaxAttempts,
		Fallback:       true,
		Caption:        DefaultCaption,
		TempDir:        os.TempDir(),
		LogFile:        DefaultLogFile,
		RequestTimeout: DefaultRequestTimeout,
		MaxImageBytes:  DefaultMaxImageBytes,
		WhatsApp: TomlWhatsApp{
			BaseURL:    DefaultGraphBaseURL,
			APIVersion: DefaultGraphVersion,
		},
		Metrics: TomlMetrics{
			Job: DefaultMetricsJob,
		},
	}
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings that would otherwise only fail mid-run
func (c *TomlConfig) Validate() error {
	if _, err := url.ParseRequestURI(c.FeedURL); err != nil {
		return fmt.Errorf("invalid feed_url %q: %w", c.FeedURL, err)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max_image_bytes must be positive")
	}
	tmpl, err := c.CaptionTemplate()
	if err != nil {
		return err
	}
	if err := tmpl.Execute(io.Discard, models.Photo{URL: "https://example.com/photo.jpg", Author: "Unknown"}); err != nil {
		return fmt.Errorf("invalid caption template: %w", err)
	}
	if strings.TrimSpace(c.WhatsApp.BaseURL) == "" || strings.TrimSpace(c.WhatsApp.APIVersion) == "" {
		return fmt.Errorf("whatsapp base_url and api_version are required")
	}
	return nil
}

// CaptionTemplate parses the caption setting. The template is executed
// against models.Photo with Author already defaulted.
func (c *TomlConfig) CaptionTemplate() (*template.Template, error) {
	tmpl, err := template.New("caption").Parse(c.Caption)
	if err != nil {
		return nil, fmt.Errorf("invalid caption template: %w", err)
	}
	return tmpl, nil
}
