package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"photobot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photobot.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.True(t, cfg.Fallback)
	assert.Equal(t, config.DefaultFeedURL, cfg.FeedURL)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
max_attempts = 1
fallback = false
retry_delay = "2s"

[whatsapp]
api_version = "v20.0"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.False(t, cfg.Fallback)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, "v20.0", cfg.WhatsApp.APIVersion)
	assert.Equal(t, config.DefaultGraphBaseURL, cfg.WhatsApp.BaseURL)
	assert.Equal(t, config.DefaultCaption, cfg.Caption)
	assert.Equal(t, config.DefaultLogFile, cfg.LogFile)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed toml",
			content: "max_attempts = [",
		},
		{
			name:    "zero attempts",
			content: "max_attempts = 0",
		},
		{
			name:    "bad feed url",
			content: `feed_url = "not a url"`,
		},
		{
			name:    "bad caption template",
			content: `caption = "{{.Author"`,
		},
		{
			name:    "unknown caption field",
			content: `caption = "Photo by {{.Photographer}}"`,
		},
		{
			name:    "negative retry delay",
			content: `retry_delay = "-1s"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateCaption(t *testing.T) {
	tests := []struct {
		caption   string
		expectErr bool
	}{
		{caption: config.DefaultCaption},
		{caption: "Photo of the day"},
		{caption: "{{.Author}} ({{.URL}})"},
		{caption: "{{.Foo}}", expectErr: true},
		{caption: "{{.Author.Name}}", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			cfg := config.Default()
			cfg.Caption = tt.caption
			err := cfg.Validate()
			if tt.expectErr {
				assert.ErrorContains(t, err, "invalid caption template")
				return
			}
			assert.NoError(t, err)
		})
	}
}
