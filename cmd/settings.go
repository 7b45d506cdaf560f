/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"photobot/config"
	"photobot/models"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/urfave/cli/v2"
)

type setting struct {
	Flag   string
	EnvVar string
	Label  string
	Secret bool
}

var (
	tokenSetting    = setting{Flag: "token", EnvVar: "WHATSAPP_API_TOKEN", Label: "WhatsApp API token:", Secret: true}
	phoneIDSetting  = setting{Flag: "phone-id", EnvVar: "WHATSAPP_PHONE_NUMBER_ID", Label: "WhatsApp Phone Number ID:"}
	receiverSetting = setting{Flag: "number", EnvVar: "RECEIVER_NUMBER", Label: "Receiver number (with country code):"}
)

// settings is everything a run needs, merged from the config file, flags
// and environment.
type settings struct {
	Config      *config.TomlConfig
	Credentials models.Credentials
	Receiver    string
	LogLevel    string
}

func loadSettings(ctx *cli.Context) (*settings, error) {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, &models.ConfigError{Setting: "config", Reason: err.Error()}
		}
		cfg = loaded
	}

	if ctx.IsSet("max-attempts") {
		cfg.MaxAttempts = ctx.Int("max-attempts")
	}
	if ctx.Bool("no-fallback") {
		cfg.Fallback = false
	}
	if ctx.IsSet("log-file") {
		cfg.LogFile = ctx.String("log-file")
	}
	if ctx.IsSet("pushgateway") {
		cfg.Metrics.Pushgateway = ctx.String("pushgateway")
	}
	if err := cfg.Validate(); err != nil {
		return nil, &models.ConfigError{Setting: "config", Reason: err.Error()}
	}

	return &settings{
		Config: cfg,
		Credentials: models.Credentials{
			Token:         strings.TrimSpace(ctx.String("token")),
			PhoneNumberID: strings.TrimSpace(ctx.String("phone-id")),
		},
		Receiver: strings.TrimSpace(ctx.String("number")),
		LogLevel: ctx.String("log-level"),
	}, nil
}

// asker reads a value from the user
type asker func(s setting) (string, error)

func noPrompt(setting) (string, error) { return "", nil }

func askTerminal(s setting) (string, error) {
	if s.Secret {
		return prompt.New().Ask(s.Label).Input("", input.WithEchoMode(input.EchoNone))
	}
	return prompt.New().Ask(s.Label).Input("")
}

// resolveValue returns value, asking for it when it is empty. A value that
// is still empty is a ConfigError when required.
func resolveValue(value string, s setting, required bool, ask asker) (string, error) {
	if value == "" && required {
		answer, err := ask(s)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", s.Flag, err)
		}
		value = strings.TrimSpace(answer)
	}
	if value == "" && required {
		return "", &models.ConfigError{Setting: s.Flag, EnvVar: s.EnvVar}
	}
	return value, nil
}
