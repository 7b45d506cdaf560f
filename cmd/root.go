/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var errNoAction = errors.New("no action specified")

func RootApp() *cli.App {
	return &cli.App{
		Name:  "photobot",
		Usage: "WhatsApp Daily Photo Bot",
		Description: `Sends a random photo from a public photo feed to a WhatsApp number.

		Each invocation picks up to five different photos from the feed and tries
		to deliver them until one gets through. When WhatsApp cannot fetch a photo
		by URL the photo is downloaded and uploaded from a local copy instead.

		Run it from cron or a CI schedule with --send, or check the credentials
		with --test-connection.

		Flags can generally be set via environment variables, e.g.:

		--token => WHATSAPP_API_TOKEN
		--phone-id => WHATSAPP_PHONE_NUMBER_ID
		--number => RECEIVER_NUMBER

		A .env file in the working directory is loaded first.
		`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "send",
				Usage: "Send a photo once (for GitHub Actions or manual sending)",
			},
			&cli.BoolFlag{
				Name:  "test",
				Usage: "Run once for testing purposes",
			},
			&cli.BoolFlag{
				Name:  "test-connection",
				Usage: "Test the WhatsApp API connection without sending a photo",
			},
			&cli.StringFlag{
				Name:    "number",
				Aliases: []string{"n"},
				Usage:   "WhatsApp receiver number (with country code)",
				EnvVars: []string{"RECEIVER_NUMBER"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "WhatsApp API token",
				EnvVars: []string{"WHATSAPP_API_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "phone-id",
				Usage:   "WhatsApp Business Phone Number ID",
				EnvVars: []string{"WHATSAPP_PHONE_NUMBER_ID"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional TOML configuration file",
				EnvVars: []string{"PHOTOBOT_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "max-attempts",
				Usage:   "Maximum number of photos to try per run",
				EnvVars: []string{"PHOTOBOT_MAX_ATTEMPTS"},
			},
			&cli.BoolFlag{
				Name:    "no-fallback",
				Usage:   "Do not download and re-upload photos WhatsApp cannot fetch",
				EnvVars: []string{"PHOTOBOT_NO_FALLBACK"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Append log lines to this file, empty to disable",
				EnvVars: []string{"PHOTOBOT_LOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"PHOTOBOT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "pushgateway",
				Usage:   "Push run metrics to this Prometheus Pushgateway URL",
				EnvVars: []string{"PHOTOBOT_PUSHGATEWAY"},
			},
			&cli.BoolFlag{
				Name:  "prompt",
				Usage: "Ask for missing credentials instead of failing",
			},
		},
		Action: run,
	}
}

// Execute loads .env, runs the app and exits non-zero on any failure
func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	if err := RootApp().Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(s.LogLevel, s.Config.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ask := noPrompt
	if ctx.Bool("prompt") {
		ask = askTerminal
	}

	if s.Credentials.Token, err = resolveValue(s.Credentials.Token, tokenSetting, true, ask); err != nil {
		return err
	}
	if s.Credentials.PhoneNumberID, err = resolveValue(s.Credentials.PhoneNumberID, phoneIDSetting, true, ask); err != nil {
		return err
	}

	if ctx.Bool("test-connection") {
		return testConnection(ctx, s)
	}

	sending := ctx.Bool("send") || ctx.Bool("test")
	if s.Receiver, err = resolveValue(s.Receiver, receiverSetting, sending, ask); err != nil {
		return err
	}

	if sending {
		mode := "test"
		if ctx.Bool("send") {
			mode = "send"
		}
		log.Infof("Running in %s mode - sending photo once", mode)
		return send(ctx, s)
	}

	log.Info("No action specified.")
	if err := cli.ShowAppHelp(ctx); err != nil {
		return err
	}
	return errNoAction
}
