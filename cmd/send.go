/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobot/config"
	"photobot/delivery"
	"photobot/metrics"
	"photobot/photos"
	"photobot/whatsapp"

	"github.com/hashicorp/go-cleanhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const metricsPushTimeout = 10 * time.Second

func httpClient(cfg *config.TomlConfig) *http.Client {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.RequestTimeout
	return client
}

func whatsappClient(s *settings, client *http.Client) (*whatsapp.Client, error) {
	return whatsapp.ClientFromCredentials(s.Credentials,
		whatsapp.WithBaseURL(s.Config.WhatsApp.BaseURL),
		whatsapp.WithAPIVersion(s.Config.WhatsApp.APIVersion),
		whatsapp.WithHTTPClient(client),
	)
}

func send(cliCtx *cli.Context, s *settings) error {
	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer pushMetrics(s.Config)

	client := httpClient(s.Config)
	wa, err := whatsappClient(s, client)
	if err != nil {
		return err
	}

	caption, err := s.Config.CaptionTemplate()
	if err != nil {
		return err
	}

	deliverer := delivery.NewDeliverer(wa, photos.NewDownloader(client, s.Config.TempDir, s.Config.MaxImageBytes), s.Config.Fallback)
	orchestrator := delivery.NewOrchestrator(
		photos.NewFetcher(s.Config.FeedURL, client),
		deliverer,
		delivery.Options{
			MaxAttempts: s.Config.MaxAttempts,
			RetryDelay:  s.Config.RetryDelay,
			Caption:     caption,
		},
	)

	_, err = orchestrator.Run(ctx, s.Receiver)
	return err
}

func pushMetrics(cfg *config.TomlConfig) {
	if cfg.Metrics.Pushgateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()

	if err := metrics.Push(ctx, cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
		log.Warn(err)
		return
	}
	log.WithField("pushgateway", cfg.Metrics.Pushgateway).Debug("Pushed run metrics")
}
