package delivery

import (
	"context"
	"errors"
	"strings"

	"photobot/metrics"
	"photobot/models"

	log "github.com/sirupsen/logrus"
)

// Messenger sends images through the messaging API
type Messenger interface {
	SendImageURL(ctx context.Context, to, imageURL, caption string) (string, error)
	SendImageFile(ctx context.Context, to, path, caption string) (string, error)
}

// Downloader stores a remote image in a local file. The returned cleanup
// func removes the file.
type Downloader interface {
	Download(ctx context.Context, url string) (path string, cleanup func(), err error)
}

// Deliverer sends one photo, first by remote URL and then, if that fails,
// by downloading it and uploading the local copy.
type Deliverer struct {
	messenger  Messenger
	downloader Downloader
	fallback   bool
}

// NewDeliverer creates a deliverer. The local upload fallback is only used
// when fallback is true and downloader is not nil.
func NewDeliverer(messenger Messenger, downloader Downloader, fallback bool) *Deliverer {
	return &Deliverer{
		messenger:  messenger,
		downloader: downloader,
		fallback:   fallback && downloader != nil,
	}
}

// NormalizeReceiver prefixes the receiver with "+" when it is missing
func NormalizeReceiver(receiver string) string {
	receiver = strings.TrimSpace(receiver)
	if receiver == "" || strings.HasPrefix(receiver, "+") {
		return receiver
	}
	return "+" + receiver
}

// Deliver sends the photo at photoURL to receiver. It succeeds only when
// the API returned a message ID for either the URL send or the local send.
func (d *Deliverer) Deliver(ctx context.Context, photoURL, caption, receiver string) (models.Delivery, error) {
	to := NormalizeReceiver(receiver)
	if to == "" {
		return models.Delivery{}, &models.ConfigError{Setting: "number", EnvVar: "RECEIVER_NUMBER"}
	}

	logger := log.WithFields(log.Fields{
		"receiver": to,
		"url":      photoURL,
	})
	logger.Info("Sending image")

	id, err := d.messenger.SendImageURL(ctx, to, photoURL, caption)
	if err == nil && id == "" {
		err = errors.New("no message id returned")
	}
	if err == nil {
		metrics.Sends.WithLabelValues(string(models.DeliveryMethodURL), "success").Inc()
		logger.WithField("message_id", id).Info("Photo sent successfully")
		return models.Delivery{MessageID: id, Method: models.DeliveryMethodURL}, nil
	}
	metrics.Sends.WithLabelValues(string(models.DeliveryMethodURL), "failure").Inc()

	if !d.fallback {
		logger.WithError(err).Error("Failed to send from URL")
		return models.Delivery{}, &models.DeliveryError{PhotoURL: photoURL, Stage: models.StageURL, Err: err}
	}
	logger.WithError(err).Warn("Failed to send from URL, falling back to local upload")

	path, cleanup, err := d.downloader.Download(ctx, photoURL)
	if err != nil {
		metrics.DownloadErrors.Inc()
		logger.WithError(err).Error("Failed to download image locally")
		return models.Delivery{}, &models.DeliveryError{PhotoURL: photoURL, Stage: models.StageDownload, Err: err}
	}
	defer cleanup()

	id, err = d.messenger.SendImageFile(ctx, to, path, caption)
	if err == nil && id == "" {
		err = errors.New("no message id returned")
	}
	if err != nil {
		metrics.Sends.WithLabelValues(string(models.DeliveryMethodLocal), "failure").Inc()
		logger.WithError(err).Error("Failed to send from local file")
		return models.Delivery{}, &models.DeliveryError{PhotoURL: photoURL, Stage: models.StageLocal, Err: err}
	}

	metrics.Sends.WithLabelValues(string(models.DeliveryMethodLocal), "success").Inc()
	logger.WithField("message_id", id).Info("Photo sent successfully from local file")
	return models.Delivery{MessageID: id, Method: models.DeliveryMethodLocal}, nil
}
