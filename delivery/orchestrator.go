// Package delivery drives a daily send: it fetches the feed, picks
// candidates and hands them to the deliverer until one gets through.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"photobot/config"
	"photobot/metrics"
	"photobot/models"
	"photobot/photos"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FeedFetcher retrieves the photo feed
type FeedFetcher interface {
	Fetch(ctx context.Context) (models.Feed, error)
}

// PhotoDeliverer sends a single photo
type PhotoDeliverer interface {
	Deliver(ctx context.Context, photoURL, caption, receiver string) (models.Delivery, error)
}

// Options tune an orchestration run. Zero values fall back to defaults.
type Options struct {
	// Upper bound of attempts per run, capped by the feed length
	MaxAttempts int
	// Pause between attempts, zero means none
	RetryDelay time.Duration
	Caption    *template.Template
	Rand       photos.Rand
}

// Result describes a run, successful or not
type Result struct {
	RunID    string
	Attempts int
	Photo    models.Photo
	Delivery models.Delivery
}

type Orchestrator struct {
	fetcher     FeedFetcher
	deliverer   PhotoDeliverer
	maxAttempts int
	retryDelay  time.Duration
	caption     *template.Template
	rng         photos.Rand
}

func NewOrchestrator(fetcher FeedFetcher, deliverer PhotoDeliverer, opts Options) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		deliverer:   deliverer,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		caption:     opts.Caption,
		rng:         opts.Rand,
	}
	if o.maxAttempts <= 0 {
		o.maxAttempts = config.DefaultMaxAttempts
	}
	if o.caption == nil {
		o.caption = template.Must(template.New("caption").Parse(config.DefaultCaption))
	}
	return o
}

// MaxAttempts is the number of delivery attempts a run gets for a feed
// of feedLen entries.
func MaxAttempts(limit, feedLen int) int {
	return min(limit, feedLen)
}

// Run fetches the feed once and tries up to MaxAttempts distinct photos
// until one is delivered to receiver.
func (o *Orchestrator) Run(ctx context.Context, receiver string) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.RunDuration.Set(time.Since(start).Seconds())
	}()

	result := &Result{RunID: uuid.NewString()}
	logger := log.WithField("run_id", result.RunID)
	logger.Info("Starting daily photo send process")

	feed, err := o.fetcher.Fetch(ctx)
	if err != nil {
		metrics.FetchErrors.Inc()
		logger.WithError(err).Error("Error fetching photo data")
		return result, err
	}
	metrics.FeedEntries.Set(float64(len(feed)))

	maxAttempts := MaxAttempts(o.maxAttempts, len(feed))
	if maxAttempts == 0 {
		logger.Error("Photo feed is empty, nothing to send")
		return result, fmt.Errorf("%w: feed is empty", models.ErrAttemptsExhausted)
	}

	selector := photos.NewSelector(feed, o.rng)

	attempt := func() (models.Delivery, error) {
		_, photo, ok := selector.Next()
		if !ok {
			return models.Delivery{}, backoff.Permanent(models.ErrNoCandidates)
		}
		result.Attempts++
		metrics.DeliveryAttempts.Inc()

		attemptLog := logger.WithField("attempt", fmt.Sprintf("%d/%d", result.Attempts, maxAttempts))
		if photo.URL == "" {
			attemptLog.Warn("No URL found in photo data")
			return models.Delivery{}, models.ErrMissingURL
		}

		caption, err := o.buildCaption(photo)
		if err != nil {
			return models.Delivery{}, backoff.Permanent(err)
		}

		attemptLog.WithField("author", photo.DisplayAuthor()).Info("Selected photo")
		delivery, err := o.deliverer.Deliver(ctx, photo.URL, caption, receiver)
		if err != nil {
			var cfgErr *models.ConfigError
			if errors.As(err, &cfgErr) {
				return models.Delivery{}, backoff.Permanent(err)
			}
			return models.Delivery{}, err
		}

		result.Photo = photo
		return delivery, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(o.backOff(), uint64(maxAttempts-1)), ctx)
	delivery, err := backoff.RetryNotifyWithData(attempt, policy, func(err error, wait time.Duration) {
		logger.WithError(err).Warnf("Attempt %d/%d failed, trying another photo", result.Attempts, maxAttempts)
	})
	if err != nil {
		var cfgErr *models.ConfigError
		if errors.As(err, &cfgErr) || ctx.Err() != nil {
			return result, err
		}
		logger.Errorf("Failed to send any photo after %d attempts", result.Attempts)
		return result, fmt.Errorf("%w after %d attempts: %w", models.ErrAttemptsExhausted, result.Attempts, err)
	}

	result.Delivery = delivery
	metrics.LastSuccess.SetToCurrentTime()
	logger.WithFields(log.Fields{
		"attempts":   result.Attempts,
		"method":     delivery.Method,
		"message_id": delivery.MessageID,
	}).Info("Daily photo process completed successfully")
	return result, nil
}

func (o *Orchestrator) backOff() backoff.BackOff {
	if o.retryDelay > 0 {
		return backoff.NewConstantBackOff(o.retryDelay)
	}
	return &backoff.ZeroBackOff{}
}

func (o *Orchestrator) buildCaption(photo models.Photo) (string, error) {
	var buf bytes.Buffer
	data := models.Photo{URL: photo.URL, Author: photo.DisplayAuthor()}
	if err := o.caption.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build caption: %w", err)
	}
	return buf.String(), nil
}
