// Package metrics holds the counters of a single run. A run is a batch job,
// so instead of being scraped the metrics are pushed to a Prometheus
// Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var Registry = prometheus.NewRegistry()

var (
	FeedEntries = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "photobot_feed_entries",
		Help: "Number of entries in the fetched photo feed",
	})

	FetchErrors = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "photobot_feed_fetch_errors_total",
		Help: "The total number of failed feed fetches",
	})

	DeliveryAttempts = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "photobot_delivery_attempts_total",
		Help: "The total number of photos a delivery was attempted for",
	})

	Sends = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "photobot_sends_total",
		Help: "Send calls to the messaging API by method and outcome",
	}, []string{"method", "status"})

	DownloadErrors = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "photobot_download_errors_total",
		Help: "The total number of failed fallback downloads",
	})

	RunDuration = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "photobot_run_duration_seconds",
		Help: "Duration of the last run",
	})

	LastSuccess = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "photobot_last_success_timestamp_seconds",
		Help: "Unix time of the last run that delivered a photo",
	})
)

// Push sends every metric in Registry to the Pushgateway at url under job
func Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
