// Package photos fetches the photo feed, picks candidates from it and
// downloads images for the local upload fallback.
package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"photobot/models"

	"github.com/hashicorp/go-cleanhttp"
	log "github.com/sirupsen/logrus"
)

const userAgent = "photobot/1.0"

// Fetcher retrieves the photo feed from a fixed URL
type Fetcher struct {
	url    string
	client *http.Client
}

// NewFetcher creates a fetcher for url. A nil client falls back to a
// fresh cleanhttp client.
func NewFetcher(url string, client *http.Client) *Fetcher {
	if client == nil {
		client = cleanhttp.DefaultClient()
	}
	return &Fetcher{url: url, client: client}
}

// Fetch downloads and decodes the feed. It is never retried.
func (f *Fetcher) Fetch(ctx context.Context) (models.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &models.FetchError{URL: f.url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.FetchError{URL: f.url, StatusCode: resp.StatusCode}
	}

	var entries []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &models.FetchError{URL: f.url, Err: fmt.Errorf("decode feed: %w", err)}
	}

	feed := make(models.Feed, 0, len(entries))
	malformed := 0
	for _, entry := range entries {
		photo, ok := decodePhoto(entry)
		if !ok {
			malformed++
		}
		feed = append(feed, photo)
	}

	logger := log.WithFields(log.Fields{
		"url":     f.url,
		"entries": len(feed),
	})
	if malformed > 0 {
		logger = logger.WithField("malformed", malformed)
	}
	logger.Info("Fetched photo feed")

	return feed, nil
}

// decodePhoto reads a single feed entry. Entries that are not objects, or
// whose fields have the wrong type, keep their slot in the feed with the
// bad fields left empty, so they fail their attempt instead of the run.
func decodePhoto(entry json.RawMessage) (models.Photo, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return models.Photo{}, false
	}

	url, urlOK := stringField(fields, "url")
	author, authorOK := stringField(fields, "author")
	return models.Photo{URL: url, Author: author}, urlOK && authorOK
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
